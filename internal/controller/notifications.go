package controller

import (
	"net/http"
	"strconv"

	"github.com/Freeeeeet/slotswapper/internal/model"
)

func (c *Controller) listNotifications(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Error: true, Message: "Invalid limit"})
			return
		}
		limit = parsed
	}

	notifications, err := c.notifications.List(r.Context(), userID, limit)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	if notifications == nil {
		notifications = []*model.Notification{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":       true,
		"notifications": notifications,
	})
}

func (c *Controller) markNotificationRead(w http.ResponseWriter, r *http.Request) {
	notificationID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: true, Message: "Invalid notification id"})
		return
	}

	userID := userIDFromContext(r.Context())

	if err := c.notifications.MarkRead(r.Context(), notificationID, userID); err != nil {
		writeError(w, c.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "Notification marked as read"})
}

func (c *Controller) markAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	if err := c.notifications.MarkAllRead(r.Context(), userID); err != nil {
		writeError(w, c.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{Success: true, Message: "All notifications marked as read"})
}
