package controller

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/Freeeeeet/slotswapper/internal/model"
	"github.com/Freeeeeet/slotswapper/internal/repository"
)

type createSwapRequest struct {
	RequesterSlotID int64  `json:"requesterSlotId"`
	TargetSlotID    int64  `json:"targetSlotId"`
	Message         string `json:"message"`
}

type updateSwapRequest struct {
	Status string `json:"status"`
}

type swapUserView struct {
	ID        int64  `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
}

type swapSlotView struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

type swapRequestView struct {
	ID            int64            `json:"id"`
	Status        model.SwapStatus `json:"status"`
	Message       string           `json:"message"`
	CreatedAt     time.Time        `json:"createdAt"`
	UpdatedAt     time.Time        `json:"updatedAt"`
	Requester     swapUserView     `json:"requester"`
	TargetUser    swapUserView     `json:"targetUser"`
	RequesterSlot swapSlotView     `json:"requesterSlot"`
	TargetSlot    swapSlotView     `json:"targetSlot"`
	IsIncoming    bool             `json:"isIncoming"`
	IsOutgoing    bool             `json:"isOutgoing"`
}

func (c *Controller) createSwapRequest(w http.ResponseWriter, r *http.Request) {
	var req createSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: true, Message: "Invalid request body"})
		return
	}

	if req.RequesterSlotID <= 0 || req.TargetSlotID <= 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: true, Message: "requesterSlotId and targetSlotId are required"})
		return
	}

	if len(req.Message) > model.MaxSwapMessageLen {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: true, Message: "message must be at most 500 characters"})
		return
	}

	userID := userIDFromContext(r.Context())

	swap, err := c.swaps.Propose(r.Context(), userID, req.RequesterSlotID, req.TargetSlotID, req.Message)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"message": "Swap request created successfully",
		"swapRequest": map[string]any{
			"id":     swap.ID,
			"status": swap.Status,
		},
	})
}

func (c *Controller) listSwapRequests(w http.ResponseWriter, r *http.Request) {
	userID := userIDFromContext(r.Context())

	direction := repository.SwapDirection(r.URL.Query().Get("type"))
	switch direction {
	case repository.SwapDirectionIncoming, repository.SwapDirectionOutgoing:
	default:
		direction = repository.SwapDirectionAll
	}

	swaps, err := c.swaps.List(r.Context(), userID, direction)
	if err != nil {
		writeError(w, c.logger, err)
		return
	}

	views := make([]swapRequestView, 0, len(swaps))
	for _, sr := range swaps {
		views = append(views, swapRequestView{
			ID:        sr.ID,
			Status:    sr.Status,
			Message:   sr.Message,
			CreatedAt: sr.CreatedAt,
			UpdatedAt: sr.UpdatedAt,
			Requester: swapUserView{
				ID:        sr.Requester.ID,
				FirstName: sr.Requester.FirstName,
				LastName:  sr.Requester.LastName,
				Email:     sr.Requester.Email,
			},
			TargetUser: swapUserView{
				ID:        sr.TargetUser.ID,
				FirstName: sr.TargetUser.FirstName,
				LastName:  sr.TargetUser.LastName,
				Email:     sr.TargetUser.Email,
			},
			RequesterSlot: swapSlotView{
				ID:        sr.RequesterSlot.ID,
				Title:     sr.RequesterSlot.Title,
				StartTime: sr.RequesterSlot.StartTime,
				EndTime:   sr.RequesterSlot.EndTime,
			},
			TargetSlot: swapSlotView{
				ID:        sr.TargetSlot.ID,
				Title:     sr.TargetSlot.Title,
				StartTime: sr.TargetSlot.StartTime,
				EndTime:   sr.TargetSlot.EndTime,
			},
			IsIncoming: sr.TargetUserID == userID,
			IsOutgoing: sr.RequesterID == userID,
		})
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"success":      true,
		"swapRequests": views,
	})
}

func (c *Controller) updateSwapRequest(w http.ResponseWriter, r *http.Request) {
	swapID, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: true, Message: "Invalid swap request id"})
		return
	}

	var req updateSwapRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: true, Message: "Invalid request body"})
		return
	}

	if !model.ValidSwapStatus(req.Status) {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: true, Message: "status must be approved, rejected or cancelled"})
		return
	}

	userID := userIDFromContext(r.Context())

	if err := c.swaps.Transition(r.Context(), swapID, userID, model.SwapStatus(req.Status)); err != nil {
		writeError(w, c.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse{
		Success: true,
		Message: "Swap request " + req.Status + " successfully",
	})
}
