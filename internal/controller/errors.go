package controller

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/Freeeeeet/slotswapper/internal/model"
	"go.uber.org/zap"
)

type errorResponse struct {
	Error   bool   `json:"error"`
	Message string `json:"message"`
}

type successResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// writeJSON пишет ответ в JSON
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// writeError мапит доменную ошибку на HTTP статус и стабильное сообщение.
// Внутренние ошибки наружу не протекают.
func writeError(w http.ResponseWriter, logger *zap.Logger, err error) {
	switch {
	case errors.Is(err, model.ErrInvalidSlot),
		errors.Is(err, model.ErrSelfSwap),
		errors.Is(err, model.ErrInvalidState),
		errors.Is(err, model.ErrStaleSlots):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: true, Message: err.Error()})

	case errors.Is(err, model.ErrDuplicatePending):
		writeJSON(w, http.StatusConflict, errorResponse{Error: true, Message: err.Error()})

	case errors.Is(err, model.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: true, Message: err.Error()})

	case errors.Is(err, model.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorResponse{Error: true, Message: err.Error()})

	case errors.Is(err, model.ErrAuthenticationFailed):
		writeJSON(w, http.StatusUnauthorized, errorResponse{Error: true, Message: "Authentication failed"})

	case errors.Is(err, model.ErrTransactionFailed):
		logger.Error("Swap transaction failed", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: true, Message: model.ErrTransactionFailed.Error()})

	default:
		logger.Error("Internal error", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: true, Message: "Internal server error"})
	}
}
