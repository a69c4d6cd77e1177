package handlers

import (
	"encoding/json"
	"net/http"

	"relate-backend/pkg/errors"

	"go.uber.org/zap"
)

// errorResponse is the wire shape of every error
type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}

// respondError maps the error taxonomy onto HTTP statuses. Structural
// violations are conflicts with current graph state, incomplete requests are
// the caller's fault, collaborator failures surface as bad gateway.
func respondError(w http.ResponseWriter, logger *zap.Logger, err error) {
	status := http.StatusInternalServerError
	errType := string(errors.ErrorTypeInternal)
	message := "internal error"

	if appErr, ok := err.(*errors.AppError); ok {
		errType = string(appErr.Type)
		message = appErr.Message
		switch appErr.Type {
		case errors.ErrorTypeStructural:
			status = http.StatusConflict
		case errors.ErrorTypeIncomplete:
			status = http.StatusBadRequest
		case errors.ErrorTypeNotFound:
			status = http.StatusNotFound
		case errors.ErrorTypeCollaborator:
			status = http.StatusBadGateway
		}
	}

	if status >= http.StatusInternalServerError {
		logger.Error("request failed", zap.Error(err))
	}
	respondJSON(w, status, errorResponse{Error: errType, Message: message})
}
