package handlers

import (
	"encoding/json"
	"net/http"

	"relate-backend/application/ports"
	"relate-backend/application/services"
	"relate-backend/domain/core/aggregates"
	"relate-backend/pkg/errors"
	"relate-backend/pkg/validation"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SessionHandler handles session lifecycle and canvas HTTP requests
type SessionHandler struct {
	editor *services.EditorService
	logger *zap.Logger
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(editor *services.EditorService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{editor: editor, logger: logger}
}

// CreateSessionRequest represents the request body for opening a session
type CreateSessionRequest struct {
	DashboardID string `json:"dashboard_id" validate:"required"`
}

// CreateSession handles POST /sessions
func (h *SessionHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, errors.NewIncomplete("invalid request body: "+err.Error()))
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		respondError(w, h.logger, errors.NewIncomplete("validation error: "+err.Error()))
		return
	}

	view, err := h.editor.CreateSession(r.Context(), req.DashboardID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

// GetDiagram handles GET /sessions/{sessionID}/diagram
func (h *SessionHandler) GetDiagram(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDParam(w, h.logger, r)
	if !ok {
		return
	}

	view, err := h.editor.Diagram(sessionID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// ResizeRequest represents the request body for a canvas resize
type ResizeRequest struct {
	Width  float64 `json:"width" validate:"required,gt=0"`
	Height float64 `json:"height" validate:"required,gt=0"`
}

// Resize handles POST /sessions/{sessionID}/resize
func (h *SessionHandler) Resize(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDParam(w, h.logger, r)
	if !ok {
		return
	}

	var req ResizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, errors.NewIncomplete("invalid request body: "+err.Error()))
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		respondError(w, h.logger, errors.NewIncomplete("validation error: "+err.Error()))
		return
	}

	view, err := h.editor.Resize(sessionID, req.Width, req.Height)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// CleanRequest represents the request body for a cleaning run, keyed by
// dataset ID.
type CleanRequest struct {
	Options map[string]ports.CleanOptions `json:"options" validate:"required,min=1,dive"`
}

// CleanResponse carries the cleaning logs and the refreshed diagram
type CleanResponse struct {
	Logs       map[string][]ports.CleanLogEntry `json:"logs"`
	Pruned     int                              `json:"pruned_relationships"`
	Superseded bool                             `json:"superseded"`
	Diagram    *services.DiagramView            `json:"diagram"`
}

// Clean handles POST /sessions/{sessionID}/clean
func (h *SessionHandler) Clean(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDParam(w, h.logger, r)
	if !ok {
		return
	}

	var req CleanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, errors.NewIncomplete("invalid request body: "+err.Error()))
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		respondError(w, h.logger, errors.NewIncomplete("validation error: "+err.Error()))
		return
	}

	outcome, view, err := h.editor.Clean(r.Context(), sessionID, req.Options)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, CleanResponse{
		Logs:       outcome.Logs,
		Pruned:     outcome.PrunedCount,
		Superseded: outcome.Superseded,
		Diagram:    view,
	})
}

// sessionIDParam extracts and validates the session ID path parameter
func sessionIDParam(w http.ResponseWriter, logger *zap.Logger, r *http.Request) (aggregates.SessionID, bool) {
	raw := chi.URLParam(r, "sessionID")
	if _, err := uuid.Parse(raw); err != nil {
		respondError(w, logger, errors.NewIncomplete("invalid session ID format"))
		return "", false
	}
	return aggregates.SessionID(raw), true
}
