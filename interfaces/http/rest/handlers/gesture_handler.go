package handlers

import (
	"encoding/json"
	"net/http"

	"relate-backend/application/services"
	"relate-backend/domain/core/valueobjects"
	"relate-backend/pkg/errors"
	"relate-backend/pkg/validation"

	"go.uber.org/zap"
)

// GestureHandler handles pointer and column-click gesture HTTP requests.
// Each gesture endpoint applies one transition of the drag or link machine
// and returns the freshly rendered diagram.
type GestureHandler struct {
	editor *services.EditorService
	logger *zap.Logger
}

// NewGestureHandler creates a new gesture handler
func NewGestureHandler(editor *services.EditorService, logger *zap.Logger) *GestureHandler {
	return &GestureHandler{editor: editor, logger: logger}
}

// PointerDownRequest represents a pointer-down on a dataset box
type PointerDownRequest struct {
	DatasetID string  `json:"dataset_id" validate:"required"`
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
}

// PointerDown handles POST /sessions/{sessionID}/gestures/pointer-down
func (h *GestureHandler) PointerDown(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDParam(w, h.logger, r)
	if !ok {
		return
	}

	var req PointerDownRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, errors.NewIncomplete("invalid request body: "+err.Error()))
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		respondError(w, h.logger, errors.NewIncomplete("validation error: "+err.Error()))
		return
	}

	view, err := h.editor.PointerDown(sessionID, valueobjects.DatasetID(req.DatasetID), req.X, req.Y)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// PointerMoveRequest represents a pointer-move while dragging
type PointerMoveRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// PointerMove handles POST /sessions/{sessionID}/gestures/pointer-move
func (h *GestureHandler) PointerMove(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDParam(w, h.logger, r)
	if !ok {
		return
	}

	var req PointerMoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, errors.NewIncomplete("invalid request body: "+err.Error()))
		return
	}

	view, err := h.editor.PointerMove(sessionID, req.X, req.Y)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// PointerUp handles POST /sessions/{sessionID}/gestures/pointer-up
func (h *GestureHandler) PointerUp(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDParam(w, h.logger, r)
	if !ok {
		return
	}

	view, err := h.editor.PointerUp(sessionID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// ClickColumnRequest represents a click on a column row
type ClickColumnRequest struct {
	DatasetID string `json:"dataset_id" validate:"required"`
	Column    string `json:"column" validate:"required"`
}

// ClickColumnResponse reports the gesture outcome alongside the diagram
type ClickColumnResponse struct {
	Outcome string                `json:"outcome"`
	Notice  string                `json:"notice,omitempty"`
	Diagram *services.DiagramView `json:"diagram"`
}

// ClickColumn handles POST /sessions/{sessionID}/gestures/click-column
func (h *GestureHandler) ClickColumn(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDParam(w, h.logger, r)
	if !ok {
		return
	}

	var req ClickColumnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, errors.NewIncomplete("invalid request body: "+err.Error()))
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		respondError(w, h.logger, errors.NewIncomplete("validation error: "+err.Error()))
		return
	}

	result, view, err := h.editor.ClickColumn(sessionID, valueobjects.DatasetID(req.DatasetID), req.Column)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, ClickColumnResponse{
		Outcome: string(result.Outcome),
		Notice:  result.Notice,
		Diagram: view,
	})
}
