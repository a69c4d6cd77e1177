package handlers

import (
	"encoding/json"
	"net/http"

	"relate-backend/application/services"
	"relate-backend/domain/core/valueobjects"
	"relate-backend/pkg/errors"
	"relate-backend/pkg/validation"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// RelationshipHandler handles the manual relationship form endpoints
type RelationshipHandler struct {
	editor *services.EditorService
	logger *zap.Logger
}

// NewRelationshipHandler creates a new relationship handler
func NewRelationshipHandler(editor *services.EditorService, logger *zap.Logger) *RelationshipHandler {
	return &RelationshipHandler{editor: editor, logger: logger}
}

// CreateRelationshipRequest represents the manual-form request body. All
// four fields must be present before the domain guards run.
type CreateRelationshipRequest struct {
	FromDataset string `json:"from_dataset" validate:"required"`
	FromColumn  string `json:"from_column" validate:"required"`
	ToDataset   string `json:"to_dataset" validate:"required"`
	ToColumn    string `json:"to_column" validate:"required"`
}

// CreateRelationship handles POST /sessions/{sessionID}/relationships
func (h *RelationshipHandler) CreateRelationship(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDParam(w, h.logger, r)
	if !ok {
		return
	}

	var req CreateRelationshipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, errors.NewIncomplete("invalid request body: "+err.Error()))
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		respondError(w, h.logger, errors.NewIncomplete("validation error: "+err.Error()))
		return
	}

	from := valueobjects.NewEndpoint(valueobjects.DatasetID(req.FromDataset), req.FromColumn)
	to := valueobjects.NewEndpoint(valueobjects.DatasetID(req.ToDataset), req.ToColumn)

	view, err := h.editor.AddRelationship(sessionID, from, to)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, view)
}

// DeleteRelationship handles DELETE /sessions/{sessionID}/relationships/{relationshipID}
func (h *RelationshipHandler) DeleteRelationship(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDParam(w, h.logger, r)
	if !ok {
		return
	}

	relationshipID := chi.URLParam(r, "relationshipID")
	if _, err := uuid.Parse(relationshipID); err != nil {
		respondError(w, h.logger, errors.NewIncomplete("invalid relationship ID format"))
		return
	}

	view, err := h.editor.RemoveRelationship(sessionID, relationshipID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
