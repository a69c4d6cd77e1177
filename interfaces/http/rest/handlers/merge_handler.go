package handlers

import (
	"encoding/json"
	"net/http"

	"relate-backend/application/services"
	"relate-backend/pkg/errors"
	"relate-backend/pkg/validation"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// MergeHandler handles merge submission and export HTTP requests
type MergeHandler struct {
	editor *services.EditorService
	logger *zap.Logger
}

// NewMergeHandler creates a new merge handler
func NewMergeHandler(editor *services.EditorService, logger *zap.Logger) *MergeHandler {
	return &MergeHandler{editor: editor, logger: logger}
}

// MergeSubmitRequest represents the request body for submitting a merge.
// How defaults to inner when omitted.
type MergeSubmitRequest struct {
	How            string                       `json:"how" validate:"omitempty,oneof=inner left right outer"`
	ColumnMappings map[string]map[string]string `json:"column_mappings,omitempty"`
}

// SubmitMerge handles POST /sessions/{sessionID}/merge
func (h *MergeHandler) SubmitMerge(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDParam(w, h.logger, r)
	if !ok {
		return
	}

	var req MergeSubmitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, h.logger, errors.NewIncomplete("invalid request body: "+err.Error()))
		return
	}
	if err := validation.ValidateStruct(req); err != nil {
		respondError(w, h.logger, errors.NewIncomplete("validation error: "+err.Error()))
		return
	}

	result, err := h.editor.Merge(r.Context(), sessionID, req.How, req.ColumnMappings)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, result)
}

// ExportMerge handles GET /sessions/{sessionID}/merge/{resultID}/export
func (h *MergeHandler) ExportMerge(w http.ResponseWriter, r *http.Request) {
	sessionID, ok := sessionIDParam(w, h.logger, r)
	if !ok {
		return
	}

	resultID := chi.URLParam(r, "resultID")
	if resultID == "" {
		respondError(w, h.logger, errors.NewIncomplete("result ID is required"))
		return
	}

	download, err := h.editor.Export(r.Context(), sessionID, resultID)
	if err != nil {
		respondError(w, h.logger, err)
		return
	}

	contentType := download.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	if download.Filename != "" {
		w.Header().Set("Content-Disposition", `attachment; filename="`+download.Filename+`"`)
	}
	w.WriteHeader(http.StatusOK)
	w.Write(download.Body)
}
