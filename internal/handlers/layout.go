package handlers

import (
	"context"
	"net/http"
	"time"

	"family-tree-backend/internal/models"
	"family-tree-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// treeLayoutStore is the raw record access the /tree-layouts routes need.
type treeLayoutStore interface {
	List(ctx context.Context) ([]*models.TreeLayout, error)
	Create(ctx context.Context, l *models.TreeLayout) error
	Update(ctx context.Context, id string, lines []models.CustomLine) (*models.TreeLayout, error)
	Delete(ctx context.Context, id string) error
}

// LayoutHandler serves the merged layout view and the raw layout records.
type LayoutHandler struct {
	layoutService *services.LayoutService
	layouts       treeLayoutStore
}

// NewLayoutHandler creates a new layout handler
func NewLayoutHandler(layoutService *services.LayoutService, layouts treeLayoutStore) *LayoutHandler {
	return &LayoutHandler{
		layoutService: layoutService,
		layouts:       layouts,
	}
}

// GetMerged handles GET /api/layout: per-member positions (with fallback
// grid slots) merged with the custom-line overlay.
func (h *LayoutHandler) GetMerged(w http.ResponseWriter, r *http.Request) {
	view, err := h.layoutService.Load(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load layout")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Save handles PUT /api/layout. Position writes are independent; failures
// are reported in the response without aborting the remaining writes.
func (h *LayoutHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req services.SaveLayoutRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	result, err := h.layoutService.Save(r.Context(), &req)
	if err != nil {
		log.Error().Err(err).Msg("Failed to save layout")
		respondServiceError(w, err)
		return
	}

	if len(result.FailedPositions) > 0 {
		log.Warn().Strs("member_ids", result.FailedPositions).Msg("Some member positions failed to save")
	}
	respondJSON(w, http.StatusOK, result)
}

// layoutRecordRequest is the payload for the raw record routes.
type layoutRecordRequest struct {
	CustomLines []models.CustomLine `json:"customLines"`
}

// ListRecords handles GET /api/tree-layouts, degrading to an empty list on
// failure. The first record is the active layout.
func (h *LayoutHandler) ListRecords(w http.ResponseWriter, r *http.Request) {
	layouts, err := h.layouts.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list tree layouts")
		respondJSON(w, http.StatusOK, []*models.TreeLayout{})
		return
	}
	if layouts == nil {
		layouts = []*models.TreeLayout{}
	}
	respondJSON(w, http.StatusOK, layouts)
}

// CreateRecord handles POST /api/tree-layouts
func (h *LayoutHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req layoutRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	lines := req.CustomLines
	if lines == nil {
		lines = []models.CustomLine{}
	}
	layout := &models.TreeLayout{
		ID:          uuid.New().String(),
		CustomLines: lines,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	if err := h.layouts.Create(r.Context(), layout); err != nil {
		log.Error().Err(err).Msg("Failed to create tree layout")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, layout)
}

// UpdateRecord handles PUT /api/tree-layouts/{id}
func (h *LayoutHandler) UpdateRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req layoutRecordRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	layout, err := h.layouts.Update(r.Context(), id, req.CustomLines)
	if err != nil {
		log.Error().Err(err).Str("layout_id", id).Msg("Failed to update tree layout")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, layout)
}

// DeleteRecord handles DELETE /api/tree-layouts/{id}
func (h *LayoutHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.layouts.Delete(r.Context(), id); err != nil {
		log.Error().Err(err).Str("layout_id", id).Msg("Failed to delete tree layout")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Tree layout deleted",
	})
}
