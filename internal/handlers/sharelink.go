package handlers

import (
	"net/http"
	"time"

	"family-tree-backend/internal/models"
	"family-tree-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// ShareLinkHandler handles share-link management. All routes behind it are
// owner only.
type ShareLinkHandler struct {
	shareLinkService *services.ShareLinkService
}

// NewShareLinkHandler creates a new share link handler
func NewShareLinkHandler(shareLinkService *services.ShareLinkService) *ShareLinkHandler {
	return &ShareLinkHandler{
		shareLinkService: shareLinkService,
	}
}

// CreateShareLinkRequest is the payload for minting a link.
type CreateShareLinkRequest struct {
	Role      models.ShareRole `json:"role"`
	ExpiresAt *time.Time       `json:"expiresAt"`
}

// List handles GET /api/share-links, degrading to an empty list on failure
func (h *ShareLinkHandler) List(w http.ResponseWriter, r *http.Request) {
	links, err := h.shareLinkService.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list share links")
		respondJSON(w, http.StatusOK, []*models.ShareLink{})
		return
	}
	if links == nil {
		links = []*models.ShareLink{}
	}
	respondJSON(w, http.StatusOK, links)
}

// Create handles POST /api/share-links. The token is generated server side.
func (h *ShareLinkHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateShareLinkRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	link, err := h.shareLinkService.Create(r.Context(), req.Role, req.ExpiresAt)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create share link")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("share_link_id", link.ID).Str("role", string(link.Role)).Msg("Share link created")
	respondJSON(w, http.StatusCreated, link)
}

// Update handles PUT /api/share-links/{id}
func (h *ShareLinkHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch models.ShareLinkPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	link, err := h.shareLinkService.Update(r.Context(), id, &patch)
	if err != nil {
		log.Error().Err(err).Str("share_link_id", id).Msg("Failed to update share link")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, link)
}

// Delete handles DELETE /api/share-links/{id}
func (h *ShareLinkHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.shareLinkService.Delete(r.Context(), id); err != nil {
		log.Error().Err(err).Str("share_link_id", id).Msg("Failed to delete share link")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("share_link_id", id).Msg("Share link revoked")
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Share link deleted",
	})
}
