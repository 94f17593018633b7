package handlers

import (
	"encoding/json"
	"io"
	"net/http"

	"family-tree-backend/internal/models"
	"family-tree-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// PhotoHandler handles photo HTTP requests
type PhotoHandler struct {
	photoService *services.PhotoService
	maxUploadMB  int64
}

// NewPhotoHandler creates a new photo handler
func NewPhotoHandler(photoService *services.PhotoService, maxUploadMB int64) *PhotoHandler {
	return &PhotoHandler{
		photoService: photoService,
		maxUploadMB:  maxUploadMB,
	}
}

// List handles GET /api/photos, degrading to an empty list on failure
func (h *PhotoHandler) List(w http.ResponseWriter, r *http.Request) {
	photos, err := h.photoService.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list photos")
		respondJSON(w, http.StatusOK, []*models.FamilyPhoto{})
		return
	}
	if photos == nil {
		photos = []*models.FamilyPhoto{}
	}
	respondJSON(w, http.StatusOK, photos)
}

// Upload handles POST /api/photos: multipart file plus JSON-encoded tag fields
func (h *PhotoHandler) Upload(w http.ResponseWriter, r *http.Request) {
	maxBytes := h.maxUploadMB << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		respondError(w, "Upload too large or malformed", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		respondError(w, "No file uploaded", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondError(w, "Failed to read uploaded file", http.StatusBadRequest)
		return
	}

	in := &services.UploadPhotoInput{
		Data:        data,
		ContentType: header.Header.Get("Content-Type"),
		Title:       r.FormValue("title"),
	}
	if raw := r.FormValue("taggedMemberIds"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.TaggedMemberIDs); err != nil {
			respondError(w, "taggedMemberIds must be a JSON array", http.StatusBadRequest)
			return
		}
	}
	if raw := r.FormValue("customTags"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &in.CustomTags); err != nil {
			respondError(w, "customTags must be a JSON array", http.StatusBadRequest)
			return
		}
	}
	if memberID := r.FormValue("memberId"); memberID != "" {
		in.MemberID = &memberID
	}

	photo, err := h.photoService.Upload(r.Context(), in)
	if err != nil {
		log.Error().Err(err).Msg("Failed to upload photo")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("photo_id", photo.ID).Str("title", photo.Title).Msg("Photo uploaded")
	respondJSON(w, http.StatusCreated, photo)
}

// Update handles PUT /api/photos/{id}
func (h *PhotoHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch models.FamilyPhotoPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	photo, err := h.photoService.Update(r.Context(), id, &patch)
	if err != nil {
		log.Error().Err(err).Str("photo_id", id).Msg("Failed to update photo")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, photo)
}

// Delete handles DELETE /api/photos/{id}
func (h *PhotoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.photoService.Delete(r.Context(), id); err != nil {
		log.Error().Err(err).Str("photo_id", id).Msg("Failed to delete photo")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("photo_id", id).Msg("Photo deleted")
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Photo deleted",
	})
}
