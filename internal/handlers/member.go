package handlers

import (
	"net/http"

	"family-tree-backend/internal/models"
	"family-tree-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// MemberHandler handles family-member HTTP requests
type MemberHandler struct {
	memberService *services.MemberService
}

// NewMemberHandler creates a new member handler
func NewMemberHandler(memberService *services.MemberService) *MemberHandler {
	return &MemberHandler{
		memberService: memberService,
	}
}

// List handles GET /api/members. A fetch failure degrades to an empty list
// so a transient backend outage never blocks read-only browsing.
func (h *MemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.memberService.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list members")
		respondJSON(w, http.StatusOK, []*models.FamilyMember{})
		return
	}
	if members == nil {
		members = []*models.FamilyMember{}
	}
	respondJSON(w, http.StatusOK, members)
}

// Get handles GET /api/members/{id}
func (h *MemberHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	member, err := h.memberService.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, member)
}

// Create handles POST /api/members
func (h *MemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req services.CreateMemberRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	member, err := h.memberService.Create(r.Context(), &req)
	if err != nil {
		log.Error().Err(err).Msg("Failed to create member")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("member_id", member.ID).Msg("Member created")
	respondJSON(w, http.StatusCreated, member)
}

// Update handles PUT /api/members/{id}
func (h *MemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var patch models.FamilyMemberPatch
	if err := decodeJSON(r, &patch); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	member, err := h.memberService.Update(r.Context(), id, &patch)
	if err != nil {
		log.Error().Err(err).Str("member_id", id).Msg("Failed to update member")
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, member)
}

// Delete handles DELETE /api/members/{id}
func (h *MemberHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := h.memberService.Delete(r.Context(), id); err != nil {
		log.Error().Err(err).Str("member_id", id).Msg("Failed to delete member")
		respondServiceError(w, err)
		return
	}

	log.Info().Str("member_id", id).Msg("Member deleted")
	respondJSON(w, http.StatusOK, map[string]any{
		"success": true,
		"message": "Member deleted",
	})
}
