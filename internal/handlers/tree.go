package handlers

import (
	"net/http"

	"family-tree-backend/internal/models"
	"family-tree-backend/internal/services"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"
)

// TreeHandler serves the computed family-graph views.
type TreeHandler struct {
	memberService *services.MemberService
	treeService   *services.TreeService
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(memberService *services.MemberService, treeService *services.TreeService) *TreeHandler {
	return &TreeHandler{
		memberService: memberService,
		treeService:   treeService,
	}
}

// Get handles GET /api/tree: generations in ascending order, units with
// resolved parents and children. A member fetch failure degrades to an
// empty tree rather than an error.
func (h *TreeHandler) Get(w http.ResponseWriter, r *http.Request) {
	members, err := h.memberService.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load members for tree")
		respondJSON(w, http.StatusOK, []services.TreeGeneration{})
		return
	}

	tree := h.treeService.Build(members)
	if tree == nil {
		tree = []services.TreeGeneration{}
	}
	respondJSON(w, http.StatusOK, tree)
}

// Ancestors handles GET /api/members/{id}/ancestors
func (h *TreeHandler) Ancestors(w http.ResponseWriter, r *http.Request) {
	h.relatives(w, r, h.treeService.Ancestors)
}

// Descendants handles GET /api/members/{id}/descendants
func (h *TreeHandler) Descendants(w http.ResponseWriter, r *http.Request) {
	h.relatives(w, r, h.treeService.Descendants)
}

func (h *TreeHandler) relatives(w http.ResponseWriter, r *http.Request,
	compute func(members []*models.FamilyMember, id string) []*models.FamilyMember) {
	id := chi.URLParam(r, "id")

	members, err := h.memberService.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to load members for relatives")
		respondJSON(w, http.StatusOK, []*models.FamilyMember{})
		return
	}

	relatives := compute(members, id)
	if relatives == nil {
		relatives = []*models.FamilyMember{}
	}
	respondJSON(w, http.StatusOK, relatives)
}
