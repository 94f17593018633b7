package handlers

import (
	"net/http"

	"family-tree-backend/internal/middleware"
	"family-tree-backend/internal/models"
	"family-tree-backend/internal/services"
)

// SessionHandler resolves a page load's credentials into a capability.
type SessionHandler struct {
	accessService *services.AccessService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(accessService *services.AccessService) *SessionHandler {
	return &SessionHandler{
		accessService: accessService,
	}
}

// SessionResponse tells the client what the session may do.
type SessionResponse struct {
	Capability models.Capability `json:"capability"`
	Role       models.ShareRole  `json:"role,omitempty"`
}

// Resolve handles POST /api/session. This is the once-per-page-load
// resolution: a successful share-token match increments the link's access
// counter exactly once; re-rendered views reuse the response instead of
// calling again. No access yields 404 so the page can render its
// access-denied state.
func (h *SessionHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	cap, link := h.accessService.ResolveSession(r.Context(), middleware.OwnerJWT(r), middleware.ShareToken(r))
	if !cap.CanView() {
		respondError(w, "This family tree is private. You need a valid share link to access it.", http.StatusNotFound)
		return
	}

	resp := SessionResponse{Capability: cap}
	if link != nil {
		resp.Role = link.Role
	}
	respondJSON(w, http.StatusOK, resp)
}
