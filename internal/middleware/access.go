package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"family-tree-backend/internal/models"
	"family-tree-backend/internal/services"
)

type contextKey string

const capabilityKey contextKey = "capability"

// ShareTokenQueryParam is where the page puts the share token.
const ShareTokenQueryParam = "share"

// ShareTokenHeader lets API clients carry the token outside the URL.
const ShareTokenHeader = "X-Share-Token"

// ResolveCapability derives the request's capability from the owner JWT or a
// share token and stores it in the context. It never increments the share
// link's access counter; that happens once per page load through the session
// endpoint.
func ResolveCapability(access *services.AccessService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cap := access.Resolve(r.Context(), OwnerJWT(r), ShareToken(r))
			ctx := context.WithValue(r.Context(), capabilityKey, cap)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetCapability extracts the resolved capability from the context
func GetCapability(ctx context.Context) models.Capability {
	cap, ok := ctx.Value(capabilityKey).(models.Capability)
	if !ok {
		return models.CapabilityNone
	}
	return cap
}

// RequireView rejects requests without at least viewer access. An invalid or
// expired token is treated the same as no token: a full access-denied
// response, never a partial upgrade.
func RequireView(next http.Handler) http.Handler {
	return requireCapability(next, models.Capability.CanView,
		"This family tree is private. You need a valid share link to access it.")
}

// RequireEdit rejects requests without editor or owner access
func RequireEdit(next http.Handler) http.Handler {
	return requireCapability(next, models.Capability.CanEdit,
		"A view-only share link cannot modify the tree.")
}

// RequireOwner rejects requests without owner access; share-link management
// is never reachable through a share link itself.
func RequireOwner(next http.Handler) http.Handler {
	return requireCapability(next, func(c models.Capability) bool {
		return c == models.CapabilityOwner
	}, "Only the owner can manage share links.")
}

func requireCapability(next http.Handler, allowed func(models.Capability) bool, message string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !allowed(GetCapability(r.Context())) {
			respondAccessDenied(w, message)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// OwnerJWT extracts the bearer token from the Authorization header
func OwnerJWT(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	return parts[1]
}

// ShareToken extracts the share token from the query string or header
func ShareToken(r *http.Request) string {
	if token := r.URL.Query().Get(ShareTokenQueryParam); token != "" {
		return token
	}
	return r.Header.Get(ShareTokenHeader)
}

func respondAccessDenied(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusForbidden)
	json.NewEncoder(w).Encode(map[string]string{
		"error":  "Access denied",
		"detail": message,
	})
}
