package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"family-tree-backend/internal/models"
	"family-tree-backend/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticLinks struct {
	link *models.ShareLink
}

func (s *staticLinks) GetByToken(_ context.Context, token string) (*models.ShareLink, error) {
	if s.link != nil && s.link.Token == token {
		return s.link, nil
	}
	return nil, assert.AnError
}

func (s *staticLinks) IncrementAccessCount(_ context.Context, _ string) error {
	return nil
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func resolveThrough(t *testing.T, access *services.AccessService, target string, header http.Header, next http.Handler) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	rec := httptest.NewRecorder()
	ResolveCapability(access)(next).ServeHTTP(rec, req)
	return rec
}

func TestResolveCapabilityFromQueryToken(t *testing.T) {
	links := &staticLinks{link: &models.ShareLink{
		ID: "l1", Token: "tok", Role: models.ShareRoleViewer, IsActive: true,
	}}
	access := services.NewAccessService(links, "secret")

	var got models.Capability
	rec := resolveThrough(t, access, "/api/members?share=tok", nil,
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = GetCapability(r.Context())
		}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.CapabilityViewer, got)
}

func TestResolveCapabilityFromHeaderToken(t *testing.T) {
	links := &staticLinks{link: &models.ShareLink{
		ID: "l1", Token: "tok", Role: models.ShareRoleEditor, IsActive: true,
	}}
	access := services.NewAccessService(links, "secret")

	var got models.Capability
	header := http.Header{}
	header.Set(ShareTokenHeader, "tok")
	resolveThrough(t, access, "/api/members", header,
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got = GetCapability(r.Context())
		}))
	assert.Equal(t, models.CapabilityEditor, got)
}

func TestRequireViewRejectsAnonymous(t *testing.T) {
	access := services.NewAccessService(&staticLinks{}, "secret")

	rec := resolveThrough(t, access, "/api/members", nil, RequireView(okHandler()))
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Contains(t, rec.Body.String(), "Access denied")
}

func TestRequireViewRejectsInvalidToken(t *testing.T) {
	access := services.NewAccessService(&staticLinks{}, "secret")

	rec := resolveThrough(t, access, "/api/members?share=bogus", nil, RequireView(okHandler()))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireEditRejectsViewer(t *testing.T) {
	links := &staticLinks{link: &models.ShareLink{
		ID: "l1", Token: "tok", Role: models.ShareRoleViewer, IsActive: true,
	}}
	access := services.NewAccessService(links, "secret")

	rec := resolveThrough(t, access, "/api/members?share=tok", nil, RequireEdit(okHandler()))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireEditAllowsEditor(t *testing.T) {
	links := &staticLinks{link: &models.ShareLink{
		ID: "l1", Token: "tok", Role: models.ShareRoleEditor, IsActive: true,
	}}
	access := services.NewAccessService(links, "secret")

	rec := resolveThrough(t, access, "/api/members?share=tok", nil, RequireEdit(okHandler()))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRequireOwnerRejectsEditorLink(t *testing.T) {
	links := &staticLinks{link: &models.ShareLink{
		ID: "l1", Token: "tok", Role: models.ShareRoleEditor, IsActive: true,
	}}
	access := services.NewAccessService(links, "secret")

	rec := resolveThrough(t, access, "/api/share-links?share=tok", nil, RequireOwner(okHandler()))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestRequireOwnerAllowsJWT(t *testing.T) {
	access := services.NewAccessService(&staticLinks{}, "secret")
	token, err := access.GenerateOwnerJWT("owner-1")
	require.NoError(t, err)

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)
	rec := resolveThrough(t, access, "/api/share-links", header, RequireOwner(okHandler()))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestOwnerJWTHeaderParsing(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	assert.Empty(t, OwnerJWT(req))

	req.Header.Set("Authorization", "Bearer abc")
	assert.Equal(t, "abc", OwnerJWT(req))

	req.Header.Set("Authorization", "Basic abc")
	assert.Empty(t, OwnerJWT(req))
}
