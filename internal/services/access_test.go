package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"family-tree-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLinkResolver struct {
	mu         sync.Mutex
	links      map[string]*models.ShareLink
	increments map[string]int
}

func newFakeLinkResolver(links ...*models.ShareLink) *fakeLinkResolver {
	f := &fakeLinkResolver{
		links:      make(map[string]*models.ShareLink),
		increments: make(map[string]int),
	}
	for _, l := range links {
		f.links[l.Token] = l
	}
	return f
}

func (f *fakeLinkResolver) GetByToken(_ context.Context, token string) (*models.ShareLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[token]
	if !ok {
		return nil, fmt.Errorf("share link: not found")
	}
	return l, nil
}

func (f *fakeLinkResolver) IncrementAccessCount(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.increments[id]++
	return nil
}

func (f *fakeLinkResolver) incrementsFor(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.increments[id]
}

func viewerLink(id, token string) *models.ShareLink {
	return &models.ShareLink{
		ID:       id,
		Token:    token,
		Role:     models.ShareRoleViewer,
		IsActive: true,
	}
}

func TestOwnerJWTRoundTrip(t *testing.T) {
	svc := NewAccessService(newFakeLinkResolver(), "secret")

	token, err := svc.GenerateOwnerJWT("owner-1")
	require.NoError(t, err)

	ownerID, err := svc.ValidateOwnerJWT(token)
	require.NoError(t, err)
	assert.Equal(t, "owner-1", ownerID)

	cap := svc.Resolve(context.Background(), token, "")
	assert.Equal(t, models.CapabilityOwner, cap)
}

func TestOwnerJWTWrongSecretRejected(t *testing.T) {
	issuer := NewAccessService(newFakeLinkResolver(), "secret-a")
	verifier := NewAccessService(newFakeLinkResolver(), "secret-b")

	token, err := issuer.GenerateOwnerJWT("owner-1")
	require.NoError(t, err)

	_, err = verifier.ValidateOwnerJWT(token)
	assert.Error(t, err)
	assert.Equal(t, models.CapabilityNone, verifier.Resolve(context.Background(), token, ""))
}

func TestResolveShareToken(t *testing.T) {
	links := newFakeLinkResolver(viewerLink("l1", "tok-viewer"))
	svc := NewAccessService(links, "secret")

	assert.Equal(t, models.CapabilityViewer, svc.Resolve(context.Background(), "", "tok-viewer"))
	assert.Equal(t, models.CapabilityNone, svc.Resolve(context.Background(), "", "tok-unknown"))
	assert.Equal(t, models.CapabilityNone, svc.Resolve(context.Background(), "", ""))
}

func TestResolveRejectsInactiveLink(t *testing.T) {
	link := viewerLink("l1", "tok")
	link.IsActive = false
	svc := NewAccessService(newFakeLinkResolver(link), "secret")

	assert.Equal(t, models.CapabilityNone, svc.Resolve(context.Background(), "", "tok"))
}

func TestResolveRejectsExpiredLink(t *testing.T) {
	link := viewerLink("l1", "tok")
	past := time.Now().Add(-time.Hour)
	link.ExpiresAt = &past
	svc := NewAccessService(newFakeLinkResolver(link), "secret")

	assert.Equal(t, models.CapabilityNone, svc.Resolve(context.Background(), "", "tok"))
}

func TestResolveRejectsUnknownRole(t *testing.T) {
	link := viewerLink("l1", "tok")
	link.Role = "admin"
	svc := NewAccessService(newFakeLinkResolver(link), "secret")

	assert.Equal(t, models.CapabilityNone, svc.Resolve(context.Background(), "", "tok"))
}

func TestResolveEditorLink(t *testing.T) {
	link := viewerLink("l1", "tok")
	link.Role = models.ShareRoleEditor
	svc := NewAccessService(newFakeLinkResolver(link), "secret")

	cap := svc.Resolve(context.Background(), "", "tok")
	assert.Equal(t, models.CapabilityEditor, cap)
	assert.True(t, cap.CanEdit())
}

func TestResolveNeverIncrements(t *testing.T) {
	links := newFakeLinkResolver(viewerLink("l1", "tok"))
	svc := NewAccessService(links, "secret")

	for i := 0; i < 5; i++ {
		svc.Resolve(context.Background(), "", "tok")
	}
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, links.incrementsFor("l1"))
}

func TestResolveSessionIncrementsOnce(t *testing.T) {
	links := newFakeLinkResolver(viewerLink("l1", "tok"))
	svc := NewAccessService(links, "secret")

	cap, link := svc.ResolveSession(context.Background(), "", "tok")
	assert.Equal(t, models.CapabilityViewer, cap)
	require.NotNil(t, link)
	assert.Equal(t, "l1", link.ID)

	assert.Eventually(t, func() bool {
		return links.incrementsFor("l1") == 1
	}, time.Second, 10*time.Millisecond)
}

func TestResolveSessionOwnerSkipsLinkLookup(t *testing.T) {
	links := newFakeLinkResolver(viewerLink("l1", "tok"))
	svc := NewAccessService(links, "secret")

	token, err := svc.GenerateOwnerJWT("owner-1")
	require.NoError(t, err)

	cap, link := svc.ResolveSession(context.Background(), token, "tok")
	assert.Equal(t, models.CapabilityOwner, cap)
	assert.Nil(t, link)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, links.incrementsFor("l1"))
}
