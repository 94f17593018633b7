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

type fakeShareLinkStore struct {
	mu    sync.Mutex
	links map[string]*models.ShareLink
}

func newFakeShareLinkStore() *fakeShareLinkStore {
	return &fakeShareLinkStore{links: make(map[string]*models.ShareLink)}
}

func (f *fakeShareLinkStore) List(_ context.Context) ([]*models.ShareLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.ShareLink, 0, len(f.links))
	for _, l := range f.links {
		out = append(out, l)
	}
	return out, nil
}

func (f *fakeShareLinkStore) Create(_ context.Context, l *models.ShareLink) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.links[l.ID] = l
	return nil
}

func (f *fakeShareLinkStore) Update(_ context.Context, id string, patch *models.ShareLinkPatch) (*models.ShareLink, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	l, ok := f.links[id]
	if !ok {
		return nil, fmt.Errorf("share link %s: not found", id)
	}
	if patch.IsActive != nil {
		l.IsActive = *patch.IsActive
	}
	if patch.ExpiresAt != nil {
		l.ExpiresAt = patch.ExpiresAt
	}
	return l, nil
}

func (f *fakeShareLinkStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.links[id]; !ok {
		return fmt.Errorf("share link %s: not found", id)
	}
	delete(f.links, id)
	return nil
}

func TestCreateShareLinkMintsStrongToken(t *testing.T) {
	svc := NewShareLinkService(newFakeShareLinkStore(), nil)

	link, err := svc.Create(context.Background(), models.ShareRoleViewer, nil)
	require.NoError(t, err)
	assert.Len(t, link.Token, shareTokenBytes*2)
	assert.True(t, link.IsActive)
	assert.Equal(t, 0, link.AccessCount)
	assert.Nil(t, link.ExpiresAt)
}

func TestCreateShareLinkTokensUnique(t *testing.T) {
	svc := NewShareLinkService(newFakeShareLinkStore(), nil)

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		link, err := svc.Create(context.Background(), models.ShareRoleEditor, nil)
		require.NoError(t, err)
		assert.False(t, seen[link.Token])
		seen[link.Token] = true
	}
}

func TestCreateShareLinkRejectsUnknownRole(t *testing.T) {
	svc := NewShareLinkService(newFakeShareLinkStore(), nil)

	_, err := svc.Create(context.Background(), "admin", nil)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateShareLinkKeepsExpiry(t *testing.T) {
	svc := NewShareLinkService(newFakeShareLinkStore(), nil)

	expires := time.Now().Add(24 * time.Hour)
	link, err := svc.Create(context.Background(), models.ShareRoleViewer, &expires)
	require.NoError(t, err)
	require.NotNil(t, link.ExpiresAt)
	assert.True(t, link.ExpiresAt.Equal(expires))
}

func TestShareLinkDeactivation(t *testing.T) {
	store := newFakeShareLinkStore()
	events := &fakeNotifier{}
	svc := NewShareLinkService(store, events)

	link, err := svc.Create(context.Background(), models.ShareRoleViewer, nil)
	require.NoError(t, err)

	inactive := false
	updated, err := svc.Update(context.Background(), link.ID, &models.ShareLinkPatch{
		IsActive: &inactive,
	})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, []string{EntityShareLinks, EntityShareLinks}, events.entities())
}

func TestShareLinkRevocationDeniesNextResolve(t *testing.T) {
	store := newFakeShareLinkStore()
	svc := NewShareLinkService(store, nil)

	link, err := svc.Create(context.Background(), models.ShareRoleEditor, nil)
	require.NoError(t, err)

	resolver := newFakeLinkResolver(link)
	access := NewAccessService(resolver, "secret")
	assert.Equal(t, models.CapabilityEditor, access.Resolve(context.Background(), "", link.Token))

	require.NoError(t, svc.Delete(context.Background(), link.ID))
	delete(resolver.links, link.Token)
	assert.Equal(t, models.CapabilityNone, access.Resolve(context.Background(), "", link.Token))
}
