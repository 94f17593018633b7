package services

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"family-tree-backend/internal/models"

	"github.com/google/uuid"
)

const shareTokenBytes = 32

// shareLinkStore is the slice of the share-link repository the service needs.
type shareLinkStore interface {
	List(ctx context.Context) ([]*models.ShareLink, error)
	Create(ctx context.Context, l *models.ShareLink) error
	Update(ctx context.Context, id string, patch *models.ShareLinkPatch) (*models.ShareLink, error)
	Delete(ctx context.Context, id string) error
}

// ShareLinkService manages share links. Tokens are generated server side
// from a cryptographically strong source; clients never supply them.
type ShareLinkService struct {
	links  shareLinkStore
	events notifier
}

// NewShareLinkService creates a new share link service
func NewShareLinkService(links shareLinkStore, events notifier) *ShareLinkService {
	return &ShareLinkService{
		links:  links,
		events: events,
	}
}

// List returns all share links
func (s *ShareLinkService) List(ctx context.Context) ([]*models.ShareLink, error) {
	return s.links.List(ctx)
}

// Create mints a new share link for the given role
func (s *ShareLinkService) Create(ctx context.Context, role models.ShareRole, expiresAt *time.Time) (*models.ShareLink, error) {
	if !role.Valid() {
		return nil, fmt.Errorf("%w: role must be viewer or editor", ErrValidation)
	}

	token, err := generateShareToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate share token: %w", err)
	}

	link := &models.ShareLink{
		ID:          uuid.New().String(),
		Token:       token,
		Role:        role,
		IsActive:    true,
		AccessCount: 0,
		ExpiresAt:   expiresAt,
		CreatedAt:   time.Now(),
	}
	if err := s.links.Create(ctx, link); err != nil {
		return nil, err
	}
	notify(s.events, EntityShareLinks, link.ID)
	return link, nil
}

// Update applies a partial update, typically deactivation
func (s *ShareLinkService) Update(ctx context.Context, id string, patch *models.ShareLinkPatch) (*models.ShareLink, error) {
	link, err := s.links.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	notify(s.events, EntityShareLinks, id)
	return link, nil
}

// Delete revokes a share link immediately. Sessions already granted keep
// their capability until the next resolution.
func (s *ShareLinkService) Delete(ctx context.Context, id string) error {
	if err := s.links.Delete(ctx, id); err != nil {
		return err
	}
	notify(s.events, EntityShareLinks, id)
	return nil
}

func generateShareToken() (string, error) {
	buf := make([]byte, shareTokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
