package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"family-tree-backend/internal/models"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// photoStore is the slice of the photo repository the service needs.
type photoStore interface {
	List(ctx context.Context) ([]*models.FamilyPhoto, error)
	GetByID(ctx context.Context, id string) (*models.FamilyPhoto, error)
	Create(ctx context.Context, p *models.FamilyPhoto) error
	Update(ctx context.Context, id string, patch *models.FamilyPhotoPatch) (*models.FamilyPhoto, error)
	Delete(ctx context.Context, id string) error
}

// PhotoService handles photo business logic: binaries go to object storage,
// rows to the database.
type PhotoService struct {
	photos  photoStore
	storage objectStorage
	events  notifier
}

// NewPhotoService creates a new photo service
func NewPhotoService(photos photoStore, storage objectStorage, events notifier) *PhotoService {
	return &PhotoService{
		photos:  photos,
		storage: storage,
		events:  events,
	}
}

// UploadPhotoInput carries an uploaded photo file plus its metadata.
type UploadPhotoInput struct {
	Data            []byte
	ContentType     string
	Title           string
	TaggedMemberIDs []string
	CustomTags      []string
	MemberID        *string
}

// List returns all photos
func (s *PhotoService) List(ctx context.Context) ([]*models.FamilyPhoto, error) {
	return s.photos.List(ctx)
}

// Upload stores the binary and creates the photo row
func (s *PhotoService) Upload(ctx context.Context, in *UploadPhotoInput) (*models.FamilyPhoto, error) {
	if len(in.Data) == 0 {
		return nil, fmt.Errorf("%w: no file uploaded", ErrValidation)
	}

	title := in.Title
	if title == "" {
		title = "Untitled"
	}

	key := fmt.Sprintf("photos/%s.%s", uuid.New().String(), extFromContentType(in.ContentType))
	url, err := s.storage.Put(ctx, key, in.ContentType, in.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to store photo: %w", err)
	}

	photo := &models.FamilyPhoto{
		ID:              uuid.New().String(),
		URL:             url,
		Title:           title,
		TaggedMemberIDs: orEmpty(in.TaggedMemberIDs),
		CustomTags:      orEmpty(in.CustomTags),
		UploadDate:      time.Now(),
		MemberID:        in.MemberID,
		CreatedAt:       time.Now(),
	}
	if err := s.photos.Create(ctx, photo); err != nil {
		return nil, err
	}

	notify(s.events, EntityPhotos, photo.ID)
	return photo, nil
}

// Update applies a partial title/tag update
func (s *PhotoService) Update(ctx context.Context, id string, patch *models.FamilyPhotoPatch) (*models.FamilyPhoto, error) {
	photo, err := s.photos.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	notify(s.events, EntityPhotos, id)
	return photo, nil
}

// Delete removes the storage object and the row. A storage deletion failure
// is logged as a warning and the operation still succeeds: the user-visible
// effect is the row disappearing from lists.
func (s *PhotoService) Delete(ctx context.Context, id string) error {
	photo, err := s.photos.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if key, ok := s.storage.KeyFromURL(photo.URL); ok {
		if err := s.storage.Delete(ctx, key); err != nil {
			log.Warn().Err(err).Str("photo_id", id).Str("key", key).
				Msg("Failed to delete photo object from storage")
		}
	} else {
		log.Warn().Str("photo_id", id).Str("url", photo.URL).
			Msg("Could not derive storage key from photo URL")
	}

	if err := s.photos.Delete(ctx, id); err != nil {
		return err
	}
	notify(s.events, EntityPhotos, id)
	return nil
}

func extFromContentType(contentType string) string {
	if _, ext, ok := strings.Cut(contentType, "/"); ok && ext != "" {
		return ext
	}
	return "bin"
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
