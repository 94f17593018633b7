package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"

	"family-tree-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePhotoStore struct {
	mu     sync.Mutex
	photos map[string]*models.FamilyPhoto
}

func newFakePhotoStore() *fakePhotoStore {
	return &fakePhotoStore{photos: make(map[string]*models.FamilyPhoto)}
}

func (f *fakePhotoStore) List(_ context.Context) ([]*models.FamilyPhoto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.FamilyPhoto, 0, len(f.photos))
	for _, p := range f.photos {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakePhotoStore) GetByID(_ context.Context, id string) (*models.FamilyPhoto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.photos[id]
	if !ok {
		return nil, fmt.Errorf("photo %s: not found", id)
	}
	return p, nil
}

func (f *fakePhotoStore) Create(_ context.Context, p *models.FamilyPhoto) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.photos[p.ID] = p
	return nil
}

func (f *fakePhotoStore) Update(_ context.Context, id string, patch *models.FamilyPhotoPatch) (*models.FamilyPhoto, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.photos[id]
	if !ok {
		return nil, fmt.Errorf("photo %s: not found", id)
	}
	if patch.Title != nil {
		p.Title = *patch.Title
	}
	if patch.TaggedMemberIDs != nil {
		p.TaggedMemberIDs = *patch.TaggedMemberIDs
	}
	if patch.CustomTags != nil {
		p.CustomTags = *patch.CustomTags
	}
	return p, nil
}

func (f *fakePhotoStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.photos[id]; !ok {
		return fmt.Errorf("photo %s: not found", id)
	}
	delete(f.photos, id)
	return nil
}

type fakeObjectStorage struct {
	mu         sync.Mutex
	objects    map[string][]byte
	failDelete bool
}

func newFakeObjectStorage() *fakeObjectStorage {
	return &fakeObjectStorage{objects: make(map[string][]byte)}
}

func (f *fakeObjectStorage) Put(_ context.Context, key, _ string, data []byte) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = data
	return "https://cdn.example.com/" + key, nil
}

func (f *fakeObjectStorage) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete {
		return fmt.Errorf("storage unavailable")
	}
	delete(f.objects, key)
	return nil
}

func (f *fakeObjectStorage) KeyFromURL(url string) (string, bool) {
	key, found := strings.CutPrefix(url, "https://cdn.example.com/")
	return key, found
}

func TestUploadPhotoStoresBinaryAndRow(t *testing.T) {
	store := newFakePhotoStore()
	storage := newFakeObjectStorage()
	svc := NewPhotoService(store, storage, nil)

	photo, err := svc.Upload(context.Background(), &UploadPhotoInput{
		Data:            []byte("jpeg-bytes"),
		ContentType:     "image/jpeg",
		Title:           "Summer 1987",
		TaggedMemberIDs: []string{"m1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Summer 1987", photo.Title)
	assert.True(t, strings.HasPrefix(photo.URL, "https://cdn.example.com/photos/"))
	assert.True(t, strings.HasSuffix(photo.URL, ".jpeg"))
	assert.Equal(t, []string{"m1"}, photo.TaggedMemberIDs)
	assert.Equal(t, []string{}, photo.CustomTags)
	assert.Len(t, storage.objects, 1)
}

func TestUploadPhotoDefaultsTitle(t *testing.T) {
	svc := NewPhotoService(newFakePhotoStore(), newFakeObjectStorage(), nil)

	photo, err := svc.Upload(context.Background(), &UploadPhotoInput{
		Data:        []byte("x"),
		ContentType: "image/png",
	})
	require.NoError(t, err)
	assert.Equal(t, "Untitled", photo.Title)
}

func TestUploadPhotoRejectsEmptyFile(t *testing.T) {
	svc := NewPhotoService(newFakePhotoStore(), newFakeObjectStorage(), nil)

	_, err := svc.Upload(context.Background(), &UploadPhotoInput{})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDeletePhotoSurvivesStorageFailure(t *testing.T) {
	store := newFakePhotoStore()
	storage := newFakeObjectStorage()
	svc := NewPhotoService(store, storage, nil)

	photo, err := svc.Upload(context.Background(), &UploadPhotoInput{
		Data:        []byte("x"),
		ContentType: "image/jpeg",
	})
	require.NoError(t, err)

	storage.failDelete = true
	require.NoError(t, svc.Delete(context.Background(), photo.ID))

	_, err = store.GetByID(context.Background(), photo.ID)
	assert.Error(t, err)
}

func TestDeletePhotoRemovesObject(t *testing.T) {
	store := newFakePhotoStore()
	storage := newFakeObjectStorage()
	svc := NewPhotoService(store, storage, nil)

	photo, err := svc.Upload(context.Background(), &UploadPhotoInput{
		Data:        []byte("x"),
		ContentType: "image/jpeg",
	})
	require.NoError(t, err)
	require.Len(t, storage.objects, 1)

	require.NoError(t, svc.Delete(context.Background(), photo.ID))
	assert.Empty(t, storage.objects)
}

func TestExtFromContentType(t *testing.T) {
	assert.Equal(t, "jpeg", extFromContentType("image/jpeg"))
	assert.Equal(t, "png", extFromContentType("image/png"))
	assert.Equal(t, "bin", extFromContentType(""))
	assert.Equal(t, "bin", extFromContentType("garbage"))
}
