package services

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"family-tree-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMemberStore struct {
	mu      sync.Mutex
	members map[string]*models.FamilyMember
	order   []string

	failPositions map[string]bool
}

func newFakeMemberStore(members ...*models.FamilyMember) *fakeMemberStore {
	f := &fakeMemberStore{
		members:       make(map[string]*models.FamilyMember),
		failPositions: make(map[string]bool),
	}
	for _, m := range members {
		f.members[m.ID] = m
		f.order = append(f.order, m.ID)
	}
	return f
}

func (f *fakeMemberStore) List(_ context.Context) ([]*models.FamilyMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*models.FamilyMember, 0, len(f.order))
	for _, id := range f.order {
		out = append(out, f.members[id])
	}
	return out, nil
}

func (f *fakeMemberStore) GetByID(_ context.Context, id string) (*models.FamilyMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[id]
	if !ok {
		return nil, fmt.Errorf("member %s: not found", id)
	}
	return m, nil
}

func (f *fakeMemberStore) Create(_ context.Context, m *models.FamilyMember) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.members[m.ID] = m
	f.order = append(f.order, m.ID)
	return nil
}

func (f *fakeMemberStore) Update(_ context.Context, id string, patch *models.FamilyMemberPatch) (*models.FamilyMember, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	m, ok := f.members[id]
	if !ok {
		return nil, fmt.Errorf("member %s: not found", id)
	}
	if patch.FirstName != nil {
		m.FirstName = *patch.FirstName
	}
	if patch.DateOfBirth != nil {
		m.DateOfBirth = patch.DateOfBirth
	}
	if patch.DateOfDeath != nil {
		m.DateOfDeath = patch.DateOfDeath
	}
	if patch.ProfilePicture != nil {
		m.ProfilePicture = patch.ProfilePicture
	}
	return m, nil
}

func (f *fakeMemberStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.members[id]; !ok {
		return fmt.Errorf("member %s: not found", id)
	}
	delete(f.members, id)
	return nil
}

func (f *fakeMemberStore) UpdatePosition(_ context.Context, id string, x, y float64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failPositions[id] {
		return fmt.Errorf("member %s: write failed", id)
	}
	m, ok := f.members[id]
	if !ok {
		return fmt.Errorf("member %s: not found", id)
	}
	m.PositionX = &x
	m.PositionY = &y
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeNotifier) Broadcast(entity, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, entity)
}

func (f *fakeNotifier) entities() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.events...)
}

func TestCreateMemberRequiresNames(t *testing.T) {
	svc := NewMemberService(newFakeMemberStore(), nil)

	_, err := svc.Create(context.Background(), &CreateMemberRequest{Surname: "Doe"})
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.Create(context.Background(), &CreateMemberRequest{FirstName: "  ", Surname: "Doe"})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateMemberDefaultsAlive(t *testing.T) {
	svc := NewMemberService(newFakeMemberStore(), nil)

	m, err := svc.Create(context.Background(), &CreateMemberRequest{
		FirstName: "Jane",
		Surname:   "Doe",
	})
	require.NoError(t, err)
	assert.True(t, m.IsAlive)
	assert.NotEmpty(t, m.ID)
}

func TestCreateMemberRejectsBadDateFormat(t *testing.T) {
	svc := NewMemberService(newFakeMemberStore(), nil)

	_, err := svc.Create(context.Background(), &CreateMemberRequest{
		FirstName:   "Jane",
		Surname:     "Doe",
		DateOfBirth: strPtr("01/02/1950"),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateMemberRejectsDeathBeforeBirth(t *testing.T) {
	svc := NewMemberService(newFakeMemberStore(), nil)

	_, err := svc.Create(context.Background(), &CreateMemberRequest{
		FirstName:   "Jane",
		Surname:     "Doe",
		DateOfBirth: strPtr("1950-06-01"),
		DateOfDeath: strPtr("1949-01-01"),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestCreateMemberKeepsAllFields(t *testing.T) {
	svc := NewMemberService(newFakeMemberStore(), nil)

	x, y := 120.0, 340.0
	m, err := svc.Create(context.Background(), &CreateMemberRequest{
		FirstName:   "Jane",
		Surname:     "Doe",
		DateOfBirth: strPtr("1950-06-01"),
		BirthPlace:  strPtr("Vilnius"),
		FatherID:    strPtr("father-id"),
		PositionX:   &x,
		PositionY:   &y,
		Notes:       strPtr("loved gardening"),
	})
	require.NoError(t, err)
	assert.Equal(t, "1950-06-01", *m.DateOfBirth)
	assert.Equal(t, "Vilnius", *m.BirthPlace)
	assert.Equal(t, "father-id", *m.FatherID)
	assert.Equal(t, 120.0, *m.PositionX)
	assert.Equal(t, 340.0, *m.PositionY)
}

func TestUpdateMemberRejectsEmptyName(t *testing.T) {
	store := newFakeMemberStore(member("m1", nil, nil, nil))
	svc := NewMemberService(store, nil)

	_, err := svc.Update(context.Background(), "m1", &models.FamilyMemberPatch{
		FirstName: strPtr(""),
	})
	assert.ErrorIs(t, err, ErrValidation)
}

func TestUpdateMemberCrossChecksStoredDates(t *testing.T) {
	existing := member("m1", nil, nil, nil)
	existing.DateOfBirth = strPtr("1950-06-01")
	store := newFakeMemberStore(existing)
	svc := NewMemberService(store, nil)

	// The patch only carries the death date; the stored birth date must
	// still reject it.
	_, err := svc.Update(context.Background(), "m1", &models.FamilyMemberPatch{
		DateOfDeath: strPtr("1949-01-01"),
	})
	assert.ErrorIs(t, err, ErrValidation)

	updated, err := svc.Update(context.Background(), "m1", &models.FamilyMemberPatch{
		DateOfDeath: strPtr("2000-01-01"),
	})
	require.NoError(t, err)
	assert.Equal(t, "2000-01-01", *updated.DateOfDeath)
}

func TestMemberMutationsBroadcast(t *testing.T) {
	store := newFakeMemberStore()
	events := &fakeNotifier{}
	svc := NewMemberService(store, events)

	m, err := svc.Create(context.Background(), &CreateMemberRequest{
		FirstName: "Jane",
		Surname:   "Doe",
	})
	require.NoError(t, err)

	_, err = svc.Update(context.Background(), m.ID, &models.FamilyMemberPatch{
		FirstName: strPtr("Janet"),
	})
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), m.ID))
	assert.Equal(t, []string{EntityMembers, EntityMembers, EntityMembers}, events.entities())
}

func TestDeleteMissingMemberFails(t *testing.T) {
	svc := NewMemberService(newFakeMemberStore(), nil)
	assert.Error(t, svc.Delete(context.Background(), "ghost"))
}
