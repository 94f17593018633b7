package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"family-tree-backend/internal/models"

	"github.com/google/uuid"
)

// ErrValidation marks errors caught before any request is sent to the store.
var ErrValidation = errors.New("validation failed")

const dateLayout = "2006-01-02"

// memberStore is the slice of the member repository the service needs.
type memberStore interface {
	List(ctx context.Context) ([]*models.FamilyMember, error)
	GetByID(ctx context.Context, id string) (*models.FamilyMember, error)
	Create(ctx context.Context, m *models.FamilyMember) error
	Update(ctx context.Context, id string, patch *models.FamilyMemberPatch) (*models.FamilyMember, error)
	Delete(ctx context.Context, id string) error
}

// MemberService handles family-member business logic
type MemberService struct {
	members memberStore
	events  notifier
}

// NewMemberService creates a new member service
func NewMemberService(members memberStore, events notifier) *MemberService {
	return &MemberService{
		members: members,
		events:  events,
	}
}

// CreateMemberRequest is the payload for adding a member. IsAlive defaults
// to true when omitted.
type CreateMemberRequest struct {
	FirstName         string   `json:"firstName"`
	Surname           string   `json:"surname"`
	DateOfBirth       *string  `json:"dateOfBirth"`
	DateOfDeath       *string  `json:"dateOfDeath"`
	IsAlive           *bool    `json:"isAlive"`
	BirthPlace        *string  `json:"birthPlace"`
	TombstoneLocation *string  `json:"tombstoneLocation"`
	TombstonePhoto    *string  `json:"tombstonePhoto"`
	ProfilePicture    *string  `json:"profilePicture"`
	FatherID          *string  `json:"fatherId"`
	MotherID          *string  `json:"motherId"`
	SpouseID          *string  `json:"spouseId"`
	PositionX         *float64 `json:"positionX"`
	PositionY         *float64 `json:"positionY"`
	Notes             *string  `json:"notes"`
}

// List returns all members
func (s *MemberService) List(ctx context.Context) ([]*models.FamilyMember, error) {
	return s.members.List(ctx)
}

// Get returns a single member
func (s *MemberService) Get(ctx context.Context, id string) (*models.FamilyMember, error) {
	return s.members.GetByID(ctx, id)
}

// Create validates and stores a new member
func (s *MemberService) Create(ctx context.Context, req *CreateMemberRequest) (*models.FamilyMember, error) {
	if strings.TrimSpace(req.FirstName) == "" || strings.TrimSpace(req.Surname) == "" {
		return nil, fmt.Errorf("%w: firstName and surname are required", ErrValidation)
	}
	if err := validateDates(req.DateOfBirth, req.DateOfDeath); err != nil {
		return nil, err
	}

	isAlive := true
	if req.IsAlive != nil {
		isAlive = *req.IsAlive
	}

	m := &models.FamilyMember{
		ID:                uuid.New().String(),
		FirstName:         req.FirstName,
		Surname:           req.Surname,
		DateOfBirth:       req.DateOfBirth,
		DateOfDeath:       req.DateOfDeath,
		IsAlive:           isAlive,
		BirthPlace:        req.BirthPlace,
		TombstoneLocation: req.TombstoneLocation,
		TombstonePhoto:    req.TombstonePhoto,
		ProfilePicture:    req.ProfilePicture,
		FatherID:          req.FatherID,
		MotherID:          req.MotherID,
		SpouseID:          req.SpouseID,
		PositionX:         req.PositionX,
		PositionY:         req.PositionY,
		Notes:             req.Notes,
		CreatedAt:         time.Now(),
	}

	if err := s.members.Create(ctx, m); err != nil {
		return nil, err
	}
	notify(s.events, EntityMembers, m.ID)
	return m, nil
}

// Update validates and applies a partial member update
func (s *MemberService) Update(ctx context.Context, id string, patch *models.FamilyMemberPatch) (*models.FamilyMember, error) {
	if patch.FirstName != nil && strings.TrimSpace(*patch.FirstName) == "" {
		return nil, fmt.Errorf("%w: firstName must not be empty", ErrValidation)
	}
	if patch.Surname != nil && strings.TrimSpace(*patch.Surname) == "" {
		return nil, fmt.Errorf("%w: surname must not be empty", ErrValidation)
	}

	// Cross-field date check needs the stored values for whichever side
	// the patch does not carry.
	if patch.DateOfBirth != nil || patch.DateOfDeath != nil {
		existing, err := s.members.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		birth, death := existing.DateOfBirth, existing.DateOfDeath
		if patch.DateOfBirth != nil {
			birth = patch.DateOfBirth
		}
		if patch.DateOfDeath != nil {
			death = patch.DateOfDeath
		}
		if err := validateDates(birth, death); err != nil {
			return nil, err
		}
	}

	m, err := s.members.Update(ctx, id, patch)
	if err != nil {
		return nil, err
	}
	notify(s.events, EntityMembers, id)
	return m, nil
}

// Delete removes a member. There is no cascade: references from other
// members go dangling and the graph treats them as unresolved.
func (s *MemberService) Delete(ctx context.Context, id string) error {
	if err := s.members.Delete(ctx, id); err != nil {
		return err
	}
	notify(s.events, EntityMembers, id)
	return nil
}

func validateDates(birth, death *string) error {
	var b, d time.Time
	var err error
	if birth != nil && *birth != "" {
		if b, err = time.Parse(dateLayout, *birth); err != nil {
			return fmt.Errorf("%w: dateOfBirth must be YYYY-MM-DD", ErrValidation)
		}
	}
	if death != nil && *death != "" {
		if d, err = time.Parse(dateLayout, *death); err != nil {
			return fmt.Errorf("%w: dateOfDeath must be YYYY-MM-DD", ErrValidation)
		}
	}
	if !b.IsZero() && !d.IsZero() && d.Before(b) {
		return fmt.Errorf("%w: dateOfDeath must not precede dateOfBirth", ErrValidation)
	}
	return nil
}
