package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"family-tree-backend/internal/models"
	"family-tree-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Grid cell size of the fallback placement, matching the card footprint.
const fallbackCellSize = 220

// memberPositionStore is the slice of the member repository the layout
// service needs.
type memberPositionStore interface {
	List(ctx context.Context) ([]*models.FamilyMember, error)
	UpdatePosition(ctx context.Context, id string, x, y float64) error
}

// layoutStore is the slice of the layout repository the service needs.
type layoutStore interface {
	GetFirst(ctx context.Context) (*models.TreeLayout, error)
	Create(ctx context.Context, l *models.TreeLayout) error
	Update(ctx context.Context, id string, lines []models.CustomLine) (*models.TreeLayout, error)
}

// LayoutService reconciles the two persisted layout concerns: per-member
// coordinates (authoritative for node placement) and the singleton layout
// record (authoritative for the custom-line overlay).
type LayoutService struct {
	members memberPositionStore
	layouts layoutStore
	events  notifier
}

// NewLayoutService creates a new layout service
func NewLayoutService(members memberPositionStore, layouts layoutStore, events notifier) *LayoutService {
	return &LayoutService{
		members: members,
		layouts: layouts,
		events:  events,
	}
}

// LayoutView is the merged, renderable layout.
type LayoutView struct {
	Positions   map[string]models.Position `json:"positions"`
	CustomLines []models.CustomLine        `json:"customLines"`
}

// SaveLayoutRequest carries the positions moved by the user and the full
// custom-line overlay.
type SaveLayoutRequest struct {
	Positions   map[string]models.Position `json:"positions"`
	CustomLines []models.CustomLine        `json:"customLines"`
}

// SaveLayoutResult reports which independent position writes failed.
type SaveLayoutResult struct {
	SavedPositions  int      `json:"savedPositions"`
	FailedPositions []string `json:"failedPositions,omitempty"`
}

// FallbackPosition computes the deterministic grid position for the member
// at the given index: columns = ceil(sqrt(total)), row-major placement.
// Every member is placeable before any manual drag has occurred.
func FallbackPosition(index, total int) models.Position {
	if total <= 0 {
		return models.Position{}
	}
	cols := int(math.Ceil(math.Sqrt(float64(total))))
	return models.Position{
		X: float64(index%cols) * fallbackCellSize,
		Y: float64(index/cols) * fallbackCellSize,
	}
}

// ResolvePositions maps every member to a coordinate: the stored
// positionX/positionY when both are set, otherwise the fallback grid slot
// for the member's index in the input list.
func ResolvePositions(members []*models.FamilyMember) map[string]models.Position {
	positions := make(map[string]models.Position, len(members))
	for i, m := range members {
		if m.PositionX != nil && m.PositionY != nil {
			positions[m.ID] = models.Position{X: *m.PositionX, Y: *m.PositionY}
		} else {
			positions[m.ID] = FallbackPosition(i, len(members))
		}
	}
	return positions
}

// Load produces the merged layout for rendering. A missing layout record
// means an empty overlay, not an error.
func (s *LayoutService) Load(ctx context.Context) (*LayoutView, error) {
	members, err := s.members.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load members for layout: %w", err)
	}

	view := &LayoutView{
		Positions:   ResolvePositions(members),
		CustomLines: []models.CustomLine{},
	}

	layout, err := s.layouts.GetFirst(ctx)
	switch {
	case err == nil:
		view.CustomLines = layout.CustomLines
	case errors.Is(err, repository.ErrNotFound):
		// no saved overlay yet
	default:
		return nil, err
	}
	return view, nil
}

// Save persists the layout: one independent position write per member and
// one overlay write to the singleton layout record (update when it exists,
// create otherwise). Position writes that fail are reported but never roll
// back or abort the remaining writes.
func (s *LayoutService) Save(ctx context.Context, req *SaveLayoutRequest) (*SaveLayoutResult, error) {
	result := &SaveLayoutResult{}

	ids := make([]string, 0, len(req.Positions))
	for id := range req.Positions {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		pos := req.Positions[id]
		if err := s.members.UpdatePosition(ctx, id, pos.X, pos.Y); err != nil {
			log.Warn().Err(err).Str("member_id", id).Msg("Failed to save member position")
			result.FailedPositions = append(result.FailedPositions, id)
			continue
		}
		result.SavedPositions++
	}

	lines := req.CustomLines
	if lines == nil {
		lines = []models.CustomLine{}
	}

	existing, err := s.layouts.GetFirst(ctx)
	switch {
	case err == nil:
		if _, err := s.layouts.Update(ctx, existing.ID, lines); err != nil {
			return result, err
		}
	case errors.Is(err, repository.ErrNotFound):
		layout := &models.TreeLayout{
			ID:          uuid.New().String(),
			CustomLines: lines,
			CreatedAt:   time.Now(),
			UpdatedAt:   time.Now(),
		}
		if err := s.layouts.Create(ctx, layout); err != nil {
			return result, err
		}
	default:
		return result, err
	}

	notify(s.events, EntityTreeLayout, "")
	if result.SavedPositions > 0 {
		notify(s.events, EntityMembers, "")
	}
	return result, nil
}
