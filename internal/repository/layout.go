package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"family-tree-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// LayoutRepository handles database operations for tree layouts.
// The application treats the oldest record as the active layout.
type LayoutRepository struct {
	db *pgxpool.Pool
}

// NewLayoutRepository creates a new layout repository
func NewLayoutRepository(db *pgxpool.Pool) *LayoutRepository {
	return &LayoutRepository{db: db}
}

func scanLayout(row pgx.Row) (*models.TreeLayout, error) {
	var (
		l   models.TreeLayout
		raw []byte
	)
	if err := row.Scan(&l.ID, &raw, &l.CreatedAt, &l.UpdatedAt); err != nil {
		return nil, err
	}
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &l.CustomLines); err != nil {
			return nil, fmt.Errorf("failed to decode custom lines: %w", err)
		}
	}
	if l.CustomLines == nil {
		l.CustomLines = []models.CustomLine{}
	}
	return &l, nil
}

// List retrieves all layouts, oldest first so the first record wins
func (r *LayoutRepository) List(ctx context.Context) ([]*models.TreeLayout, error) {
	query := `SELECT id, custom_lines, created_at, updated_at FROM tree_layouts ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list layouts: %w", err)
	}
	defer rows.Close()

	var layouts []*models.TreeLayout
	for rows.Next() {
		l, err := scanLayout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan layout: %w", err)
		}
		layouts = append(layouts, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating layouts: %w", err)
	}
	return layouts, nil
}

// GetFirst retrieves the active (oldest) layout, or ErrNotFound when none exists
func (r *LayoutRepository) GetFirst(ctx context.Context) (*models.TreeLayout, error) {
	query := `SELECT id, custom_lines, created_at, updated_at FROM tree_layouts ORDER BY created_at ASC LIMIT 1`
	l, err := scanLayout(r.db.QueryRow(ctx, query))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("tree layout: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get layout: %w", err)
	}
	return l, nil
}

// Create inserts a new layout record
func (r *LayoutRepository) Create(ctx context.Context, l *models.TreeLayout) error {
	raw, err := json.Marshal(l.CustomLines)
	if err != nil {
		return fmt.Errorf("failed to encode custom lines: %w", err)
	}
	query := `
		INSERT INTO tree_layouts (id, custom_lines, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.Exec(ctx, query, l.ID, raw, l.CreatedAt, l.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create layout: %w", err)
	}
	return nil
}

// Update replaces the custom-line overlay of an existing layout
func (r *LayoutRepository) Update(ctx context.Context, id string, lines []models.CustomLine) (*models.TreeLayout, error) {
	raw, err := json.Marshal(lines)
	if err != nil {
		return nil, fmt.Errorf("failed to encode custom lines: %w", err)
	}
	query := `
		UPDATE tree_layouts SET custom_lines = $2, updated_at = now()
		WHERE id = $1
		RETURNING id, custom_lines, created_at, updated_at
	`
	l, err := scanLayout(r.db.QueryRow(ctx, query, id, raw))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("tree layout %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update layout: %w", err)
	}
	return l, nil
}

// Delete removes a layout record
func (r *LayoutRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM tree_layouts WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete layout: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("tree layout %s: %w", id, ErrNotFound)
	}
	return nil
}
