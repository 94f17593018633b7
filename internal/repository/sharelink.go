package repository

import (
	"context"
	"errors"
	"fmt"

	"family-tree-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const shareLinkColumns = `id, token, role, is_active, access_count, expires_at, created_at`

// ShareLinkRepository handles database operations for share links
type ShareLinkRepository struct {
	db *pgxpool.Pool
}

// NewShareLinkRepository creates a new share link repository
func NewShareLinkRepository(db *pgxpool.Pool) *ShareLinkRepository {
	return &ShareLinkRepository{db: db}
}

func scanShareLink(row pgx.Row) (*models.ShareLink, error) {
	var l models.ShareLink
	err := row.Scan(
		&l.ID, &l.Token, &l.Role, &l.IsActive, &l.AccessCount, &l.ExpiresAt, &l.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &l, nil
}

// List retrieves all share links, newest first
func (r *ShareLinkRepository) List(ctx context.Context) ([]*models.ShareLink, error) {
	query := `SELECT ` + shareLinkColumns + ` FROM share_links ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list share links: %w", err)
	}
	defer rows.Close()

	var links []*models.ShareLink
	for rows.Next() {
		l, err := scanShareLink(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan share link: %w", err)
		}
		links = append(links, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating share links: %w", err)
	}
	return links, nil
}

// GetByToken retrieves a share link by exact token match
func (r *ShareLinkRepository) GetByToken(ctx context.Context, token string) (*models.ShareLink, error) {
	query := `SELECT ` + shareLinkColumns + ` FROM share_links WHERE token = $1`
	l, err := scanShareLink(r.db.QueryRow(ctx, query, token))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("share link: %w", ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get share link by token: %w", err)
	}
	return l, nil
}

// Create inserts a new share link
func (r *ShareLinkRepository) Create(ctx context.Context, l *models.ShareLink) error {
	query := `
		INSERT INTO share_links (id, token, role, is_active, access_count, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.db.Exec(ctx, query,
		l.ID, l.Token, l.Role, l.IsActive, l.AccessCount, l.ExpiresAt, l.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create share link: %w", err)
	}
	return nil
}

// Update applies a partial update (activation, expiry) and returns the result
func (r *ShareLinkRepository) Update(ctx context.Context, id string, patch *models.ShareLinkPatch) (*models.ShareLink, error) {
	query := `
		UPDATE share_links SET
			is_active = COALESCE($2, is_active),
			expires_at = COALESCE($3, expires_at)
		WHERE id = $1
		RETURNING ` + shareLinkColumns
	l, err := scanShareLink(r.db.QueryRow(ctx, query, id, patch.IsActive, patch.ExpiresAt))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("share link %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update share link: %w", err)
	}
	return l, nil
}

// IncrementAccessCount adds one successful token resolution to the counter
func (r *ShareLinkRepository) IncrementAccessCount(ctx context.Context, id string) error {
	query := `UPDATE share_links SET access_count = access_count + 1 WHERE id = $1`
	_, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("failed to increment access count: %w", err)
	}
	return nil
}

// Delete removes a share link, revoking access immediately
func (r *ShareLinkRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM share_links WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete share link: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("share link %s: %w", id, ErrNotFound)
	}
	return nil
}
