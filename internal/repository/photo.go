package repository

import (
	"context"
	"errors"
	"fmt"

	"family-tree-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const photoColumns = `id, url, title, tagged_member_ids, custom_tags, upload_date, member_id, created_at`

// PhotoRepository handles database operations for family photos
type PhotoRepository struct {
	db *pgxpool.Pool
}

// NewPhotoRepository creates a new photo repository
func NewPhotoRepository(db *pgxpool.Pool) *PhotoRepository {
	return &PhotoRepository{db: db}
}

func scanPhoto(row pgx.Row) (*models.FamilyPhoto, error) {
	var p models.FamilyPhoto
	err := row.Scan(
		&p.ID, &p.URL, &p.Title, &p.TaggedMemberIDs, &p.CustomTags,
		&p.UploadDate, &p.MemberID, &p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if p.TaggedMemberIDs == nil {
		p.TaggedMemberIDs = []string{}
	}
	if p.CustomTags == nil {
		p.CustomTags = []string{}
	}
	return &p, nil
}

// List retrieves all photos, newest first
func (r *PhotoRepository) List(ctx context.Context) ([]*models.FamilyPhoto, error) {
	query := `SELECT ` + photoColumns + ` FROM family_photos ORDER BY created_at DESC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list photos: %w", err)
	}
	defer rows.Close()

	var photos []*models.FamilyPhoto
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan photo: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating photos: %w", err)
	}
	return photos, nil
}

// GetByID retrieves a photo by ID
func (r *PhotoRepository) GetByID(ctx context.Context, id string) (*models.FamilyPhoto, error) {
	query := `SELECT ` + photoColumns + ` FROM family_photos WHERE id = $1`
	p, err := scanPhoto(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("photo %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get photo: %w", err)
	}
	return p, nil
}

// Create inserts a new photo row
func (r *PhotoRepository) Create(ctx context.Context, p *models.FamilyPhoto) error {
	query := `
		INSERT INTO family_photos (id, url, title, tagged_member_ids, custom_tags, upload_date, member_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.Exec(ctx, query,
		p.ID, p.URL, p.Title, p.TaggedMemberIDs, p.CustomTags, p.UploadDate, p.MemberID, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create photo: %w", err)
	}
	return nil
}

// Update applies a partial title/tag update and returns the updated photo
func (r *PhotoRepository) Update(ctx context.Context, id string, patch *models.FamilyPhotoPatch) (*models.FamilyPhoto, error) {
	query := `
		UPDATE family_photos SET
			title = COALESCE($2, title),
			tagged_member_ids = COALESCE($3, tagged_member_ids),
			custom_tags = COALESCE($4, custom_tags)
		WHERE id = $1
		RETURNING ` + photoColumns
	p, err := scanPhoto(r.db.QueryRow(ctx, query, id, patch.Title, patch.TaggedMemberIDs, patch.CustomTags))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("photo %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update photo: %w", err)
	}
	return p, nil
}

// Delete removes a photo row
func (r *PhotoRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM family_photos WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete photo: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("photo %s: %w", id, ErrNotFound)
	}
	return nil
}
