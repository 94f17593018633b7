package repository

import (
	"context"
	"errors"
	"fmt"

	"family-tree-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a requested row does not exist.
var ErrNotFound = errors.New("not found")

const memberColumns = `id, first_name, surname, date_of_birth, date_of_death, is_alive,
		birth_place, tombstone_location, tombstone_photo, profile_picture,
		father_id, mother_id, spouse_id, position_x, position_y, notes, created_at`

// MemberRepository handles database operations for family members
type MemberRepository struct {
	db *pgxpool.Pool
}

// NewMemberRepository creates a new member repository
func NewMemberRepository(db *pgxpool.Pool) *MemberRepository {
	return &MemberRepository{db: db}
}

func scanMember(row pgx.Row) (*models.FamilyMember, error) {
	var m models.FamilyMember
	err := row.Scan(
		&m.ID, &m.FirstName, &m.Surname, &m.DateOfBirth, &m.DateOfDeath, &m.IsAlive,
		&m.BirthPlace, &m.TombstoneLocation, &m.TombstonePhoto, &m.ProfilePicture,
		&m.FatherID, &m.MotherID, &m.SpouseID, &m.PositionX, &m.PositionY, &m.Notes,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List retrieves all family members ordered by creation time
func (r *MemberRepository) List(ctx context.Context) ([]*models.FamilyMember, error) {
	query := `SELECT ` + memberColumns + ` FROM family_members ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.FamilyMember
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating members: %w", err)
	}
	return members, nil
}

// GetByID retrieves a family member by ID
func (r *MemberRepository) GetByID(ctx context.Context, id string) (*models.FamilyMember, error) {
	query := `SELECT ` + memberColumns + ` FROM family_members WHERE id = $1`
	m, err := scanMember(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("member %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// Create inserts a new family member
func (r *MemberRepository) Create(ctx context.Context, m *models.FamilyMember) error {
	query := `
		INSERT INTO family_members (id, first_name, surname, date_of_birth, date_of_death,
			is_alive, birth_place, tombstone_location, tombstone_photo, profile_picture,
			father_id, mother_id, spouse_id, position_x, position_y, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`
	_, err := r.db.Exec(ctx, query,
		m.ID, m.FirstName, m.Surname, m.DateOfBirth, m.DateOfDeath,
		m.IsAlive, m.BirthPlace, m.TombstoneLocation, m.TombstonePhoto, m.ProfilePicture,
		m.FatherID, m.MotherID, m.SpouseID, m.PositionX, m.PositionY, m.Notes, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create member: %w", err)
	}
	return nil
}

// Update applies a partial update and returns the updated member
func (r *MemberRepository) Update(ctx context.Context, id string, patch *models.FamilyMemberPatch) (*models.FamilyMember, error) {
	query := `
		UPDATE family_members SET
			first_name = COALESCE($2, first_name),
			surname = COALESCE($3, surname),
			date_of_birth = COALESCE($4, date_of_birth),
			date_of_death = COALESCE($5, date_of_death),
			is_alive = COALESCE($6, is_alive),
			birth_place = COALESCE($7, birth_place),
			tombstone_location = COALESCE($8, tombstone_location),
			tombstone_photo = COALESCE($9, tombstone_photo),
			profile_picture = COALESCE($10, profile_picture),
			father_id = COALESCE($11, father_id),
			mother_id = COALESCE($12, mother_id),
			spouse_id = COALESCE($13, spouse_id),
			position_x = COALESCE($14, position_x),
			position_y = COALESCE($15, position_y),
			notes = COALESCE($16, notes)
		WHERE id = $1
		RETURNING ` + memberColumns
	m, err := scanMember(r.db.QueryRow(ctx, query, id,
		patch.FirstName, patch.Surname, patch.DateOfBirth, patch.DateOfDeath,
		patch.IsAlive, patch.BirthPlace, patch.TombstoneLocation, patch.TombstonePhoto,
		patch.ProfilePicture, patch.FatherID, patch.MotherID, patch.SpouseID,
		patch.PositionX, patch.PositionY, patch.Notes,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, fmt.Errorf("member %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update member: %w", err)
	}
	return m, nil
}

// UpdatePosition writes a single member's canvas coordinates
func (r *MemberRepository) UpdatePosition(ctx context.Context, id string, x, y float64) error {
	query := `UPDATE family_members SET position_x = $2, position_y = $3 WHERE id = $1`
	result, err := r.db.Exec(ctx, query, id, x, y)
	if err != nil {
		return fmt.Errorf("failed to update member position: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("member %s: %w", id, ErrNotFound)
	}
	return nil
}

// Delete removes a family member. References from other members are left
// dangling on purpose; graph consumers treat them as unresolved.
func (r *MemberRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM family_members WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	if result.RowsAffected() == 0 {
		return fmt.Errorf("member %s: %w", id, ErrNotFound)
	}
	return nil
}
