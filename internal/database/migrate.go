package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

// Schema statements are idempotent so startup can run them unconditionally.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS family_members (
		id TEXT PRIMARY KEY,
		first_name TEXT NOT NULL,
		surname TEXT NOT NULL,
		date_of_birth TEXT,
		date_of_death TEXT,
		is_alive BOOLEAN NOT NULL DEFAULT TRUE,
		birth_place TEXT,
		tombstone_location TEXT,
		tombstone_photo TEXT,
		profile_picture TEXT,
		father_id TEXT,
		mother_id TEXT,
		spouse_id TEXT,
		position_x DOUBLE PRECISION,
		position_y DOUBLE PRECISION,
		notes TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS family_photos (
		id TEXT PRIMARY KEY,
		url TEXT NOT NULL,
		title TEXT NOT NULL DEFAULT 'Untitled',
		tagged_member_ids TEXT[] NOT NULL DEFAULT '{}',
		custom_tags TEXT[] NOT NULL DEFAULT '{}',
		upload_date TIMESTAMPTZ NOT NULL DEFAULT now(),
		member_id TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS share_links (
		id TEXT PRIMARY KEY,
		token TEXT NOT NULL UNIQUE,
		role TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		access_count INTEGER NOT NULL DEFAULT 0,
		expires_at TIMESTAMPTZ,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS tree_layouts (
		id TEXT PRIMARY KEY,
		custom_lines JSONB NOT NULL DEFAULT '[]',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS knowledge_documents (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		content TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_share_links_token ON share_links (token)`,
}

// Migrate creates the schema if it does not exist yet
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement: %w", err)
		}
	}
	log.Info().Int("statements", len(schema)).Msg("Database schema ensured")
	return nil
}
