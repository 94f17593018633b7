package repository

import (
	"context"
	"fmt"

	"family-tree-backend/internal/models"

	"github.com/jackc/pgx/v5/pgxpool"
)

// KnowledgeRepository reads the knowledge documents fed to the AI assistant.
// Documents are maintained out of band; the API never mutates them.
type KnowledgeRepository struct {
	db *pgxpool.Pool
}

// NewKnowledgeRepository creates a new knowledge repository
func NewKnowledgeRepository(db *pgxpool.Pool) *KnowledgeRepository {
	return &KnowledgeRepository{db: db}
}

// List retrieves all knowledge documents
func (r *KnowledgeRepository) List(ctx context.Context) ([]*models.KnowledgeDocument, error) {
	query := `SELECT id, title, content, created_at FROM knowledge_documents ORDER BY created_at ASC`
	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge documents: %w", err)
	}
	defer rows.Close()

	var docs []*models.KnowledgeDocument
	for rows.Next() {
		var d models.KnowledgeDocument
		if err := rows.Scan(&d.ID, &d.Title, &d.Content, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan knowledge document: %w", err)
		}
		docs = append(docs, &d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating knowledge documents: %w", err)
	}
	return docs, nil
}
