package handlers

import (
	"context"
	"net/http"

	"family-tree-backend/internal/models"

	"github.com/rs/zerolog/log"
)

type knowledgeLister interface {
	List(ctx context.Context) ([]*models.KnowledgeDocument, error)
}

// KnowledgeHandler serves the read-only knowledge documents
type KnowledgeHandler struct {
	knowledge knowledgeLister
}

// NewKnowledgeHandler creates a new knowledge handler
func NewKnowledgeHandler(knowledge knowledgeLister) *KnowledgeHandler {
	return &KnowledgeHandler{knowledge: knowledge}
}

// List handles GET /api/knowledge-documents, degrading to an empty list on failure
func (h *KnowledgeHandler) List(w http.ResponseWriter, r *http.Request) {
	docs, err := h.knowledge.List(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list knowledge documents")
		respondJSON(w, http.StatusOK, []*models.KnowledgeDocument{})
		return
	}
	if docs == nil {
		docs = []*models.KnowledgeDocument{}
	}
	respondJSON(w, http.StatusOK, docs)
}
