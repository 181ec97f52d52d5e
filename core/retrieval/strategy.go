package retrieval

import (
	"context"

	"github.com/google/uuid"
	"github.com/veridoc/veridoc/model"
)

// Strategy defines a retrieval strategy
type Strategy interface {
	Retrieve(ctx context.Context, collection string, embedding []float32, tenantID uuid.UUID, config *model.QueryConfig) ([]*model.RetrievalResult, error)
}

// SimilarityStrategy performs pure vector similarity search
type SimilarityStrategy struct {
	engine *Engine
}

// NewSimilarityStrategy creates a new similarity strategy
func NewSimilarityStrategy(engine *Engine) *SimilarityStrategy {
	return &SimilarityStrategy{engine: engine}
}

// Retrieve performs similarity-only retrieval
func (s *SimilarityStrategy) Retrieve(ctx context.Context, collection string, embedding []float32, tenantID uuid.UUID, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	return s.engine.Query(ctx, collection, embedding, tenantID, config)
}

// DocumentFilterStrategy narrows similarity results to an allowed set of
// documents. The filter runs after retrieval on top of the tenant scope, it
// never widens what the tenant is allowed to see.
type DocumentFilterStrategy struct {
	engine  *Engine
	allowed map[uuid.UUID]bool
}

// NewDocumentFilterStrategy creates a strategy restricted to the given documents
func NewDocumentFilterStrategy(engine *Engine, documentRIDs []uuid.UUID) *DocumentFilterStrategy {
	allowed := make(map[uuid.UUID]bool, len(documentRIDs))
	for _, documentRID := range documentRIDs {
		allowed[documentRID] = true
	}

	return &DocumentFilterStrategy{
		engine:  engine,
		allowed: allowed,
	}
}

// Retrieve performs similarity retrieval and keeps only units from allowed documents
func (s *DocumentFilterStrategy) Retrieve(ctx context.Context, collection string, embedding []float32, tenantID uuid.UUID, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	results, err := s.engine.Query(ctx, collection, embedding, tenantID, config)
	if err != nil {
		return nil, err
	}

	filtered := make([]*model.RetrievalResult, 0, len(results))
	for _, result := range results {
		if !s.allowed[result.Unit.DocumentID] {
			continue
		}
		result.RetrievalMethod = model.RetrievalMethodFiltered
		filtered = append(filtered, result)
	}

	return filtered, nil
}
