package model

import "github.com/google/uuid"

// QueryConfig controls a retrieval query. Start from DefaultQueryConfig
// and override what the caller needs.
type QueryConfig struct {
	// Vector search parameters
	TopK                int     `json:"top_k"`
	SimilarityThreshold float64 `json:"similarity_threshold,omitempty"`

	// Restrict retrieval to specific documents or one project. Empty
	// DocumentRIDs and a nil ProjectRID mean no restriction.
	DocumentRIDs []uuid.UUID `json:"document_rids,omitempty"`
	ProjectRID   uuid.UUID   `json:"project_rid,omitempty"`
}

// DefaultQueryConfig returns the config used when a caller passes none:
// the five best chunks with no similarity cutoff.
func DefaultQueryConfig() QueryConfig {
	return QueryConfig{
		TopK:                5,
		SimilarityThreshold: 0,
	}
}
