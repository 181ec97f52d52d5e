package database

import (
	"context"
	"fmt"
	"time"

	"github.com/veridoc/veridoc/helper"
)

// ChangeIndexType rebuilds the vector index over the unit embeddings.
// Supported types are "hnsw" (params "m" and "ef_construction") and
// "ivfflat" (param "lists"). Missing params fall back to the pgvector
// defaults.
func (h *UnitsDBHandler) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	ctx, cancel := context.WithTimeout(ctx, 60*time.Second)
	defer cancel()

	var createIndexSQL string
	switch indexType {
	case "hnsw":
		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_units_embedding ON units USING hnsw (embedding vector_cosine_ops) WITH (m = %d, ef_construction = %d);`,
			intParam(params, "m", 16),
			intParam(params, "ef_construction", 64),
		)
	case "ivfflat":
		createIndexSQL = fmt.Sprintf(
			`CREATE INDEX idx_units_embedding ON units USING ivfflat (embedding vector_cosine_ops) WITH (lists = %d);`,
			intParam(params, "lists", 100),
		)
	default:
		return helper.NewError("change index type", fmt.Errorf("unsupported index type: %s (use 'hnsw' or 'ivfflat')", indexType))
	}

	// The new index reuses the name, so the old one has to go first
	_, err := h.db.Instance.ExecContext(ctx, `DROP INDEX IF EXISTS idx_units_embedding;`)
	if err != nil {
		return helper.NewError("drop index", err)
	}

	h.db.Logger.Info("Dropped existing vector index")

	_, err = h.db.Instance.ExecContext(ctx, createIndexSQL)
	if err != nil {
		return helper.NewError("create index", err)
	}

	h.db.Logger.Info(fmt.Sprintf("Created %s index with params: %v", indexType, params))

	return nil
}

func intParam(params map[string]interface{}, key string, fallback int) int {
	if value, ok := params[key].(int); ok {
		return value
	}
	return fallback
}
