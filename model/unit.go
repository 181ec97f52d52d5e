package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// IndexedUnit is a chunk written into one vector collection. A ProjectID of
// uuid.Nil means the unit is not scoped to a project and is stored as NULL.
type IndexedUnit struct {
	Chunk
	ID         int64     `json:"id"`
	Collection string    `json:"collection"`
	TenantID   uuid.UUID `json:"tenant_id"`
	ProjectID  uuid.UUID `json:"project_id,omitempty"`
	DocumentID uuid.UUID `json:"document_id"`
	Embedding  []float32 `json:"embedding,omitempty"`
	Metadata   Metadata  `json:"metadata,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	// Results
	Similarity float64 `json:"similarity,omitempty"`
	Distance   float64 `json:"distance,omitempty"`
}

// Key returns the unit key used for upsert idempotency within a collection.
func (u *IndexedUnit) Key() string {
	return fmt.Sprintf("%v|%v|%v", u.TenantID, u.DocumentID, u.SequenceIndex)
}
