package model

import "github.com/google/uuid"

// IndexStatus is the overall outcome of indexing one document.
type IndexStatus string

const (
	IndexStatusCompleted IndexStatus = "completed"
	IndexStatusPartial   IndexStatus = "partial"
	IndexStatusFailed    IndexStatus = "failed"
	IndexStatusSkipped   IndexStatus = "skipped"
)

// CollectionResult reports one collection's share of an indexing fan-out.
type CollectionResult struct {
	Collection string `json:"collection"`
	Indexed    int    `json:"indexed"`
	Error      string `json:"error,omitempty"`
}

// IndexReport summarizes indexing a document across collections.
type IndexReport struct {
	DocumentRID uuid.UUID          `json:"document_rid"`
	Status      IndexStatus        `json:"status"`
	ChunkCount  int                `json:"chunk_count"`
	Collections []CollectionResult `json:"collections,omitempty"`
}
