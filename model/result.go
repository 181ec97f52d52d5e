package model

type RetrievalMethod string

const (
	RetrievalMethodVector   RetrievalMethod = "vector"
	RetrievalMethodFiltered RetrievalMethod = "filtered"
)

// RetrievalResult represents a unit retrieved by a query
type RetrievalResult struct {
	Unit            *IndexedUnit    `json:"unit"`
	Score           float64         `json:"score"`            // Combined score from ranking
	SimilarityScore float64         `json:"similarity_score"` // Cosine similarity score
	RetrievalMethod RetrievalMethod `json:"retrieval_method"` // How it was retrieved
}
