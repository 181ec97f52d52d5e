package model

// Chunk is one bounded segment of a document produced by the chunking pipeline.
// Character offsets are relative to the normalized page text the chunk was cut
// from; sequence indexes and totals run over the whole document.
type Chunk struct {
	SequenceIndex int    `json:"sequence_index"`
	Text          string `json:"text"`
	CharStart     int    `json:"char_start"`
	CharEnd       int    `json:"char_end"`
	PageNumber    *int   `json:"page_number,omitempty"`
	TotalChunks   int    `json:"total_chunks"`
}
