package pipeline

import (
	"context"
	"fmt"

	"github.com/veridoc/veridoc/model"
)

// ChunkFunc is a function that splits document text into bounded, overlapping chunks
type ChunkFunc func(text string) ([]model.Chunk, error)

// EmbedFunc is a function that generates embeddings for a batch of texts
// The result contains exactly one embedding per input text, in input order
type EmbedFunc func(ctx context.Context, texts []string) ([][]float32, error)

// Pipeline combines chunking and embedding functions
type Pipeline struct {
	Chunker     ChunkFunc
	PageChunker ChunkFunc // Optional, used for documents with more than one page
	Embedder    EmbedFunc
}

// NewPipeline creates a new processing pipeline
func NewPipeline(chunker ChunkFunc, embedder EmbedFunc) *Pipeline {
	return &Pipeline{
		Chunker:  chunker,
		Embedder: embedder,
	}
}

// SetPageChunker sets the chunker used for multi-page documents
func (p *Pipeline) SetPageChunker(chunker ChunkFunc) {
	p.PageChunker = chunker
}

// chunkerFor selects the page aware chunker for multi-page documents when one is set
func (p *Pipeline) chunkerFor(pageCount int) ChunkFunc {
	if pageCount > 1 && p.PageChunker != nil {
		return p.PageChunker
	}
	return p.Chunker
}

// Process splits text into chunks and embeds them in a single batch.
// The returned embeddings are index-aligned with the returned chunks.
// Empty or whitespace-only text yields empty results without calling the embedder.
func (p *Pipeline) Process(ctx context.Context, text string, pageCount int) ([]model.Chunk, [][]float32, error) {
	chunks, err := p.chunkerFor(pageCount)(text)
	if err != nil {
		return nil, nil, err
	}
	if len(chunks) == 0 {
		return []model.Chunk{}, [][]float32{}, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}

	embeddings, err := p.Embedder(ctx, texts)
	if err != nil {
		return nil, nil, err
	}
	if len(embeddings) != len(chunks) {
		return nil, nil, fmt.Errorf("embedding count mismatch: got %d embeddings for %d chunks", len(embeddings), len(chunks))
	}

	return chunks, embeddings, nil
}
