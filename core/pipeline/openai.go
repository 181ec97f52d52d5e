package pipeline

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
)

const (
	// DefaultOpenAIModel is the embedding model used when none is configured
	DefaultOpenAIModel = "text-embedding-3-small"
	// DefaultOpenAIDim is the native dimension of text-embedding-3-small
	DefaultOpenAIDim = 1536
	// maxEmbeddingBatchSize is the request limit of the OpenAI embeddings API
	maxEmbeddingBatchSize = 100
)

type openAIOptions struct {
	model      string
	dimensions int
}

// OpenAIOption configures the OpenAI embedder
type OpenAIOption func(*openAIOptions)

// WithOpenAIModel overrides the embedding model
func WithOpenAIModel(model string) OpenAIOption {
	return func(o *openAIOptions) {
		o.model = model
	}
}

// WithOpenAIDimensions overrides the embedding dimension
func WithOpenAIDimensions(dimensions int) OpenAIOption {
	return func(o *openAIOptions) {
		o.dimensions = dimensions
	}
}

// OpenAIEmbedder creates an embedder backed by the OpenAI embeddings API.
// Batches larger than the API limit are split into sequential requests.
func OpenAIEmbedder(apiKey string, opts ...OpenAIOption) (EmbedFunc, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key must not be empty")
	}

	options := openAIOptions{
		model:      DefaultOpenAIModel,
		dimensions: DefaultOpenAIDim,
	}
	for _, opt := range opts {
		opt(&options)
	}

	client := openai.NewClient(option.WithAPIKey(apiKey))

	return func(ctx context.Context, texts []string) ([][]float32, error) {
		if len(texts) == 0 {
			return [][]float32{}, nil
		}

		embeddings := make([][]float32, 0, len(texts))
		for begin := 0; begin < len(texts); begin += maxEmbeddingBatchSize {
			end := begin + maxEmbeddingBatchSize
			if end > len(texts) {
				end = len(texts)
			}

			batch, err := embedBatch(ctx, client, options, texts[begin:end])
			if err != nil {
				return nil, err
			}
			embeddings = append(embeddings, batch...)
		}
		return embeddings, nil
	}, nil
}

func embedBatch(ctx context.Context, client openai.Client, options openAIOptions, texts []string) ([][]float32, error) {
	params := openai.EmbeddingNewParams{
		Model: openai.EmbeddingModel(options.model),
		Input: openai.EmbeddingNewParamsInputUnion{
			OfArrayOfStrings: texts,
		},
	}
	if options.dimensions > 0 {
		params.Dimensions = openai.Int(int64(options.dimensions))
	}

	resp, err := client.Embeddings.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("failed to generate embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d embeddings for %d texts", len(resp.Data), len(texts))
	}

	// The API reports an index per embedding, order by it
	embeddings := make([][]float32, len(texts))
	for _, data := range resp.Data {
		if data.Index < 0 || int(data.Index) >= len(texts) {
			return nil, fmt.Errorf("embedding index %d out of range for %d texts", data.Index, len(texts))
		}
		vector := make([]float32, len(data.Embedding))
		for i, v := range data.Embedding {
			vector[i] = float32(v)
		}
		embeddings[data.Index] = vector
	}
	return embeddings, nil
}
