package pipeline

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenAIEmbedder(t *testing.T) {
	t.Run("Error with empty api key", func(t *testing.T) {
		embedder, err := OpenAIEmbedder("")

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "api key must not be empty")
		assert.Nil(t, embedder)
	})

	t.Run("Create embedder successfully", func(t *testing.T) {
		embedder, err := OpenAIEmbedder("test-key")

		require.NoError(t, err)
		assert.NotNil(t, embedder)
	})

	t.Run("Create embedder with options", func(t *testing.T) {
		embedder, err := OpenAIEmbedder("test-key",
			WithOpenAIModel("text-embedding-3-large"),
			WithOpenAIDimensions(3072),
		)

		require.NoError(t, err)
		assert.NotNil(t, embedder)
	})

	t.Run("Empty batch returns empty result without a request", func(t *testing.T) {
		embedder, err := OpenAIEmbedder("test-key")
		require.NoError(t, err)

		embeddings, err := embedder(context.Background(), []string{})

		require.NoError(t, err)
		assert.Equal(t, 0, len(embeddings))
	})

	t.Run("Generate embeddings for a batch", func(t *testing.T) {
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			t.Skip("Skipping OpenAIEmbedder test without OPENAI_API_KEY set")
		}

		embedder, err := OpenAIEmbedder(apiKey)
		require.NoError(t, err)

		texts := []string{
			"The sprinkler system covers all storage areas.",
			"Door sets on escape routes are rated FD30S.",
		}
		embeddings, err := embedder(context.Background(), texts)

		require.NoError(t, err)
		require.Len(t, embeddings, len(texts), "Expected one embedding per text")
		for i, embedding := range embeddings {
			assert.Equal(t, DefaultOpenAIDim, len(embedding), "Expected a %d-dimensional embedding for text %d", DefaultOpenAIDim, i)
		}
	})
}
