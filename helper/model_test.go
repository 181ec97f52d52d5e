package helper

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// placeModel creates the cache directory PrepareModel looks for, so the
// download path is never taken.
func placeModel(t *testing.T, sanitizedName string) string {
	t.Helper()
	path := filepath.Join("./models", sanitizedName)
	require.NoError(t, os.MkdirAll(path, 0750), "failed to create cached model directory")
	t.Cleanup(func() { os.RemoveAll(path) })
	return path
}

func TestPrepareModel(t *testing.T) {
	t.Run("Cached model is returned without downloading", func(t *testing.T) {
		want := placeModel(t, "sentence-transformers_all-MiniLM-L6-v2")

		path, err := PrepareModel("sentence-transformers/all-MiniLM-L6-v2", "onnx/model.onnx")

		require.NoError(t, err, "Expected the cached model to be found")
		assert.Equal(t, want, path, "Expected the cached path to be returned")
	})

	t.Run("Slashes in the model name are flattened for the cache path", func(t *testing.T) {
		want := placeModel(t, "BAAI_bge-small-en-v1.5")

		path, err := PrepareModel("BAAI/bge-small-en-v1.5", "")

		require.NoError(t, err)
		assert.Equal(t, want, path, "Expected the path to use the flattened name")
	})

	t.Run("Names without a slash are used unchanged", func(t *testing.T) {
		want := placeModel(t, "local-embedder")

		path, err := PrepareModel("local-embedder", "")

		require.NoError(t, err)
		assert.Equal(t, want, path)
	})

	t.Run("Empty onnx file path is accepted for cached models", func(t *testing.T) {
		placeModel(t, "test_plain-model")

		path, err := PrepareModel("test/plain-model", "")

		require.NoError(t, err)
		assert.NotEmpty(t, path, "Expected a model path to be returned")
	})

	t.Run("Missing model triggers a download attempt", func(t *testing.T) {
		// A cached copy from an earlier run would short-circuit the download
		os.RemoveAll(filepath.Join("./models", "sentence-transformers_all-MiniLM-L6-v2"))

		path, err := PrepareModel("sentence-transformers/all-MiniLM-L6-v2", "onnx/model.onnx")

		// The download needs network access and disk space, so only the
		// outcome shape is checked
		if err != nil {
			assert.Contains(t, err.Error(), "failed to", "Expected a wrapped download error")
		} else {
			assert.NotEmpty(t, path, "Expected a model path to be returned")
			assert.DirExists(t, path, "Expected the downloaded model directory to exist")
		}
	})
}
