package helper

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knights-analytics/hugot"
)

// modelCacheDir is where downloaded embedding models are kept between runs.
const modelCacheDir = "./models"

// PrepareModel returns the local path of the named model, downloading it
// into the cache on first use. onnxFilePath selects the onnx file inside
// the model repository and may be empty for models with a single onnx file
// at the repository root.
func PrepareModel(modelName string, onnxFilePath string) (string, error) {
	modelPath := filepath.Join(modelCacheDir, strings.ReplaceAll(modelName, "/", "_"))
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	}

	if err := os.MkdirAll(modelCacheDir, 0750); err != nil {
		return "", fmt.Errorf("failed to create model directory: %w", err)
	}

	downloadOptions := hugot.NewDownloadOptions()
	if onnxFilePath != "" {
		downloadOptions.OnnxFilePath = onnxFilePath
	}

	downloadedPath, err := hugot.DownloadModel(modelName, modelCacheDir, downloadOptions)
	if err != nil {
		return "", fmt.Errorf("failed to download model: %w", err)
	}
	return downloadedPath, nil
}
