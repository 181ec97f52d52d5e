package retrieval

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/veridoc/veridoc/model"
)

// defaultContextChunks is the number of retrieved units rendered into a prompt context
const defaultContextChunks = 5

// NoContextMarker is rendered instead of an empty string when retrieval
// yields no units, so downstream prompts stay well-formed.
const NoContextMarker = "No relevant context found in the indexed documents."

// Source identifies one distinct document contributing to a context
type Source struct {
	DocumentRID uuid.UUID `json:"document_rid"`
	Filename    string    `json:"filename,omitempty"`
	PageNumber  *int      `json:"page_number,omitempty"`
}

// FormatContext renders retrieved units into a single text block of numbered
// [Context i] sections with page annotations where known. At most maxChunks
// units are rendered, maxChunks <= 0 uses the default of 5.
func FormatContext(results []*model.RetrievalResult, maxChunks int) string {
	if maxChunks <= 0 {
		maxChunks = defaultContextChunks
	}
	if len(results) == 0 {
		return NoContextMarker
	}
	if len(results) > maxChunks {
		results = results[:maxChunks]
	}

	parts := make([]string, 0, len(results))
	for i, result := range results {
		header := fmt.Sprintf("[Context %d]", i+1)
		if result.Unit.PageNumber != nil {
			header = fmt.Sprintf("[Context %d] (page %d)", i+1, *result.Unit.PageNumber)
		}
		parts = append(parts, fmt.Sprintf("%s\n%s\n", header, result.Unit.Text))
	}

	return strings.Join(parts, "\n")
}

// ExtractSources returns the distinct documents behind the results, keeping
// first-seen order and the first seen page number per document.
func ExtractSources(results []*model.RetrievalResult) []Source {
	seen := make(map[uuid.UUID]bool, len(results))
	sources := make([]Source, 0, len(results))

	for _, result := range results {
		if seen[result.Unit.DocumentID] {
			continue
		}
		seen[result.Unit.DocumentID] = true

		filename, _ := result.Unit.Metadata["filename"].(string)
		sources = append(sources, Source{
			DocumentRID: result.Unit.DocumentID,
			Filename:    filename,
			PageNumber:  result.Unit.PageNumber,
		})
	}

	return sources
}
