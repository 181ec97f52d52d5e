package veridoc

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veridoc/veridoc/core/analysis"
	"github.com/veridoc/veridoc/core/pipeline"
	"github.com/veridoc/veridoc/core/retrieval"
	"github.com/veridoc/veridoc/model"
)

func TestNewVeridoc(t *testing.T) {
	t.Run("Valid call NewVeridoc", func(t *testing.T) {
		v := initVeridoc(t)
		assert.NotNil(t, v.DB, "Expected veridoc to have a database instance")
		assert.NotNil(t, v.Units, "Expected veridoc to have a units handler")
		assert.NotNil(t, v.Documents, "Expected veridoc to have a documents handler")
		assert.NotNil(t, v.Engine, "Expected veridoc to have a retrieval engine")
		assert.NotNil(t, v.Checker, "Expected veridoc to have a checker")
		assert.Nil(t, v.Pipeline, "Expected pipeline to be nil initially")
		assert.Nil(t, v.Answerer, "Expected answerer to be nil initially")
	})

	t.Run("Veridoc with nil database handles Close gracefully", func(t *testing.T) {
		v := &Veridoc{}

		err := v.Close()
		assert.NoError(t, err, "Expected Close to handle nil DB gracefully")
	})
}

func TestSetPipeline(t *testing.T) {
	v := initVeridoc(t)

	t.Run("Set pipeline successfully", func(t *testing.T) {
		p := pipeline.NewPipeline(testChunker, testEmbedder)

		v.SetPipeline(p)

		assert.Equal(t, p, v.Pipeline, "Expected pipeline to be set")
	})

	t.Run("Replace existing pipeline", func(t *testing.T) {
		first := pipeline.NewPipeline(testChunker, testEmbedder)
		second := pipeline.NewPipeline(testChunker, testEmbedder)

		v.SetPipeline(first)
		require.Equal(t, first, v.Pipeline, "Expected first pipeline to be set")

		v.SetPipeline(second)
		assert.Equal(t, second, v.Pipeline, "Expected second pipeline to replace first")
	})
}

func TestVeridocIndexDocument(t *testing.T) {
	ctx := context.Background()
	v := initVeridoc(t)
	v.SetPipeline(pipeline.NewPipeline(testChunker, testEmbedder))
	tenantID := uuid.New()

	t.Run("Index and delete a document", func(t *testing.T) {
		document := newTestDocument(tenantID, "fire_spec", "The fire alarm panel is located in the lobby.\n\nEscape signage is illuminated.")

		report, err := v.IndexDocument(ctx, document, []string{model.GeneralCollection})
		require.NoError(t, err, "Expected IndexDocument to not return an error")
		assert.Equal(t, model.IndexStatusCompleted, report.Status, "Expected the document to be fully indexed")
		assert.Equal(t, 2, report.ChunkCount, "Expected one chunk per paragraph")

		registered, err := v.Documents.SelectDocument(ctx, tenantID, document.RID)
		require.NoError(t, err, "Expected the document to be registered")
		assert.Equal(t, 2, registered.UnitCount, "Expected the registered unit count to match")

		deleted, err := v.DeleteDocument(ctx, tenantID, document.RID)
		assert.NoError(t, err, "Expected DeleteDocument to not return an error")
		assert.Equal(t, 2, deleted, "Expected both units to be deleted")

		_, err = v.Documents.SelectDocument(ctx, tenantID, document.RID)
		assert.Error(t, err, "Expected the registry entry to be gone")
	})

	t.Run("Reindex replaces the previous units", func(t *testing.T) {
		document := newTestDocument(tenantID, "reindex_spec", "First fire paragraph.\n\nSecond paragraph.")

		_, err := v.IndexDocument(ctx, document, []string{model.GeneralCollection})
		require.NoError(t, err, "Expected IndexDocument to not return an error")

		document.Content = "First fire paragraph.\n\nSecond paragraph.\n\nThird paragraph."
		report, err := v.ReindexDocument(ctx, document, []string{model.GeneralCollection})
		require.NoError(t, err, "Expected ReindexDocument to not return an error")
		assert.Equal(t, 3, report.ChunkCount, "Expected the new chunking to be reported")

		units, err := v.Units.SelectUnitsByDocument(ctx, tenantID, document.RID)
		require.NoError(t, err, "Expected SelectUnitsByDocument to not return an error")
		assert.Len(t, units, 3, "Expected only the reindexed units to remain")
	})

	t.Run("Error when pipeline not set", func(t *testing.T) {
		bare := initVeridoc(t)
		document := newTestDocument(tenantID, "no_pipeline", "Some content.")

		_, err := bare.IndexDocument(ctx, document, nil)
		assert.Error(t, err, "Expected an error without a pipeline")
		assert.Contains(t, err.Error(), "pipeline not set", "Expected the pipeline validation error")
	})
}

func TestVeridocSearch(t *testing.T) {
	ctx := context.Background()
	v := initVeridoc(t)
	v.SetPipeline(pipeline.NewPipeline(testChunker, testEmbedder))
	tenantID := uuid.New()

	fireDoc := newTestDocument(tenantID, "fire_doc", "The fire alarm system covers every floor.")
	_, err := v.IndexDocument(ctx, fireDoc, []string{model.GeneralCollection})
	require.NoError(t, err, "Expected IndexDocument to not return an error")

	beamDoc := newTestDocument(tenantID, "beam_doc", "Fire rated casing protects the steel beam connections.")
	_, err = v.IndexDocument(ctx, beamDoc, []string{model.GeneralCollection})
	require.NoError(t, err, "Expected IndexDocument to not return an error")

	t.Run("Search returns the most similar units first", func(t *testing.T) {
		results, err := v.Search(ctx, "Where is the fire alarm?", model.GeneralCollection, tenantID, nil)
		require.NoError(t, err, "Expected Search to not return an error")
		require.NotEmpty(t, results, "Expected at least one result")
		assert.Contains(t, results[0].Unit.Text, "fire alarm", "Expected the fire alarm unit to rank first")
		assert.Equal(t, model.RetrievalMethodVector, results[0].RetrievalMethod, "Expected plain vector retrieval")
	})

	t.Run("DocumentScopedSearch keeps only the given documents", func(t *testing.T) {
		results, err := v.DocumentScopedSearch(ctx, "fire protection of the beam", model.GeneralCollection, []uuid.UUID{beamDoc.RID}, tenantID, nil)
		require.NoError(t, err, "Expected DocumentScopedSearch to not return an error")
		require.NotEmpty(t, results, "Expected at least one result")
		for _, result := range results {
			assert.Equal(t, beamDoc.RID, result.Unit.DocumentID, "Expected only units of the scoped document")
			assert.Equal(t, model.RetrievalMethodFiltered, result.RetrievalMethod, "Expected the results to be marked as filtered")
		}
	})

	t.Run("DocumentScopedSearch with empty document list returns an error", func(t *testing.T) {
		_, err := v.DocumentScopedSearch(ctx, "fire", model.GeneralCollection, []uuid.UUID{}, tenantID, nil)
		assert.Error(t, err, "Expected an error for an empty document list")
		assert.Contains(t, err.Error(), "at least one document RID", "Expected the validation error")
	})

	t.Run("Search without a pipeline returns an error", func(t *testing.T) {
		bare := initVeridoc(t)

		_, err := bare.Search(ctx, "fire", model.GeneralCollection, tenantID, nil)
		assert.Error(t, err, "Expected an error without a pipeline")
		assert.Contains(t, err.Error(), "pipeline with embedder not set", "Expected the pipeline validation error")
	})
}

func TestQueryForContext(t *testing.T) {
	ctx := context.Background()
	v := initVeridoc(t)
	v.SetPipeline(pipeline.NewPipeline(testChunker, testEmbedder))
	tenantID := uuid.New()

	document := newTestDocument(tenantID, "fire_context", "Fire doors are rated for 30 minutes.")
	_, err := v.IndexDocument(ctx, document, []string{model.GeneralCollection})
	require.NoError(t, err, "Expected IndexDocument to not return an error")

	t.Run("Renders retrieved units as context", func(t *testing.T) {
		contextBlock, sources := v.QueryForContext(ctx, "fire door rating", model.GeneralCollection, tenantID, nil)

		assert.Contains(t, contextBlock, "[Context 1]", "Expected a numbered context block")
		assert.Contains(t, contextBlock, "Fire doors", "Expected the unit text in the context")
		require.Len(t, sources, 1, "Expected one source document")
		assert.Equal(t, document.RID, sources[0].DocumentRID, "Expected the source to reference the document")
		assert.Equal(t, "fire_context.pdf", sources[0].Filename, "Expected the filename from the unit metadata")
	})

	t.Run("Unknown tenant yields the no-context marker", func(t *testing.T) {
		contextBlock, sources := v.QueryForContext(ctx, "fire door rating", model.GeneralCollection, uuid.New(), nil)

		assert.Equal(t, retrieval.NoContextMarker, contextBlock, "Expected the no-context marker")
		assert.Empty(t, sources, "Expected no sources")
	})

	t.Run("Retrieval failure degrades to the marker", func(t *testing.T) {
		contextBlock, sources := v.QueryForContext(ctx, "fire door rating", model.GeneralCollection, uuid.Nil, nil)

		assert.Equal(t, retrieval.NoContextMarker, contextBlock, "Expected the no-context marker on failure")
		assert.Empty(t, sources, "Expected no sources on failure")
	})
}

func TestVeridocAsk(t *testing.T) {
	ctx := context.Background()
	v := initVeridoc(t)
	v.SetPipeline(pipeline.NewPipeline(testChunker, testEmbedder))

	t.Run("Ask without an answer service returns an error", func(t *testing.T) {
		_, _, err := v.Ask(ctx, "Is the building compliant?", model.DisciplineFireSafety, uuid.New(), nil, nil)
		assert.Error(t, err, "Expected an error without an answer service")
		assert.Contains(t, err.Error(), "answer service not set", "Expected the answer service validation error")
	})

	t.Run("UseAnswerService sets up the answerer", func(t *testing.T) {
		err := v.UseAnswerService("test-key", "")
		assert.NoError(t, err, "Expected UseAnswerService to not return an error")
		assert.NotNil(t, v.Answerer, "Expected the answerer to be set")
	})
}

func TestAnalyzeDocument(t *testing.T) {
	v := initVeridoc(t)

	t.Run("Fire strategy document yields fire safety findings", func(t *testing.T) {
		text := "Fire Safety Strategy for Block C.\n\n" +
			"This fire safety strategy addresses Part B1 of the Building Regulations. " +
			"Means of escape are provided via two protected stairways and fire detection " +
			"to BS 5839 is installed throughout."

		classification, verdict := v.AnalyzeDocument(text, "fire-strategy.pdf")

		assert.Equal(t, model.DocumentTypeFireStrategy, classification.DocumentType, "Expected a fire strategy document")
		require.NotEmpty(t, classification.Agents, "Expected at least one agent")
		assert.Equal(t, model.DisciplineFireSafety, classification.Agents[0], "Expected fire safety to review first")

		require.Len(t, verdict.Findings, 5, "Expected one finding per fire safety template")
		assert.Equal(t, model.StatusRed, verdict.OverallStatus, "Expected unaddressed fire requirements to dominate")

		var b1 *model.CalibratedFinding
		for i := range verdict.Findings {
			if verdict.Findings[i].RequirementID == "fire-b1" {
				b1 = &verdict.Findings[i]
			}
		}
		require.NotNil(t, b1, "Expected a finding for Part B1")
		assert.True(t, b1.IsCompliant, "Expected the Part B1 requirement to be met")
		assert.InDelta(t, 0.55, b1.BaseConfidence, 0.001, "Expected the base confidence from mention and keyword fraction")
		assert.Equal(t, model.StatusAmber, b1.TrafficLight, "Expected a compliant finding below the green threshold to be amber")
	})

	t.Run("Unmatched text requires manual classification", func(t *testing.T) {
		classification, verdict := v.AnalyzeDocument("General site visit notes.", "notes.txt")

		assert.Equal(t, []model.Discipline{model.RequiresManualClassification}, classification.Disciplines, "Expected the sentinel discipline")
		assert.Empty(t, verdict.Findings, "Expected no findings without a matched discipline")
		assert.Equal(t, model.StatusAmber, verdict.OverallStatus, "Expected an unverifiable document to need review")
	})

	t.Run("Custom requirements replace the built-ins", func(t *testing.T) {
		v.SetRequirements([]model.Requirement{
			{
				ID:         "custom-1",
				Discipline: model.DisciplineFireSafety,
				Regulation: "BS 9999",
				Title:      "Fire engineering design",
				Keywords:   []string{"fire engineering"},
			},
		})
		t.Cleanup(func() {
			v.SetRequirements(analysis.BuiltinRequirements())
		})

		text := "Fire engineering assessment carried out in accordance with BS 9999 " +
			"for the atrium smoke control design of the central court."

		_, verdict := v.AnalyzeDocument(text, "fe-assessment.pdf")

		require.Len(t, verdict.Findings, 1, "Expected only the custom template to be checked")
		assert.Equal(t, "custom-1", verdict.Findings[0].RequirementID, "Expected the custom requirement")
		assert.True(t, verdict.Findings[0].IsCompliant, "Expected the custom requirement to be met")
	})
}

func TestVeridocLoadRequirements(t *testing.T) {
	v := initVeridoc(t)

	t.Run("Merges templates from a YAML file", func(t *testing.T) {
		content := `requirements:
  - id: custom-fire
    discipline: fire_safety
    regulation: BS 9999
    title: Fire engineering assessment
    keywords:
      - fire engineering
`
		path := filepath.Join(t.TempDir(), "requirements.yaml")
		require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

		err := v.LoadRequirements(path)
		require.NoError(t, err, "Expected LoadRequirements to not return an error")
		assert.Len(t, v.requirements, len(analysis.BuiltinRequirements())+1, "Expected the custom template to be appended")

		found := false
		for _, requirement := range v.requirements {
			if requirement.ID == "custom-fire" {
				found = true
			}
		}
		assert.True(t, found, "Expected the custom template to be loaded")
	})

	t.Run("Missing file returns an error", func(t *testing.T) {
		err := v.LoadRequirements(filepath.Join(t.TempDir(), "missing.yaml"))
		assert.Error(t, err, "Expected an error for a missing file")
	})
}

func TestCollectionStats(t *testing.T) {
	ctx := context.Background()
	v := initVeridoc(t)
	v.SetPipeline(pipeline.NewPipeline(testChunker, testEmbedder))
	tenantID := uuid.New()

	document := newTestDocument(tenantID, "stats_doc", "Fire stopping details.\n\nCavity barrier locations.")
	collections := []string{model.DisciplineFireSafety.Collection(), model.GeneralCollection}
	_, err := v.IndexDocument(ctx, document, collections)
	require.NoError(t, err, "Expected IndexDocument to not return an error")

	t.Run("Counts units per collection", func(t *testing.T) {
		stats, err := v.CollectionStats(ctx, tenantID)
		require.NoError(t, err, "Expected CollectionStats to not return an error")
		assert.Equal(t, 2, stats[model.DisciplineFireSafety.Collection()], "Expected both units in the fire safety collection")
		assert.Equal(t, 2, stats[model.GeneralCollection], "Expected both units in the general collection")
	})

	t.Run("Unknown tenant has no stats", func(t *testing.T) {
		stats, err := v.CollectionStats(ctx, uuid.New())
		require.NoError(t, err, "Expected CollectionStats to not return an error")
		assert.Empty(t, stats, "Expected no counts for an unknown tenant")
	})
}

func TestVeridocChangeIndexType(t *testing.T) {
	ctx := context.Background()
	v := initVeridoc(t)

	t.Run("Switch to ivfflat and back", func(t *testing.T) {
		err := v.ChangeIndexType(ctx, "ivfflat", map[string]interface{}{"lists": 10})
		assert.NoError(t, err, "Expected the switch to ivfflat to work")

		err = v.ChangeIndexType(ctx, "hnsw", nil)
		assert.NoError(t, err, "Expected the switch back to hnsw to work")
	})

	t.Run("Unsupported index type returns an error", func(t *testing.T) {
		err := v.ChangeIndexType(ctx, "btree", nil)
		assert.Error(t, err, "Expected an error for an unsupported index type")
		assert.Contains(t, err.Error(), "unsupported index type", "Expected the validation error")
	})
}
