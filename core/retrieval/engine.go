package retrieval

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/veridoc/veridoc/core/pipeline"
	"github.com/veridoc/veridoc/database"
	"github.com/veridoc/veridoc/helper"
	"github.com/veridoc/veridoc/model"
	"golang.org/x/sync/errgroup"
)

// defaultFanOutLimit bounds how many collections are written concurrently
// during an indexing fan-out.
const defaultFanOutLimit = 4

// Engine indexes documents into vector collections and answers similarity queries
type Engine struct {
	units     *database.UnitsDBHandler
	documents *database.DocumentsDBHandler
	pipeline  *pipeline.Pipeline
	log       *slog.Logger
}

// NewEngine creates a new retrieval engine
func NewEngine(units *database.UnitsDBHandler, documents *database.DocumentsDBHandler, logger *slog.Logger) *Engine {
	return &Engine{
		units:     units,
		documents: documents,
		log:       logger,
	}
}

// SetPipeline sets the chunking and embedding pipeline used for indexing
func (e *Engine) SetPipeline(pipeline *pipeline.Pipeline) {
	e.pipeline = pipeline
}

// IndexDocument processes a document by:
// 1. Chunking and embedding the content once through the pipeline
// 2. Registering the document metadata (without content)
// 3. Writing the units into every requested collection concurrently
// An empty collections slice targets all discipline collections plus the
// general one. Each collection is written independently, so one collection's
// failure never blocks or cancels the others. Documents without usable text
// are skipped, not treated as errors.
func (e *Engine) IndexDocument(ctx context.Context, document *model.Document, collections []string) (*model.IndexReport, error) {
	if e.pipeline == nil {
		return nil, helper.NewError("pipeline validation", fmt.Errorf("pipeline not set, use SetPipeline() first"))
	}
	if document == nil {
		return nil, helper.NewError("document validation", fmt.Errorf("document is nil"))
	}

	if document.RID == uuid.Nil {
		document.RID = uuid.New()
	}

	if strings.TrimSpace(document.Content) == "" {
		e.log.Info("Skipping document without text content", slog.String("document_rid", document.RID.String()))
		return &model.IndexReport{DocumentRID: document.RID, Status: model.IndexStatusSkipped}, nil
	}

	if len(collections) == 0 {
		collections = model.AllCollections()
	}

	chunks, embeddings, err := e.pipeline.Process(ctx, document.Content, document.PageCount)
	if err != nil {
		return nil, helper.NewError("process document content", err)
	}
	if len(chunks) == 0 {
		e.log.Info("Skipping document without chunkable content", slog.String("document_rid", document.RID.String()))
		return &model.IndexReport{DocumentRID: document.RID, Status: model.IndexStatusSkipped}, nil
	}

	document.UnitCount = len(chunks)
	document.Collections = collections
	if err := e.documents.InsertDocument(ctx, document); err != nil {
		return nil, helper.NewError("register document", err)
	}

	results := make([]model.CollectionResult, len(collections))
	var group errgroup.Group
	group.SetLimit(defaultFanOutLimit)
	for i, collection := range collections {
		group.Go(func() error {
			results[i] = e.indexCollection(ctx, document, collection, chunks, embeddings)
			return nil
		})
	}
	// Workers record failures per collection and never return errors
	_ = group.Wait()

	report := &model.IndexReport{
		DocumentRID: document.RID,
		Status:      indexStatus(results),
		ChunkCount:  len(chunks),
		Collections: results,
	}

	e.log.Info("Indexed document",
		slog.String("document_rid", document.RID.String()),
		slog.String("status", string(report.Status)),
		slog.Int("num_chunks", len(chunks)),
		slog.Int("num_collections", len(collections)))

	return report, nil
}

// indexCollection writes every chunk of a document into one collection.
// The first insert error aborts the collection and is recorded on the result.
func (e *Engine) indexCollection(ctx context.Context, document *model.Document, collection string, chunks []model.Chunk, embeddings [][]float32) model.CollectionResult {
	result := model.CollectionResult{Collection: collection}

	for i, chunk := range chunks {
		unit := &model.IndexedUnit{
			Chunk:      chunk,
			Collection: collection,
			TenantID:   document.TenantID,
			ProjectID:  document.ProjectID,
			DocumentID: document.RID,
			Embedding:  embeddings[i],
			Metadata:   document.Metadata,
		}

		if err := e.units.InsertUnit(ctx, unit); err != nil {
			result.Error = err.Error()
			e.log.Warn("Failed to index collection",
				slog.String("collection", collection),
				slog.String("document_rid", document.RID.String()),
				slog.String("error", err.Error()))
			return result
		}
		result.Indexed++
	}

	return result
}

// indexStatus derives the overall report status from the per collection results
func indexStatus(results []model.CollectionResult) model.IndexStatus {
	failed := 0
	for _, result := range results {
		if result.Error != "" {
			failed++
		}
	}

	switch {
	case failed == 0:
		return model.IndexStatusCompleted
	case failed == len(results):
		return model.IndexStatusFailed
	default:
		return model.IndexStatusPartial
	}
}

// ReindexDocument removes all previously indexed units of the document and
// indexes the current content from scratch
func (e *Engine) ReindexDocument(ctx context.Context, document *model.Document, collections []string) (*model.IndexReport, error) {
	if document == nil {
		return nil, helper.NewError("document validation", fmt.Errorf("document is nil"))
	}
	if document.RID == uuid.Nil {
		return nil, helper.NewError("document validation", fmt.Errorf("document rid must not be nil"))
	}

	deleted, err := e.units.DeleteUnitsByDocument(ctx, document.TenantID, document.RID)
	if err != nil {
		return nil, helper.NewError("delete previous units", err)
	}

	e.log.Info("Removed previous index of document",
		slog.String("document_rid", document.RID.String()),
		slog.Int("num_deleted", deleted))

	return e.IndexDocument(ctx, document, collections)
}

// DeleteDocument removes the document's units from every collection and the
// registry entry. Returns the number of deleted units.
func (e *Engine) DeleteDocument(ctx context.Context, tenantID uuid.UUID, documentRID uuid.UUID) (int, error) {
	deleted, err := e.units.DeleteUnitsByDocument(ctx, tenantID, documentRID)
	if err != nil {
		return 0, helper.NewError("delete units", err)
	}

	err = e.documents.DeleteDocument(ctx, tenantID, documentRID)
	if err != nil {
		return deleted, helper.NewError("delete document", err)
	}

	e.log.Info("Deleted document",
		slog.String("document_rid", documentRID.String()),
		slog.Int("num_deleted", deleted))

	return deleted, nil
}

// Query performs pure vector similarity search against a single collection
func (e *Engine) Query(ctx context.Context, collection string, embedding []float32, tenantID uuid.UUID, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	units, err := e.units.SelectUnitsBySimilarity(ctx, collection, embedding, tenantID, config)
	if err != nil {
		return nil, err
	}

	results := make([]*model.RetrievalResult, len(units))
	for i, unit := range units {
		results[i] = &model.RetrievalResult{
			Unit:            unit,
			Score:           unit.Similarity,
			SimilarityScore: unit.Similarity,
			RetrievalMethod: model.RetrievalMethodVector,
		}
	}

	return results, nil
}
