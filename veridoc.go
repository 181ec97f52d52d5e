package veridoc

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/veridoc/veridoc/core/analysis"
	"github.com/veridoc/veridoc/core/answer"
	"github.com/veridoc/veridoc/core/classify"
	"github.com/veridoc/veridoc/core/pipeline"
	"github.com/veridoc/veridoc/core/retrieval"
	"github.com/veridoc/veridoc/database"
	"github.com/veridoc/veridoc/helper"
	"github.com/veridoc/veridoc/model"
	loadSql "github.com/veridoc/veridoc/sql"
)

// Veridoc provides a unified interface to indexing, retrieval, compliance
// analysis and question answering
type Veridoc struct {
	DB        *helper.Database
	Units     *database.UnitsDBHandler
	Documents *database.DocumentsDBHandler
	Pipeline  *pipeline.Pipeline // Optional chunking and embedding pipeline
	Engine    *retrieval.Engine  // Retrieval engine for indexing and similarity search
	Checker   *analysis.Checker  // Regulation requirement checker
	Answerer  *answer.Service    // Optional question answering, see UseAnswerService
	// Analysis configuration
	requirements []model.Requirement
	factors      analysis.CalibrationFactors
	score        analysis.ScoreConfig
	// Logging
	log *slog.Logger
}

// NewVeridoc creates a new Veridoc instance with all handlers initialized
func NewVeridoc(config *helper.DatabaseConfiguration, embeddingDim int) (*Veridoc, error) {
	// Logger
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	logger := slog.New(helper.NewPrettyHandler(os.Stdout, opts))

	// Initialize database
	db := helper.NewDatabase("veridoc", config, logger)
	err := loadSql.Init(db.Instance)
	if err != nil {
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Create all handlers in the correct order (documents first, then units)
	// force=false to not reload if functions already exist
	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		return nil, helper.NewError("create documents handler", err)
	}

	units, err := database.NewUnitsDBHandler(db, embeddingDim, false)
	if err != nil {
		return nil, helper.NewError("create units handler", err)
	}

	// Create retrieval engine with database handlers
	engine := retrieval.NewEngine(units, documents, logger)

	return &Veridoc{
		DB:           db,
		Units:        units,
		Documents:    documents,
		Engine:       engine,
		Checker:      analysis.NewChecker(logger),
		requirements: analysis.BuiltinRequirements(),
		factors:      analysis.DefaultCalibrationFactors(),
		score:        analysis.DefaultScoreConfig(),
		log:          logger,
	}, nil
}

// Close closes the database connection
func (v *Veridoc) Close() error {
	if v.DB != nil && v.DB.Instance != nil {
		return v.DB.Instance.Close()
	}
	return nil
}

// SetPipeline sets the chunking and embedding pipeline for document processing
func (v *Veridoc) SetPipeline(pipeline *pipeline.Pipeline) {
	v.Pipeline = pipeline
	v.Engine.SetPipeline(pipeline)
}

// UseDefaultPipeline sets up the default chunking and embedding pipeline.
// This uses ParagraphChunker with 2000 char target chunks and 500 char overlap,
// a page aware chunker for multi-page documents,
// and DefaultEmbedder with the all-MiniLM-L6-v2 model (384 dimensions)
func (v *Veridoc) UseDefaultPipeline() error {
	embedder, err := pipeline.DefaultEmbedder()
	if err != nil {
		return helper.NewError("create default embedder", err)
	}

	config := pipeline.DefaultChunkConfig()
	p := pipeline.NewPipeline(pipeline.ParagraphChunker(config), embedder)
	p.SetPageChunker(pipeline.PageAwareChunker(config))
	v.SetPipeline(p)
	return nil
}

// UseOpenAIPipeline sets up the chunking pipeline with the OpenAI embeddings API.
// The default model is text-embedding-3-small with 1536 dimensions
func (v *Veridoc) UseOpenAIPipeline(apiKey string, opts ...pipeline.OpenAIOption) error {
	embedder, err := pipeline.OpenAIEmbedder(apiKey, opts...)
	if err != nil {
		return helper.NewError("create openai embedder", err)
	}

	config := pipeline.DefaultChunkConfig()
	p := pipeline.NewPipeline(pipeline.ParagraphChunker(config), embedder)
	p.SetPageChunker(pipeline.PageAwareChunker(config))
	v.SetPipeline(p)
	return nil
}

// UseAnswerService sets up the question answering service.
// An empty apiKey falls back to the ANTHROPIC_API_KEY environment variable,
// an empty model falls back to the service default
func (v *Veridoc) UseAnswerService(apiKey string, model string) error {
	service, err := answer.NewService(apiKey, model, answer.DefaultRetryConfig(), v.log)
	if err != nil {
		return helper.NewError("create answer service", err)
	}
	v.Answerer = service
	return nil
}

// IndexDocument chunks, embeds and writes a document into the given vector
// collections (every collection when none are given) and registers it in the
// documents registry
func (v *Veridoc) IndexDocument(ctx context.Context, document *model.Document, collections []string) (*model.IndexReport, error) {
	return v.Engine.IndexDocument(ctx, document, collections)
}

// ReindexDocument removes a document's indexed units and indexes it again
func (v *Veridoc) ReindexDocument(ctx context.Context, document *model.Document, collections []string) (*model.IndexReport, error) {
	return v.Engine.ReindexDocument(ctx, document, collections)
}

// DeleteDocument removes a document's units from all collections and its
// registry entry. Returns the number of units deleted
func (v *Veridoc) DeleteDocument(ctx context.Context, tenantID uuid.UUID, documentRID uuid.UUID) (int, error) {
	return v.Engine.DeleteDocument(ctx, tenantID, documentRID)
}

// Search performs vector similarity search in a single collection.
// When config carries document RIDs the results are narrowed to those documents
func (v *Veridoc) Search(ctx context.Context, query string, collection string, tenantID uuid.UUID, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	embedding, err := v.embedQuery(ctx, query)
	if err != nil {
		return nil, helper.NewError("vector search", err)
	}

	return v.strategyFor(config).Retrieve(ctx, collection, embedding, tenantID, config)
}

// DocumentScopedSearch performs similarity search within specific documents only.
// This is optimized for single or multi-document Q&A by filtering at the database level
func (v *Veridoc) DocumentScopedSearch(ctx context.Context, query string, collection string, documentRIDs []uuid.UUID, tenantID uuid.UUID, config *model.QueryConfig) ([]*model.RetrievalResult, error) {
	if len(documentRIDs) == 0 {
		return nil, helper.NewError("document scoped search", fmt.Errorf("at least one document RID must be provided"))
	}

	// Set document filter in config
	if config == nil {
		config = &model.QueryConfig{}
	}
	config.DocumentRIDs = documentRIDs

	return v.Search(ctx, query, collection, tenantID, config)
}

// QueryForContext retrieves the most relevant units for a query and renders
// them as a numbered context block together with their sources. Retrieval
// failures degrade to the no-context marker with a warning so prompts stay
// well formed
func (v *Veridoc) QueryForContext(ctx context.Context, query string, collection string, tenantID uuid.UUID, config *model.QueryConfig) (string, []retrieval.Source) {
	results, err := v.Search(ctx, query, collection, tenantID, config)
	if err != nil {
		v.log.Warn("Context retrieval failed, continuing without context", slog.String("collection", collection), slog.String("error", err.Error()))
		return retrieval.NoContextMarker, []retrieval.Source{}
	}

	maxChunks := 0
	if config != nil {
		maxChunks = config.TopK
	}
	return retrieval.FormatContext(results, maxChunks), retrieval.ExtractSources(results)
}

// Ask retrieves context for a question from the discipline's collection and
// generates an answer with the configured answer service. It returns the
// answer together with the sources backing the context
func (v *Veridoc) Ask(ctx context.Context, question string, discipline model.Discipline, tenantID uuid.UUID, config *model.QueryConfig, history []answer.Turn) (*answer.Answer, []retrieval.Source, error) {
	if v.Answerer == nil {
		return nil, nil, helper.NewError("ask", fmt.Errorf("answer service not set, use UseAnswerService() first"))
	}

	contextBlock, sources := v.QueryForContext(ctx, question, collectionFor(discipline), tenantID, config)

	result, err := v.Answerer.Ask(ctx, discipline, question, contextBlock, history)
	if err != nil {
		return nil, nil, err
	}
	return result, sources, nil
}

// AnalyzeDocument classifies a document and checks the requirement templates
// of every invoked specialist against its text. It returns the classification
// together with the aggregated traffic light verdict
func (v *Veridoc) AnalyzeDocument(text string, filename string) (model.Classification, model.DocumentVerdict) {
	classification := classify.Classify(text, filename)

	findings := []model.RawFinding{}
	for _, agent := range classification.Agents {
		findings = append(findings, v.Checker.CheckDiscipline(text, agent, v.requirements)...)
	}

	verdict := analysis.ScoreFindings(findings, v.factors, v.score)
	v.log.Info(
		"Analyzed document",
		slog.String("document_type", string(classification.DocumentType)),
		slog.Int("num_findings", len(verdict.Findings)),
		slog.String("overall_status", string(verdict.OverallStatus)),
	)
	return classification, verdict
}

// LoadRequirements merges a YAML requirement template file over the built-in
// set used by AnalyzeDocument
func (v *Veridoc) LoadRequirements(path string) error {
	requirements, err := analysis.LoadRequirements(path, v.log)
	if err != nil {
		return err
	}
	v.requirements = requirements
	return nil
}

// SetRequirements replaces the requirement templates used by AnalyzeDocument
func (v *Veridoc) SetRequirements(requirements []model.Requirement) {
	v.requirements = requirements
}

// SetCalibrationFactors sets the document level context used for confidence
// calibration
func (v *Veridoc) SetCalibrationFactors(factors analysis.CalibrationFactors) {
	v.factors = factors
}

// CollectionStats returns the number of indexed units per collection for a tenant
func (v *Veridoc) CollectionStats(ctx context.Context, tenantID uuid.UUID) (map[string]int, error) {
	return v.Units.CountUnitsByCollection(ctx, tenantID)
}

// ChangeIndexType changes the vector index type between HNSW and IVFFlat
func (v *Veridoc) ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error {
	return v.Units.ChangeIndexType(ctx, indexType, params)
}

// embedQuery embeds a single query string with the configured pipeline
func (v *Veridoc) embedQuery(ctx context.Context, query string) ([]float32, error) {
	if v.Pipeline == nil || v.Pipeline.Embedder == nil {
		return nil, fmt.Errorf("pipeline with embedder not set, use SetPipeline() first")
	}

	embeddings, err := v.Pipeline.Embedder(ctx, []string{query})
	if err != nil {
		return nil, err
	}
	if len(embeddings) != 1 {
		return nil, fmt.Errorf("expected one embedding, got %d", len(embeddings))
	}
	return embeddings[0], nil
}

// strategyFor selects the retrieval strategy, a document filter on top of
// similarity search when the config restricts the search to specific documents
func (v *Veridoc) strategyFor(config *model.QueryConfig) retrieval.Strategy {
	if config != nil && len(config.DocumentRIDs) > 0 {
		return retrieval.NewDocumentFilterStrategy(v.Engine, config.DocumentRIDs)
	}
	return retrieval.NewSimilarityStrategy(v.Engine)
}

// collectionFor maps a discipline to its vector collection, unknown and
// sentinel disciplines land on the general collection
func collectionFor(discipline model.Discipline) string {
	if discipline == "" || discipline == model.RequiresManualClassification {
		return model.GeneralCollection
	}
	return discipline.Collection()
}
