package retrieval

import (
	"context"
	"log"
	"log/slog"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/veridoc/veridoc/core/pipeline"
	"github.com/veridoc/veridoc/database"
	"github.com/veridoc/veridoc/helper"
	"github.com/veridoc/veridoc/model"
	loadSql "github.com/veridoc/veridoc/sql"
)

var dbPort string

func TestMain(m *testing.M) {
	var teardown func(ctx context.Context, opts ...testcontainers.TerminateOption) error
	var err error
	teardown, dbPort, err = helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("error starting postgres container: %v", err)
	}

	m.Run()

	if teardown != nil && teardown(context.Background()) != nil {
		log.Fatalf("error tearing down postgres container: %v", err)
	}
}

func initDB(t *testing.T) *helper.Database {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err, "failed to create database configuration")
	db := helper.NewTestDatabase(dbConfig)

	err = loadSql.Init(db.Instance)
	require.NoError(t, err)

	return db
}

func initEngine(t *testing.T) (*Engine, *database.UnitsDBHandler, *database.DocumentsDBHandler) {
	db := initDB(t)

	units, err := database.NewUnitsDBHandler(db, 4, true)
	require.NoError(t, err)

	documents, err := database.NewDocumentsDBHandler(db, true)
	require.NoError(t, err)

	logger := slog.New(helper.NewPrettyHandler(os.Stdout, helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{Level: slog.LevelWarn},
	}))

	engine := NewEngine(units, documents, logger)
	engine.SetPipeline(pipeline.NewPipeline(testChunker, testEmbedder))

	return engine, units, documents
}

func newTestDocument(tenantID uuid.UUID, title string, content string) *model.Document {
	return &model.Document{
		RID:       uuid.New(),
		TenantID:  tenantID,
		Title:     title,
		Source:    title + ".pdf",
		Content:   content,
		PageCount: 1,
		Metadata:  model.Metadata{"filename": title + ".pdf"},
	}
}

// testChunker splits on blank lines, one chunk per paragraph
func testChunker(text string) ([]model.Chunk, error) {
	var chunks []model.Chunk
	for _, paragraph := range strings.Split(text, "\n\n") {
		paragraph = strings.TrimSpace(paragraph)
		if paragraph == "" {
			continue
		}
		chunks = append(chunks, model.Chunk{
			Text:    paragraph,
			CharEnd: len(paragraph),
		})
	}

	for i := range chunks {
		chunks[i].SequenceIndex = i
		chunks[i].TotalChunks = len(chunks)
	}

	return chunks, nil
}

// testEmbedder embeds every text through embedText so similarity is predictable
func testEmbedder(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, len(texts))
	for i, text := range texts {
		embeddings[i] = embedText(text)
	}
	return embeddings, nil
}

// embedText maps fire related text onto the first axis and structural text
// onto the second, everything else stays near the origin
func embedText(text string) []float32 {
	lower := strings.ToLower(text)
	embedding := []float32{0.1, 0.1, 0.1, 0.1}
	if strings.Contains(lower, "fire") {
		embedding[0] = 1
	}
	if strings.Contains(lower, "beam") {
		embedding[1] = 1
	}
	return embedding
}
