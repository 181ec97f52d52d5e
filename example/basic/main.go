package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/veridoc/veridoc"
	"github.com/veridoc/veridoc/core/pipeline"
	"github.com/veridoc/veridoc/helper"
	"github.com/veridoc/veridoc/model"
)

const sampleContent = `Fire Safety Strategy
Project: Riverside Office Development

--- Page 1 ---

This fire safety strategy addresses Part B1 of the Building Regulations.
Means of escape are provided by two protected stairways and automatic fire
detection to BS 5839 category L2 is installed throughout all floors.
Travel distances remain within the limits of Approved Document B.

--- Page 2 ---

Compartment floors achieve a 60 minute fire rating in line with Part B3.
Cavity barriers and fire stopping are provided at every service penetration.
Access for the fire service is from the north elevation with a dry fire
main in each stair core.`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration using the container port
	dbConfig := &helper.DatabaseConfiguration{
		Host:     "localhost",
		Port:     dbPort,
		Database: "database",
		Username: "user",
		Password: "password",
		Schema:   "public",
		SSLMode:  "disable",
	}

	v, err := veridoc.NewVeridoc(dbConfig, pipeline.DefaultEmbeddingDim)
	if err != nil {
		log.Fatalf("Failed to create veridoc: %v", err)
	}
	defer v.Close()

	// Set up the default pipeline (paragraph chunking + local embeddings)
	if err := v.UseDefaultPipeline(); err != nil {
		log.Fatalf("Failed to set up pipeline: %v", err)
	}

	// Every operation is scoped to a tenant
	tenantID := uuid.New()

	doc := &model.Document{
		TenantID:  tenantID,
		Title:     "Fire Safety Strategy",
		Source:    "basic_example",
		Content:   sampleContent,
		PageCount: 2,
		Metadata: model.Metadata{
			"filename": "fire_safety_strategy.pdf",
			"project":  "Riverside Office Development",
		},
	}

	ctx := context.Background()

	// Index into the fire safety collection plus the general one
	fmt.Println("Indexing document...")
	collections := []string{model.DisciplineFireSafety.Collection(), model.GeneralCollection}
	report, err := v.IndexDocument(ctx, doc, collections)
	if err != nil {
		log.Fatalf("Failed to index document: %v", err)
	}
	fmt.Printf("Document indexed with RID: %s\n", doc.RID)
	fmt.Printf("Status: %s, %d chunks into %d collections\n", report.Status, report.ChunkCount, len(report.Collections))

	// Perform a vector search in the fire safety collection
	queryText := "What fire detection is installed?"
	fmt.Printf("\nQuerying: %s\n", queryText)

	config := model.DefaultQueryConfig()
	config.TopK = 3

	results, err := v.Search(ctx, queryText, model.DisciplineFireSafety.Collection(), tenantID, &config)
	if err != nil {
		log.Fatalf("Failed to search: %v", err)
	}

	fmt.Printf("\nFound %d results:\n", len(results))
	for i, result := range results {
		fmt.Printf("\n--- Result %d ---\n", i+1)
		fmt.Printf("Similarity: %.4f\n", result.SimilarityScore)
		if result.Unit.PageNumber != nil {
			fmt.Printf("Page: %d\n", *result.Unit.PageNumber)
		}
		text := result.Unit.Text
		if len(text) > 120 {
			text = text[:120] + "..."
		}
		fmt.Printf("Text: %s\n", text)
	}

	// Render the same results as a model context block
	contextBlock, sources := v.QueryForContext(ctx, queryText, model.DisciplineFireSafety.Collection(), tenantID, &config)
	fmt.Printf("\nFormatted context:\n%s\n", contextBlock)
	for _, source := range sources {
		fmt.Printf("Source: %s (%s)\n", source.Filename, source.DocumentRID)
	}

	// Answer the question when an API key is available
	if os.Getenv("ANTHROPIC_API_KEY") != "" {
		if err := v.UseAnswerService("", ""); err != nil {
			log.Fatalf("Failed to set up answer service: %v", err)
		}

		answer, _, err := v.Ask(ctx, queryText, model.DisciplineFireSafety, tenantID, &config, nil)
		if err != nil {
			log.Fatalf("Failed to answer question: %v", err)
		}
		fmt.Printf("\nAnswer (%s, %d input / %d output tokens):\n%s\n",
			answer.Model, answer.InputTokens, answer.OutputTokens, answer.Text)
	} else {
		fmt.Println("\nSet ANTHROPIC_API_KEY to see the question answering flow.")
	}

	// Show how many units each collection holds for this tenant
	stats, err := v.CollectionStats(ctx, tenantID)
	if err != nil {
		log.Fatalf("Failed to load collection stats: %v", err)
	}
	fmt.Println("\nUnits per collection:")
	for collection, count := range stats {
		fmt.Printf("  %s: %d\n", collection, count)
	}

	fmt.Println("\nBasic example completed successfully!")
}
