package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/veridoc/veridoc"
	"github.com/veridoc/veridoc/core/pipeline"
	"github.com/veridoc/veridoc/helper"
	"github.com/veridoc/veridoc/model"
)

const fireStrategyContent = `Fire Safety Strategy
Project: Riverside Office Development

--- Page 1 ---

The fire alarm system provides automatic detection to BS 5839 category L2
with sounders achieving 65 dB(A) in all occupied areas. Manual call points
are installed at every storey exit and final exit door.

--- Page 2 ---

Escape routes are protected by 30 minute fire rated construction. Smoke
ventilation of the stair cores is provided by automatic opening vents at
each level, controlled from the fire alarm panel.`

const structuralSummaryContent = `Structural Design Summary
Project: Riverside Office Development

--- Page 1 ---

The primary frame comprises steel beams and columns designed to Eurocode 3
with composite floor slabs. Imposed loads of 3.5 kN/m2 are applied to all
office areas with reduction factors to BS EN 1991.

--- Page 2 ---

Foundations are bored concrete piles taken to the stiff clay stratum.
Pile caps and ground beams are designed to Eurocode 2 with cover for a
50 year design life.`

const fireStrategyRevision = `

--- Page 3 ---

A sprinkler system to BS EN 12845 provides suppression throughout the
basement levels, supplied from a dedicated tank and pump house.`

func main() {
	// Start a test PostgreSQL container
	teardown, dbPort, err := helper.MustStartPostgresContainer()
	if err != nil {
		log.Fatalf("Failed to start PostgreSQL container: %v", err)
	}
	defer teardown(context.Background())

	// Create database configuration
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

	tenantID := uuid.New()
	ctx := context.Background()

	fireDoc := &model.Document{
		TenantID:  tenantID,
		Title:     "Fire Safety Strategy",
		Source:    "advanced_example",
		Content:   fireStrategyContent,
		PageCount: 2,
		Metadata: model.Metadata{
			"filename": "fire_safety_strategy.pdf",
		},
	}

	structDoc := &model.Document{
		TenantID:  tenantID,
		Title:     "Structural Design Summary",
		Source:    "advanced_example",
		Content:   structuralSummaryContent,
		PageCount: 2,
		Metadata: model.Metadata{
			"filename": "structural_design_summary.pdf",
		},
	}

	// Each document goes into its discipline collection plus the general one
	fmt.Println("=== Indexing Documents ===")
	fireReport, err := v.IndexDocument(ctx, fireDoc, []string{model.DisciplineFireSafety.Collection(), model.GeneralCollection})
	if err != nil {
		log.Fatalf("Failed to index fire strategy: %v", err)
	}
	fmt.Printf("'%s' (RID: %s): %d chunks\n", fireDoc.Title, fireDoc.RID, fireReport.ChunkCount)

	structReport, err := v.IndexDocument(ctx, structDoc, []string{model.DisciplineStructuralEngineering.Collection(), model.GeneralCollection})
	if err != nil {
		log.Fatalf("Failed to index structural summary: %v", err)
	}
	fmt.Printf("'%s' (RID: %s): %d chunks\n", structDoc.Title, structDoc.RID, structReport.ChunkCount)

	queryText := "Which fire precautions protect the escape routes?"

	// 1. Vector search across everything the tenant indexed
	fmt.Println("\n=== 1. Vector Search (general collection) ===")
	config := model.DefaultQueryConfig()
	config.TopK = 3
	generalResults, err := v.Search(ctx, queryText, model.GeneralCollection, tenantID, &config)
	if err != nil {
		log.Fatalf("Vector search failed: %v", err)
	}
	printResults("General Collection", generalResults)

	// 2. The same query routed to each discipline collection
	fmt.Println("\n=== 2. Collection Routing ===")
	fireResults, err := v.Search(ctx, queryText, model.DisciplineFireSafety.Collection(), tenantID, &config)
	if err != nil {
		log.Fatalf("Fire collection search failed: %v", err)
	}
	printResults("Fire Safety Collection", fireResults)

	structResults, err := v.Search(ctx, queryText, model.DisciplineStructuralEngineering.Collection(), tenantID, &config)
	if err != nil {
		log.Fatalf("Structural collection search failed: %v", err)
	}
	printResults("Structural Collection", structResults)

	// 3. Document-scoped search
	fmt.Println("\n=== 3. Document-Scoped Search ===")
	fmt.Printf("Searching only within '%s'...\n", structDoc.Title)
	scopedResults, err := v.DocumentScopedSearch(ctx, "What loads are applied to the office floors?",
		model.GeneralCollection, []uuid.UUID{structDoc.RID}, tenantID, &config)
	if err != nil {
		log.Fatalf("Document-scoped search failed: %v", err)
	}
	printResults("Document-Scoped Search", scopedResults)

	// 4. Reindex the fire strategy after a revision added a page
	fmt.Println("\n=== 4. Reindexing After Revision ===")
	fireDoc.Content += fireStrategyRevision
	fireDoc.PageCount = 3
	revisedReport, err := v.ReindexDocument(ctx, fireDoc, []string{model.DisciplineFireSafety.Collection(), model.GeneralCollection})
	if err != nil {
		log.Fatalf("Failed to reindex fire strategy: %v", err)
	}
	fmt.Printf("Reindexed '%s': now %d chunks\n", fireDoc.Title, revisedReport.ChunkCount)

	sprinklerResults, err := v.Search(ctx, "Is sprinkler protection provided?", model.DisciplineFireSafety.Collection(), tenantID, &config)
	if err != nil {
		log.Fatalf("Sprinkler search failed: %v", err)
	}
	printResults("After Revision", sprinklerResults)

	// 5. Demonstrate index type switching
	fmt.Println("\n=== 5. Changing Index Type ===")
	fmt.Println("Switching to IVFFlat index...")
	err = v.ChangeIndexType(ctx, "ivfflat", map[string]interface{}{
		"lists": 100,
	})
	if err != nil {
		log.Printf("Warning: Index change failed (this is okay for small datasets): %v", err)
	} else {
		fmt.Println("Successfully switched to IVFFlat index")
	}

	fmt.Println("Switching back to HNSW index...")
	err = v.ChangeIndexType(ctx, "hnsw", map[string]interface{}{
		"m":               16,
		"ef_construction": 64,
	})
	if err != nil {
		log.Printf("Warning: Index change failed: %v", err)
	} else {
		fmt.Println("Successfully switched to HNSW index")
	}

	// 6. Collection statistics and document removal
	fmt.Println("\n=== 6. Collection Statistics and Cleanup ===")
	stats, err := v.CollectionStats(ctx, tenantID)
	if err != nil {
		log.Fatalf("Failed to load collection stats: %v", err)
	}
	fmt.Println("Units per collection:")
	for collection, count := range stats {
		fmt.Printf("  %s: %d\n", collection, count)
	}

	deleted, err := v.DeleteDocument(ctx, tenantID, structDoc.RID)
	if err != nil {
		log.Fatalf("Failed to delete structural summary: %v", err)
	}
	fmt.Printf("\nDeleted '%s': %d units removed\n", structDoc.Title, deleted)

	stats, err = v.CollectionStats(ctx, tenantID)
	if err != nil {
		log.Fatalf("Failed to reload collection stats: %v", err)
	}
	fmt.Println("Units per collection after cleanup:")
	for collection, count := range stats {
		fmt.Printf("  %s: %d\n", collection, count)
	}

	fmt.Println("\n=== Advanced Example Completed Successfully! ===")
	fmt.Println("\nKey features demonstrated:")
	fmt.Println("✓ Multi-collection indexing per discipline")
	fmt.Println("✓ Vector search with tenant isolation")
	fmt.Println("✓ Collection routing for discipline-specific queries")
	fmt.Println("✓ Document-scoped search (filter by document RID)")
	fmt.Println("✓ Reindexing after document revisions")
	fmt.Println("✓ Index type switching (HNSW ↔ IVFFlat)")
	fmt.Println("✓ Collection statistics and document removal")
}

func printResults(title string, results []*model.RetrievalResult) {
	fmt.Printf("\n%s - Found %d results:\n", title, len(results))
	for i, result := range results {
		if i >= 3 {
			break // Show only first 3
		}
		fmt.Printf("\n  Result %d:\n", i+1)
		fmt.Printf("    Similarity: %.4f\n", result.SimilarityScore)
		fmt.Printf("    Method: %s\n", result.RetrievalMethod)
		if result.Unit.PageNumber != nil {
			fmt.Printf("    Page: %d\n", *result.Unit.PageNumber)
		}
		text := result.Unit.Text
		if len(text) > 80 {
			text = text[:80] + "..."
		}
		fmt.Printf("    Text: %s\n", text)
	}
}
