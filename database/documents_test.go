package database

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/veridoc/veridoc/model"
)

func TestDocumentsNewDocumentsDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewDocumentsDBHandler", func(t *testing.T) {
		documentsDbHandler, err := NewDocumentsDBHandler(database, true)
		assert.NoError(t, err, "Expected NewDocumentsDBHandler to not return an error")
		require.NotNil(t, documentsDbHandler, "Expected NewDocumentsDBHandler to return a non-nil instance")
		require.NotNil(t, documentsDbHandler.db, "Expected NewDocumentsDBHandler to have a non-nil database instance")
		require.NotNil(t, documentsDbHandler.db.Instance, "Expected NewDocumentsDBHandler to have a non-nil database connection instance")
	})

	t.Run("Invalid call NewDocumentsDBHandler with nil database", func(t *testing.T) {
		_, err := NewDocumentsDBHandler(nil, false)
		assert.Error(t, err, "Expected error when creating DocumentsDBHandler with nil database")
		assert.Contains(t, err.Error(), "database connection is nil", "Expected specific error message for nil database connection")
	})
}

func TestDocumentsInsert(t *testing.T) {
	database := initDB(t)
	ctx := context.Background()

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err, "Expected NewDocumentsDBHandler to not return an error")

	tenantID := uuid.New()

	t.Run("Insert document", func(t *testing.T) {
		doc := &model.Document{
			RID:         uuid.New(),
			TenantID:    tenantID,
			Title:       "Fire Safety Strategy",
			Source:      "fire_safety_strategy.pdf",
			PageCount:   12,
			UnitCount:   34,
			Collections: []string{"agent_fire_safety", "agent_general"},
			Metadata:    map[string]interface{}{"author": "Test Author", "year": 2024},
		}

		err := documentsDbHandler.InsertDocument(ctx, doc)
		assert.NoError(t, err, "Expected Insert to not return an error")
		assert.NotZero(t, doc.ID, "Expected inserted document to have an ID")
		assert.WithinDuration(t, doc.CreatedAt, time.Now(), 2*time.Second, "Expected CreatedAt to be set")
		assert.WithinDuration(t, doc.UpdatedAt, time.Now(), 2*time.Second, "Expected UpdatedAt to be set")
		assert.Equal(t, "Fire Safety Strategy", doc.Title, "Expected title to match")
		assert.Equal(t, []string{"agent_fire_safety", "agent_general"}, doc.Collections, "Expected collections to match")

		// Cleanup
		err = documentsDbHandler.DeleteDocument(ctx, tenantID, doc.RID)
		require.NoError(t, err)
	})

	t.Run("Insert document twice updates in place", func(t *testing.T) {
		rid := uuid.New()
		doc := &model.Document{
			RID:      rid,
			TenantID: tenantID,
			Title:    "Original Title",
			Metadata: map[string]interface{}{"version": 1},
		}
		err := documentsDbHandler.InsertDocument(ctx, doc)
		require.NoError(t, err)
		firstID := doc.ID

		updated := &model.Document{
			RID:       rid,
			TenantID:  tenantID,
			Title:     "Updated Title",
			UnitCount: 7,
			Metadata:  map[string]interface{}{"version": 2},
		}
		err = documentsDbHandler.InsertDocument(ctx, updated)
		assert.NoError(t, err, "Expected repeated insert to not return an error")
		assert.Equal(t, firstID, updated.ID, "Expected upsert to keep the original row")
		assert.Equal(t, "Updated Title", updated.Title, "Expected title to be updated")
		assert.Equal(t, float64(2), updated.Metadata["version"], "Expected metadata to be updated")

		// Cleanup
		err = documentsDbHandler.DeleteDocument(ctx, tenantID, rid)
		require.NoError(t, err)
	})

	t.Run("Insert document without tenant fails", func(t *testing.T) {
		doc := &model.Document{
			RID:   uuid.New(),
			Title: "No Tenant",
		}

		err := documentsDbHandler.InsertDocument(ctx, doc)
		assert.Error(t, err, "Expected InsertDocument without tenant to return an error")
		assert.Contains(t, err.Error(), "tenant id must not be nil", "Expected tenant validation error")
	})

	t.Run("Insert document without RID fails", func(t *testing.T) {
		doc := &model.Document{
			TenantID: tenantID,
			Title:    "No RID",
		}

		err := documentsDbHandler.InsertDocument(ctx, doc)
		assert.Error(t, err, "Expected InsertDocument without RID to return an error")
		assert.Contains(t, err.Error(), "document rid must not be nil", "Expected RID validation error")
	})
}

func TestDocumentsGet(t *testing.T) {
	database := initDB(t)
	ctx := context.Background()

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err)

	tenantID := uuid.New()

	// Create a document
	doc := &model.Document{
		RID:      uuid.New(),
		TenantID: tenantID,
		Title:    "Structural Calculations",
		Source:   "calcs.pdf",
		Metadata: map[string]interface{}{"key": "value"},
	}
	err = documentsDbHandler.InsertDocument(ctx, doc)
	require.NoError(t, err)

	t.Run("Select document", func(t *testing.T) {
		retrievedDoc, err := documentsDbHandler.SelectDocument(ctx, tenantID, doc.RID)
		assert.NoError(t, err, "Expected Get to not return an error")
		assert.NotNil(t, retrievedDoc, "Expected Get to return a non-nil document")
		assert.Equal(t, doc.RID, retrievedDoc.RID, "Expected document RIDs to match")
		assert.Equal(t, doc.Title, retrievedDoc.Title, "Expected titles to match")
		assert.Equal(t, doc.Source, retrievedDoc.Source, "Expected sources to match")
	})

	t.Run("Select document of another tenant fails", func(t *testing.T) {
		_, err := documentsDbHandler.SelectDocument(ctx, uuid.New(), doc.RID)
		assert.Error(t, err, "Expected SelectDocument to not expose another tenant's record")
	})

	// Cleanup
	err = documentsDbHandler.DeleteDocument(ctx, tenantID, doc.RID)
	require.NoError(t, err)
}

func TestDocumentsGetByTenant(t *testing.T) {
	database := initDB(t)
	ctx := context.Background()

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err)

	tenantID := uuid.New()

	// Create multiple documents
	docCount := 5
	docs := make([]*model.Document, docCount)
	for i := 0; i < docCount; i++ {
		docs[i] = &model.Document{
			RID:      uuid.New(),
			TenantID: tenantID,
			Title:    "Test Document " + string(rune('A'+i)),
			Source:   "test.pdf",
			Metadata: map[string]interface{}{},
		}
		err = documentsDbHandler.InsertDocument(ctx, docs[i])
		require.NoError(t, err)
	}

	t.Run("Select documents by tenant", func(t *testing.T) {
		retrievedDocs, err := documentsDbHandler.SelectDocumentsByTenant(ctx, tenantID, 0, 10)
		assert.NoError(t, err, "Expected SelectDocumentsByTenant to not return an error")
		assert.Len(t, retrievedDocs, docCount, "Expected to retrieve the inserted documents")
	})

	t.Run("Select documents by tenant with pagination", func(t *testing.T) {
		pageLength := 3
		firstPage, err := documentsDbHandler.SelectDocumentsByTenant(ctx, tenantID, 0, pageLength)
		assert.NoError(t, err, "Expected SelectDocumentsByTenant to not return an error")
		require.Len(t, firstPage, pageLength, "Expected a full first page")

		lastID := firstPage[len(firstPage)-1].ID
		secondPage, err := documentsDbHandler.SelectDocumentsByTenant(ctx, tenantID, lastID, pageLength)
		assert.NoError(t, err)
		assert.Len(t, secondPage, docCount-pageLength, "Expected the remaining documents on the second page")
		assert.Greater(t, secondPage[0].ID, lastID, "Expected keyset pagination to continue after the last ID")
	})

	t.Run("Select documents of another tenant is empty", func(t *testing.T) {
		retrievedDocs, err := documentsDbHandler.SelectDocumentsByTenant(ctx, uuid.New(), 0, 10)
		assert.NoError(t, err)
		assert.Empty(t, retrievedDocs, "Expected no documents for an unrelated tenant")
	})

	// Cleanup
	for _, doc := range docs {
		err = documentsDbHandler.DeleteDocument(ctx, tenantID, doc.RID)
		require.NoError(t, err)
	}
}

func TestDocumentsDelete(t *testing.T) {
	database := initDB(t)
	ctx := context.Background()

	documentsDbHandler, err := NewDocumentsDBHandler(database, true)
	require.NoError(t, err)

	tenantID := uuid.New()

	// Create a document
	doc := &model.Document{
		RID:      uuid.New(),
		TenantID: tenantID,
		Title:    "Test Document",
		Source:   "test.pdf",
		Metadata: map[string]interface{}{},
	}
	err = documentsDbHandler.InsertDocument(ctx, doc)
	require.NoError(t, err)

	// Delete the document
	err = documentsDbHandler.DeleteDocument(ctx, tenantID, doc.RID)
	assert.NoError(t, err, "Expected Delete to not return an error")

	// Verify deletion
	_, err = documentsDbHandler.SelectDocument(ctx, tenantID, doc.RID)
	assert.Error(t, err, "Expected Get to return an error for deleted document")
}
