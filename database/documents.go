package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/veridoc/veridoc/helper"
	"github.com/veridoc/veridoc/model"
	loadSql "github.com/veridoc/veridoc/sql"
)

// DocumentsDBHandlerFunctions defines the interface for Documents database operations.
type DocumentsDBHandlerFunctions interface {
	InsertDocument(ctx context.Context, doc *model.Document) error
	SelectDocument(ctx context.Context, tenantID uuid.UUID, rid uuid.UUID) (*model.Document, error)
	SelectDocumentsByTenant(ctx context.Context, tenantID uuid.UUID, lastID int64, limit int) ([]*model.Document, error)
	DeleteDocument(ctx context.Context, tenantID uuid.UUID, rid uuid.UUID) error
}

// DocumentsDBHandler handles document-related database operations
type DocumentsDBHandler struct {
	db *helper.Database
}

// NewDocumentsDBHandler creates a new documents database handler.
// It initializes the database connection and loads document-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewDocumentsDBHandler(db *helper.Database, force bool) (*DocumentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	documentsDbHandler := &DocumentsDBHandler{
		db: db,
	}

	err := loadSql.LoadDocumentsSql(documentsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load documents sql", err)
	}

	err = documentsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized DocumentsDBHandler")

	return documentsDbHandler, nil
}

// CreateTable creates the 'documents' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary indexes.
func (h *DocumentsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_documents();`)
	if err != nil {
		log.Panicf("error initializing documents table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table documents")

	return nil
}

// InsertDocument inserts a registry record for an indexed document or
// updates it in place when the tenant already indexed this RID.
func (h *DocumentsDBHandler) InsertDocument(ctx context.Context, doc *model.Document) error {
	if err := requireTenant(doc.TenantID); err != nil {
		return err
	}
	if doc.RID == uuid.Nil {
		return helper.NewError("document validation", fmt.Errorf("document rid must not be nil"))
	}

	var projectID interface{}
	if doc.ProjectID != uuid.Nil {
		projectID = doc.ProjectID
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_document($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		doc.RID,
		doc.TenantID,
		projectID,
		doc.Title,
		doc.Source,
		doc.PageCount,
		doc.UnitCount,
		pq.Array(doc.Collections),
		doc.Metadata,
	)

	return scanDocument(row, doc)
}

// SelectDocument retrieves a document registry record by tenant and RID
func (h *DocumentsDBHandler) SelectDocument(ctx context.Context, tenantID uuid.UUID, rid uuid.UUID) (*model.Document, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_document($1, $2)`,
		tenantID,
		rid,
	)

	doc := &model.Document{}
	err := scanDocument(row, doc)
	if err != nil {
		return nil, err
	}

	return doc, nil
}

// SelectDocumentsByTenant retrieves a tenant's registry records with keyset
// pagination. Pass lastID 0 for the first page.
func (h *DocumentsDBHandler) SelectDocumentsByTenant(ctx context.Context, tenantID uuid.UUID, lastID int64, limit int) ([]*model.Document, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_documents_by_tenant($1, $2, $3)`,
		tenantID,
		lastID,
		limit,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var documents []*model.Document
	for rows.Next() {
		doc := &model.Document{}
		err := scanDocument(rows, doc)
		if err != nil {
			return nil, err
		}

		documents = append(documents, doc)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return documents, nil
}

// DeleteDocument deletes a document registry record by tenant and RID
func (h *DocumentsDBHandler) DeleteDocument(ctx context.Context, tenantID uuid.UUID, rid uuid.UUID) error {
	if err := requireTenant(tenantID); err != nil {
		return err
	}

	_, err := h.db.Instance.ExecContext(
		ctx,
		`SELECT delete_document($1, $2)`,
		tenantID,
		rid,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// scanDocument scans one documents row.
func scanDocument(row scanner, doc *model.Document) error {
	err := row.Scan(
		&doc.ID,
		&doc.RID,
		&doc.TenantID,
		&doc.ProjectID,
		&doc.Title,
		&doc.Source,
		&doc.PageCount,
		&doc.UnitCount,
		pq.Array(&doc.Collections),
		&doc.Metadata,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return helper.NewError("scan", err)
	}

	return nil
}
