package database

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"github.com/veridoc/veridoc/helper"
	"github.com/veridoc/veridoc/model"
	loadSql "github.com/veridoc/veridoc/sql"
)

// UnitsDBHandlerFunctions defines the interface for Units database operations.
type UnitsDBHandlerFunctions interface {
	InsertUnit(ctx context.Context, unit *model.IndexedUnit) error
	SelectUnit(ctx context.Context, collection string, unitKey string) (*model.IndexedUnit, error)
	SelectUnitsByDocument(ctx context.Context, tenantID uuid.UUID, documentRID uuid.UUID) ([]*model.IndexedUnit, error)
	SelectUnitsBySimilarity(ctx context.Context, collection string, embedding []float32, tenantID uuid.UUID, config *model.QueryConfig) ([]*model.IndexedUnit, error)
	DeleteUnitsByDocument(ctx context.Context, tenantID uuid.UUID, documentRID uuid.UUID) (int, error)
	CountUnitsByCollection(ctx context.Context, tenantID uuid.UUID) (map[string]int, error)
	DeleteUnit(ctx context.Context, collection string, unitKey string) error
	ChangeIndexType(ctx context.Context, indexType string, params map[string]interface{}) error
}

// UnitsDBHandler handles unit-related database operations
type UnitsDBHandler struct {
	db *helper.Database
}

// NewUnitsDBHandler creates a new units database handler.
// It initializes the database connection and loads unit-related SQL functions.
// If force is true, it will reload the SQL functions even if they already exist.
func NewUnitsDBHandler(db *helper.Database, embeddingDim int, force bool) (*UnitsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	unitsDbHandler := &UnitsDBHandler{
		db: db,
	}

	err := loadSql.LoadUnitsSql(unitsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load units sql", err)
	}

	err = unitsDbHandler.CreateTable(embeddingDim)
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized UnitsDBHandler")

	return unitsDbHandler, nil
}

// CreateTable creates the 'units' table in the database.
// If the table already exists, it does not create it again.
// It also creates all necessary extensions and indexes.
func (h *UnitsDBHandler) CreateTable(embeddingDim int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Use the SQL init() function to create all tables and indexes
	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_units($1);`, embeddingDim)
	if err != nil {
		log.Panicf("error initializing units table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table units")

	return nil
}

// requireTenant rejects reads and writes without a tenant scope.
func requireTenant(tenantID uuid.UUID) error {
	if tenantID == uuid.Nil {
		return helper.NewError("tenant validation", fmt.Errorf("tenant id must not be nil"))
	}
	return nil
}

// InsertUnit inserts a unit or updates it in place if its key already
// exists in the collection.
func (h *UnitsDBHandler) InsertUnit(ctx context.Context, unit *model.IndexedUnit) error {
	if err := requireTenant(unit.TenantID); err != nil {
		return err
	}
	if unit.DocumentID == uuid.Nil {
		return helper.NewError("document validation", fmt.Errorf("document id must not be nil"))
	}

	var projectID interface{}
	if unit.ProjectID != uuid.Nil {
		projectID = unit.ProjectID
	}

	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM insert_unit($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		unit.Collection,
		unit.Key(),
		unit.TenantID,
		projectID,
		unit.DocumentID,
		unit.SequenceIndex,
		unit.Text,
		unit.CharStart,
		unit.CharEnd,
		unit.PageNumber,
		unit.TotalChunks,
		pgvector.NewVector(unit.Embedding),
		unit.Metadata,
	)

	return scanUnit(row, unit, false)
}

// SelectUnit retrieves a unit by collection and key
func (h *UnitsDBHandler) SelectUnit(ctx context.Context, collection string, unitKey string) (*model.IndexedUnit, error) {
	row := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT * FROM select_unit($1, $2)`,
		collection,
		unitKey,
	)

	unit := &model.IndexedUnit{}
	err := scanUnit(row, unit, false)
	if err != nil {
		return nil, err
	}

	return unit, nil
}

// SelectUnitsByDocument retrieves all units of a document across collections
func (h *UnitsDBHandler) SelectUnitsByDocument(ctx context.Context, tenantID uuid.UUID, documentRID uuid.UUID) ([]*model.IndexedUnit, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_units_by_document($1, $2)`,
		tenantID,
		documentRID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var units []*model.IndexedUnit
	for rows.Next() {
		unit := &model.IndexedUnit{}
		err := scanUnit(rows, unit, false)
		if err != nil {
			return nil, err
		}

		units = append(units, unit)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return units, nil
}

// SelectUnitsBySimilarity performs vector similarity search inside one
// collection. The tenant filter is mandatory; document and project filters
// from the config apply only when set.
func (h *UnitsDBHandler) SelectUnitsBySimilarity(ctx context.Context, collection string, embedding []float32, tenantID uuid.UUID, config *model.QueryConfig) ([]*model.IndexedUnit, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}
	if config == nil {
		defaultConfig := model.DefaultQueryConfig()
		config = &defaultConfig
	}

	// Convert documentRIDs to PostgreSQL UUID array format
	var documentRIDsParam interface{}
	if len(config.DocumentRIDs) > 0 {
		documentRIDsParam = pq.Array(config.DocumentRIDs)
	}

	var projectParam interface{}
	if config.ProjectRID != uuid.Nil {
		projectParam = config.ProjectRID
	}

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM select_units_by_similarity($1, $2, $3, $4, $5, $6, $7)`,
		collection,
		pgvector.NewVector(embedding),
		tenantID,
		documentRIDsParam,
		projectParam,
		config.TopK,
		config.SimilarityThreshold,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	var results []*model.IndexedUnit
	for rows.Next() {
		unit := &model.IndexedUnit{}
		err := scanUnit(rows, unit, true)
		if err != nil {
			return nil, err
		}

		results = append(results, unit)
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return results, nil
}

// DeleteUnitsByDocument deletes all units of a document across collections
// and returns the number of deleted units.
func (h *UnitsDBHandler) DeleteUnitsByDocument(ctx context.Context, tenantID uuid.UUID, documentRID uuid.UUID) (int, error) {
	if err := requireTenant(tenantID); err != nil {
		return 0, err
	}

	var deleted int
	err := h.db.Instance.QueryRowContext(
		ctx,
		`SELECT delete_units_by_document($1, $2)`,
		tenantID,
		documentRID,
	).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}

	return deleted, nil
}

// CountUnitsByCollection returns the number of units per collection for a tenant
func (h *UnitsDBHandler) CountUnitsByCollection(ctx context.Context, tenantID uuid.UUID) (map[string]int, error) {
	if err := requireTenant(tenantID); err != nil {
		return nil, err
	}

	rows, err := h.db.Instance.QueryContext(
		ctx,
		`SELECT * FROM count_units_by_collection($1)`,
		tenantID,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	counts := map[string]int{}
	for rows.Next() {
		var collection string
		var count int
		err := rows.Scan(&collection, &count)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}

		counts[collection] = count
	}

	err = rows.Err()
	if err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return counts, nil
}

// DeleteUnit deletes a unit by collection and key
func (h *UnitsDBHandler) DeleteUnit(ctx context.Context, collection string, unitKey string) error {
	_, err := h.db.Instance.ExecContext(
		ctx,
		`SELECT delete_unit($1, $2)`,
		collection,
		unitKey,
	)
	if err != nil {
		return helper.NewError("exec", err)
	}
	return nil
}

// scanner covers sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanUnit scans one units row. The unit key column is derived state and
// dropped; the embedding comes back as a pgvector value.
func scanUnit(row scanner, unit *model.IndexedUnit, withSimilarity bool) error {
	var unitKey string
	var embedding pgvector.Vector

	dest := []interface{}{
		&unit.ID,
		&unit.Collection,
		&unitKey,
		&unit.TenantID,
		&unit.ProjectID,
		&unit.DocumentID,
		&unit.SequenceIndex,
		&unit.Text,
		&unit.CharStart,
		&unit.CharEnd,
		&unit.PageNumber,
		&unit.TotalChunks,
		&embedding,
		&unit.Metadata,
		&unit.CreatedAt,
	}
	if withSimilarity {
		dest = append(dest, &unit.Similarity)
	}

	err := row.Scan(dest...)
	if err != nil {
		return helper.NewError("scan", err)
	}

	unit.Embedding = embedding.Slice()
	if withSimilarity {
		unit.Distance = 1 - unit.Similarity
	}

	return nil
}
