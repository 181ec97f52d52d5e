package sql

import (
	"database/sql"
	_ "embed"
	"fmt"
	"log"
)

//go:embed init.sql
var initSQL string

//go:embed units.sql
var unitsSQL string

//go:embed documents.sql
var documentsSQL string

// UnitsFunctions lists the SQL functions units.sql must create. Loading
// verifies them afterwards and skips the script when they already exist.
var UnitsFunctions = []string{
	"init_units",
	"insert_unit",
	"select_unit",
	"select_units_by_document",
	"select_units_by_similarity",
	"delete_units_by_document",
	"count_units_by_collection",
	"delete_unit",
}

// DocumentsFunctions lists the SQL functions documents.sql must create.
var DocumentsFunctions = []string{
	"init_documents",
	"insert_document",
	"select_document",
	"select_documents_by_tenant",
	"delete_document",
}

// Init creates the extensions the schema depends on (pgvector).
func Init(db *sql.DB) error {
	if _, err := db.Exec(initSQL); err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}

	log.Println("Database extensions initialized successfully")
	return nil
}

// LoadUnitsSql loads the unit functions from units.sql. Without force the
// script is skipped when all functions already exist.
func LoadUnitsSql(db *sql.DB, force bool) error {
	return loadFunctions(db, "units", unitsSQL, UnitsFunctions, force)
}

// LoadDocumentsSql loads the document functions from documents.sql. Without
// force the script is skipped when all functions already exist.
func LoadDocumentsSql(db *sql.DB, force bool) error {
	return loadFunctions(db, "documents", documentsSQL, DocumentsFunctions, force)
}

// LoadAllSql loads every SQL function the database handlers call.
func LoadAllSql(db *sql.DB, force bool) error {
	if err := LoadUnitsSql(db, force); err != nil {
		return err
	}
	return LoadDocumentsSql(db, force)
}

func loadFunctions(db *sql.DB, name string, script string, functions []string, force bool) error {
	if !force {
		exist, err := checkFunctions(db, functions)
		if err != nil {
			return fmt.Errorf("error checking existing %s functions: %w", name, err)
		}
		if exist {
			return nil
		}
	}

	if _, err := db.Exec(script); err != nil {
		return fmt.Errorf("error executing %s SQL: %w", name, err)
	}

	exist, err := checkFunctions(db, functions)
	if err != nil {
		return fmt.Errorf("error checking existing functions: %w", err)
	}
	if !exist {
		return fmt.Errorf("not all required SQL functions were created")
	}

	log.Printf("SQL %s functions loaded successfully", name)
	return nil
}

// checkFunctions reports whether every named function exists in pg_proc.
func checkFunctions(db *sql.DB, sqlFunctions []string) (bool, error) {
	var allExist bool
	for _, function := range sqlFunctions {
		row := db.QueryRow(`SELECT EXISTS(SELECT 1 FROM pg_proc WHERE proname = $1);`, function)
		if err := row.Scan(&allExist); err != nil {
			return false, fmt.Errorf("error checking existence of function %s: %w", function, err)
		}
		if !allExist {
			log.Printf("Function %s does not exist", function)
			break
		}
	}
	return allExist, nil
}
