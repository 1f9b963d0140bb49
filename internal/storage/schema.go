package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// InitSchema creates all necessary tables and indexes.
// Note: WAL mode is configured in db.go.
func InitSchema(db *sql.DB) error {
	if err := createDocumentsTable(db); err != nil {
		return err
	}
	return createLinksTable(db)
}

func createDocumentsTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS documents (
		doc_id TEXT PRIMARY KEY,
		equipment TEXT NOT NULL,
		number TEXT NOT NULL,
		title TEXT,
		fix_summary TEXT,
		symptom TEXT,
		purpose TEXT,
		keywords TEXT,
		internal_rank INTEGER NOT NULL DEFAULT 0,
		weight REAL NOT NULL DEFAULT 1.0,
		cached_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_equipment ON documents(equipment);
	CREATE INDEX IF NOT EXISTS idx_documents_eq_number ON documents(equipment, number);
	CREATE INDEX IF NOT EXISTS idx_documents_cached_at ON documents(cached_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create documents table: %w", err)
	}

	return nil
}

func createLinksTable(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS links (
		equipment TEXT NOT NULL,
		number TEXT NOT NULL,
		language TEXT CHECK(language IN ('KR', 'EN')) NOT NULL,
		url TEXT NOT NULL,
		cached_at INTEGER NOT NULL,
		PRIMARY KEY (equipment, number, language)
	);
	CREATE INDEX IF NOT EXISTS idx_links_eq_number ON links(equipment, number);
	CREATE INDEX IF NOT EXISTS idx_links_cached_at ON links(cached_at);
	`

	if _, err := db.ExecContext(context.Background(), query); err != nil {
		return fmt.Errorf("failed to create links table: %w", err)
	}

	return nil
}
