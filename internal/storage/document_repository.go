package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// SaveDocument inserts or updates a document record
func (db *DB) SaveDocument(ctx context.Context, doc *Document) error {
	keywords, err := json.Marshal(doc.Keywords)
	if err != nil {
		return fmt.Errorf("marshal keywords: %w", err)
	}

	query := `
		INSERT INTO documents (doc_id, equipment, number, title, fix_summary, symptom, purpose, keywords, internal_rank, weight, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			equipment = excluded.equipment,
			number = excluded.number,
			title = excluded.title,
			fix_summary = excluded.fix_summary,
			symptom = excluded.symptom,
			purpose = excluded.purpose,
			keywords = excluded.keywords,
			internal_rank = excluded.internal_rank,
			weight = excluded.weight,
			cached_at = excluded.cached_at
	`
	start := time.Now()
	_, err = db.conn.ExecContext(ctx, query,
		doc.DocID, doc.Equipment, doc.Number, doc.Title, doc.FixSummary,
		doc.Symptom, doc.Purpose, string(keywords), doc.InternalRank, doc.Weight,
		time.Now().Unix())
	if err != nil {
		slog.ErrorContext(ctx, "failed to save document",
			"doc_id", doc.DocID,
			"error", err)
		return fmt.Errorf("failed to save document: %w", err)
	}

	// Warn on slow queries (>100ms)
	if duration := time.Since(start); duration > 100*time.Millisecond {
		slog.WarnContext(ctx, "slow database operation",
			"operation", "SaveDocument",
			"duration_ms", duration.Milliseconds(),
			"doc_id", doc.DocID)
	}
	return nil
}

// SaveDocumentsBatch inserts or updates multiple document records in a single
// transaction. Used by the indexer when rebuilding the whole index.
func (db *DB) SaveDocumentsBatch(ctx context.Context, docs []*Document) error {
	if len(docs) == 0 {
		return nil
	}

	query := `
		INSERT INTO documents (doc_id, equipment, number, title, fix_summary, symptom, purpose, keywords, internal_rank, weight, cached_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(doc_id) DO UPDATE SET
			equipment = excluded.equipment,
			number = excluded.number,
			title = excluded.title,
			fix_summary = excluded.fix_summary,
			symptom = excluded.symptom,
			purpose = excluded.purpose,
			keywords = excluded.keywords,
			internal_rank = excluded.internal_rank,
			weight = excluded.weight,
			cached_at = excluded.cached_at
	`

	start := time.Now()
	cachedAt := time.Now().Unix()
	err := db.ExecBatchContext(ctx, query, func(stmt *sql.Stmt) error {
		for _, doc := range docs {
			keywords, err := json.Marshal(doc.Keywords)
			if err != nil {
				return fmt.Errorf("marshal keywords for %s: %w", doc.DocID, err)
			}
			if _, err := stmt.ExecContext(ctx,
				doc.DocID, doc.Equipment, doc.Number, doc.Title, doc.FixSummary,
				doc.Symptom, doc.Purpose, string(keywords), doc.InternalRank, doc.Weight,
				cachedAt); err != nil {
				slog.ErrorContext(ctx, "failed to save document in batch",
					"doc_id", doc.DocID,
					"error", err)
				return fmt.Errorf("failed to save document %s: %w", doc.DocID, err)
			}
		}
		return nil
	})

	if err != nil {
		return err
	}

	duration := time.Since(start)
	slog.DebugContext(ctx, "batch operation completed",
		"operation", "SaveDocumentsBatch",
		"count", len(docs),
		"duration_ms", duration.Milliseconds())

	if duration > 500*time.Millisecond {
		slog.WarnContext(ctx, "slow batch operation",
			"operation", "SaveDocumentsBatch",
			"count", len(docs),
			"duration_ms", duration.Milliseconds())
	}

	return nil
}

// GetDocumentByID retrieves a document by its canonical identifier.
// Returns nil (without error) when the document is not indexed.
func (db *DB) GetDocumentByID(ctx context.Context, docID string) (*Document, error) {
	query := `
		SELECT doc_id, equipment, number, title, fix_summary, symptom, purpose, keywords, internal_rank, weight, cached_at
		FROM documents WHERE doc_id = ?
	`

	doc, err := scanDocument(db.conn.QueryRowContext(ctx, query, docID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query document",
			"doc_id", docID,
			"error", err)
		return nil, fmt.Errorf("query document: %w", err)
	}
	return doc, nil
}

// ListDocuments returns all indexed documents ordered by equipment then
// internal rank. The retrieval layer loads this once at startup.
func (db *DB) ListDocuments(ctx context.Context) ([]*Document, error) {
	query := `
		SELECT doc_id, equipment, number, title, fix_summary, symptom, purpose, keywords, internal_rank, weight, cached_at
		FROM documents ORDER BY equipment, internal_rank, number
	`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// ListDocumentsByEquipment returns indexed documents for one equipment family.
func (db *DB) ListDocumentsByEquipment(ctx context.Context, equipment string) ([]*Document, error) {
	query := `
		SELECT doc_id, equipment, number, title, fix_summary, symptom, purpose, keywords, internal_rank, weight, cached_at
		FROM documents WHERE equipment = ? ORDER BY internal_rank, number
	`

	rows, err := db.conn.QueryContext(ctx, query, equipment)
	if err != nil {
		return nil, fmt.Errorf("list documents by equipment: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var docs []*Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate documents: %w", err)
	}
	return docs, nil
}

// CountDocuments returns the number of indexed documents
func (db *DB) CountDocuments(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return count, nil
}

// scanner abstracts *sql.Row and *sql.Rows for shared scan logic
type scanner interface {
	Scan(dest ...any) error
}

func scanDocument(s scanner) (*Document, error) {
	var doc Document
	var keywords string
	err := s.Scan(
		&doc.DocID,
		&doc.Equipment,
		&doc.Number,
		&doc.Title,
		&doc.FixSummary,
		&doc.Symptom,
		&doc.Purpose,
		&keywords,
		&doc.InternalRank,
		&doc.Weight,
		&doc.CachedAt,
	)
	if err != nil {
		return nil, err
	}
	if keywords != "" {
		if err := json.Unmarshal([]byte(keywords), &doc.Keywords); err != nil {
			return nil, fmt.Errorf("unmarshal keywords for %s: %w", doc.DocID, err)
		}
	}
	return &doc, nil
}
