package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"
)

// SaveLinksBatch inserts or updates multiple link records in a single transaction
func (db *DB) SaveLinksBatch(ctx context.Context, links []*Link) error {
	if len(links) == 0 {
		return nil
	}

	query := `
		INSERT INTO links (equipment, number, language, url, cached_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(equipment, number, language) DO UPDATE SET
			url = excluded.url,
			cached_at = excluded.cached_at
	`

	start := time.Now()
	cachedAt := time.Now().Unix()
	err := db.ExecBatchContext(ctx, query, func(stmt *sql.Stmt) error {
		for _, link := range links {
			if _, err := stmt.ExecContext(ctx, link.Equipment, link.Number, link.Language, link.URL, cachedAt); err != nil {
				slog.ErrorContext(ctx, "failed to save link in batch",
					"doc_id", link.DocID(),
					"language", link.Language,
					"error", err)
				return fmt.Errorf("failed to save link %s (%s): %w", link.DocID(), link.Language, err)
			}
		}
		return nil
	})

	if err != nil {
		return err
	}

	duration := time.Since(start)
	slog.DebugContext(ctx, "batch operation completed",
		"operation", "SaveLinksBatch",
		"count", len(links),
		"duration_ms", duration.Milliseconds())

	return nil
}

// ReplaceLinks atomically replaces all link rows with the given set.
// Used when re-importing the link table from its source file.
func (db *DB) ReplaceLinks(ctx context.Context, links []*Link) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace links: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM links`); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("clear links: %w", err)
	}

	query := `INSERT INTO links (equipment, number, language, url, cached_at) VALUES (?, ?, ?, ?, ?)`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("prepare link insert: %w", err)
	}

	cachedAt := time.Now().Unix()
	for _, link := range links {
		if _, err := stmt.ExecContext(ctx, link.Equipment, link.Number, link.Language, link.URL, cachedAt); err != nil {
			_ = stmt.Close()
			_ = tx.Rollback()
			return fmt.Errorf("insert link %s (%s): %w", link.DocID(), link.Language, err)
		}
	}

	if err := stmt.Close(); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("close link insert: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace links: %w", err)
	}
	return nil
}

// GetLink retrieves the registered link for a document in a given language.
// Returns nil (without error) when no link is registered.
func (db *DB) GetLink(ctx context.Context, equipment, number, language string) (*Link, error) {
	query := `SELECT equipment, number, language, url, cached_at FROM links WHERE equipment = ? AND number = ? AND language = ?`

	var link Link
	err := db.conn.QueryRowContext(ctx, query, equipment, number, language).Scan(
		&link.Equipment,
		&link.Number,
		&link.Language,
		&link.URL,
		&link.CachedAt,
	)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		slog.ErrorContext(ctx, "failed to query link",
			"equipment", equipment,
			"number", number,
			"language", language,
			"error", err)
		return nil, fmt.Errorf("query link: %w", err)
	}
	return &link, nil
}

// ListLinks returns all registered links
func (db *DB) ListLinks(ctx context.Context) ([]*Link, error) {
	query := `SELECT equipment, number, language, url, cached_at FROM links ORDER BY equipment, number, language`

	rows, err := db.conn.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list links: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var links []*Link
	for rows.Next() {
		var link Link
		if err := rows.Scan(&link.Equipment, &link.Number, &link.Language, &link.URL, &link.CachedAt); err != nil {
			return nil, fmt.Errorf("scan link: %w", err)
		}
		links = append(links, &link)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate links: %w", err)
	}
	return links, nil
}

// CountLinks returns the number of registered links
func (db *DB) CountLinks(ctx context.Context) (int, error) {
	var count int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM links`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count links: %w", err)
	}
	return count, nil
}
