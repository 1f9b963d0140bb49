package storage

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"
)

// HotSwapDB wraps a DB with thread-safe hot-swap capability.
// The server downloads fresh index snapshots in the background and swaps
// them in without restarting; readers acquire a read lock, the swap takes
// the write lock.
type HotSwapDB struct {
	mu       sync.RWMutex
	current  *DB
	cacheTTL time.Duration
}

// NewHotSwapDB creates a new HotSwapDB with the given initial database path.
func NewHotSwapDB(dbPath string, cacheTTL time.Duration) (*HotSwapDB, error) {
	db, err := New(dbPath, cacheTTL)
	if err != nil {
		return nil, fmt.Errorf("hotswap: create initial db: %w", err)
	}

	return &HotSwapDB{
		current:  db,
		cacheTTL: cacheTTL,
	}, nil
}

// DB returns the current database handle.
func (h *HotSwapDB) DB() *DB {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// Swap atomically replaces the current database with the one at newDbPath.
// The old database is closed asynchronously after the swap so in-flight
// queries holding the old handle can finish.
func (h *HotSwapDB) Swap(ctx context.Context, newDbPath string) error {
	// Open and validate the new database before acquiring the lock
	newDB, err := New(newDbPath, h.cacheTTL)
	if err != nil {
		return fmt.Errorf("hotswap: open new db: %w", err)
	}
	if err := newDB.Ping(ctx); err != nil {
		_ = newDB.Close()
		return fmt.Errorf("hotswap: ping new db: %w", err)
	}

	h.mu.Lock()
	oldDB := h.current
	h.current = newDB
	h.mu.Unlock()

	go func() {
		// Grace period for queries started against the old handle
		time.Sleep(5 * time.Second)
		oldPath := oldDB.Path()
		_ = oldDB.Close()
		if oldPath != newDbPath && oldPath != ":memory:" {
			_ = os.Remove(oldPath)
			_ = os.Remove(oldPath + "-wal")
			_ = os.Remove(oldPath + "-shm")
		}
	}()

	return nil
}

// GetDocumentByID looks up a document in the current database. Callers that
// hold a HotSwapDB instead of a raw DB handle see swapped-in snapshots
// without re-wiring.
func (h *HotSwapDB) GetDocumentByID(ctx context.Context, docID string) (*Document, error) {
	return h.DB().GetDocumentByID(ctx, docID)
}

// Close closes the current database
func (h *HotSwapDB) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current.Close()
}
