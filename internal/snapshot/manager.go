// Package snapshot distributes the QC index database between instances via
// R2. The indexer uploads compressed snapshots; serving instances poll for
// ETag changes and hot-swap their local database without downtime.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/mih97/qcnav-linebot-go/internal/metrics"
	"github.com/mih97/qcnav-linebot-go/internal/r2client"
	"github.com/mih97/qcnav-linebot-go/internal/storage"
)

// ErrNotFound indicates no snapshot exists in R2.
var ErrNotFound = errors.New("snapshot: not found")

// Config holds snapshot manager settings.
type Config struct {
	SnapshotKey  string        // R2 key for the compressed index, e.g. "snapshots/index.db.zst"
	LockKey      string        // R2 key for the indexer leader lock
	LockTTL      time.Duration
	PollInterval time.Duration
	TempDir      string // Scratch directory; defaults to os.TempDir()
}

// Manager synchronizes the local index database with the R2 snapshot.
type Manager struct {
	client  *r2client.Client
	config  Config
	metrics *metrics.Metrics

	mu          sync.RWMutex
	currentETag string

	// OnSwap runs after a successful hot-swap so retrieval indexes can be
	// rebuilt from the fresh database. May be nil.
	OnSwap func(ctx context.Context)

	pollCancel context.CancelFunc
	pollDone   chan struct{}

	leaderMu    sync.Mutex
	leaderLock  *r2client.DistributedLock
	renewCancel context.CancelFunc
	renewDone   chan struct{}
}

// New creates a snapshot manager.
func New(client *r2client.Client, cfg Config, m *metrics.Metrics) *Manager {
	if cfg.TempDir == "" {
		cfg.TempDir = os.TempDir()
	}
	return &Manager{
		client:   client,
		config:   cfg,
		metrics:  m,
		pollDone: make(chan struct{}),
	}
}

// DownloadSnapshot fetches and decompresses the latest snapshot into
// destDir. Returns the database path and the snapshot's ETag.
func (m *Manager) DownloadSnapshot(ctx context.Context, destDir string) (string, string, error) {
	body, etag, err := m.client.Download(ctx, m.config.SnapshotKey)
	if err != nil {
		if errors.Is(err, r2client.ErrNotFound) {
			m.metrics.RecordSnapshotOp("download", "not_found")
			return "", "", ErrNotFound
		}
		m.metrics.RecordSnapshotOp("download", "error")
		return "", "", fmt.Errorf("download snapshot: %w", err)
	}
	defer func() { _ = body.Close() }()

	dbPath := filepath.Join(destDir, "index.db")
	if err := r2client.DecompressStream(body, dbPath); err != nil {
		m.metrics.RecordSnapshotOp("download", "error")
		return "", "", fmt.Errorf("decompress snapshot: %w", err)
	}

	m.setETag(etag)
	m.metrics.RecordSnapshotOp("download", "ok")
	return dbPath, etag, nil
}

// UploadSnapshot compresses a consistent copy of the database and uploads
// it as the new snapshot. Returns the new ETag.
func (m *Manager) UploadSnapshot(ctx context.Context, db *storage.DB) (string, error) {
	snapshotPath := filepath.Join(m.config.TempDir, fmt.Sprintf("index_snapshot_%d.db", time.Now().UnixNano()))
	if err := db.CreateSnapshot(ctx, snapshotPath); err != nil {
		m.metrics.RecordSnapshotOp("upload", "error")
		return "", fmt.Errorf("create snapshot: %w", err)
	}
	defer func() { _ = os.Remove(snapshotPath) }()

	compressedPath := snapshotPath + ".zst"
	if err := r2client.CompressFile(snapshotPath, compressedPath); err != nil {
		m.metrics.RecordSnapshotOp("upload", "error")
		return "", fmt.Errorf("compress database: %w", err)
	}
	defer func() { _ = os.Remove(compressedPath) }()

	compressed, err := os.Open(compressedPath)
	if err != nil {
		m.metrics.RecordSnapshotOp("upload", "error")
		return "", fmt.Errorf("open compressed file: %w", err)
	}
	defer func() { _ = compressed.Close() }()

	etag, err := m.client.Upload(ctx, m.config.SnapshotKey, compressed, "application/zstd")
	if err != nil {
		m.metrics.RecordSnapshotOp("upload", "error")
		return "", fmt.Errorf("upload snapshot: %w", err)
	}

	m.setETag(etag)
	m.metrics.RecordSnapshotOp("upload", "ok")
	return etag, nil
}

// AcquireLeaderLock attempts to become the indexing leader. On success a
// background goroutine keeps renewing the lock until release.
func (m *Manager) AcquireLeaderLock(ctx context.Context) (bool, error) {
	lock := r2client.NewDistributedLock(m.client, m.config.LockKey, m.config.LockTTL)
	acquired, err := lock.Acquire(ctx)
	if err != nil || !acquired {
		return acquired, err
	}

	m.leaderMu.Lock()
	if m.renewCancel != nil {
		m.renewCancel()
		if m.renewDone != nil {
			<-m.renewDone
		}
	}
	m.leaderLock = lock
	renewCtx, cancel := context.WithCancel(ctx)
	m.renewCancel = cancel
	m.renewDone = make(chan struct{})
	go m.renewLoop(renewCtx, lock, m.renewDone)
	m.leaderMu.Unlock()

	return true, nil
}

// ReleaseLeaderLock stops renewal and releases the leader lock.
func (m *Manager) ReleaseLeaderLock(ctx context.Context) error {
	m.leaderMu.Lock()
	lock := m.leaderLock
	cancel := m.renewCancel
	done := m.renewDone
	m.leaderLock = nil
	m.renewCancel = nil
	m.renewDone = nil
	m.leaderMu.Unlock()

	if cancel != nil {
		cancel()
		if done != nil {
			<-done
		}
	}
	if lock == nil {
		return nil
	}
	return lock.Release(ctx)
}

// StartPolling watches for new snapshots and hot-swaps the database when
// the remote ETag changes.
func (m *Manager) StartPolling(ctx context.Context, hotSwapDB *storage.HotSwapDB, destDir string) {
	pollCtx, cancel := context.WithCancel(ctx)
	m.pollCancel = cancel

	go func() {
		defer close(m.pollDone)

		ticker := time.NewTicker(m.config.PollInterval)
		defer ticker.Stop()

		for {
			select {
			case <-pollCtx.Done():
				slog.Info("snapshot polling stopped")
				return
			case <-ticker.C:
				m.pollOnce(pollCtx, hotSwapDB, destDir)
			}
		}
	}()

	slog.Info("snapshot polling started",
		"interval", m.config.PollInterval,
		"snapshot_key", m.config.SnapshotKey)
}

// StopPolling stops the polling goroutine and waits for it to exit.
func (m *Manager) StopPolling() {
	if m.pollCancel != nil {
		m.pollCancel()
		<-m.pollDone
	}
}

// pollOnce compares ETags and performs the download + hot-swap when a new
// snapshot exists.
func (m *Manager) pollOnce(ctx context.Context, hotSwapDB *storage.HotSwapDB, destDir string) {
	remoteETag, err := m.client.HeadObject(ctx, m.config.SnapshotKey)
	if err != nil {
		if !errors.Is(err, r2client.ErrNotFound) {
			slog.Warn("snapshot poll: head object failed", "error", err)
		}
		return
	}
	if remoteETag == m.CurrentETag() {
		return
	}

	slog.Info("new snapshot detected, starting hot-swap",
		"old_etag", m.CurrentETag(),
		"new_etag", remoteETag)

	newDbPath := filepath.Join(destDir, fmt.Sprintf("index_%d.db", time.Now().UnixNano()))

	body, _, err := m.client.Download(ctx, m.config.SnapshotKey)
	if err != nil {
		slog.Error("snapshot poll: download failed", "error", err)
		m.metrics.RecordSnapshotOp("swap", "error")
		return
	}
	defer func() { _ = body.Close() }()

	if err := r2client.DecompressStream(body, newDbPath); err != nil {
		slog.Error("snapshot poll: decompress failed", "error", err)
		m.metrics.RecordSnapshotOp("swap", "error")
		_ = os.Remove(newDbPath)
		return
	}

	if err := hotSwapDB.Swap(ctx, newDbPath); err != nil {
		slog.Error("snapshot poll: hot-swap failed", "error", err)
		m.metrics.RecordSnapshotOp("swap", "error")
		_ = os.Remove(newDbPath)
		_ = os.Remove(newDbPath + "-wal")
		_ = os.Remove(newDbPath + "-shm")
		return
	}

	m.setETag(remoteETag)
	m.metrics.RecordSnapshotOp("swap", "ok")
	slog.Info("hot-swap completed", "new_etag", remoteETag)

	if m.OnSwap != nil {
		m.OnSwap(ctx)
	}
}

func (m *Manager) renewLoop(ctx context.Context, lock *r2client.DistributedLock, done chan struct{}) {
	defer close(done)

	interval := m.config.LockTTL / 3
	if interval < 10*time.Second {
		interval = 10 * time.Second
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			renewed, err := lock.Renew(ctx)
			if err != nil {
				slog.Warn("leader lock renew failed", "error", err)
				return
			}
			if !renewed {
				slog.Warn("leader lock lost during renew")
				return
			}
		}
	}
}

// CurrentETag returns the ETag of the snapshot currently loaded.
func (m *Manager) CurrentETag() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentETag
}

// SetCurrentETag records the loaded snapshot's ETag, used when the local
// database predates this process.
func (m *Manager) SetCurrentETag(etag string) {
	m.setETag(etag)
}

func (m *Manager) setETag(etag string) {
	m.mu.Lock()
	m.currentETag = etag
	m.mu.Unlock()
}
