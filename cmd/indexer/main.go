// Package main provides the offline indexing tool. It parses QC
// troubleshooting documents (PDF), imports the link table CSV, rebuilds the
// SQLite index, and optionally publishes a compressed snapshot to R2 for the
// serving fleet to pick up.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mih97/qcnav-linebot-go/internal/config"
	"github.com/mih97/qcnav-linebot-go/internal/docref"
	"github.com/mih97/qcnav-linebot-go/internal/linktable"
	"github.com/mih97/qcnav-linebot-go/internal/logger"
	"github.com/mih97/qcnav-linebot-go/internal/r2client"
	"github.com/mih97/qcnav-linebot-go/internal/snapshot"
	"github.com/mih97/qcnav-linebot-go/internal/storage"
	"golang.org/x/sync/errgroup"
)

// CLI flags
var (
	sourceFlag  = flag.String("source", "", "Directory of QC troubleshooting PDFs to index (empty = skip document parsing)")
	linksFlag   = flag.String("links", "", "Link table CSV path (empty = use configured path)")
	resetFlag   = flag.Bool("reset", false, "Delete all indexed data before indexing")
	publishFlag = flag.Bool("publish", false, "Publish the rebuilt index as an R2 snapshot")
	workersFlag = flag.Int("workers", 4, "Parallel PDF parsers")
)

const cacheTTL = 24 * time.Hour

func main() {
	flag.Parse()

	cfg, err := config.LoadForMode(config.ToolMode)
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel)
	log.Info("Starting indexer")

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		fatal(log, err, "Failed to create data directory")
	}

	db, err := storage.New(cfg.SQLitePath(), cacheTTL)
	if err != nil {
		fatal(log, err, "Failed to open index database")
	}
	defer func() { _ = db.Close() }()
	log.WithField("path", cfg.SQLitePath()).Info("Index database opened")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	if *resetFlag {
		log.Warn("Resetting indexed data...")
		if err := resetIndex(db); err != nil {
			fatal(log, err, "Failed to reset index")
		}
		color.Yellow("! Index reset")
	}

	normalizer := docref.NewNormalizer(cfg.Resolver.PadWidth)

	// 1. Link table import
	linksPath := *linksFlag
	if linksPath == "" {
		linksPath = cfg.LinkTablePath
	}
	linkCount, err := importLinks(ctx, db, linksPath, cfg.Resolver.PadWidth)
	if err != nil {
		fatal(log, err, "Failed to import link table")
	}
	color.Green("✓ Link table: %d links imported from %s", linkCount, linksPath)

	// 2. Document parsing
	docCount := 0
	if *sourceFlag != "" {
		docCount, err = indexDocuments(ctx, db, normalizer, *sourceFlag, *workersFlag, log)
		if err != nil {
			fatal(log, err, "Failed to index documents")
		}
		color.Green("✓ Documents: %d indexed from %s", docCount, *sourceFlag)
	} else {
		color.Yellow("! No -source directory given, skipping document parsing")
	}

	total, err := db.CountDocuments(ctx)
	if err == nil {
		fmt.Printf("Index now holds %d documents\n", total)
	}

	// 3. Snapshot publication
	if *publishFlag {
		if !cfg.R2Enabled {
			fatal(log, fmt.Errorf("%s is not set", config.EnvR2Enabled), "Publishing requires R2 configuration")
		}
		etag, err := publishSnapshot(ctx, cfg, db, log)
		if err != nil {
			fatal(log, err, "Failed to publish snapshot")
		}
		color.Green("✓ Snapshot published (etag %s)", etag)
	}

	log.WithFields(map[string]any{
		"documents": docCount,
		"links":     linkCount,
	}).Info("Indexing complete")
}

// importLinks loads the link table CSV and replaces the links table with its
// contents. The CSV is validated row by row; a malformed row aborts the
// import so a bad upload never half-replaces the registry.
func importLinks(ctx context.Context, db *storage.DB, path string, padWidth int) (int, error) {
	table, err := linktable.LoadFile(path, linktable.WithPadWidth(padWidth))
	if err != nil {
		return 0, fmt.Errorf("load link table: %w", err)
	}

	links := table.Links()
	if err := db.ReplaceLinks(ctx, links); err != nil {
		return 0, fmt.Errorf("replace links: %w", err)
	}
	return len(links), nil
}

// indexDocuments walks sourceDir for PDFs, parses them in parallel, and
// saves the extracted summaries in one batch.
func indexDocuments(ctx context.Context, db *storage.DB, normalizer *docref.Normalizer, sourceDir string, workers int, log *logger.Logger) (int, error) {
	var paths []string
	err := filepath.WalkDir(sourceDir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.EqualFold(filepath.Ext(path), ".pdf") {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("walk source directory: %w", err)
	}
	if len(paths) == 0 {
		return 0, nil
	}
	log.WithField("files", len(paths)).Info("Parsing documents")

	if workers < 1 {
		workers = 1
	}

	var (
		mu   sync.Mutex
		docs []*storage.Document
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for _, path := range paths {
		g.Go(func() error {
			if gctx.Err() != nil {
				return gctx.Err()
			}
			doc, err := parseDocument(normalizer, path)
			if err != nil {
				// Files that do not follow the naming convention are
				// reported and skipped, not fatal
				log.WithError(err).WithField("file", filepath.Base(path)).Warn("Skipping document")
				color.Red("✗ %s: %v", filepath.Base(path), err)
				return nil
			}
			mu.Lock()
			docs = append(docs, doc)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	if err := db.SaveDocumentsBatch(ctx, docs); err != nil {
		return 0, fmt.Errorf("save documents: %w", err)
	}
	return len(docs), nil
}

// publishSnapshot uploads the rebuilt index under the indexer leader lock so
// two concurrent indexer runs cannot clobber each other's snapshots.
func publishSnapshot(ctx context.Context, cfg *config.Config, db *storage.DB, log *logger.Logger) (string, error) {
	r2, err := r2client.New(ctx, r2client.Config{
		Endpoint:    cfg.R2Endpoint,
		AccessKeyID: cfg.R2AccessKeyID,
		SecretKey:   cfg.R2SecretAccessKey,
		BucketName:  cfg.R2Bucket,
	})
	if err != nil {
		return "", fmt.Errorf("create r2 client: %w", err)
	}

	mgr := snapshot.New(r2, snapshot.Config{
		SnapshotKey:  "snapshots/index.db.zst",
		LockKey:      "locks/indexer.json",
		LockTTL:      10 * time.Minute,
		PollInterval: cfg.R2PollInterval,
		TempDir:      cfg.DataDir,
	}, nil)

	acquired, err := mgr.AcquireLeaderLock(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire leader lock: %w", err)
	}
	if !acquired {
		return "", fmt.Errorf("another indexer holds the leader lock")
	}
	defer func() {
		if err := mgr.ReleaseLeaderLock(context.Background()); err != nil {
			log.WithError(err).Warn("Failed to release leader lock")
		}
	}()

	etag, err := mgr.UploadSnapshot(ctx, db)
	if err != nil {
		return "", fmt.Errorf("upload snapshot: %w", err)
	}
	return etag, nil
}

// resetIndex deletes all indexed data
func resetIndex(db *storage.DB) error {
	if _, err := db.Conn().Exec("DELETE FROM documents"); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	if _, err := db.Conn().Exec("DELETE FROM links"); err != nil {
		return fmt.Errorf("failed to delete links: %w", err)
	}
	return nil
}

func fatal(log *logger.Logger, err error, msg string) {
	log.WithError(err).Error(msg)
	color.Red("✗ %s: %v", msg, err)
	os.Exit(1)
}
