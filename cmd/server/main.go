// Package main provides the QC document navigator LINE bot server entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mih97/qcnav-linebot-go/internal/bot"
	"github.com/mih97/qcnav-linebot-go/internal/config"
	"github.com/mih97/qcnav-linebot-go/internal/genai"
	"github.com/mih97/qcnav-linebot-go/internal/linktable"
	"github.com/mih97/qcnav-linebot-go/internal/logger"
	"github.com/mih97/qcnav-linebot-go/internal/metrics"
	"github.com/mih97/qcnav-linebot-go/internal/navigate"
	"github.com/mih97/qcnav-linebot-go/internal/r2client"
	"github.com/mih97/qcnav-linebot-go/internal/rag"
	"github.com/mih97/qcnav-linebot-go/internal/ratelimit"
	"github.com/mih97/qcnav-linebot-go/internal/sentry"
	"github.com/mih97/qcnav-linebot-go/internal/snapshot"
	"github.com/mih97/qcnav-linebot-go/internal/storage"
	"github.com/mih97/qcnav-linebot-go/internal/webhook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// cacheTTL marks index rows as stale for readiness reporting. The index is
// rebuilt offline and swapped in whole, so this is generous.
const cacheTTL = 24 * time.Hour

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger; packages that log through slog directly pick up the
	// same handler via the default logger
	log := logger.NewWithRemote(cfg.LogLevel, logger.RemoteOptions{Token: cfg.BetterstackToken})
	slog.SetDefault(log.Logger)
	log.Info("Starting QC navigator server")

	// Initialize Sentry (no-op without a DSN)
	if err := sentry.Initialize(sentry.Config{
		DSN:   cfg.SentryDSN,
		Debug: cfg.LogLevel == "debug",
	}); err != nil {
		log.WithError(err).Warn("Failed to initialize Sentry, continuing without it")
	}

	// Create Prometheus registry with Go and process collectors
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	registry.MustRegister(collectors.NewBuildInfoCollector())
	m := metrics.New(registry)
	log.Info("Metrics initialized")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		fatal(log, err, "Failed to create data directory")
	}

	// R2 snapshot distribution (optional)
	var snapMgr *snapshot.Manager
	if cfg.R2Enabled {
		r2, err := r2client.New(ctx, r2client.Config{
			Endpoint:    cfg.R2Endpoint,
			AccessKeyID: cfg.R2AccessKeyID,
			SecretKey:   cfg.R2SecretAccessKey,
			BucketName:  cfg.R2Bucket,
		})
		if err != nil {
			fatal(log, err, "Failed to create R2 client")
		}
		snapMgr = snapshot.New(r2, snapshot.Config{
			SnapshotKey:  "snapshots/index.db.zst",
			LockKey:      "locks/indexer.json",
			LockTTL:      10 * time.Minute,
			PollInterval: cfg.R2PollInterval,
			TempDir:      cfg.DataDir,
		}, m)

		// Bootstrap the local index from the snapshot when none exists yet
		if _, err := os.Stat(cfg.SQLitePath()); os.IsNotExist(err) {
			dbPath, etag, err := snapMgr.DownloadSnapshot(ctx, cfg.DataDir)
			switch {
			case errors.Is(err, snapshot.ErrNotFound):
				log.Warn("No index snapshot published yet, starting with empty index")
			case err != nil:
				fatal(log, err, "Failed to download index snapshot")
			default:
				log.WithField("path", dbPath).WithField("etag", etag).Info("Index snapshot downloaded")
			}
		}
	}

	// Open the index database behind a hot-swap wrapper so snapshot polling
	// can replace it without a restart
	hotdb, err := storage.NewHotSwapDB(cfg.SQLitePath(), cacheTTL)
	if err != nil {
		fatal(log, err, "Failed to open index database")
	}
	defer func() { _ = hotdb.Close() }()
	log.WithField("path", cfg.SQLitePath()).Info("Index database opened")

	// Load the link table (equipment, number, language -> URL)
	table, err := linktable.LoadFile(cfg.LinkTablePath, linktable.WithPadWidth(cfg.Resolver.PadWidth))
	if err != nil {
		log.WithError(err).WithField("path", cfg.LinkTablePath).
			Warn("Failed to load link table, replies fall back to the folder link")
		table = linktable.New(linktable.WithPadWidth(cfg.Resolver.PadWidth))
	} else {
		log.WithField("links", table.Len()).Info("Link table loaded")
	}

	// Build retrieval: BM25 always, vector search when Gemini is configured
	bm25Index := rag.NewBM25Index(log)
	var vectorDB *rag.VectorDB
	if cfg.GeminiAPIKey != "" {
		vectorDB, err = rag.NewVectorDB(cfg.DataDir, cfg.GeminiAPIKey, log)
		if err != nil {
			log.WithError(err).Warn("Failed to create vector database, semantic search disabled")
			vectorDB = nil
		}
	} else {
		log.Info("Gemini API key not configured, semantic search disabled")
	}
	searcher := rag.NewHybridSearcher(vectorDB, bm25Index, log)

	docs, err := hotdb.DB().ListDocuments(ctx)
	if err != nil {
		fatal(log, err, "Failed to list indexed documents")
	}
	if err := searcher.Initialize(ctx, docs); err != nil {
		log.WithError(err).Warn("Failed to initialize retrieval indexes")
	}
	log.WithField("documents", len(docs)).Info("Retrieval indexes initialized")

	// LLM navigator chain (optional) behind a per-user budget
	llmLimiter := ratelimit.NewLLMRateLimiter(
		cfg.Bot.LLMBurstTokens,
		cfg.Bot.LLMRefillPerHour,
		cfg.Bot.LLMDailyLimit,
		config.RateLimiterCleanupInterval,
		m,
	)
	defer llmLimiter.Stop()

	ranker, err := genai.CreateRanker(ctx, llmConfig(cfg), m)
	if err != nil {
		log.WithError(err).Warn("Failed to create LLM ranker, re-ranking disabled")
	}
	var navigator navigate.Navigator
	if ranker != nil {
		navigator = navigate.NewGatedNavigator(ranker, llmLimiter)
		log.WithField("provider", ranker.Provider().String()).Info("LLM navigator enabled")
	}

	// Resolver pipeline and bot wiring
	sessions := navigate.NewSessionStore(cfg.Resolver.SessionTTL, m)
	sessions.StartSweeper(ctx, config.SessionSweepInterval)

	resolver := navigate.NewResolver(cfg.Resolver, searcher, hotdb, navigator, table, sessions, m)

	userLimiter := ratelimit.NewPerKeyLimiter(ratelimit.PerKeyLimiterConfig{
		MaxTokens:     cfg.Bot.UserRateLimitBurst,
		RefillRate:    cfg.Bot.UserRateLimitRefillPerSec,
		CleanupPeriod: config.RateLimiterCleanupInterval,
	})
	defer userLimiter.Stop()

	botRegistry := bot.NewRegistry()
	botRegistry.Register(bot.NewNavigateHandler(resolver, log))

	processor := bot.NewProcessor(bot.ProcessorConfig{
		Registry:    botRegistry,
		UserLimiter: userLimiter,
		Logger:      log,
		Metrics:     m,
		BotConfig:   &cfg.Bot,
	})

	webhookHandler, err := webhook.NewHandler(webhook.HandlerConfig{
		ChannelSecret: cfg.LineChannelSecret,
		ChannelToken:  cfg.LineChannelToken,
		BotConfig:     &cfg.Bot,
		Metrics:       m,
		Logger:        log,
		Processor:     processor,
	})
	if err != nil {
		fatal(log, err, "Failed to create webhook handler")
	}
	log.Info("Webhook handler created")

	// Start snapshot polling; after every swap the retrieval indexes are
	// rebuilt from the fresh database
	if snapMgr != nil {
		snapMgr.OnSwap = func(swapCtx context.Context) {
			fresh, err := hotdb.DB().ListDocuments(swapCtx)
			if err != nil {
				log.WithError(err).Error("Failed to list documents after snapshot swap")
				return
			}
			if err := searcher.Initialize(swapCtx, fresh); err != nil {
				log.WithError(err).Error("Failed to rebuild retrieval indexes after snapshot swap")
				return
			}
			log.WithField("documents", len(fresh)).Info("Retrieval indexes rebuilt from snapshot")
		}
		snapMgr.StartPolling(ctx, hotdb, cfg.DataDir)
	}

	// Set Gin mode based on log level
	if cfg.LogLevel == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	if sentry.IsEnabled() {
		router.Use(sentry.GinMiddleware())
	}
	router.Use(securityHeadersMiddleware())
	router.Use(loggingMiddleware(log))

	setupRoutes(router, webhookHandler, hotdb, registry, table, searcher, sessions, cfg)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  config.WebhookHTTPRead,
		WriteTimeout: config.WebhookHTTPWrite,
		IdleTimeout:  config.WebhookHTTPIdle,
	}

	// Background gauge updater
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.WithField("panic", r).Error("Panic in gauge metrics goroutine")
			}
		}()
		updateGaugeMetrics(ctx, sessions, userLimiter, llmLimiter, m, log)
	}()

	// Start server
	go func() {
		log.WithField("port", cfg.Port).Info("Server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			fatal(log, err, "Failed to start server")
		}
	}()

	// Wait for interrupt signal for graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	if snapMgr != nil {
		snapMgr.StopPolling()
	}
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	// Drain in-flight webhook event processing before closing the server
	if err := webhookHandler.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Warn("Timed out waiting for webhook processing to drain")
	}

	goDone := make(chan struct{})
	go func() {
		wg.Wait()
		close(goDone)
	}()
	select {
	case <-goDone:
		log.Info("All background goroutines stopped")
	case <-time.After(5 * time.Second):
		log.Warn("Timeout waiting for goroutines to stop")
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.WithError(err).Error("Server forced to shutdown")
	}

	if ranker != nil {
		if err := ranker.Close(); err != nil {
			log.WithError(err).Error("Failed to close LLM ranker")
		}
	}

	if err := hotdb.Close(); err != nil {
		log.WithError(err).Error("Failed to close index database")
	}

	sentry.Flush(2 * time.Second)
	_ = log.Shutdown(shutdownCtx)

	log.Info("Server stopped")
}

// llmConfig maps application configuration onto the provider chain. Empty
// model overrides fall back to the package defaults.
func llmConfig(cfg *config.Config) genai.LLMConfig {
	llm := genai.LLMConfig{
		Gemini:      genai.ProviderConfig{APIKey: cfg.GeminiAPIKey},
		Groq:        genai.ProviderConfig{APIKey: cfg.GroqAPIKey},
		RetryConfig: genai.DefaultRetryConfig(),
	}
	if cfg.GeminiModel != "" {
		llm.Gemini.Models = append(llm.Gemini.Models, cfg.GeminiModel)
	}
	if cfg.GeminiFallbackModel != "" {
		llm.Gemini.Models = append(llm.Gemini.Models, cfg.GeminiFallbackModel)
	}
	if cfg.GroqModel != "" {
		llm.Groq.Models = append(llm.Groq.Models, cfg.GroqModel)
	}
	if cfg.GroqFallbackModel != "" {
		llm.Groq.Models = append(llm.Groq.Models, cfg.GroqFallbackModel)
	}
	return llm
}

func fatal(log *logger.Logger, err error, msg string) {
	log.WithError(err).Error(msg)
	os.Exit(1)
}
