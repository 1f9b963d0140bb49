// Package main provides the QC document navigator LINE bot server entry point.
package main

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mih97/qcnav-linebot-go/internal/config"
	"github.com/mih97/qcnav-linebot-go/internal/linktable"
	"github.com/mih97/qcnav-linebot-go/internal/navigate"
	"github.com/mih97/qcnav-linebot-go/internal/rag"
	"github.com/mih97/qcnav-linebot-go/internal/storage"
	"github.com/mih97/qcnav-linebot-go/internal/webhook"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRoutes configures all HTTP routes
func setupRoutes(
	router *gin.Engine,
	webhookHandler *webhook.Handler,
	hotdb *storage.HotSwapDB,
	registry *prometheus.Registry,
	table *linktable.Table,
	searcher *rag.HybridSearcher,
	sessions *navigate.SessionStore,
	cfg *config.Config,
) {
	// Root endpoint - redirect to the project page
	rootHandler := func(c *gin.Context) {
		c.Redirect(http.StatusMovedPermanently, "https://github.com/mih97/qcnav-linebot-go")
	}
	router.GET("/", rootHandler)
	router.HEAD("/", rootHandler)

	// Liveness probe: the process is up, nothing else
	healthHandler := func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
	router.GET("/healthz", healthHandler)
	router.HEAD("/healthz", healthHandler)

	// Readiness probe: index database reachable plus corpus counts
	readyHandler := func(c *gin.Context) {
		db := hotdb.DB()
		if err := db.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status": "not ready",
				"reason": err.Error(),
			})
			return
		}

		docCount, _ := db.CountDocuments(c.Request.Context())
		linkCount, _ := db.CountLinks(c.Request.Context())

		c.JSON(http.StatusOK, gin.H{
			"status":   "ready",
			"database": "connected",
			"search":   searcher.IsEnabled(),
			"index": gin.H{
				"documents": docCount,
				"links":     linkCount,
			},
			"link_table": table.Len(),
			"sessions":   sessions.Len(),
		})
	}
	router.GET("/ready", readyHandler)
	router.HEAD("/ready", readyHandler)

	// LINE webhook callback endpoint
	router.POST("/callback", webhookHandler.Handle)

	// Prometheus metrics endpoint, optionally behind basic auth
	metricsHandler := gin.WrapH(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	if cfg.MetricsPassword != "" {
		router.GET("/metrics", basicAuthMiddleware(cfg.MetricsUsername, cfg.MetricsPassword), metricsHandler)
	} else {
		router.GET("/metrics", metricsHandler)
	}
}
