// Package main provides the QC document navigator LINE bot server entry point.
package main

import (
	"context"
	"time"

	"github.com/mih97/qcnav-linebot-go/internal/config"
	"github.com/mih97/qcnav-linebot-go/internal/logger"
	"github.com/mih97/qcnav-linebot-go/internal/metrics"
	"github.com/mih97/qcnav-linebot-go/internal/navigate"
	"github.com/mih97/qcnav-linebot-go/internal/ratelimit"
)

// updateGaugeMetrics periodically refreshes gauge metrics that track
// in-memory state: live pagination sessions and active rate limiters.
func updateGaugeMetrics(
	ctx context.Context,
	sessions *navigate.SessionStore,
	userLimiter *ratelimit.PerKeyLimiter,
	llmLimiter *ratelimit.LLMRateLimiter,
	m *metrics.Metrics,
	log *logger.Logger,
) {
	ticker := time.NewTicker(config.MetricsUpdateInterval)
	defer ticker.Stop()

	performGaugeUpdate(sessions, userLimiter, llmLimiter, m, log)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			performGaugeUpdate(sessions, userLimiter, llmLimiter, m, log)
		}
	}
}

func performGaugeUpdate(
	sessions *navigate.SessionStore,
	userLimiter *ratelimit.PerKeyLimiter,
	llmLimiter *ratelimit.LLMRateLimiter,
	m *metrics.Metrics,
	log *logger.Logger,
) {
	m.SetActiveSessions(sessions.Len())
	log.WithFields(map[string]any{
		"sessions":      sessions.Len(),
		"user_limiters": userLimiter.GetActiveCount(),
		"llm_limiters":  llmLimiter.GetActiveCount(),
	}).Debug("Gauge metrics updated")
}
