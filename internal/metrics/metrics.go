// Package metrics provides Prometheus metrics for the navigation bot.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Resolver pipeline metrics
	ResolverRequestsTotal   *prometheus.CounterVec
	ResolverDurationSeconds *prometheus.HistogramVec
	LinksResolvedTotal      prometheus.Counter
	SearchPassesTotal       *prometheus.CounterVec

	// LLM collaborator metrics
	LLMRequestsTotal   *prometheus.CounterVec
	LLMDurationSeconds *prometheus.HistogramVec
	LLMFallbackTotal   *prometheus.CounterVec

	// Webhook metrics
	WebhookRequestsTotal   *prometheus.CounterVec
	WebhookDurationSeconds *prometheus.HistogramVec

	// Rate limiter metrics
	RateLimiterDropped *prometheus.CounterVec

	// Pagination session metrics
	ActiveSessions prometheus.Gauge

	// Snapshot distribution metrics
	SnapshotOpsTotal *prometheus.CounterVec
}

// New creates a new Metrics instance with all metrics registered
func New(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		ResolverRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "qcnav_resolver_requests_total",
				Help: "Total resolver pipeline runs by adapter and status",
			},
			[]string{"adapter", "status"}, // adapter: text, ranked; status: ok, empty, error
		),

		ResolverDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qcnav_resolver_duration_seconds",
				Help:    "Resolver pipeline duration in seconds by adapter",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"adapter"},
		),

		LinksResolvedTotal: promauto.With(registry).NewCounter(
			prometheus.CounterOpts{
				Name: "qcnav_links_resolved_total",
				Help: "Total document hyperlinks resolved from the link table",
			},
		),

		SearchPassesTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "qcnav_search_passes_total",
				Help: "Retrieval search passes by pass kind and outcome",
			},
			[]string{"pass", "outcome"}, // pass: exact, category, expansion; outcome: hit, miss
		),

		LLMRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "qcnav_llm_requests_total",
				Help: "Total LLM collaborator calls by provider and status",
			},
			[]string{"provider", "status"}, // status: success, error, rate_limited
		),

		LLMDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qcnav_llm_duration_seconds",
				Help:    "LLM collaborator call duration in seconds by provider",
				Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30},
			},
			[]string{"provider"},
		),

		LLMFallbackTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "qcnav_llm_fallback_total",
				Help: "Provider fallback transitions during LLM calls",
			},
			[]string{"from", "to"},
		),

		WebhookRequestsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "qcnav_webhook_requests_total",
				Help: "Total webhook events by type and status",
			},
			[]string{"type", "status"}, // type: message, postback, batch
		),

		WebhookDurationSeconds: promauto.With(registry).NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "qcnav_webhook_duration_seconds",
				Help:    "Webhook event processing duration in seconds by type",
				Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"type"},
		),

		RateLimiterDropped: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "qcnav_ratelimit_dropped_total",
				Help: "Requests dropped by rate limiters by scope",
			},
			[]string{"scope"}, // scope: user, global, llm
		),

		ActiveSessions: promauto.With(registry).NewGauge(
			prometheus.GaugeOpts{
				Name: "qcnav_pagination_sessions_active",
				Help: "Pagination sessions currently held in memory",
			},
		),

		SnapshotOpsTotal: promauto.With(registry).NewCounterVec(
			prometheus.CounterOpts{
				Name: "qcnav_snapshot_ops_total",
				Help: "Index snapshot operations by op and status",
			},
			[]string{"op", "status"}, // op: upload, download, poll
		),
	}

	return m
}

// RecordResolver records a resolver pipeline run.
func (m *Metrics) RecordResolver(adapter, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ResolverRequestsTotal.WithLabelValues(adapter, status).Inc()
	m.ResolverDurationSeconds.WithLabelValues(adapter).Observe(duration.Seconds())
}

// RecordSearchPass records one retrieval pass outcome.
func (m *Metrics) RecordSearchPass(pass string, hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.SearchPassesTotal.WithLabelValues(pass, outcome).Inc()
}

// RecordLLM records an LLM collaborator call.
func (m *Metrics) RecordLLM(provider, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.LLMRequestsTotal.WithLabelValues(provider, status).Inc()
	m.LLMDurationSeconds.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordLLMFallback records a provider fallback transition.
func (m *Metrics) RecordLLMFallback(from, to string) {
	if m == nil {
		return
	}
	m.LLMFallbackTotal.WithLabelValues(from, to).Inc()
}

// RecordWebhook records a webhook event.
func (m *Metrics) RecordWebhook(eventType, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.WebhookRequestsTotal.WithLabelValues(eventType, status).Inc()
	if duration > 0 {
		m.WebhookDurationSeconds.WithLabelValues(eventType).Observe(duration.Seconds())
	}
}

// RecordRateLimitDrop records a request dropped by a rate limiter.
func (m *Metrics) RecordRateLimitDrop(scope string) {
	if m == nil {
		return
	}
	m.RateLimiterDropped.WithLabelValues(scope).Inc()
}

// RecordSnapshotOp records an index snapshot operation.
func (m *Metrics) RecordSnapshotOp(op, status string) {
	if m == nil {
		return
	}
	m.SnapshotOpsTotal.WithLabelValues(op, status).Inc()
}

// RecordLinksResolved records hyperlinks attached to an answer.
func (m *Metrics) RecordLinksResolved(count int) {
	if m == nil || count <= 0 {
		return
	}
	m.LinksResolvedTotal.Add(float64(count))
}

// SetActiveSessions updates the live pagination session gauge.
func (m *Metrics) SetActiveSessions(count int) {
	if m == nil {
		return
	}
	m.ActiveSessions.Set(float64(count))
}
