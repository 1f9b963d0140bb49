package ratelimit

import (
	"sync"
	"time"

	"github.com/mih97/qcnav-linebot-go/internal/metrics"
)

// LLMRateLimiter tracks per-user LLM API usage with an hourly token bucket
// plus a hard daily cap. LLM navigation calls are the expensive part of
// answering; this keeps one chatty user from exhausting the quota.
type LLMRateLimiter struct {
	pkl        *PerKeyLimiter
	maxPerHour float64
	dailyLimit int
	metrics    *metrics.Metrics

	mu       sync.Mutex
	dayStart time.Time
	daily    map[string]int
}

// NewLLMRateLimiter creates an LLM rate limiter.
// burst is the bucket capacity, maxPerHour the refill budget, dailyLimit the
// per-user daily cap (0 disables it). Call Stop when done.
func NewLLMRateLimiter(burst, maxPerHour float64, dailyLimit int, cleanup time.Duration, m *metrics.Metrics) *LLMRateLimiter {
	llm := &LLMRateLimiter{
		maxPerHour: maxPerHour,
		dailyLimit: dailyLimit,
		metrics:    m,
		dayStart:   time.Now().Truncate(24 * time.Hour),
		daily:      make(map[string]int),
	}

	llm.pkl = NewPerKeyLimiter(PerKeyLimiterConfig{
		MaxTokens:     burst,
		RefillRate:    maxPerHour / 3600.0,
		CleanupPeriod: cleanup,
	})

	llm.pkl.OnDrop(func() {
		m.RecordRateLimitDrop("llm_hourly")
	})

	return llm
}

// Allow checks both the hourly bucket and the daily cap for userID.
func (llm *LLMRateLimiter) Allow(userID string) bool {
	if userID == "" {
		return true
	}

	if llm.dailyLimit > 0 {
		llm.mu.Lock()
		now := time.Now()
		if now.Sub(llm.dayStart) >= 24*time.Hour {
			llm.dayStart = now.Truncate(24 * time.Hour)
			llm.daily = make(map[string]int)
		}
		if llm.daily[userID] >= llm.dailyLimit {
			llm.mu.Unlock()
			llm.metrics.RecordRateLimitDrop("llm_daily")
			return false
		}
		llm.mu.Unlock()
	}

	if !llm.pkl.Allow(userID) {
		return false
	}

	if llm.dailyLimit > 0 {
		llm.mu.Lock()
		llm.daily[userID]++
		llm.mu.Unlock()
	}
	return true
}

// GetAvailable returns remaining hourly tokens for a user.
func (llm *LLMRateLimiter) GetAvailable(userID string) float64 {
	return llm.pkl.GetAvailable(userID)
}

// GetActiveCount returns the number of users with live limiters.
func (llm *LLMRateLimiter) GetActiveCount() int {
	return llm.pkl.GetActiveCount()
}

// Stop terminates the cleanup goroutine. Safe to call multiple times.
func (llm *LLMRateLimiter) Stop() {
	llm.pkl.Stop()
}
