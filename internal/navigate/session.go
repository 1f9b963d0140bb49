package navigate

import (
	"context"
	"sync"
	"time"

	"github.com/mih97/qcnav-linebot-go/internal/metrics"
)

// Session holds the captured search result for one chat, so "show more"
// pages through the same ranked list the first answer came from.
type Session struct {
	Pagination *Pagination
	Query      string
	Language   string
	Basis      string // Classification basis shown in the answer
	CreatedAt  time.Time
}

// SessionStore keeps per-chat pagination sessions with TTL expiry.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	metrics  *metrics.Metrics
}

// NewSessionStore creates a session store. Sessions older than ttl are
// dropped by Sweep.
func NewSessionStore(ttl time.Duration, m *metrics.Metrics) *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*Session),
		ttl:      ttl,
		metrics:  m,
	}
}

// Put stores the session for a chat, replacing any previous one.
func (s *SessionStore) Put(chatID string, session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	session.CreatedAt = time.Now()
	s.sessions[chatID] = session
	s.metrics.SetActiveSessions(len(s.sessions))
}

// Get returns the live session for a chat, or nil when none exists or the
// session has expired.
func (s *SessionStore) Get(chatID string) *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[chatID]
	if !ok {
		return nil
	}
	if time.Since(session.CreatedAt) > s.ttl {
		return nil
	}
	return session
}

// Delete removes the session for a chat.
func (s *SessionStore) Delete(chatID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, chatID)
	s.metrics.SetActiveSessions(len(s.sessions))
}

// Sweep removes expired sessions and returns how many were dropped.
func (s *SessionStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := time.Now().Add(-s.ttl)
	removed := 0
	for chatID, session := range s.sessions {
		if session.CreatedAt.Before(cutoff) {
			delete(s.sessions, chatID)
			removed++
		}
	}
	s.metrics.SetActiveSessions(len(s.sessions))
	return removed
}

// StartSweeper runs Sweep at the given interval until ctx is cancelled.
func (s *SessionStore) StartSweeper(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.Sweep()
			}
		}
	}()
}

// Len returns the number of stored sessions, including expired ones not yet
// swept.
func (s *SessionStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}
