// Package session keeps the leases that map opaque tokens to logged-in accounts.
package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Session is one lease. Its stored value is the account id as a decimal string.
type Session struct {
	ID        string
	Host      string
	CreatedAt time.Time

	mu           sync.RWMutex
	userID       string
	lastActivity time.Time
}

// SetUserID stores the account the session belongs to.
func (s *Session) SetUserID(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.userID = userID
}

// GetUserID returns the stored account value.
func (s *Session) GetUserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// UpdateActivity renews the lease.
func (s *Session) UpdateActivity() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastActivity = time.Now()
}

// LastActivity returns when the lease was last renewed.
func (s *Session) LastActivity() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastActivity
}

// Manager owns every live session.
type Manager interface {
	CreateSession(id, host string) *Session
	GetSession(id string) (*Session, bool)
	RemoveSession(id string)
	UpdateActivity(id string)
	GetActiveSessions() int
	CleanupExpiredSessions(ctx context.Context)
	CloseAll()
}

type manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	lease    time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewManager creates a manager whose sessions expire after lease without activity.
func NewManager(lease time.Duration, logger *zap.Logger) Manager {
	return &manager{
		sessions: make(map[string]*Session),
		lease:    lease,
		now:      time.Now,
		logger:   logger,
	}
}

func (m *manager) CreateSession(id, host string) *Session {
	now := m.now()
	sess := &Session{ID: id, Host: host, CreatedAt: now, lastActivity: now}

	m.mu.Lock()
	m.sessions[id] = sess
	m.mu.Unlock()

	m.logger.Debug("session created", zap.String("session_id", id), zap.String("host", host))
	return sess
}

// GetSession returns a live session. Expired sessions are treated as missing.
func (m *manager) GetSession(id string) (*Session, bool) {
	m.mu.RLock()
	sess, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok || m.expired(sess, m.now()) {
		return nil, false
	}
	return sess, true
}

func (m *manager) RemoveSession(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

func (m *manager) UpdateActivity(id string) {
	if sess, ok := m.GetSession(id); ok {
		sess.UpdateActivity()
	}
}

func (m *manager) GetActiveSessions() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

func (m *manager) expired(sess *Session, now time.Time) bool {
	return m.lease > 0 && now.Sub(sess.LastActivity()) > m.lease
}

// CleanupExpiredSessions removes expired sessions until ctx is done.
func (m *manager) CleanupExpiredSessions(ctx context.Context) {
	interval := m.lease / 2
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := m.removeExpired(m.now()); n > 0 {
				m.logger.Info("expired sessions removed", zap.Int("count", n))
			}
		}
	}
}

func (m *manager) removeExpired(now time.Time) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, sess := range m.sessions {
		if m.expired(sess, now) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}

func (m *manager) CloseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.sessions)
	m.sessions = make(map[string]*Session)
	m.logger.Info("all sessions closed", zap.Int("count", n))
}
