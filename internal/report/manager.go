package report

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"github.com/robfig/cron/v3"
)

// ErrManagerClosed is returned by Create after Close.
var ErrManagerClosed = errors.New("session manager closed")

// Manager owns the open sessions of the service and reaps idle ones.
type Manager struct {
	deps    SessionDeps
	idleTTL time.Duration
	clock   clockwork.Clock

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
	cron     *cron.Cron
}

// NewManager creates an empty manager. Sessions idle for longer than idleTTL
// are closed by ReapIdle; a non-positive idleTTL disables reaping.
func NewManager(deps SessionDeps, idleTTL time.Duration) *Manager {
	if deps.Options.Clock == nil {
		deps.Options.Clock = clockwork.NewRealClock()
	}
	return &Manager{
		deps:     deps,
		idleTTL:  idleTTL,
		clock:    deps.Options.Clock,
		sessions: make(map[string]*Session),
	}
}

// Create opens a new session with a random id.
func (m *Manager) Create() (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrManagerClosed
	}

	s := NewSession(uuid.NewString(), m.deps)
	m.sessions[s.ID] = s
	m.deps.Metrics.SessionsActive.Set(float64(len(m.sessions)))
	m.deps.Logger.Info("session created", "session_id", s.ID)
	return s, nil
}

// Get looks up an open session.
func (m *Manager) Get(id string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// Delete closes and forgets a session. It reports whether the id was known.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if ok {
		delete(m.sessions, id)
		m.deps.Metrics.SessionsActive.Set(float64(len(m.sessions)))
	}
	m.mu.Unlock()

	if ok {
		s.Close()
		m.deps.Logger.Info("session closed", "session_id", id)
	}
	return ok
}

// Len returns the number of open sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// ReapIdle closes every session whose last activity is older than the idle
// TTL and returns how many were closed.
func (m *Manager) ReapIdle() int {
	if m.idleTTL <= 0 {
		return 0
	}
	cutoff := m.clock.Now().Add(-m.idleTTL)

	m.mu.Lock()
	var idle []*Session
	for id, s := range m.sessions {
		if s.LastActive().Before(cutoff) {
			idle = append(idle, s)
			delete(m.sessions, id)
		}
	}
	m.deps.Metrics.SessionsActive.Set(float64(len(m.sessions)))
	m.mu.Unlock()

	for _, s := range idle {
		s.Close()
	}
	if len(idle) > 0 {
		m.deps.Logger.Info("reaped idle sessions", "count", len(idle), "idle_ttl", m.idleTTL)
	}
	return len(idle)
}

// StartReaper runs ReapIdle on the given cron schedule, e.g. "@every 1m".
func (m *Manager) StartReaper(schedule string) error {
	c := cron.New()
	if _, err := c.AddFunc(schedule, func() { m.ReapIdle() }); err != nil {
		return fmt.Errorf("schedule session reaper: %w", err)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrManagerClosed
	}
	m.cron = c
	m.mu.Unlock()

	c.Start()
	return nil
}

// CheckReadiness reports the manager as ready until it is closed.
func (m *Manager) CheckReadiness(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrManagerClosed
	}
	return nil
}

// Close stops the reaper and closes every session.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	c := m.cron
	m.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
	for _, s := range sessions {
		s.Close()
	}
	m.deps.Metrics.SessionsActive.Set(0)
}
