package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Manager owns the live sessions, keyed by an opaque cookie value.
type Manager struct {
	gen     *Generator
	idleTTL time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	sessions map[string]*Session
}

func NewManager(gen *Generator, idleTTL time.Duration) *Manager {
	return &Manager{
		gen:      gen,
		idleTTL:  idleTTL,
		now:      time.Now,
		sessions: make(map[string]*Session),
	}
}

func (m *Manager) Generator() *Generator {
	return m.gen
}

// Get returns the session for id, creating a fresh one (with a new id) when
// id is unknown. created reports whether a new session was made.
func (m *Manager) Get(id string) (s *Session, created bool) {
	if id != "" {
		m.mu.RLock()
		s, ok := m.sessions[id]
		m.mu.RUnlock()
		if ok {
			return s, false
		}
	}

	s = newSession(uuid.New().String(), m.gen, m.now)

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	return s, true
}

func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return len(m.sessions)
}

// Sweep drops sessions idle for longer than the TTL and revokes their
// artifacts. Sessions with a generation in flight are kept.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.idleTTL)

	m.mu.Lock()
	defer m.mu.Unlock()

	removed := 0
	for id, s := range m.sessions {
		if s.expire(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}
	return removed
}
