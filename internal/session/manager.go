package session

import (
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/RevCBH/medalert/internal/escalate"
	"github.com/RevCBH/medalert/internal/events"
	"github.com/RevCBH/medalert/internal/history"
)

// DefaultID is the session used when a caller does not name one
const DefaultID = "default"

// NewID returns a fresh random session identifier
func NewID() string {
	return uuid.NewString()
}

// Manager keeps sessions isolated from one another
type Manager struct {
	opts Options

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a manager that builds sessions from opts
func NewManager(opts Options) *Manager {
	return &Manager{
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// Get returns the session for id, creating it on first use. An empty id
// selects DefaultID. New sessions are restored from the archive when one
// is configured.
func (m *Manager) Get(id string) *Session {
	if id == "" {
		id = DefaultID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[id]; ok {
		return s
	}

	s := New(id, m.opts)
	if err := s.Restore(); err != nil {
		log.Warn().Err(err).Str("session", id).Msg("Failed to restore session history")
	}
	m.sessions[id] = s
	if m.opts.Bus != nil {
		m.opts.Bus.Emit(events.NewEvent(events.SessionCreated, id))
	}
	return s
}

// Lookup returns an existing session without creating one
func (m *Manager) Lookup(id string) (*Session, bool) {
	if id == "" {
		id = DefaultID
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	return s, ok
}

// View returns the history of id without creating the session. A session
// that is not live is read from the archive, or is empty without one.
func (m *Manager) View(id string) history.Snapshot {
	if id == "" {
		id = DefaultID
	}
	if s, ok := m.Lookup(id); ok {
		return s.History().Snapshot()
	}
	if m.opts.Archive == nil {
		return history.NewSnapshot(nil)
	}

	evs, err := m.opts.Archive.List(id, 0)
	if err != nil {
		log.Warn().Err(err).Str("session", id).Msg("Failed to read archived history")
		return history.NewSnapshot(nil)
	}
	return history.NewSnapshot(evs)
}

// State returns the escalation state of id. Sessions that are not live
// are idle.
func (m *Manager) State(id string) escalate.State {
	if s, ok := m.Lookup(id); ok {
		return s.Escalation()
	}
	return escalate.State{Phase: escalate.PhaseIdle}
}

// Delete closes and forgets a session. Returns false if it did not exist.
func (m *Manager) Delete(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()

	if !ok {
		return false
	}
	s.Close()
	if m.opts.Bus != nil {
		m.opts.Bus.Emit(events.NewEvent(events.SessionClosed, id))
	}
	return true
}

// IDs lists the active sessions in sorted order
func (m *Manager) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.sessions))
	for id := range m.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of active sessions
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}

// Close closes every session
func (m *Manager) Close() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}
