package assessment

import (
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/interview-coordinator/internal/rubric"
	"github.com/jonathan/interview-coordinator/internal/types"
)

// Manager tracks the live assessment session for each request. A request has
// at most one session at a time; a second interviewer cannot open a request
// that is already being assessed.
type Manager struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates an empty session manager.
func NewManager() *Manager {
	return &Manager{sessions: make(map[uuid.UUID]*Session)}
}

// Open starts a session for a request, or returns the existing one when the
// same interviewer re-opens it. A session held by a different interviewer
// yields ErrSessionActive.
func (m *Manager) Open(requestID uuid.UUID, interviewer types.Actor, candidateName string, tmpl *rubric.Template, gateway Gateway) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[requestID]; ok {
		if existing.Interviewer.ID == interviewer.ID {
			return existing, nil
		}
		return nil, &ErrSessionActive{Interviewer: existing.Interviewer.Name}
	}

	session := NewSession(requestID, interviewer, candidateName, tmpl, gateway)
	m.sessions[requestID] = session
	return session, nil
}

// Get returns the live session for a request, if any.
func (m *Manager) Get(requestID uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[requestID]
	return session, ok
}

// Discard abandons a session, cancelling any in-flight AI calls.
func (m *Manager) Discard(requestID uuid.UUID) {
	m.mu.Lock()
	session, ok := m.sessions[requestID]
	delete(m.sessions, requestID)
	m.mu.Unlock()

	if ok {
		session.discard()
	}
}

// Close removes a finalized session without cancelling anything.
func (m *Manager) Close(requestID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, requestID)
}
