package session

import (
	"context"
	"sync"

	"github.com/examhall/examhall/internal/content"
)

// Manager owns the live orchestrators, one per (student, exam). The HTTP
// layer resolves requests through here; starting an already-running attempt
// returns the existing session rather than a second one.
type Manager struct {
	loader *content.Loader
	base   Deps // template; each session gets its own timer

	mu       sync.Mutex
	sessions map[string]*Orchestrator
}

func NewManager(loader *content.Loader, base Deps) *Manager {
	base.Timer = nil
	return &Manager{
		loader:   loader,
		base:     base,
		sessions: map[string]*Orchestrator{},
	}
}

func sessionKey(studentID, examID string) string { return studentID + "|" + examID }

// Start loads the exam and opens (or resumes) the student's session.
// Content-load failures are fatal here; there is no session to salvage
// without a definition.
func (m *Manager) Start(ctx context.Context, studentID, examID string) (*Orchestrator, error) {
	m.mu.Lock()
	if o, ok := m.sessions[sessionKey(studentID, examID)]; ok {
		m.mu.Unlock()
		return o, nil
	}
	m.mu.Unlock()

	ex, err := m.loader.LoadExam(ctx, examID)
	if err != nil {
		return nil, err
	}

	o := New(m.base, studentID, ex)
	if err := o.Start(ctx); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[sessionKey(studentID, examID)]; ok {
		// Lost a start race; keep the first session.
		o.deps.Timer.Stop()
		return existing, nil
	}
	m.sessions[sessionKey(studentID, examID)] = o
	return o, nil
}

// Get returns the live session, if any.
func (m *Manager) Get(studentID, examID string) (*Orchestrator, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.sessions[sessionKey(studentID, examID)]
	return o, ok
}

// Drop forgets the session (after submission or exit). Persisted state
// stays in the backend for resume.
func (m *Manager) Drop(studentID, examID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, sessionKey(studentID, examID))
}
