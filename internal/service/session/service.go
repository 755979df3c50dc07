// Package session owns the per-connection conversation state: the registry
// of live sessions, their append-only transcripts, and the per-session
// exchange guard that keeps model calls strictly sequential.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/figmentlabs/figment/internal/model/app"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionTerminated = errors.New("session terminated")
	ErrExchangeInFlight  = errors.New("exchange already in flight")
)

// Service encapsulates conversation state management. Sessions share nothing
// with each other; all state lives behind one lock and every accessor hands
// out copies.
type Service struct {
	mu          sync.RWMutex
	sessions    map[string]app.Session
	transcripts map[string][]app.Turn
	inFlight    map[string]bool
}

// NewService bootstraps the in-memory session registry. Lifecycle of each
// entry is tied 1:1 to its WebSocket connection; nothing survives a restart.
func NewService() *Service {
	return &Service{
		sessions:    make(map[string]app.Session),
		transcripts: make(map[string][]app.Turn),
		inFlight:    make(map[string]bool),
	}
}

// Create provisions a fresh session awaiting its application description.
func (s *Service) Create(_ context.Context) (app.Session, error) {
	session := app.Session{
		ID:        uuid.NewString(),
		Phase:     app.PhaseAwaitingDescription,
		CreatedAt: time.Now().UTC(),
	}

	s.mu.Lock()
	s.sessions[session.ID] = session
	s.transcripts[session.ID] = make([]app.Turn, 0, 16)
	s.mu.Unlock()

	return session, nil
}

// AppendUser appends a user turn built from a description or a serialized
// interaction event.
func (s *Service) AppendUser(_ context.Context, sessionID, content string) error {
	return s.append(sessionID, app.RoleUser, content)
}

// AppendModel appends a model turn. The first successful append transitions
// the session from AwaitingDescription to Active.
func (s *Service) AppendModel(_ context.Context, sessionID, content string) error {
	return s.append(sessionID, app.RoleModel, content)
}

func (s *Service) append(sessionID string, role app.Role, content string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if session.Phase == app.PhaseTerminated {
		return ErrSessionTerminated
	}

	s.transcripts[sessionID] = append(s.transcripts[sessionID], app.Turn{
		Role:      role,
		Content:   content,
		CreatedAt: time.Now().UTC(),
	})

	if role == app.RoleModel && session.Phase == app.PhaseAwaitingDescription {
		session.Phase = app.PhaseActive
		s.sessions[sessionID] = session
	}

	return nil
}

// Get retrieves a session snapshot by identifier.
func (s *Service) Get(_ context.Context, sessionID string) (app.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return app.Session{}, ErrSessionNotFound
	}
	return session, nil
}

// Transcript returns a copy of the full ordered transcript for prompt
// construction.
func (s *Service) Transcript(_ context.Context, sessionID string) ([]app.Turn, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	turns, ok := s.transcripts[sessionID]
	if !ok {
		return nil, ErrSessionNotFound
	}

	copied := make([]app.Turn, len(turns))
	copy(copied, turns)
	return copied, nil
}

// Terminate moves the session to its terminal phase. Further appends fail
// with ErrSessionTerminated, which is how completions that land after the
// connection closed get discarded.
func (s *Service) Terminate(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}

	session.Phase = app.PhaseTerminated
	s.sessions[sessionID] = session
	return nil
}

// Remove drops a terminated session from the registry once its connection is
// gone.
func (s *Service) Remove(_ context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	delete(s.transcripts, sessionID)
	delete(s.inFlight, sessionID)
}

// BeginExchange marks the session as having a model call outstanding. At most
// one exchange may be open per session; a second call fails with
// ErrExchangeInFlight until EndExchange runs.
func (s *Service) BeginExchange(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[sessionID]
	if !ok {
		return ErrSessionNotFound
	}
	if session.Phase == app.PhaseTerminated {
		return ErrSessionTerminated
	}
	if s.inFlight[sessionID] {
		return ErrExchangeInFlight
	}

	s.inFlight[sessionID] = true
	return nil
}

// EndExchange releases the in-flight guard.
func (s *Service) EndExchange(_ context.Context, sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.inFlight, sessionID)
}
