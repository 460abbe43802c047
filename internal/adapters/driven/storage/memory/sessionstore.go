package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore is an in-memory implementation of driven.SessionStore.
// Sessions are deep-copied on the way in and out.
type SessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.Session
}

// NewSessionStore creates a new in-memory session store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		sessions: make(map[string]*domain.Session),
	}
}

// Get retrieves a session by ID.
func (s *SessionStore) Get(_ context.Context, id string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return sess.Clone(), nil
}

// GetByAlias retrieves a session by alias within a group.
func (s *SessionStore) GetByAlias(_ context.Context, group, alias string) (*domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sess := range s.sessions {
		if sess.Group == group && sess.Alias == alias {
			return sess.Clone(), nil
		}
	}
	return nil, domain.ErrNotFound
}

// Put writes a session. A version above 1 replaces the stored copy only
// when that copy is exactly one version behind.
func (s *SessionStore) Put(_ context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	version := max(session.Version, 1)
	cur, exists := s.sessions[session.ID]
	switch {
	case version == 1 && exists:
		return domain.ErrStale
	case version > 1 && (!exists || cur.Version != version-1):
		return domain.ErrStale
	}
	for id, other := range s.sessions {
		if id != session.ID && other.Group == session.Group && other.Alias == session.Alias {
			return domain.ErrAlreadyExists
		}
	}
	stored := session.Clone()
	stored.Version = version
	s.sessions[session.ID] = stored
	return nil
}

// Delete removes a session.
func (s *SessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
	return nil
}

// ListByGroup returns the sessions of one group ordered by alias.
func (s *SessionStore) ListByGroup(_ context.Context, group string) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Session, 0)
	for _, sess := range s.sessions {
		if sess.Group == group {
			result = append(result, *sess.Clone())
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Alias < result[j].Alias })
	return result, nil
}

// List returns every stored session.
func (s *SessionStore) List(_ context.Context) ([]domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		result = append(result, *sess.Clone())
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}
