package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
)

// Ensure ArtifactStore implements the interface.
var _ driven.ArtifactStore = (*ArtifactStore)(nil)

// ArtifactStore is an in-memory implementation of driven.ArtifactStore.
// Every delete happens under the write lock, so a reader sees a whole
// artifact or none.
type ArtifactStore struct {
	mu        sync.RWMutex
	artifacts map[string]domain.Artifact
}

// NewArtifactStore creates a new in-memory artifact store.
func NewArtifactStore() *ArtifactStore {
	return &ArtifactStore{
		artifacts: make(map[string]domain.Artifact),
	}
}

// Save stores a new artifact.
func (s *ArtifactStore) Save(_ context.Context, artifact *domain.Artifact) error {
	if artifact == nil || artifact.GUID == "" {
		return domain.ErrInvalidInput
	}
	a := *artifact
	a.Data = append([]byte(nil), artifact.Data...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.artifacts[a.GUID]; exists {
		return domain.ErrAlreadyExists
	}
	s.artifacts[a.GUID] = a
	return nil
}

// Get retrieves an artifact by GUID.
func (s *ArtifactStore) Get(_ context.Context, guid string) (*domain.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.artifacts[guid]
	if !ok {
		return nil, domain.ErrNotFound
	}
	a.Data = append([]byte(nil), a.Data...)
	return &a, nil
}

// DeleteBySession removes every artifact rendered from a session.
func (s *ArtifactStore) DeleteBySession(_ context.Context, sessionID string) (int, error) {
	return s.deleteWhere(func(a *domain.Artifact) bool { return a.SessionID == sessionID }), nil
}

// DeleteOlderThan removes artifacts created before cutoff.
func (s *ArtifactStore) DeleteOlderThan(_ context.Context, cutoff time.Time) (int, error) {
	return s.deleteWhere(func(a *domain.Artifact) bool { return a.CreatedAt.Before(cutoff) }), nil
}

// DeleteExpired removes artifacts past their expiry.
func (s *ArtifactStore) DeleteExpired(_ context.Context, now time.Time) (int, error) {
	return s.deleteWhere(func(a *domain.Artifact) bool { return a.Expired(now) }), nil
}

func (s *ArtifactStore) deleteWhere(match func(*domain.Artifact) bool) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for guid, a := range s.artifacts {
		if match(&a) {
			delete(s.artifacts, guid)
			n++
		}
	}
	return n
}

// ListByGroup returns a group's artifacts without payloads, newest first.
func (s *ArtifactStore) ListByGroup(_ context.Context, group string) ([]domain.ArtifactInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	result := make([]domain.ArtifactInfo, 0)
	for _, a := range s.artifacts {
		if a.Group == group {
			result = append(result, a.Info())
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].GUID < result[j].GUID
	})
	return result, nil
}
