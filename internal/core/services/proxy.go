package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
	"github.com/custodia-labs/docforge/internal/core/ports/driving"
	"github.com/custodia-labs/docforge/internal/logger"
)

// Ensure ProxyService implements the interface.
var _ driving.ProxyService = (*ProxyService)(nil)

// ProxyService stores rendered output under fresh GUIDs and serves it back
// to the owning group.
type ProxyService struct {
	store  driven.ArtifactStore
	maxAge time.Duration
	ttl    time.Duration
	now    func() time.Time
}

// NewProxyService creates a proxy service. maxAge bounds how long the sweep
// keeps an artifact; ttl, when positive, also sets a per-artifact expiry.
func NewProxyService(store driven.ArtifactStore, maxAge, ttl time.Duration) *ProxyService {
	return &ProxyService{
		store:  store,
		maxAge: maxAge,
		ttl:    ttl,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Store saves a rendered payload under a new GUID.
func (s *ProxyService) Store(ctx context.Context, sessionID, group string, format domain.Format, styleID string, data []byte) (string, error) {
	now := s.now()
	a := &domain.Artifact{
		GUID:      uuid.NewString(),
		SessionID: sessionID,
		Group:     normaliseGroup(group),
		Format:    format,
		StyleID:   styleID,
		Data:      data,
		CreatedAt: now,
	}
	if s.ttl > 0 {
		a.ExpiresAt = now.Add(s.ttl)
	}

	if err := s.store.Save(ctx, a); err != nil {
		return "", domain.ErrStorageFailure.With("storing artifact", err)
	}
	logger.Debug("stored artifact %s for session %s (%s, %d bytes)", a.GUID, sessionID, format, len(data))
	return a.GUID, nil
}

// Fetch returns the artifact when it exists, belongs to group and has not
// expired. Every other case is NOT_FOUND.
func (s *ProxyService) Fetch(ctx context.Context, guid, group string) (*domain.Artifact, error) {
	a, err := s.store.Get(ctx, guid)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrArtifactNotFound
		}
		return nil, domain.ErrStorageFailure.With("reading artifact", err)
	}
	if a.Group != normaliseGroup(group) || a.Expired(s.now()) {
		return nil, domain.ErrArtifactNotFound
	}
	return a, nil
}

// List returns the group's artifacts without payloads.
func (s *ProxyService) List(ctx context.Context, group string) ([]domain.ArtifactInfo, error) {
	infos, err := s.store.ListByGroup(ctx, normaliseGroup(group))
	if err != nil {
		return nil, domain.ErrStorageFailure.With("listing artifacts", err)
	}
	return infos, nil
}

// DeleteBySession removes all artifacts rendered from a session.
func (s *ProxyService) DeleteBySession(ctx context.Context, sessionID string) (int, error) {
	n, err := s.store.DeleteBySession(ctx, sessionID)
	if err != nil {
		return 0, domain.ErrStorageFailure.With("deleting artifacts", err)
	}
	return n, nil
}

// Sweep purges artifacts older than the maximum age and artifacts past their expiry.
func (s *ProxyService) Sweep(ctx context.Context) (int, error) {
	now := s.now()
	total := 0
	if s.maxAge > 0 {
		n, err := s.store.DeleteOlderThan(ctx, now.Add(-s.maxAge))
		if err != nil {
			return total, domain.ErrStorageFailure.With("sweeping aged artifacts", err)
		}
		total += n
	}
	n, err := s.store.DeleteExpired(ctx, now)
	if err != nil {
		return total, domain.ErrStorageFailure.With("sweeping expired artifacts", err)
	}
	total += n
	if total > 0 {
		logger.Info("swept %d proxy artifacts", total)
	}
	return total, nil
}
