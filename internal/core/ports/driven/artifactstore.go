package driven

import (
	"context"
	"time"

	"github.com/custodia-labs/docforge/internal/core/domain"
)

// ArtifactStore persists proxy artifacts.
// Deletion of an artifact is atomic: readers observe the full artifact or domain.ErrNotFound.
type ArtifactStore interface {
	// Save stores a new artifact.
	Save(ctx context.Context, artifact *domain.Artifact) error

	// Get retrieves an artifact by GUID.
	// Returns domain.ErrNotFound if it does not exist.
	Get(ctx context.Context, guid string) (*domain.Artifact, error)

	// DeleteBySession removes every artifact rendered from a session.
	DeleteBySession(ctx context.Context, sessionID string) (int, error)

	// DeleteOlderThan removes artifacts created before cutoff.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int, error)

	// DeleteExpired removes artifacts whose ExpiresAt is set and not after now.
	DeleteExpired(ctx context.Context, now time.Time) (int, error)

	// ListByGroup returns payload-free descriptions of a group's artifacts, newest first.
	ListByGroup(ctx context.Context, group string) ([]domain.ArtifactInfo, error)
}
