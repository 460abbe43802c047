package driving

import (
	"context"

	"github.com/custodia-labs/docforge/internal/core/domain"
)

// ProxyService stores and serves proxy artifacts.
type ProxyService interface {
	// Store saves a rendered payload and returns a new GUID. GUIDs are never reused.
	Store(ctx context.Context, sessionID, group string, format domain.Format, styleID string, data []byte) (string, error)

	// Fetch returns the artifact if it exists, belongs to group and has not expired.
	// Any other case returns domain.ErrArtifactNotFound.
	Fetch(ctx context.Context, guid, group string) (*domain.Artifact, error)

	// List returns the group's artifacts without payloads.
	List(ctx context.Context, group string) ([]domain.ArtifactInfo, error)

	// DeleteBySession removes all artifacts rendered from a session.
	DeleteBySession(ctx context.Context, sessionID string) (int, error)

	// Sweep purges artifacts older than the configured maximum age.
	Sweep(ctx context.Context) (int, error)
}
