package driven

import (
	"context"

	"github.com/custodia-labs/docforge/internal/core/domain"
)

// SessionStore persists document sessions, partitioned by group.
// Put must be atomic: a session is either fully written or not at all.
type SessionStore interface {
	// Get retrieves a session by ID.
	// Returns domain.ErrNotFound if the session does not exist.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// GetByAlias retrieves a session by its alias within a group.
	// Returns domain.ErrNotFound if no such session exists.
	GetByAlias(ctx context.Context, group, alias string) (*domain.Session, error)

	// Put creates or replaces a session together with its full fragment list.
	// Returns domain.ErrAlreadyExists if another session holds the alias in the group.
	Put(ctx context.Context, session *domain.Session) error

	// Delete removes a session and its fragments. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error

	// ListByGroup returns the sessions of one group.
	ListByGroup(ctx context.Context, group string) ([]domain.Session, error)

	// List returns every persisted session, used to recover state on startup.
	List(ctx context.Context) ([]domain.Session, error)
}
