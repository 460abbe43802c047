package driving

import (
	"context"

	"github.com/custodia-labs/docforge/internal/core/domain"
)

// SessionService manages document sessions.
// ref is either a session UUID or an alias; group is the caller's tenant.
type SessionService interface {
	// Create starts a new session for templateID under alias.
	Create(ctx context.Context, templateID, alias, group string) (*domain.Session, error)

	// Resolve returns the session ID for ref, or domain.ErrSessionNotFound.
	Resolve(ctx context.Context, ref, group string) (string, error)

	// Get returns a snapshot of the session.
	Get(ctx context.Context, ref, group string) (*domain.Session, error)

	// List returns the group's active sessions ordered by alias.
	List(ctx context.Context, group string) ([]domain.Session, error)

	// SetGlobals validates params and replaces the whole global parameter map.
	SetGlobals(ctx context.Context, ref, group string, params map[string]any) error

	// AddFragment validates params and appends a fragment instance.
	AddFragment(ctx context.Context, ref, group, fragmentID string, params map[string]any) (string, error)

	// ReplaceFragment atomically removes instanceID and appends a new instance of the same type.
	ReplaceFragment(ctx context.Context, ref, group, instanceID string, params map[string]any) (string, error)

	// RemoveFragment removes a fragment instance.
	RemoveFragment(ctx context.Context, ref, group, instanceID string) error

	// ListFragments returns the fragment instances in sequence order.
	ListFragments(ctx context.Context, ref, group string) ([]domain.FragmentInstance, error)

	// Status reports parameter completeness, fragment count and readiness.
	Status(ctx context.Context, ref, group string) (*domain.SessionReport, error)

	// Abort ends the session and deletes its persisted state and artifacts.
	// Aborting an absent session is not an error.
	Abort(ctx context.Context, ref, group string) error
}
