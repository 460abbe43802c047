package driven

import "context"

// GroupResolver maps a caller credential to the caller's group.
// Transports resolve the group once per request and pass it to the core.
type GroupResolver interface {
	// Resolve returns the group of the bearer token.
	// Returns domain.ErrNotFound when the token is not recognised.
	Resolve(ctx context.Context, token string) (string, error)
}
