package auth

import (
	"context"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
)

// Ensure NullResolver implements the interface.
var _ driven.GroupResolver = (*NullResolver)(nil)

// NullResolver is used when authentication is disabled: every caller,
// with or without a token, belongs to the public group.
type NullResolver struct{}

// NewNullResolver creates a resolver for unauthenticated deployments.
func NewNullResolver() *NullResolver {
	return &NullResolver{}
}

// Resolve always returns the public group.
func (NullResolver) Resolve(_ context.Context, _ string) (string, error) {
	return domain.PublicGroup, nil
}

// FromSettings returns the resolver described by the auth settings.
func FromSettings(s domain.AuthSettings) driven.GroupResolver {
	if !s.Enabled {
		return NewNullResolver()
	}
	return NewStaticResolver(s.Tokens)
}
