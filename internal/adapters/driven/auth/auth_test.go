package auth

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docforge/internal/core/domain"
)

func TestStaticResolver(t *testing.T) {
	r := NewStaticResolver(map[string]string{
		"tok-a": "a",
		"tok-b": "b",
		"":      "ignored",
		"tok-c": "",
	})
	ctx := context.Background()
	assert.Equal(t, 2, r.Len())

	group, err := r.Resolve(ctx, "tok-a")
	require.NoError(t, err)
	assert.Equal(t, "a", group)

	group, err = r.Resolve(ctx, "tok-b")
	require.NoError(t, err)
	assert.Equal(t, "b", group)

	for _, tok := range []string{"", "tok", "tok-a ", "tok-c"} {
		_, err := r.Resolve(ctx, tok)
		assert.ErrorIs(t, err, domain.ErrNotFound, tok)
	}
}

func TestNullResolver(t *testing.T) {
	group, err := NewNullResolver().Resolve(context.Background(), "anything")
	require.NoError(t, err)
	assert.Equal(t, domain.PublicGroup, group)
}

func TestFromSettings(t *testing.T) {
	_, isNull := FromSettings(domain.AuthSettings{}).(*NullResolver)
	assert.True(t, isNull)

	r := FromSettings(domain.AuthSettings{Enabled: true, Tokens: map[string]string{"t": "g"}})
	group, err := r.Resolve(context.Background(), "t")
	require.NoError(t, err)
	assert.Equal(t, "g", group)
}
