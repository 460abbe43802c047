package auth

import (
	"context"
	"crypto/subtle"
	"sort"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
)

// Ensure StaticResolver implements the interface.
var _ driven.GroupResolver = (*StaticResolver)(nil)

// StaticResolver resolves bearer tokens from a fixed token -> group table,
// as configured under auth.tokens.
type StaticResolver struct {
	tokens []tokenGroup
}

type tokenGroup struct {
	token []byte
	group string
}

// NewStaticResolver creates a resolver over tokens. Entries with an empty
// token or group are ignored.
func NewStaticResolver(tokens map[string]string) *StaticResolver {
	r := &StaticResolver{}
	for tok, group := range tokens {
		if tok == "" || group == "" {
			continue
		}
		r.tokens = append(r.tokens, tokenGroup{token: []byte(tok), group: group})
	}
	sort.Slice(r.tokens, func(i, j int) bool { return r.tokens[i].group < r.tokens[j].group })
	return r
}

// Resolve returns the group of token. Every entry is compared so the time
// taken does not depend on which entry matched.
func (r *StaticResolver) Resolve(_ context.Context, token string) (string, error) {
	if token == "" {
		return "", domain.ErrNotFound
	}
	candidate := []byte(token)
	found := ""
	for _, tg := range r.tokens {
		if subtle.ConstantTimeCompare(candidate, tg.token) == 1 {
			found = tg.group
		}
	}
	if found == "" {
		return "", domain.ErrNotFound
	}
	return found, nil
}

// Len returns the number of configured tokens.
func (r *StaticResolver) Len() int {
	return len(r.tokens)
}
