package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
)

type contextKey struct{}

// WithGroup returns a context carrying the caller's group.
func WithGroup(ctx context.Context, group string) context.Context {
	return context.WithValue(ctx, contextKey{}, group)
}

// GroupFrom returns the caller's group, or the public group when none was resolved.
func GroupFrom(ctx context.Context) string {
	if g, ok := ctx.Value(contextKey{}).(string); ok && g != "" {
		return g
	}
	return domain.PublicGroup
}

// bearerToken extracts the token of an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(h[len(prefix):])
}

// requireGroup resolves the caller's group before the request reaches a
// handler. Unknown tokens are rejected with 401.
func requireGroup(resolver driven.GroupResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			group, err := resolver.Resolve(r.Context(), bearerToken(r))
			if err != nil {
				w.Header().Set("WWW-Authenticate", `Bearer realm="docforge"`)
				writeJSON(w, http.StatusUnauthorized, errorBody{
					Code:    "UNAUTHORIZED",
					Message: "missing or unknown bearer token",
				})
				return
			}
			next.ServeHTTP(w, r.WithContext(WithGroup(r.Context(), group)))
		})
	}
}
