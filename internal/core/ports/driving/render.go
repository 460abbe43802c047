package driving

import (
	"context"

	"github.com/custodia-labs/docforge/internal/core/domain"
)

// RenderRequest selects the output of a render call.
type RenderRequest struct {
	// Format is the requested output format.
	Format domain.Format

	// StyleID selects the style; empty uses the configured default.
	StyleID string

	// Proxy stores the output as a new proxy artifact.
	Proxy bool
}

// RenderResult is the output of a render call.
type RenderResult struct {
	SessionID   string
	Format      domain.Format
	StyleID     string
	ContentType string
	Data        []byte

	// ProxyGUID is set when the request asked for a proxy artifact.
	ProxyGUID string
}

// RenderService renders sessions into output formats.
type RenderService interface {
	// Render renders the current state of the session.
	Render(ctx context.Context, ref, group string, req RenderRequest) (*RenderResult, error)
}

// CatalogService exposes the templates and styles visible to a group.
type CatalogService interface {
	// Templates lists templates visible to group.
	Templates(ctx context.Context, group string) ([]domain.Template, error)

	// Template returns one template visible to group.
	Template(ctx context.Context, templateID, group string) (*domain.Template, error)

	// Styles lists styles visible to group.
	Styles(ctx context.Context, group string) ([]domain.Style, error)
}
