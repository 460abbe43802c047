package render

import (
	"context"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
	"github.com/custodia-labs/docforge/internal/logger"
)

// Renderer composes session snapshots and converts them to output formats.
type Renderer struct {
	catalog  driven.FragmentCatalog
	compress bool
}

// New creates a Renderer resolving fragment renderers through catalog.
func New(catalog driven.FragmentCatalog) *Renderer {
	return &Renderer{catalog: catalog, compress: true}
}

// Pinned returns a Renderer bound to the catalog's current definitions, so
// a template looked up through it matches the renderers it composes with.
// Catalogs that cannot reload are returned as they are.
func (r *Renderer) Pinned() *Renderer {
	cp := *r
	if p, ok := r.catalog.(driven.PinnableCatalog); ok {
		cp.catalog = p.Pin()
	}
	return &cp
}

// Template returns a template from the renderer's catalog.
func (r *Renderer) Template(ctx context.Context, templateID string) (*domain.Template, error) {
	return r.catalog.Template(ctx, templateID)
}

// Render produces the document bytes of s in format. s must be a snapshot
// the caller will not mutate while rendering. Every fragment is rendered
// against the same catalog definitions even if the catalog reloads midway.
func (r *Renderer) Render(ctx context.Context, s *domain.Session, t *domain.Template, style *domain.Style, format domain.Format) ([]byte, error) {
	catalog := r.catalog
	if p, ok := catalog.(driven.PinnableCatalog); ok {
		catalog = p.Pin()
	}
	canonical, err := Compose(ctx, catalog, s, t, style)
	if err != nil {
		return nil, err
	}

	switch format {
	case domain.FormatCanonical:
		return canonical, nil
	case domain.FormatPaginated:
		out, err := ToPaginated(canonical, PageOptions{Date: s.UpdatedAt.UTC(), Compress: r.compress})
		if err != nil {
			return nil, domain.ErrConversion.With("paginated conversion failed", err)
		}
		logger.Debug("rendered session %s to %s (%d bytes)", s.ID, format, len(out))
		return out, nil
	case domain.FormatMarkdown:
		out, err := ToMarkdown(canonical)
		if err != nil {
			return nil, domain.ErrConversion.With("markdown conversion failed", err)
		}
		return out, nil
	default:
		return nil, domain.ErrUnknownFormat.With("unknown format: "+string(format), nil)
	}
}
