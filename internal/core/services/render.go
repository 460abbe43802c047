package services

import (
	"context"
	"errors"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
	"github.com/custodia-labs/docforge/internal/core/ports/driving"
	"github.com/custodia-labs/docforge/internal/logger"
	"github.com/custodia-labs/docforge/internal/render"
)

// Ensure RenderService implements the interface.
var _ driving.RenderService = (*RenderService)(nil)

// RenderService renders session snapshots and optionally retains the output
// as a proxy artifact.
type RenderService struct {
	sessions     *SessionService
	styles       driven.StyleResolver
	renderer     *render.Renderer
	proxy        driving.ProxyService
	defaultStyle string
}

// NewRenderService creates a render service. proxy may be nil, in which
// case proxy requests fail.
func NewRenderService(
	sessions *SessionService,
	styles driven.StyleResolver,
	renderer *render.Renderer,
	proxy driving.ProxyService,
	defaultStyle string,
) *RenderService {
	if defaultStyle == "" {
		defaultStyle = domain.DefaultStyleID
	}
	return &RenderService{
		sessions:     sessions,
		styles:       styles,
		renderer:     renderer,
		proxy:        proxy,
		defaultStyle: defaultStyle,
	}
}

// Render renders the current state of the session. The snapshot is taken
// under the session's read lock; rendering itself runs outside it. A proxy
// artifact is stored under the read lock again, and only if the session was
// not aborted in the meantime.
func (s *RenderService) Render(ctx context.Context, ref, group string, req driving.RenderRequest) (*driving.RenderResult, error) {
	format := domain.FormatCanonical
	if req.Format != "" {
		f, err := domain.ParseFormat(string(req.Format))
		if err != nil {
			return nil, err
		}
		format = f
	}

	snapshot, err := s.sessions.Get(ctx, ref, group)
	if err != nil {
		return nil, err
	}

	style, err := s.style(ctx, req.StyleID, snapshot.Group)
	if err != nil {
		return nil, err
	}

	renderer := s.renderer.Pinned()
	t, err := renderer.Template(ctx, snapshot.TemplateID)
	if err != nil {
		return nil, domain.ErrUnknownTemplate.With("unknown template: "+snapshot.TemplateID, err)
	}

	data, err := renderer.Render(ctx, snapshot, t, style, format)
	if err != nil {
		return nil, err
	}

	result := &driving.RenderResult{
		SessionID:   snapshot.ID,
		Format:      format,
		StyleID:     style.ID,
		ContentType: format.ContentType(),
		Data:        data,
	}

	if req.Proxy {
		if s.proxy == nil {
			return nil, domain.ErrStorageFailure.With("proxy artifacts are not available", nil)
		}
		err := s.sessions.whileLive(ctx, snapshot.ID, snapshot.Group, func() error {
			guid, err := s.proxy.Store(ctx, snapshot.ID, snapshot.Group, format, style.ID, data)
			result.ProxyGUID = guid
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	logger.Debug("rendered session %s as %s with style %s (%d bytes)", snapshot.ID, format, style.ID, len(data))
	return result, nil
}

func (s *RenderService) style(ctx context.Context, styleID, group string) (*domain.Style, error) {
	if styleID == "" {
		styleID = s.defaultStyle
	}
	style, err := s.styles.Style(ctx, styleID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.ErrUnknownStyle.With("unknown style: "+styleID, nil)
		}
		return nil, domain.ErrUnknownStyle.With("unknown style: "+styleID, err)
	}
	if !style.VisibleTo(group) {
		return nil, domain.ErrUnknownStyle.With("unknown style: "+styleID, nil)
	}
	return style, nil
}

// Ensure CatalogService implements the interface.
var _ driving.CatalogService = (*CatalogService)(nil)

// CatalogService exposes the templates and styles a group may use.
type CatalogService struct {
	catalog driven.FragmentCatalog
	styles  driven.StyleResolver
}

// NewCatalogService creates a catalog service.
func NewCatalogService(catalog driven.FragmentCatalog, styles driven.StyleResolver) *CatalogService {
	return &CatalogService{catalog: catalog, styles: styles}
}

// Templates lists templates visible to group.
func (s *CatalogService) Templates(ctx context.Context, group string) ([]domain.Template, error) {
	return s.catalog.Templates(ctx, normaliseGroup(group))
}

// Template returns one template visible to group.
func (s *CatalogService) Template(ctx context.Context, templateID, group string) (*domain.Template, error) {
	t, err := s.catalog.Template(ctx, templateID)
	if err != nil || !t.VisibleTo(normaliseGroup(group)) {
		return nil, domain.ErrUnknownTemplate.With("unknown template: "+templateID, nil)
	}
	return t, nil
}

// Styles lists styles visible to group.
func (s *CatalogService) Styles(ctx context.Context, group string) ([]domain.Style, error) {
	return s.styles.Styles(ctx, normaliseGroup(group))
}
