// Package tui provides an interactive terminal user interface for docforge.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
type Ports struct {
	// Sessions lists, loads and aborts sessions.
	Sessions driving.SessionService

	// Render produces the preview.
	Render driving.RenderService

	// Catalog lists templates. Optional.
	Catalog driving.CatalogService

	// Group is the group the TUI acts as. Empty means public.
	Group string
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p == nil {
		return ErrInvalidPorts
	}
	if p.Sessions == nil {
		return ErrMissingSessionService
	}
	if p.Render == nil {
		return ErrMissingRenderService
	}
	return nil
}

func (p *Ports) group() string {
	if p.Group == "" {
		return domain.PublicGroup
	}
	return p.Group
}
