package mcp

import (
	"github.com/custodia-labs/docforge/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Sessions manages document sessions.
	Sessions driving.SessionService

	// Render renders sessions.
	Render driving.RenderService

	// Proxy serves stored artifacts. Optional.
	Proxy driving.ProxyService

	// Catalog lists templates and styles. Optional.
	Catalog driving.CatalogService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Sessions == nil {
		return ErrMissingSessionService
	}
	if p.Render == nil {
		return ErrMissingRenderService
	}
	return nil
}
