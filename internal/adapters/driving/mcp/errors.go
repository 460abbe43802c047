// Package mcp provides an MCP (Model Context Protocol) server adapter for docforge.
// It lets assistants build document sessions, render them and read proxy artifacts.
package mcp

import (
	"errors"

	"github.com/custodia-labs/docforge/internal/core/domain"
)

var (
	// ErrMissingSessionService is returned when the session service is not provided.
	ErrMissingSessionService = errors.New("mcp: session service is required")

	// ErrMissingRenderService is returned when the render service is not provided.
	ErrMissingRenderService = errors.New("mcp: render service is required")
)

// toolError converts a core error into the error reported to the client.
// Only the public form crosses the boundary; causes stay in the log.
func toolError(err error) error {
	if err == nil {
		return nil
	}
	return domain.Public(err)
}
