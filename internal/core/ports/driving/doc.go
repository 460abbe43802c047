// Package driving defines interfaces that external actors (CLI, MCP, HTTP, TUI) use
// to interact with core services. These are the "driving" ports in hexagonal
// architecture terminology - they drive the application.
//
// Every operation takes the caller's group explicitly. Implementations live in
// internal/core/services.
package driving
