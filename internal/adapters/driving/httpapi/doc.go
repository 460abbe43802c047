// Package httpapi is the HTTP transport of docforge. It serves proxy
// artifacts by GUID and mounts the MCP endpoint, resolving the caller's
// group from a bearer token on every request.
//
// Routes:
//
//	GET /health         liveness
//	GET /proxy          artifacts of the caller's group (JSON, no payloads)
//	GET /proxy/{guid}   artifact bytes
//	*   /mcp            streamable MCP endpoint
package httpapi
