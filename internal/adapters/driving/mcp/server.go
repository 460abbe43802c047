package mcp

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/logger"
)

// Version is the MCP server version.
const Version = "0.1.0"

// Options configures a Server.
type Options struct {
	// ProxyBaseURL, when set, is used to build download links for proxy
	// artifacts ("<base>/proxy/<guid>").
	ProxyBaseURL string
}

// Server is the MCP server for docforge. Every Server acts for exactly one
// group; the HTTP handler keeps one per group.
type Server struct {
	ports  *Ports
	opts   Options
	group  string
	server *mcp.Server

	mu      sync.Mutex
	byGroup map[string]*Server
}

// NewServer creates a new MCP server with the given ports, acting for group.
// An empty group is the public group.
func NewServer(ports *Ports, group string, opts Options) (*Server, error) {
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("validating ports: %w", err)
	}
	if group == "" {
		group = domain.PublicGroup
	}
	opts.ProxyBaseURL = strings.TrimRight(opts.ProxyBaseURL, "/")

	s := newServer(ports, group, opts)
	s.byGroup = map[string]*Server{group: s}
	return s, nil
}

func newServer(ports *Ports, group string, opts Options) *Server {
	impl := &mcp.Implementation{
		Name:    "docforge",
		Version: Version,
	}

	s := &Server{
		ports:  ports,
		opts:   opts,
		group:  group,
		server: mcp.NewServer(impl, nil),
	}

	s.registerTools()
	s.registerResources()

	return s
}

// Group returns the group the server acts for.
func (s *Server) Group() string {
	return s.group
}

// forGroup returns the server acting for group, creating it on first use.
func (s *Server) forGroup(group string) *Server {
	if group == "" {
		group = domain.PublicGroup
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if srv, ok := s.byGroup[group]; ok {
		return srv
	}
	srv := newServer(s.ports, group, s.opts)
	s.byGroup[group] = srv
	return srv
}

// Run starts the MCP server over stdio.
// It blocks until the context is cancelled or an error occurs.
func (s *Server) Run(ctx context.Context) error {
	logger.Info("mcp: serving group %q over stdio", s.group)
	return s.server.Run(ctx, &mcp.StdioTransport{})
}

// Handler returns a streamable HTTP handler. groupOf reports the caller's
// group for a request; a session keeps the group it was opened with.
func (s *Server) Handler(groupOf func(*http.Request) string) http.Handler {
	return mcp.NewStreamableHTTPHandler(func(r *http.Request) *mcp.Server {
		return s.forGroup(groupOf(r)).server
	}, nil)
}
