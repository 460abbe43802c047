package httpapi

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/custodia-labs/docforge/internal/core/ports/driven"
	"github.com/custodia-labs/docforge/internal/core/ports/driving"
	"github.com/custodia-labs/docforge/internal/logger"
)

// MCPHandler builds the MCP endpoint. groupOf reports the caller's group.
type MCPHandler interface {
	Handler(groupOf func(*http.Request) string) http.Handler
}

// Ensure Server implements http.Handler.
var _ http.Handler = (*Server)(nil)

// Server is the docforge HTTP server.
type Server struct {
	proxy  driving.ProxyService
	router chi.Router
}

// New builds the router. mcp may be nil, in which case /mcp is not mounted.
func New(proxy driving.ProxyService, resolver driven.GroupResolver, mcp MCPHandler) *Server {
	s := &Server{proxy: proxy}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Group(func(api chi.Router) {
		api.Use(requireGroup(resolver))

		api.Get("/proxy", s.handleListArtifacts)
		api.Get("/proxy/{guid}", s.handleGetArtifact)

		if mcp != nil {
			api.Handle("/mcp", mcp.Handler(func(r *http.Request) string {
				return GroupFrom(r.Context())
			}))
		}
	})

	s.router = r
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	httpServer := &http.Server{
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown when context is cancelled
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpServer.Shutdown(shutdownCtx) //nolint:errcheck
	}()

	logger.Info("http: listening on %s", ln.Addr())
	err := httpServer.Serve(ln)
	if errors.Is(err, http.ErrServerClosed) {
		return nil
	}
	return err
}

// artifactInfo is the listing form of a proxy artifact.
type artifactInfo struct {
	GUID      string     `json:"guid"`
	SessionID string     `json:"session_id"`
	Format    string     `json:"format"`
	StyleID   string     `json:"style_id"`
	Size      int        `json:"size"`
	CreatedAt time.Time  `json:"created_at"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

func (s *Server) handleListArtifacts(w http.ResponseWriter, r *http.Request) {
	infos, err := s.proxy.List(r.Context(), GroupFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := make([]artifactInfo, len(infos))
	for i, info := range infos {
		out[i] = artifactInfo{
			GUID:      info.GUID,
			SessionID: info.SessionID,
			Format:    string(info.Format),
			StyleID:   info.StyleID,
			Size:      info.Size,
			CreatedAt: info.CreatedAt,
		}
		if !info.ExpiresAt.IsZero() {
			exp := info.ExpiresAt
			out[i].ExpiresAt = &exp
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"artifacts": out, "count": len(out)})
}

func (s *Server) handleGetArtifact(w http.ResponseWriter, r *http.Request) {
	guid := chi.URLParam(r, "guid")
	art, err := s.proxy.Fetch(r.Context(), guid, GroupFrom(r.Context()))
	if err != nil {
		writeError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", art.Format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("inline; filename=%q", art.GUID+art.Format.Extension()))
	w.Header().Set("Cache-Control", "private")
	w.Header().Set("ETag", `"`+art.GUID+`"`)
	w.Header().Set("X-Docforge-Style", art.StyleID)
	http.ServeContent(w, r, art.GUID+art.Format.Extension(), art.CreatedAt, bytes.NewReader(art.Data))
}
