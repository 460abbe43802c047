package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docforge/internal/adapters/driven/auth"
	"github.com/custodia-labs/docforge/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docforge/internal/core/domain"
	"github.com/custodia-labs/docforge/internal/core/ports/driven"
	"github.com/custodia-labs/docforge/internal/core/services"
)

// groupEcho stands in for the MCP endpoint and echoes the resolved group.
type groupEcho struct{}

func (groupEcho) Handler(groupOf func(*http.Request) string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(groupOf(r)))
	})
}

type testServer struct {
	*Server
	proxy *services.ProxyService
}

func newTestServer(t *testing.T, resolver driven.GroupResolver) *testServer {
	t.Helper()
	proxy := services.NewProxyService(memory.NewArtifactStore(), 24*time.Hour, time.Hour)
	return &testServer{
		Server: New(proxy, resolver, groupEcho{}),
		proxy:  proxy,
	}
}

func (s *testServer) store(t *testing.T, group string, format domain.Format, data string) string {
	t.Helper()
	guid, err := s.proxy.Store(context.Background(), "session-1", group, format, "ledger", []byte(data))
	require.NoError(t, err)
	return guid
}

func (s *testServer) get(path, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	t.Helper()
	var body errorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func tokenResolver() driven.GroupResolver {
	return auth.NewStaticResolver(map[string]string{"tok-a": "a", "tok-b": "b"})
}

func TestServer_Health(t *testing.T) {
	s := newTestServer(t, tokenResolver())
	assert.Equal(t, http.StatusOK, s.get("/health", "").Code)
}

func TestServer_GetArtifact(t *testing.T) {
	s := newTestServer(t, auth.NewNullResolver())
	guid := s.store(t, domain.PublicGroup, domain.FormatMarkdown, "# Q4\n")

	rec := s.get("/proxy/"+guid, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "# Q4\n", rec.Body.String())
	assert.Equal(t, "text/markdown; charset=utf-8", rec.Header().Get("Content-Type"))
	assert.Equal(t, "ledger", rec.Header().Get("X-Docforge-Style"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), guid+".md")
}

func TestServer_GetArtifact_Binary(t *testing.T) {
	s := newTestServer(t, auth.NewNullResolver())
	guid := s.store(t, domain.PublicGroup, domain.FormatPaginated, "%PDF-1.3 fake")

	rec := s.get("/proxy/"+guid, "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.Equal(t, "%PDF-1.3 fake", rec.Body.String())
}

func TestServer_GetArtifact_Isolation(t *testing.T) {
	s := newTestServer(t, tokenResolver())
	guid := s.store(t, "a", domain.FormatCanonical, "<p>a</p>")

	t.Run("owner group", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, s.get("/proxy/"+guid, "tok-a").Code)
	})

	t.Run("other group looks missing", func(t *testing.T) {
		rec := s.get("/proxy/"+guid, "tok-b")
		require.Equal(t, http.StatusNotFound, rec.Code)
		body := decodeError(t, rec)
		assert.Equal(t, domain.CodeArtifactNotFound, body.Code)
		assert.Equal(t, domain.KindNotFound, body.Kind)

		missing := s.get("/proxy/does-not-exist", "tok-b")
		assert.Equal(t, rec.Body.String(), missing.Body.String())
	})

	t.Run("missing token", func(t *testing.T) {
		rec := s.get("/proxy/"+guid, "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
	})

	t.Run("unknown token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, s.get("/proxy/"+guid, "tok-z").Code)
	})
}

func TestServer_ListArtifacts(t *testing.T) {
	s := newTestServer(t, tokenResolver())
	s.store(t, "a", domain.FormatCanonical, "<p>1</p>")
	s.store(t, "a", domain.FormatMarkdown, "2")
	s.store(t, "b", domain.FormatMarkdown, "3")

	rec := s.get("/proxy", "tok-a")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Artifacts []artifactInfo `json:"artifacts"`
		Count     int            `json:"count"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, 2, body.Count)
	for _, a := range body.Artifacts {
		assert.Equal(t, "session-1", a.SessionID)
		assert.NotNil(t, a.ExpiresAt)
	}
}

func TestServer_MCPMountSeesGroup(t *testing.T) {
	s := newTestServer(t, tokenResolver())

	rec := s.get("/mcp", "tok-b")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "b", rec.Body.String())

	assert.Equal(t, http.StatusUnauthorized, s.get("/mcp", "").Code)
}

func TestServer_WithoutMCP(t *testing.T) {
	proxy := services.NewProxyService(memory.NewArtifactStore(), time.Hour, 0)
	s := New(proxy, auth.NewNullResolver(), nil)

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/mcp", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_ServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, auth.NewNullResolver())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- s.ListenAndServe(ctx, "127.0.0.1:0") }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop")
	}
}
