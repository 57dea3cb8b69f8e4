package server

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, cfg Config) *Server {
	t.Helper()
	cfg.DBPath = ":memory:"
	s, err := New(cfg, quietLogger())
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func serve(s *Server, method, path, body string, header http.Header) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	for k, v := range header {
		req.Header[k] = v
	}
	rr := httptest.NewRecorder()
	s.Handler().ServeHTTP(rr, req)
	return rr
}

func TestServer_Routes(t *testing.T) {
	s := newTestServer(t, Config{})

	tests := []struct {
		method, path, body string
		want               int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/", "", http.StatusOK},
		{http.MethodGet, "/api/boards", "", http.StatusOK},
		{http.MethodPost, "/api/boards", `{"name":"Plan"}`, http.StatusCreated},
		{http.MethodGet, "/api/boards/nope", "", http.StatusNotFound},
		{http.MethodGet, "/canvas/nope", "", http.StatusNotFound},
		{http.MethodGet, "/api/notes", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rr := serve(s, tt.method, tt.path, tt.body, http.Header{"Content-Type": {"application/json"}})
			assert.Equal(t, tt.want, rr.Code, rr.Body.String())
		})
	}
}

func TestServer_MetricsCountRoutes(t *testing.T) {
	s := newTestServer(t, Config{})

	serve(s, http.MethodGet, "/api/boards/abc", "", nil)
	rr := serve(s, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(),
		`canvaid_http_requests_total{method="GET",route="/api/boards/{id}",status="404"} 1`)
}

func TestServer_CORS(t *testing.T) {
	s := newTestServer(t, Config{AllowedOrigins: []string{"http://ui.test"}})

	rr := serve(s, http.MethodOptions, "/api/boards", "", http.Header{
		"Origin":                        {"http://ui.test"},
		"Access-Control-Request-Method": {"POST"},
	})
	assert.Equal(t, "http://ui.test", rr.Header().Get("Access-Control-Allow-Origin"))

	rr = serve(s, http.MethodGet, "/api/boards", "", http.Header{"Origin": {"http://evil.test"}})
	assert.Empty(t, rr.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	s, err := New(Config{Port: 0, DBPath: ":memory:"}, quietLogger())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	time.Sleep(50 * time.Millisecond)
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
}
