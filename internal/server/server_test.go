package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/asynkron/codezap/internal/core/optimizer"
)

type fakeGenerator struct {
	mu      sync.Mutex
	prompts []string
	output  string
	err     error
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	return f.output, f.err
}

func newTestServer(t *testing.T, gen *fakeGenerator, opts Options) *Server {
	t.Helper()
	s, err := New(opts, gen)
	require.NoError(t, err)
	return s
}

func do(t *testing.T, h http.Handler, method, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, "/optimize", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestOptimizeReturnsTrimmedOutput(t *testing.T) {
	gen := &fakeGenerator{output: "\nconst x = 1;\n  "}
	s := newTestServer(t, gen, Options{})

	rec := do(t, s.Handler(), http.MethodPost, `{"input":"optimize this"}`, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, map[string]any{"output": "const x = 1;"}, decodeBody(t, rec))
	require.Equal(t, []string{"optimize this"}, gen.prompts)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	snap := s.metrics.GetSnapshot()
	require.EqualValues(t, 1, snap.Upstream.Success)
	require.EqualValues(t, 1, snap.Responses[http.StatusOK])
}

func TestOptimizeRejectsMissingInput(t *testing.T) {
	gen := &fakeGenerator{output: "x"}
	s := newTestServer(t, gen, Options{})

	for _, body := range []string{`{}`, `{"input":""}`, `{"input":null}`, ``} {
		rec := do(t, s.Handler(), http.MethodPost, body, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		require.Equal(t, "No input provided", decodeBody(t, rec)["error"], body)
	}
	require.Empty(t, gen.prompts)
}

func TestOptimizeRejectsMalformedRequests(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{}, Options{})

	for _, body := range []string{`{"input":7}`, `not json`, `[]`} {
		rec := do(t, s.Handler(), http.MethodPost, body, nil)
		require.Equal(t, http.StatusBadRequest, rec.Code, body)
		require.True(t, strings.HasPrefix(decodeBody(t, rec)["error"].(string), "Invalid request"), body)
	}
}

func TestOptimizeRejectsOversizedBody(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{}, Options{MaxBodyBytes: 16})
	rec := do(t, s.Handler(), http.MethodPost, `{"input":"`+strings.Repeat("a", 32)+`"}`, nil)
	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestOptimizeSurfacesUpstreamFailure(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{err: errors.New("connection refused")}, Options{})

	rec := do(t, s.Handler(), http.MethodPost, `{"input":"x"}`, nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Equal(t, "connection refused", decodeBody(t, rec)["error"])
	require.EqualValues(t, 1, s.metrics.GetSnapshot().Upstream.Failed)
}

func TestPreflightIsAnsweredWithCORSHeaders(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{}, Options{})

	rec := do(t, s.Handler(), http.MethodOptions, "", map[string]string{"Origin": "http://localhost:5173"})
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	require.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestRequestIDIsEchoedOrGenerated(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{output: "x"}, Options{})

	id := uuid.NewString()
	rec := do(t, s.Handler(), http.MethodPost, `{"input":"x"}`, map[string]string{requestIDHeader: id})
	require.Equal(t, id, rec.Header().Get(requestIDHeader))

	rec = do(t, s.Handler(), http.MethodPost, `{"input":"x"}`, map[string]string{requestIDHeader: "not-a-uuid"})
	_, err := uuid.Parse(rec.Header().Get(requestIDHeader))
	require.NoError(t, err)
}

func TestRateLimitRejectsBurst(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{output: "x"}, Options{RateLimit: 0.001, Burst: 1})

	require.Equal(t, http.StatusOK, do(t, s.Handler(), http.MethodPost, `{"input":"x"}`, nil).Code)
	rec := do(t, s.Handler(), http.MethodPost, `{"input":"x"}`, nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, "Too many requests", decodeBody(t, rec)["error"])

	responses := s.metrics.GetSnapshot().Responses
	require.EqualValues(t, 1, responses[http.StatusOK])
	require.EqualValues(t, 1, responses[http.StatusTooManyRequests])
}

func TestHealthAndMetricsRoutes(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{output: "x"}, Options{})

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "healthy", decodeBody(t, rec)["status"])

	do(t, s.Handler(), http.MethodPost, `{"input":"x"}`, nil)
	rec = httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	upstream := decodeBody(t, rec)["upstream"].(map[string]any)
	require.EqualValues(t, 1, upstream["total"])
}

func TestNewValidatesArguments(t *testing.T) {
	_, err := New(Options{}, nil)
	require.Error(t, err)
	_, err = New(Options{RateLimit: -1}, &fakeGenerator{})
	require.Error(t, err)
}

func TestOptimizerClientAgainstBackend(t *testing.T) {
	gen := &fakeGenerator{output: "const total = items.reduce((s, i) => s + i.price, 0);"}
	s := newTestServer(t, gen, Options{})
	backend := httptest.NewServer(s.Handler())
	defer backend.Close()

	client, err := optimizer.NewClient(optimizer.Options{Endpoint: backend.URL + "/optimize"})
	require.NoError(t, err)

	out := client.Optimize(context.Background(), "function calculateTotal(items) {}")
	require.Equal(t, gen.output, out)
	require.Equal(t, []string{optimizer.BuildPrompt("function calculateTotal(items) {}")}, gen.prompts)

	gen.mu.Lock()
	gen.err = errors.New("model unavailable")
	gen.mu.Unlock()
	require.Equal(t, "Error: Server error", client.Optimize(context.Background(), "x"))
}

func TestServeShutsDownOnCancel(t *testing.T) {
	s := newTestServer(t, &fakeGenerator{}, Options{ShutdownTimeout: time.Second})
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
