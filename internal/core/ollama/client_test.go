package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGenerateSendsNonStreamingRequest(t *testing.T) {
	t.Parallel()

	var captured generateRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		_ = json.NewEncoder(w).Encode(map[string]any{"response": "\n  const x = 1;\n", "done": true})
	}))
	defer server.Close()

	client := NewClient(server.URL, "", 0)
	out, err := client.Generate(context.Background(), "optimize me")
	require.NoError(t, err)
	require.Equal(t, "const x = 1;", out)
	require.Equal(t, DefaultModel, captured.Model)
	require.Equal(t, "optimize me", captured.Prompt)
	require.False(t, captured.Stream)
}

func TestGenerateSurfacesStatusErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, `{"error":"model not found"}`, http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "llama3", 0).Generate(context.Background(), "x")
	var statusErr *StatusError
	require.True(t, errors.As(err, &statusErr))
	require.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	require.Contains(t, statusErr.Error(), "model not found")
}

func TestGenerateSurfacesEmbeddedError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"error":"out of memory"}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "", 0).Generate(context.Background(), "x")
	require.EqualError(t, err, "ollama: out of memory")
}

func TestNewClientDefaults(t *testing.T) {
	t.Parallel()

	client := NewClient("  ", " ", 0)
	require.Equal(t, DefaultURL, client.url)
	require.Equal(t, DefaultModel, client.Model())
}
