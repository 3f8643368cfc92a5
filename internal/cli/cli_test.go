package cli

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/asynkron/codezap/internal/tui"
)

func backend(t *testing.T, status int, body string) string {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server.URL + "/optimize"
}

func TestRunHeadlessPrintsOptimizedCode(t *testing.T) {
	endpoint := backend(t, http.StatusOK, `{"output":"const x = 1;"}`)
	var stdout, stderr bytes.Buffer

	code := Run(context.Background(), []string{"-endpoint", endpoint, "-file", "-"}, strings.NewReader("var x = 1;"), &stdout, &stderr)
	require.Equal(t, 0, code, stderr.String())
	require.Equal(t, "const x = 1;\n", stdout.String())
}

func TestRunHeadlessWritesOutputFile(t *testing.T) {
	endpoint := backend(t, http.StatusOK, `{"output":"let y = 2;"}`)
	dir := t.TempDir()
	in := filepath.Join(dir, "in.js")
	out := filepath.Join(dir, "out.js")
	require.NoError(t, os.WriteFile(in, []byte("var y = 2;"), 0o644))

	code := Run(context.Background(), []string{"-endpoint", endpoint, "-file", in, "-out", out}, nil, nil, nil)
	require.Equal(t, 0, code)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	require.Equal(t, "let y = 2;", string(data))
}

func TestRunHeadlessReportsServerError(t *testing.T) {
	endpoint := backend(t, http.StatusInternalServerError, `{"error":"boom"}`)
	var stderr bytes.Buffer

	code := Run(context.Background(), []string{"-endpoint", endpoint, "-file", "-"}, strings.NewReader("x"), nil, &stderr)
	require.Equal(t, 1, code)
	require.Equal(t, "Error: Server error\n", stderr.String())
}

func TestRunHeadlessRejectsBlankInput(t *testing.T) {
	var stderr bytes.Buffer
	code := Run(context.Background(), []string{"-file", "-"}, strings.NewReader("  \n"), nil, &stderr)
	require.Equal(t, 1, code)
	require.Contains(t, stderr.String(), "nothing to optimize")
}

func TestRunRejectsUnknownFlag(t *testing.T) {
	require.Equal(t, 2, Run(context.Background(), []string{"-nope"}, nil, nil, nil))
}

func TestRunRejectsInvalidEndpoint(t *testing.T) {
	var stderr bytes.Buffer
	require.Equal(t, 1, Run(context.Background(), []string{"-endpoint", "ftp://x"}, nil, nil, &stderr))
	require.Contains(t, stderr.String(), "failed to create client")
}

func TestRunStartsTUIWithFlags(t *testing.T) {
	original := runTUI
	t.Cleanup(func() { runTUI = original })

	var got tui.Options
	runTUI = func(_ context.Context, opts tui.Options) error {
		got = opts
		return nil
	}

	dir := t.TempDir()
	logPath := filepath.Join(dir, "codezap.log")
	code := Run(context.Background(), []string{"-dark", "-save-dir", dir, "-endpoint", "http://127.0.0.1:9/optimize", "-log", logPath}, nil, nil, nil)
	require.Equal(t, 0, code)
	require.True(t, got.Dark)
	require.Equal(t, dir, got.SaveDir)
	require.Equal(t, "http://127.0.0.1:9/optimize", got.Endpoint)
	require.NotNil(t, got.Optimizer)
	require.FileExists(t, logPath)
}
