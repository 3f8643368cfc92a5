// Package optimizer sends JavaScript to the codezap backend and maps the
// reply to the text shown in the output pane.
package optimizer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/asynkron/codezap/internal/core/logging"
	"github.com/asynkron/codezap/internal/core/schema"
)

const (
	// NoOutputText is shown when the backend succeeds without an output field.
	NoOutputText = "No output received."
	// ErrorPrefix marks failure text in the output pane.
	ErrorPrefix = "Error: "
)

// ErrServer is returned for any non-2xx reply. Status codes are not
// classified further.
var ErrServer = errors.New("Server error")

// Client issues optimization requests. It is safe for concurrent use.
type Client struct {
	endpoint   string
	httpClient *http.Client
	logger     logging.Logger
}

// NewClient validates the options and returns a ready client.
func NewClient(opts Options) (*Client, error) {
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}
	return &Client{
		endpoint:   opts.Endpoint,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger.WithFields(logging.Field("component", "optimizer")),
	}, nil
}

// Endpoint reports the URL requests are sent to.
func (c *Client) Endpoint() string { return c.endpoint }

type optimizeRequest struct {
	Input string `json:"input"`
}

type optimizeResponse struct {
	Output string `json:"output"`
}

// Optimize returns the text to display for code: the optimized code, the
// no-output fallback, or "Error: <description>". It never returns an error.
func (c *Client) Optimize(ctx context.Context, code string) string {
	out, err := c.Do(ctx, code)
	if err != nil {
		return ErrorPrefix + err.Error()
	}
	return out
}

// Do sends one request and reports failures as errors. A successful reply
// without output yields NoOutputText and a nil error.
func (c *Client) Do(ctx context.Context, code string) (string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if logging.TraceID(ctx) == "" {
		ctx = logging.WithTraceID(ctx, logging.NewTraceID())
	}
	started := time.Now()

	body, err := json.Marshal(optimizeRequest{Input: BuildPrompt(code)})
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", logging.TraceID(ctx))

	c.logger.Debug(ctx, "sending optimization request", logging.Field("endpoint", c.endpoint), logging.Field("code_bytes", len(code)))

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error(ctx, "optimization request failed", err)
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		c.logger.Warn(ctx, "backend returned failure status",
			logging.Field("status", resp.StatusCode),
			logging.Field("body", strings.TrimSpace(string(detail))))
		return "", ErrServer
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		c.logger.Error(ctx, "read response body", err)
		return "", fmt.Errorf("read response: %w", err)
	}
	if err := schema.ValidateResponse(raw); err != nil {
		c.logger.Error(ctx, "malformed response body", err)
		return "", fmt.Errorf("invalid response: %w", err)
	}

	var decoded optimizeResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}

	c.logger.Info(ctx, "optimization completed",
		logging.Field("duration", time.Since(started).Round(time.Millisecond)),
		logging.Field("output_bytes", len(decoded.Output)))

	if decoded.Output == "" {
		return NoOutputText, nil
	}
	return decoded.Output, nil
}
