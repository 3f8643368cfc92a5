// Package ollama calls a local Ollama server's non-streaming generate API.
package ollama

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
)

const (
	// DefaultURL is the generate endpoint of a local Ollama install.
	DefaultURL = "http://localhost:11434/api/generate"
	// DefaultModel is the model the backend asks for when none is configured.
	DefaultModel = "mistral"
)

// Generator produces a completion for a prompt.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// Client wraps the HTTP client used to talk to Ollama.
type Client struct {
	url        string
	model      string
	httpClient *http.Client
}

// NewClient configures a client. Empty values fall back to the defaults.
func NewClient(url, model string, timeout time.Duration) *Client {
	url = strings.TrimSpace(url)
	if url == "" {
		url = DefaultURL
	}
	model = strings.TrimSpace(model)
	if model == "" {
		model = DefaultModel
	}
	return &Client{
		url:        url,
		model:      model,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Model reports the configured model name.
func (c *Client) Model() string { return c.model }

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error,omitempty"`
}

// StatusError reports a non-2xx reply from Ollama.
type StatusError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("ollama: status %s", e.Status)
	}
	return fmt.Sprintf("ollama: status %s: %s", e.Status, e.Body)
}

// Generate sends prompt with streaming disabled and returns the model's
// response text with surrounding whitespace removed.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(generateRequest{Model: c.model, Prompt: prompt, Stream: false})
	if err != nil {
		return "", fmt.Errorf("ollama: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("ollama: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama: do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		return "", &StatusError{StatusCode: resp.StatusCode, Status: resp.Status, Body: strings.TrimSpace(string(msg))}
	}

	var out generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("ollama: decode response: %w", err)
	}
	if out.Error != "" {
		return "", errors.New("ollama: " + out.Error)
	}
	return strings.TrimSpace(out.Response), nil
}
