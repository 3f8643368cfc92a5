package optimizer

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/asynkron/codezap/internal/core/logging"
)

// DefaultEndpoint is the backend the original UI talks to.
const DefaultEndpoint = "http://localhost:5000/optimize"

// Options configures the optimization client.
type Options struct {
	// Endpoint is the full URL of the /optimize route.
	Endpoint string
	// Timeout bounds a single request. Zero leaves it to the transport.
	Timeout time.Duration
	// HTTPClient can be swapped in tests.
	HTTPClient *http.Client
	Logger     logging.Logger
}

func (o *Options) setDefaults() {
	o.Endpoint = strings.TrimSpace(o.Endpoint)
	if o.Endpoint == "" {
		o.Endpoint = DefaultEndpoint
	}
	if o.HTTPClient == nil {
		o.HTTPClient = &http.Client{Timeout: o.Timeout}
	}
	if o.Logger == nil {
		o.Logger = &logging.NoOpLogger{}
	}
}

func (o *Options) validate() error {
	if o.Timeout < 0 {
		return errors.New("optimizer: timeout must not be negative")
	}
	u, err := url.Parse(o.Endpoint)
	if err != nil {
		return errors.New("optimizer: invalid endpoint: " + err.Error())
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("optimizer: endpoint must be an http(s) URL")
	}
	return nil
}
