package server

import (
	"errors"
	"time"

	"github.com/asynkron/codezap/internal/core/logging"
)

// Options configures the optimization backend.
type Options struct {
	// Addr is the listen address.
	Addr string
	// RateLimit caps accepted /optimize requests per second. Zero disables it.
	RateLimit float64
	// Burst is the limiter's bucket size. Defaults to 1 when limiting.
	Burst int
	// MaxBodyBytes bounds the request body.
	MaxBodyBytes int64
	// ShutdownTimeout bounds graceful shutdown.
	ShutdownTimeout time.Duration

	Logger  logging.Logger
	Metrics Metrics
}

func (o *Options) setDefaults() {
	if o.Addr == "" {
		o.Addr = ":5000"
	}
	if o.RateLimit > 0 && o.Burst <= 0 {
		o.Burst = 1
	}
	if o.MaxBodyBytes <= 0 {
		o.MaxBodyBytes = 1 << 20
	}
	if o.ShutdownTimeout <= 0 {
		o.ShutdownTimeout = 10 * time.Second
	}
	if o.Logger == nil {
		o.Logger = &logging.NoOpLogger{}
	}
	if o.Metrics == nil {
		o.Metrics = NewInMemoryMetrics()
	}
}

func (o *Options) validate() error {
	if o.RateLimit < 0 {
		return errors.New("server: rate limit must not be negative")
	}
	return nil
}
