// Package server implements the codezap optimization backend: it accepts
// the templated prompt on POST /optimize and forwards it to a language
// model through Ollama.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/asynkron/codezap/internal/core/logging"
	"github.com/asynkron/codezap/internal/core/ollama"
	"github.com/asynkron/codezap/internal/core/schema"
)

// Server wires the HTTP routes to a Generator.
type Server struct {
	opts      Options
	generator ollama.Generator
	logger    logging.Logger
	metrics   Metrics
	engine    *gin.Engine
}

// OptimizeRequest is the /optimize request body.
type OptimizeRequest struct {
	Input string `json:"input"`
}

// OptimizeResponse is the /optimize success body.
type OptimizeResponse struct {
	Output string `json:"output"`
}

// New validates opts and builds the router.
func New(opts Options, generator ollama.Generator) (*Server, error) {
	if generator == nil {
		return nil, errors.New("server: generator is required")
	}
	opts.setDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	s := &Server{
		opts:      opts,
		generator: generator,
		logger:    opts.Logger.WithFields(logging.Field("component", "server")),
		metrics:   opts.Metrics,
	}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), cors(), accessLog(s.logger))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	})
	router.GET("/metrics", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.metrics.GetSnapshot())
	})

	var limiter *rate.Limiter
	if s.opts.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.opts.RateLimit), s.opts.Burst)
	}
	router.POST("/optimize", recordResponse(s.metrics), rateLimit(limiter), s.optimize)
	return router
}

// Handler exposes the router, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

func (s *Server) optimize(c *gin.Context) {
	ctx := c.Request.Context()
	status, body := s.handleOptimize(ctx, c.Request.Body)
	c.JSON(status, body)
}

func (s *Server) handleOptimize(ctx context.Context, body io.Reader) (int, any) {
	raw, err := io.ReadAll(io.LimitReader(body, s.opts.MaxBodyBytes+1))
	if err != nil {
		return http.StatusBadRequest, gin.H{"error": "Invalid request"}
	}
	if int64(len(raw)) > s.opts.MaxBodyBytes {
		return http.StatusRequestEntityTooLarge, gin.H{"error": "Request body too large"}
	}

	// An empty body behaves like a request without input.
	if len(strings.TrimSpace(string(raw))) > 0 {
		if err := schema.ValidateRequest(raw); err != nil {
			s.logger.Warn(ctx, "rejected optimize request", logging.Field("reason", err.Error()))
			return http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()}
		}
	}

	var req OptimizeRequest
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &req); err != nil {
			return http.StatusBadRequest, gin.H{"error": "Invalid request"}
		}
	}
	// null decodes to "" and is treated like a missing input.
	if req.Input == "" {
		return http.StatusBadRequest, gin.H{"error": "No input provided"}
	}

	started := time.Now()
	out, err := s.generator.Generate(ctx, req.Input)
	s.metrics.RecordUpstreamCall(time.Since(started), err == nil)
	if err != nil {
		s.logger.Error(ctx, "generation failed", err)
		return http.StatusInternalServerError, gin.H{"error": err.Error()}
	}
	return http.StatusOK, OptimizeResponse{Output: strings.TrimSpace(out)}
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("server: listen: %w", err)
	}
	return s.Serve(ctx, ln)
}

// Serve is ListenAndServe on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "optimization backend listening", logging.Field("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()
	s.logger.Info(shutdownCtx, "shutting down optimization backend")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server: shutdown: %w", err)
	}
	return nil
}
