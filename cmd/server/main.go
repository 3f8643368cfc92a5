// Package main runs the codezap optimization backend.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/asynkron/codezap/internal/core/logging"
	"github.com/asynkron/codezap/internal/core/ollama"
	"github.com/asynkron/codezap/internal/server"
)

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	if err := godotenv.Load(); err != nil {
		// A missing .env file is fine, but other errors should be surfaced to help with debugging.
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
			os.Exit(1)
		}
	}

	defaultRate, _ := strconv.ParseFloat(os.Getenv("CODEZAP_RATE_LIMIT"), 64)

	var (
		addr      = flag.String("addr", envOr("CODEZAP_ADDR", ":5000"), "listen address")
		ollamaURL = flag.String("ollama-url", envOr("OLLAMA_URL", ollama.DefaultURL), "Ollama generate endpoint")
		model     = flag.String("model", envOr("OLLAMA_MODEL", ollama.DefaultModel), "Ollama model name")
		timeout   = flag.Duration("upstream-timeout", 0, "timeout for one Ollama call (0 = none)")
		rateLimit = flag.Float64("rate", defaultRate, "accepted /optimize requests per second (0 = unlimited)")
		burst     = flag.Int("burst", 1, "rate limiter burst size")
		logLevel  = flag.String("log-level", envOr("CODEZAP_LOG_LEVEL", "info"), "minimum log level")
	)
	flag.Parse()

	logger := logging.NewStdLogger(logging.ParseLevel(*logLevel), os.Stderr)
	generator := ollama.NewClient(*ollamaURL, *model, *timeout)

	srv, err := server.New(server.Options{
		Addr:      *addr,
		RateLimit: *rateLimit,
		Burst:     *burst,
		Logger:    logger,
	}, generator)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create server: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "starting codezap backend",
		logging.Field("model", generator.Model()),
		logging.Field("ollama_url", *ollamaURL))
	if err := srv.ListenAndServe(ctx); err != nil {
		logger.Error(ctx, "server stopped", err)
		os.Exit(1)
	}
}
