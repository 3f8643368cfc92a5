package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/asynkron/codezap/internal/core/logging"
	"github.com/asynkron/codezap/internal/core/optimizer"
	"github.com/asynkron/codezap/internal/tui"
)

// runTUI is swapped in tests.
var runTUI = tui.Run

// Run executes codezap using the provided CLI arguments. Without -file it
// starts the interactive UI; with -file it optimizes once and exits.
// It returns a POSIX-style exit code.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if stdout == nil {
		stdout = io.Discard
	}
	if stderr == nil {
		stderr = io.Discard
	}

	if err := godotenv.Load(); err != nil {
		// A missing .env file is fine, but other errors should be surfaced to help with debugging.
		var pathErr *os.PathError
		if !errors.As(err, &pathErr) {
			fmt.Fprintf(stderr, "failed to load .env: %v\n", err)
			return 1
		}
	}

	defaultEndpoint := os.Getenv("CODEZAP_ENDPOINT")
	if defaultEndpoint == "" {
		defaultEndpoint = optimizer.DefaultEndpoint
	}
	defaultDark := strings.EqualFold(os.Getenv("CODEZAP_THEME"), "dark")

	flagSet := flag.NewFlagSet("codezap", flag.ContinueOnError)
	flagSet.SetOutput(stderr)
	endpoint := flagSet.String("endpoint", defaultEndpoint, "URL of the optimization backend")
	timeout := flagSet.Duration("timeout", 0, "per-request timeout (0 leaves it to the transport)")
	inputFile := flagSet.String("file", "", "optimize this file once and exit (use - for stdin)")
	outputFile := flagSet.String("out", "", "with -file, write the result here instead of stdout")
	dark := flagSet.Bool("dark", defaultDark, "start with the dark theme")
	saveDir := flagSet.String("save-dir", ".", "directory that receives the exported file")
	logPath := flagSet.String("log", os.Getenv("CODEZAP_LOG"), "append logs to this file (default: discard)")
	logLevel := flagSet.String("log-level", "info", "minimum log level (debug, info, warn, error)")

	if err := flagSet.Parse(args); err != nil {
		return 2
	}

	logger, closeLog, err := openLogger(*logPath, *logLevel)
	if err != nil {
		fmt.Fprintf(stderr, "failed to open log: %v\n", err)
		return 1
	}
	defer closeLog()

	client, err := optimizer.NewClient(optimizer.Options{
		Endpoint: *endpoint,
		Timeout:  *timeout,
		Logger:   logger,
	})
	if err != nil {
		fmt.Fprintf(stderr, "failed to create client: %v\n", err)
		return 1
	}

	if *inputFile != "" {
		return runOnce(ctx, client, *inputFile, *outputFile, stdin, stdout, stderr)
	}

	err = runTUI(ctx, tui.Options{
		Optimizer: client,
		Endpoint:  client.Endpoint(),
		Dark:      *dark,
		SaveDir:   *saveDir,
		Logger:    logger,
	})
	if err != nil {
		fmt.Fprintf(stderr, "tui error: %v\n", err)
		return 1
	}
	return 0
}

func runOnce(ctx context.Context, client *optimizer.Client, inPath, outPath string, stdin io.Reader, stdout, stderr io.Writer) int {
	var (
		code []byte
		err  error
	)
	if inPath == "-" {
		if stdin == nil {
			stdin = strings.NewReader("")
		}
		code, err = io.ReadAll(stdin)
	} else {
		code, err = os.ReadFile(inPath)
	}
	if err != nil {
		fmt.Fprintf(stderr, "failed to read input: %v\n", err)
		return 1
	}
	if strings.TrimSpace(string(code)) == "" {
		fmt.Fprintln(stderr, "input is empty; nothing to optimize")
		return 1
	}

	out, err := client.Do(ctx, string(code))
	if err != nil {
		fmt.Fprintln(stderr, optimizer.ErrorPrefix+err.Error())
		return 1
	}

	if outPath == "" {
		fmt.Fprintln(stdout, out)
		return 0
	}
	if err := os.WriteFile(outPath, []byte(out), 0o644); err != nil {
		fmt.Fprintf(stderr, "failed to write output: %v\n", err)
		return 1
	}
	return 0
}

func openLogger(path, level string) (logging.Logger, func(), error) {
	if strings.TrimSpace(path) == "" {
		return &logging.NoOpLogger{}, func() {}, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, err
	}
	logger := logging.NewStdLogger(logging.ParseLevel(level), f).
		WithFields(logging.Field("session", time.Now().Format("20060102T150405")))
	return logger, func() { _ = f.Close() }, nil
}
