package editor

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/asynkron/codezap/internal/core/logging"
)

const (
	// DownloadFilename is the name of the exported file.
	DownloadFilename = "codezap-optimized.js"
	// DownloadMIMEType is the content type of the exported file.
	DownloadMIMEType = "text/javascript"
)

// DownloadOutput writes the current output verbatim to DownloadFilename in
// dir and returns the written path. State is not modified.
func (c *Controller) DownloadOutput(dir string) (string, error) {
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, DownloadFilename)
	if err := os.WriteFile(path, []byte(c.state.Output), 0o644); err != nil {
		c.logger.Error(c.ctx, "failed to export output", err, logging.Field("path", path))
		return "", fmt.Errorf("editor: export output: %w", err)
	}
	c.logger.Info(c.ctx, "exported output", logging.Field("path", path), logging.Field("bytes", len(c.state.Output)))
	return path, nil
}
