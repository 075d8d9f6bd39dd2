package install

import (
	"context"
	"fmt"
	"strings"

	"github.com/go-cmd/cmd"

	"github.com/blackwell-systems/modman/internal/apperr"
)

// Extractor pulls one file out of an archive into a directory.
type Extractor interface {
	Extract(ctx context.Context, archivePath, innerPath, outputDir string) error
}

// SevenZip runs the 7-Zip command line tool.
type SevenZip struct {
	Path string
}

// Args returns the tool arguments for one extraction.
func (s SevenZip) Args(archivePath, innerPath, outputDir string) []string {
	return []string{"e", archivePath, innerPath, "-o" + outputDir, "-y"}
}

// Extract runs `7z e <archive> <inner> -o<dir> -y`. A non-zero exit is a
// ToolFailure carrying the tool's stderr verbatim.
func (s SevenZip) Extract(ctx context.Context, archivePath, innerPath, outputDir string) error {
	c := cmd.NewCmdOptions(cmd.Options{Buffered: true}, s.Path, s.Args(archivePath, innerPath, outputDir)...)
	statusCh := c.Start()

	var status cmd.Status
	select {
	case status = <-statusCh:
	case <-ctx.Done():
		_ = c.Stop()
		<-statusCh
		return apperr.Wrap(apperr.Cancelled, "extract", "extraction interrupted", ctx.Err())
	}

	if status.Error != nil {
		return apperr.Wrap(apperr.ToolFailure, "extract", fmt.Sprintf("failed to execute %s", s.Path), status.Error)
	}
	if status.Exit != 0 {
		stderr := strings.Join(status.Stderr, "\n")
		return apperr.Newf(apperr.ToolFailure, "extract", "7z extraction failed (exit %d): %s", status.Exit, stderr)
	}
	return nil
}
