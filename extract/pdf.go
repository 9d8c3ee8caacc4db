package extract

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/augurlabs/augur/core"
)

// CommandRunner executes an external command and returns its stdout.
// It exists so tests can stub the pdftotext dependency.
type CommandRunner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
}

// execRunner runs commands with os/exec.
type execRunner struct{}

func (execRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).Output()
}

// PDF handles PDF documents by shelling out to pdftotext (poppler-utils).
type PDF struct {
	runner CommandRunner
}

var _ Extractor = (*PDF)(nil)

// NewPDF creates a new PDF extractor. A nil runner uses os/exec.
func NewPDF(runner CommandRunner) *PDF {
	if runner == nil {
		runner = execRunner{}
	}
	return &PDF{runner: runner}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (p *PDF) SupportedMIMETypes() []string {
	return []string{"application/pdf"}
}

// Extract writes the bytes to a temporary file and converts it with
// `pdftotext -q <file> -`. A missing pdftotext binary surfaces as a parse
// failure for this document only.
func (p *PDF) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	tmpDir, err := os.MkdirTemp("", "augur-pdf-")
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", core.ErrParse, filename, err)
	}
	defer os.RemoveAll(tmpDir)

	tmpFile := filepath.Join(tmpDir, "input.pdf")
	if err := os.WriteFile(tmpFile, data, 0600); err != nil {
		return "", fmt.Errorf("%w: %s: %v", core.ErrParse, filename, err)
	}

	out, err := p.runner.Run(ctx, "pdftotext", "-q", tmpFile, "-")
	if err != nil {
		return "", fmt.Errorf("%w: pdftotext failed for %s: %v", core.ErrParse, filename, err)
	}

	return string(out), nil
}
