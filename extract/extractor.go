package extract

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/augurlabs/augur/core"
)

// Extractor converts one document format to plain text.
// Implementations must be thread-safe for concurrent use.
type Extractor interface {
	// SupportedMIMETypes returns the MIME types this extractor handles.
	SupportedMIMETypes() []string

	// Extract converts raw document bytes to plain text.
	// Failures wrap core.ErrParse.
	Extract(ctx context.Context, filename string, data []byte) (string, error)
}

// Registry dispatches extraction by MIME type.
// Unsupported formats fail with core.ErrParse rather than being skipped.
type Registry struct {
	byMIME map[string]Extractor
}

// NewRegistry creates a registry with the built-in extractors:
// plain text, Markdown, DOCX, and PDF.
func NewRegistry() *Registry {
	r := &Registry{byMIME: make(map[string]Extractor)}
	r.Register(NewPlaintext())
	r.Register(NewMarkdown())
	r.Register(NewDOCX())
	r.Register(NewPDF(nil))
	return r
}

// Register adds an extractor for each of its supported MIME types,
// replacing any previous registration.
func (r *Registry) Register(e Extractor) {
	for _, mimeType := range e.SupportedMIMETypes() {
		r.byMIME[mimeType] = e
	}
}

// Extract converts raw document bytes to plain text using the extractor
// registered for the MIME type. When mimeType is empty, it is inferred from
// the filename extension.
//
// Returns an error wrapping core.ErrParse when the format is unsupported or
// the extracted text is empty or whitespace-only; an empty document must not
// produce a degenerate zero-chunk index.
func (r *Registry) Extract(ctx context.Context, filename, mimeType string, data []byte) (string, error) {
	if mimeType == "" {
		mimeType = MIMEFromFilename(filename)
	}
	mimeType = canonicalMIME(mimeType)

	extractor, ok := r.byMIME[mimeType]
	if !ok {
		return "", fmt.Errorf("%w: unsupported format %q for %s", core.ErrParse, mimeType, filename)
	}

	text, err := extractor.Extract(ctx, filename, data)
	if err != nil {
		return "", err
	}

	if strings.TrimSpace(text) == "" {
		return "", fmt.Errorf("%w: %s contains no extractable text", core.ErrParse, filename)
	}

	return text, nil
}

// MIMEFromFilename infers a MIME type from the filename extension.
// Unknown extensions return an empty string.
func MIMEFromFilename(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return "text/plain"
	case ".md", ".markdown":
		return "text/markdown"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".pdf":
		return "application/pdf"
	default:
		return ""
	}
}

// canonicalMIME strips parameters such as "; charset=utf-8".
func canonicalMIME(mimeType string) string {
	if i := strings.IndexByte(mimeType, ';'); i >= 0 {
		mimeType = mimeType[:i]
	}
	return strings.TrimSpace(strings.ToLower(mimeType))
}
