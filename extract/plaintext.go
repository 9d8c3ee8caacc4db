package extract

import (
	"bytes"
	"context"
	"fmt"
	"unicode/utf8"

	"github.com/augurlabs/augur/core"
)

// Plaintext handles plain text documents.
type Plaintext struct{}

var _ Extractor = (*Plaintext)(nil)

// NewPlaintext creates a new plain text extractor.
func NewPlaintext() *Plaintext {
	return &Plaintext{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (p *Plaintext) SupportedMIMETypes() []string {
	return []string{
		"text/plain",
		"text/csv",
	}
}

// Extract returns the bytes as text, normalizing line endings.
func (p *Plaintext) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", core.ErrParse, filename)
	}
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	return string(data), nil
}
