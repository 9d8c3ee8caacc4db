package extract

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/augurlabs/augur/core"
)

// Markdown handles Markdown documents by stripping formatting down to plain
// text so chunk boundaries fall on prose, not syntax.
type Markdown struct{}

var _ Extractor = (*Markdown)(nil)

// NewMarkdown creates a new Markdown extractor.
func NewMarkdown() *Markdown {
	return &Markdown{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (m *Markdown) SupportedMIMETypes() []string {
	return []string{"text/markdown", "text/x-markdown"}
}

var (
	mdCodeBlock  = regexp.MustCompile("(?s)```[^`]*```")
	mdInlineCode = regexp.MustCompile("`[^`]+`")
	mdImage      = regexp.MustCompile(`!\[[^\]]*\]\([^)]+\)`)
	mdLink       = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	mdHeading    = regexp.MustCompile(`(?m)^#{1,6}\s+`)
	mdEmphasis   = regexp.MustCompile(`(\*\*|__|\*|_)([^*_]+)(\*\*|__|\*|_)`)
	mdListMarker = regexp.MustCompile(`(?m)^\s*([-*+]|\d+\.)\s+`)
)

// Extract strips common Markdown formatting for plain text content.
// This is a simplified implementation that handles common cases.
func (m *Markdown) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: %s is not valid UTF-8", core.ErrParse, filename)
	}

	content := strings.ReplaceAll(string(data), "\r\n", "\n")

	content = mdCodeBlock.ReplaceAllString(content, "")
	content = mdInlineCode.ReplaceAllString(content, "")
	content = mdImage.ReplaceAllString(content, "")
	content = mdLink.ReplaceAllString(content, "$1")
	content = mdHeading.ReplaceAllString(content, "")
	content = mdEmphasis.ReplaceAllString(content, "$2")
	content = mdListMarker.ReplaceAllString(content, "")

	return content, nil
}
