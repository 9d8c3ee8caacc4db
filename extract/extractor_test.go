package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/augurlabs/augur/core"
)

func TestRegistryExtract_Plaintext(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	text, err := r.Extract(ctx, "notes.txt", "text/plain", []byte("The sky is blue.\r\nGrass is green.\r\n"))
	require.NoError(t, err)
	assert.Equal(t, "The sky is blue.\nGrass is green.\n", text)
}

func TestRegistryExtract_MIMEInferredFromExtension(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	text, err := r.Extract(ctx, "notes.txt", "", []byte("hello world"))
	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestRegistryExtract_MIMEParametersStripped(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	text, err := r.Extract(ctx, "notes.txt", "text/plain; charset=utf-8", []byte("hello"))
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
}

func TestRegistryExtract_UnsupportedFormat(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	_, err := r.Extract(ctx, "image.png", "image/png", []byte{0x89, 0x50})
	assert.ErrorIs(t, err, core.ErrParse)
}

func TestRegistryExtract_EmptyDocument(t *testing.T) {
	r := NewRegistry()
	ctx := context.Background()

	tests := []struct {
		name string
		data []byte
	}{
		{"empty file", []byte{}},
		{"whitespace only", []byte("   \n\t\n  ")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Extract(ctx, "empty.txt", "text/plain", tt.data)
			assert.ErrorIs(t, err, core.ErrParse)
		})
	}
}

func TestMarkdownExtract(t *testing.T) {
	m := NewMarkdown()
	ctx := context.Background()

	input := "# Title\n\nSome **bold** and [linked](http://example.com) text.\n\n- item one\n- item two\n"
	text, err := m.Extract(ctx, "readme.md", []byte(input))
	require.NoError(t, err)

	assert.Contains(t, text, "Title")
	assert.Contains(t, text, "Some bold and linked text.")
	assert.Contains(t, text, "item one")
	assert.NotContains(t, text, "**")
	assert.NotContains(t, text, "](")
	assert.NotContains(t, text, "- item")
}

func TestMarkdownExtract_CodeBlocksDropped(t *testing.T) {
	m := NewMarkdown()
	ctx := context.Background()

	input := "Intro paragraph.\n\n```go\nfunc secret() {}\n```\n\nOutro paragraph."
	text, err := m.Extract(ctx, "doc.md", []byte(input))
	require.NoError(t, err)

	assert.Contains(t, text, "Intro paragraph.")
	assert.Contains(t, text, "Outro paragraph.")
	assert.NotContains(t, text, "func secret")
}

// buildDOCX creates a minimal in-memory .docx with the given paragraphs.
func buildDOCX(t *testing.T, paragraphs ...string) []byte {
	t.Helper()

	var sb bytes.Buffer
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
	sb.WriteString(`<w:document xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"><w:body>`)
	for _, p := range paragraphs {
		sb.WriteString(`<w:p><w:r><w:t>`)
		if err := xmlEscape(&sb, p); err != nil {
			t.Fatal(err)
		}
		sb.WriteString(`</w:t></w:r></w:p>`)
	}
	sb.WriteString(`</w:body></w:document>`)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	require.NoError(t, err)
	_, err = w.Write(sb.Bytes())
	require.NoError(t, err)
	require.NoError(t, zw.Close())

	return buf.Bytes()
}

func xmlEscape(buf *bytes.Buffer, s string) error {
	for _, r := range s {
		switch r {
		case '<':
			buf.WriteString("&lt;")
		case '>':
			buf.WriteString("&gt;")
		case '&':
			buf.WriteString("&amp;")
		default:
			buf.WriteRune(r)
		}
	}
	return nil
}

func TestDOCXExtract(t *testing.T) {
	d := NewDOCX()
	ctx := context.Background()

	data := buildDOCX(t, "First paragraph.", "Second paragraph.")
	text, err := d.Extract(ctx, "report.docx", data)
	require.NoError(t, err)

	assert.Equal(t, "First paragraph.\n\nSecond paragraph.", text)
}

func TestDOCXExtract_NotAnArchive(t *testing.T) {
	d := NewDOCX()
	ctx := context.Background()

	_, err := d.Extract(ctx, "report.docx", []byte("plain text, not a zip"))
	assert.ErrorIs(t, err, core.ErrParse)
}

// stubRunner is a test double for CommandRunner.
type stubRunner struct {
	output []byte
	err    error
}

func (s *stubRunner) Run(_ context.Context, _ string, _ ...string) ([]byte, error) {
	return s.output, s.err
}

func TestPDFExtract(t *testing.T) {
	p := NewPDF(&stubRunner{output: []byte("extracted pdf text")})
	ctx := context.Background()

	text, err := p.Extract(ctx, "paper.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)
	assert.Equal(t, "extracted pdf text", text)
}

func TestPDFExtract_RunnerFailure(t *testing.T) {
	p := NewPDF(&stubRunner{err: errors.New("pdftotext: not found")})
	ctx := context.Background()

	_, err := p.Extract(ctx, "paper.pdf", []byte("%PDF-1.4"))
	assert.ErrorIs(t, err, core.ErrParse)
}

func TestMIMEFromFilename(t *testing.T) {
	tests := []struct {
		filename string
		want     string
	}{
		{"a.txt", "text/plain"},
		{"a.md", "text/markdown"},
		{"a.markdown", "text/markdown"},
		{"a.docx", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"a.pdf", "application/pdf"},
		{"a.png", ""},
		{"README", ""},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, MIMEFromFilename(tt.filename))
		})
	}
}
