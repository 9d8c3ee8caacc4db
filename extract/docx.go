package extract

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/augurlabs/augur/core"
)

// DOCX handles Word documents. A .docx file is a ZIP archive; the text lives
// in word/document.xml as runs grouped into paragraphs.
type DOCX struct{}

var _ Extractor = (*DOCX)(nil)

// NewDOCX creates a new DOCX extractor.
func NewDOCX() *DOCX {
	return &DOCX{}
}

// SupportedMIMETypes returns the MIME types this extractor handles.
func (d *DOCX) SupportedMIMETypes() []string {
	return []string{
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	}
}

// documentXML mirrors the structure of word/document.xml.
type documentXML struct {
	Body struct {
		Paragraphs []paragraph `xml:"p"`
	} `xml:"body"`
}

type paragraph struct {
	Runs []run `xml:"r"`
}

type run struct {
	Texts []string `xml:"t"`
}

// Extract opens the archive and pulls paragraph text from word/document.xml.
func (d *DOCX) Extract(ctx context.Context, filename string, data []byte) (string, error) {
	reader, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %s is not a valid DOCX archive", core.ErrParse, filename)
	}

	for _, file := range reader.File {
		if file.Name != "word/document.xml" {
			continue
		}

		rc, err := file.Open()
		if err != nil {
			return "", fmt.Errorf("%w: cannot open document.xml in %s", core.ErrParse, filename)
		}

		content, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return "", fmt.Errorf("%w: cannot read document.xml in %s", core.ErrParse, filename)
		}

		return parseDocumentXML(content), nil
	}

	return "", fmt.Errorf("%w: %s has no word/document.xml", core.ErrParse, filename)
}

// parseDocumentXML extracts paragraph text, one paragraph per line.
// Malformed XML yields whatever was parsed; the registry rejects empty results.
func parseDocumentXML(content []byte) string {
	var doc documentXML
	if err := xml.Unmarshal(content, &doc); err != nil {
		return ""
	}

	var sb strings.Builder
	for _, para := range doc.Body.Paragraphs {
		var line strings.Builder
		for _, r := range para.Runs {
			for _, t := range r.Texts {
				line.WriteString(t)
			}
		}
		if line.Len() > 0 {
			if sb.Len() > 0 {
				sb.WriteString("\n\n")
			}
			sb.WriteString(line.String())
		}
	}
	return sb.String()
}
