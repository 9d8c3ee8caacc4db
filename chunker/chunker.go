// Copyright 2025 Augur Labs
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package chunker

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/augurlabs/augur/core"
)

const (
	// DefaultMaxChunkSize is the default chunk size in characters.
	DefaultMaxChunkSize = 500

	// DefaultOverlap is the default number of characters each chunk
	// shares with its predecessor.
	DefaultOverlap = 50
)

// Chunker splits document text into overlapping passages sized for
// embedding. Splitting prefers paragraph boundaries, then sentence
// boundaries, and hard-cuts only when a single sentence exceeds the
// chunk size. Identical input and parameters always yield identical
// output.
type Chunker struct {
	maxChunkSize int
	overlap      int
}

// Option configures a Chunker.
type Option func(*Chunker) error

// WithMaxChunkSize sets the maximum chunk size in characters.
// Default is DefaultMaxChunkSize.
func WithMaxChunkSize(size int) Option {
	return func(c *Chunker) error {
		if size < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidChunkSize, size)
		}
		c.maxChunkSize = size
		return nil
	}
}

// WithOverlap sets the number of characters each chunk after the first
// shares with the previous chunk. Default is DefaultOverlap.
func WithOverlap(overlap int) Option {
	return func(c *Chunker) error {
		if overlap < 0 {
			return fmt.Errorf("%w: %d", ErrInvalidOverlap, overlap)
		}
		c.overlap = overlap
		return nil
	}
}

// New creates a new Chunker.
func New(opts ...Option) (*Chunker, error) {
	c := &Chunker{
		maxChunkSize: DefaultMaxChunkSize,
		overlap:      DefaultOverlap,
	}

	for _, opt := range opts {
		if err := opt(c); err != nil {
			return nil, err
		}
	}

	if c.overlap >= c.maxChunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			ErrInvalidOverlap, c.overlap, c.maxChunkSize)
	}

	return c, nil
}

// Split chunks the document's extracted text. The returned chunks carry
// content-derived IDs so that re-splitting an unchanged document
// reproduces the same IDs. Empty or whitespace-only text is a parse
// failure, not an empty result.
func (c *Chunker) Split(doc *core.Document) ([]core.Chunk, error) {
	if doc == nil {
		return nil, core.ErrInvalidDocument
	}
	if strings.TrimSpace(doc.Text) == "" {
		return nil, fmt.Errorf("%w: document %s has no extractable text",
			core.ErrParse, doc.Filename)
	}

	pieces := c.pack(segments(doc.Text, c.maxChunkSize))

	chunks := make([]core.Chunk, 0, len(pieces))
	for i, text := range pieces {
		chunks = append(chunks, core.Chunk{
			Id:         core.IDFromContent(fmt.Sprintf("%d:%d:%s", doc.Id, i, text)),
			DocumentId: doc.Id,
			Tenant:     doc.Tenant,
			Ordinal:    i,
			Text:       text,
			CharLen:    utf8.RuneCountInString(text),
		})
	}

	return chunks, nil
}

var (
	paragraphBreak = regexp.MustCompile(`\n{2,}`)
	sentenceEnd    = regexp.MustCompile(`[.!?]+[)"']?\s+`)
)

// segments splits text into units of at most limit characters:
// paragraphs first, oversized paragraphs into sentences, and oversized
// sentences into hard character slices.
func segments(text string, limit int) []string {
	var segs []string
	for _, para := range paragraphBreak.Split(text, -1) {
		para = strings.TrimSpace(para)
		if para == "" {
			continue
		}
		if utf8.RuneCountInString(para) <= limit {
			segs = append(segs, para)
			continue
		}
		for _, sent := range splitSentences(para) {
			if utf8.RuneCountInString(sent) <= limit {
				segs = append(segs, sent)
				continue
			}
			segs = append(segs, hardCut(sent, limit)...)
		}
	}
	return segs
}

// splitSentences cuts a paragraph after terminal punctuation followed
// by whitespace. The punctuation stays with its sentence.
func splitSentences(para string) []string {
	locs := sentenceEnd.FindAllStringIndex(para, -1)

	var sentences []string
	start := 0
	for _, loc := range locs {
		sent := strings.TrimSpace(para[start:loc[1]])
		if sent != "" {
			sentences = append(sentences, sent)
		}
		start = loc[1]
	}
	if rest := strings.TrimSpace(para[start:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

// hardCut slices text into runs of at most limit runes.
func hardCut(text string, limit int) []string {
	runes := []rune(text)

	var cuts []string
	for len(runes) > limit {
		cuts = append(cuts, string(runes[:limit]))
		runes = runes[limit:]
	}
	if len(runes) > 0 {
		cuts = append(cuts, string(runes))
	}
	return cuts
}

// pack greedily joins segments into chunks of at most maxChunkSize
// characters. When a chunk fills up, the next chunk is seeded with the
// tail of the previous one so adjacent chunks share context. The seed
// is dropped when even alone it would push the next segment over the
// limit.
func (c *Chunker) pack(segs []string) []string {
	var chunks []string
	current := ""

	for _, seg := range segs {
		if current == "" {
			current = seg
			continue
		}

		joined := current + " " + seg
		if utf8.RuneCountInString(joined) <= c.maxChunkSize {
			current = joined
			continue
		}

		chunks = append(chunks, current)

		seed := tail(current, c.overlap)
		if seed != "" {
			seeded := seed + " " + seg
			if utf8.RuneCountInString(seeded) <= c.maxChunkSize {
				current = seeded
				continue
			}
		}
		current = seg
	}

	if current != "" {
		chunks = append(chunks, current)
	}
	return chunks
}

// tail returns the last n runes of s, trimmed of surrounding space.
func tail(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) > n {
		runes = runes[len(runes)-n:]
	}
	return strings.TrimSpace(string(runes))
}
