package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/augurlabs/augur/core"
)

func testDocument(text string) *core.Document {
	return &core.Document{
		Id:       42,
		Tenant:   "tenant-1",
		Filename: "notes.txt",
		Text:     text,
	}
}

func TestNew_Defaults(t *testing.T) {
	c, err := New()
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxChunkSize, c.maxChunkSize)
	assert.Equal(t, DefaultOverlap, c.overlap)
}

func TestNew_InvalidOptions(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
		want error
	}{
		{"zero chunk size", []Option{WithMaxChunkSize(0)}, ErrInvalidChunkSize},
		{"negative overlap", []Option{WithOverlap(-1)}, ErrInvalidOverlap},
		{"overlap equals chunk size", []Option{WithMaxChunkSize(50), WithOverlap(50)}, ErrInvalidOverlap},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts...)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestSplit_EmptyText(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	for _, text := range []string{"", "   \n\t  "} {
		_, err := c.Split(testDocument(text))
		assert.ErrorIs(t, err, core.ErrParse)
	}
}

func TestSplit_NilDocument(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	_, err = c.Split(nil)
	assert.ErrorIs(t, err, core.ErrInvalidDocument)
}

func TestSplit_SingleChunk(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	chunks, err := c.Split(testDocument("The sky is blue. Grass is green."))
	require.NoError(t, err)
	require.Len(t, chunks, 1)

	assert.Equal(t, "The sky is blue. Grass is green.", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Ordinal)
	assert.Equal(t, core.ID(42), chunks[0].DocumentId)
	assert.Equal(t, core.TenantID("tenant-1"), chunks[0].Tenant)
	assert.Equal(t, utf8.RuneCountInString(chunks[0].Text), chunks[0].CharLen)
	assert.NotZero(t, chunks[0].Id)
}

func TestSplit_Deterministic(t *testing.T) {
	c, err := New(WithMaxChunkSize(80), WithOverlap(10))
	require.NoError(t, err)

	text := strings.Repeat("One short sentence here. Another short sentence follows it. ", 20)
	doc := testDocument(text)

	first, err := c.Split(doc)
	require.NoError(t, err)
	second, err := c.Split(doc)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestSplit_RespectsMaxChunkSize(t *testing.T) {
	c, err := New(WithMaxChunkSize(100), WithOverlap(20))
	require.NoError(t, err)

	text := strings.Repeat("The quick brown fox jumps over the lazy dog. ", 30)
	chunks, err := c.Split(testDocument(text))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for _, ch := range chunks {
		assert.LessOrEqual(t, utf8.RuneCountInString(ch.Text), 100)
	}
}

func TestSplit_OrdinalsAscend(t *testing.T) {
	c, err := New(WithMaxChunkSize(60), WithOverlap(5))
	require.NoError(t, err)

	text := strings.Repeat("Some sentence content goes right here. ", 15)
	chunks, err := c.Split(testDocument(text))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i, ch := range chunks {
		assert.Equal(t, i, ch.Ordinal)
	}
}

func TestSplit_OverlapSharedWithPrevious(t *testing.T) {
	c, err := New(WithMaxChunkSize(80), WithOverlap(20))
	require.NoError(t, err)

	text := strings.Repeat("Alpha beta gamma delta epsilon zeta. ", 12)
	chunks, err := c.Split(testDocument(text))
	require.NoError(t, err)
	require.Greater(t, len(chunks), 1)

	for i := 1; i < len(chunks); i++ {
		prev := chunks[i-1].Text
		seed := tail(prev, 20)
		assert.True(t, strings.HasPrefix(chunks[i].Text, seed),
			"chunk %d should start with the tail of chunk %d", i, i-1)
	}
}

func TestSplit_ParagraphBoundariesPreferred(t *testing.T) {
	c, err := New(WithMaxChunkSize(40), WithOverlap(0))
	require.NoError(t, err)

	text := "First paragraph stays whole.\n\nSecond paragraph stays whole too."
	chunks, err := c.Split(testDocument(text))
	require.NoError(t, err)
	require.Len(t, chunks, 2)

	assert.Equal(t, "First paragraph stays whole.", chunks[0].Text)
	assert.Equal(t, "Second paragraph stays whole too.", chunks[1].Text)
}

func TestSplit_HardCutForUnbrokenText(t *testing.T) {
	c, err := New(WithMaxChunkSize(50), WithOverlap(0))
	require.NoError(t, err)

	// No paragraph or sentence boundaries at all.
	text := strings.Repeat("x", 170)
	chunks, err := c.Split(testDocument(text))
	require.NoError(t, err)
	require.Len(t, chunks, 4)

	total := 0
	for _, ch := range chunks {
		assert.LessOrEqual(t, ch.CharLen, 50)
		total += ch.CharLen
	}
	assert.Equal(t, 170, total)
}

func TestSplit_ChunkIDsDifferAcrossDocuments(t *testing.T) {
	c, err := New()
	require.NoError(t, err)

	a := testDocument("Identical content.")
	b := testDocument("Identical content.")
	b.Id = 43

	chunksA, err := c.Split(a)
	require.NoError(t, err)
	chunksB, err := c.Split(b)
	require.NoError(t, err)

	assert.NotEqual(t, chunksA[0].Id, chunksB[0].Id)
}
