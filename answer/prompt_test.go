package answer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/augurlabs/augur/core"
)

func hit(id core.ID, text string, score float32) core.Hit {
	return core.Hit{
		Chunk: &core.Chunk{Id: id, Text: text},
		Score: score,
	}
}

func TestBuildPrompt_IncludesContextAndQuestion(t *testing.T) {
	prompt := BuildPrompt("What color is the sky?", []core.Hit{
		hit(1, "The sky is blue.", 0.9),
		hit(2, "Grass is green.", 0.4),
	}, 2000)

	assert.Contains(t, prompt, "The sky is blue.")
	assert.Contains(t, prompt, "Grass is green.")
	assert.Contains(t, prompt, "Question: What color is the sky?")
	assert.True(t, strings.HasSuffix(prompt, answerMarker))
}

func TestBuildPrompt_DropsLowestSimilarityFirst(t *testing.T) {
	// Budget fits the first two chunks but not the third.
	prompt := BuildPrompt("q", []core.Hit{
		hit(1, strings.Repeat("a", 40), 0.9),
		hit(2, strings.Repeat("b", 40), 0.5),
		hit(3, strings.Repeat("c", 40), 0.1),
	}, 90)

	assert.Contains(t, prompt, strings.Repeat("a", 40))
	assert.Contains(t, prompt, strings.Repeat("b", 40))
	assert.NotContains(t, prompt, strings.Repeat("c", 40))
}

func TestBuildPrompt_TruncatesOversizedFirstChunk(t *testing.T) {
	prompt := BuildPrompt("q", []core.Hit{
		hit(1, strings.Repeat("x", 100), 0.9),
	}, 10)

	assert.Contains(t, prompt, strings.Repeat("x", 10))
	assert.NotContains(t, prompt, strings.Repeat("x", 11))
}

func TestBuildPrompt_NoHits(t *testing.T) {
	prompt := BuildPrompt("What color is the sky?", nil, 2000)
	assert.Contains(t, prompt, "Question: What color is the sky?")
}

func TestStripEcho(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			"echoed prompt",
			"Context:\nThe sky is blue.\n\nQuestion: What color is the sky?\nAnswer: The sky is blue.",
			"The sky is blue.",
		},
		{
			"no echo",
			"  The sky is blue.  ",
			"The sky is blue.",
		},
		{
			"marker only",
			"Answer:",
			"",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StripEcho(tt.raw))
		})
	}
}
