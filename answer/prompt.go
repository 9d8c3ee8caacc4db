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

package answer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/augurlabs/augur/core"
)

// answerMarker terminates the prompt; completion models that echo the
// prompt repeat it right before the actual answer.
const answerMarker = "Answer:"

const promptTemplate = `Use the following pieces of context to answer the question.
If the context does not contain the answer, just say you don't know.
Return ONLY the answer (do NOT include "Context:" or repeat the question).

Context:
%s

Question: %s
` + answerMarker

// BuildPrompt assembles the generation prompt from retrieved chunks and
// the question. Chunk texts are included in the given (similarity) order
// until the character budget is spent, so the least similar chunks are
// dropped first. The first chunk is hard-truncated rather than dropped
// when it alone exceeds the budget.
func BuildPrompt(question string, hits []core.Hit, contextBudget int) string {
	var parts []string
	used := 0

	for i, hit := range hits {
		text := hit.Chunk.Text
		cost := utf8.RuneCountInString(text)
		if len(parts) > 0 {
			cost += 2 // separator
		}

		if used+cost > contextBudget {
			if i == 0 {
				parts = append(parts, truncate(text, contextBudget))
			}
			break
		}

		parts = append(parts, text)
		used += cost
	}

	context := strings.Join(parts, "\n\n")
	return fmt.Sprintf(promptTemplate, context, question)
}

// StripEcho returns the model output with any echoed prompt removed: if
// the output contains the answer marker, only the text after its first
// occurrence is kept.
func StripEcho(raw string) string {
	if idx := strings.Index(raw, answerMarker); idx >= 0 {
		return strings.TrimSpace(raw[idx+len(answerMarker):])
	}
	return strings.TrimSpace(raw)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n])
}
