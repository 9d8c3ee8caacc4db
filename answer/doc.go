// Package answer implements the retrieval-generation pipeline: a
// question is embedded, the most similar chunks are retrieved from the
// tenant's published index, a bounded prompt is assembled, and the
// language model's output is returned. No chat history is kept; each
// call stands alone.
package answer
