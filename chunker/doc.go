// Package chunker splits extracted document text into overlapping
// passages, the unit of embedding and retrieval. Splitting is
// deterministic: the same text and parameters always produce the same
// chunks with the same IDs, which keeps index rebuilds reproducible.
package chunker
