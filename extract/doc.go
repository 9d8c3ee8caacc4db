// Package extract converts uploaded document bytes to plain text.
//
// Extraction is polymorphic over MIME type: plain text, Markdown, DOCX, and
// PDF each have a dedicated Extractor, dispatched through a Registry.
// Unsupported formats and empty results fail with core.ErrParse rather than
// being silently skipped, so a bad upload can never shrink an index without
// trace.
package extract
