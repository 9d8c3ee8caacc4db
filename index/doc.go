// Package index implements the per-tenant vector index: exact cosine
// top-k search over immutable, versioned snapshots of embedded chunks.
//
// A rebuild assembles chunks through a Builder into a new Version, which
// becomes visible to queries only when the Registry publishes it. The
// published pointer is single-writer, multi-reader; queries see either
// the version published before they started or a strictly newer one,
// never a partially built index.
package index
