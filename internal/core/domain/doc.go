// Package domain defines the core business entities for nyay-core.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: A knowledge-source document with provenance headers
//   - Chunk: An overlapping word-bounded passage of a document
//   - IndexGeneration: One immutable build of the retrieval state
//   - Roadmap: The structured legal guidance returned to callers
//   - FIRDraft: A rendered First Information Report draft
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
