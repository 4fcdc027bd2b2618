package driven

import "context"

// VectorIndex provides exact nearest-neighbour search over the vectors
// of one index generation. An index is immutable once built: Search
// never mutates state and concurrent searches are safe.
type VectorIndex interface {
	// Search finds the k most similar vectors to the query, ordered
	// best-first. Ties are broken by lower position. Returns fewer
	// than k hits when the index holds fewer vectors.
	Search(ctx context.Context, query []float32, k int) ([]VectorHit, error)

	// Dimensions returns the vector dimensionality of the index.
	Dimensions() int

	// Len returns the number of vectors in the index.
	Len() int

	// Save writes the index to the given path in the binary on-disk
	// format (versioned header, vectors, checksum).
	Save(path string) error

	// Close releases resources.
	Close() error
}

// VectorHit represents a similarity search result.
type VectorHit struct {
	// Position is the vector's ordinal in the generation's build order.
	// It equals the index of the matching chunk in the aligned chunk
	// slice.
	Position int

	// Score is the cosine similarity (inner product of the normalised
	// vectors), higher is more similar.
	Score float64
}

// IndexFactory builds vector indexes from ordered vectors and restores
// them from disk. Input order defines the position of every vector and
// must match the order of the aligned chunk records.
type IndexFactory interface {
	// Build constructs an immutable index over the given vectors.
	// All vectors must share the same dimensionality.
	Build(vectors [][]float32) (VectorIndex, error)

	// Load restores an index written by VectorIndex.Save. A truncated,
	// corrupted, or version-mismatched file yields
	// domain.ErrIndexCorrupt, never a partially usable index.
	Load(path string) (VectorIndex, error)
}
