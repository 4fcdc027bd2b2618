// Package flat provides an exact cosine-similarity vector index.
//
// Vectors are L2-normalised at build time, so the inner product of a
// normalised query equals the cosine similarity. Search scans every
// vector; for corpora of legal-knowledge scale this is faster and far
// more predictable than an approximate structure, and results are
// exactly reproducible across builds of the same corpus.
package flat

import (
	"bytes"
	"context"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"math"
	"os"
	"sort"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driven"
)

// Ensure interfaces are implemented.
var (
	_ driven.VectorIndex  = (*Index)(nil)
	_ driven.IndexFactory = (*Factory)(nil)
)

// On-disk format: header, row-major float32 vectors, CRC32 trailer.
// All integers are little-endian uint32.
const (
	fileMagic   uint32 = 0x4e594958 // "NYIX"
	fileVersion uint32 = 1

	headerSize  = 16 // magic, version, dimensions, count
	trailerSize = 4  // crc32 over header + vectors
)

// Index is an immutable flat vector index. It is safe for concurrent
// searches once built.
type Index struct {
	dims    int
	count   int
	vectors []float32 // count*dims, L2-normalised
}

// Factory builds and loads flat indexes.
type Factory struct{}

// NewFactory creates a flat index factory.
func NewFactory() *Factory {
	return &Factory{}
}

// Build constructs an index over the given vectors. The input order
// defines each vector's position. Vectors are copied and normalised;
// the caller's slices are never mutated.
func (f *Factory) Build(vectors [][]float32) (driven.VectorIndex, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("flat: no vectors to index")
	}

	dims := len(vectors[0])
	if dims == 0 {
		return nil, fmt.Errorf("flat: zero-dimensional vector at position 0")
	}

	idx := &Index{
		dims:    dims,
		count:   len(vectors),
		vectors: make([]float32, len(vectors)*dims),
	}

	for i, vec := range vectors {
		if len(vec) != dims {
			return nil, fmt.Errorf("flat: vector %d has %d dimensions, want %d", i, len(vec), dims)
		}
		row := idx.vectors[i*dims : (i+1)*dims]
		copy(row, vec)
		if err := normalise(row); err != nil {
			return nil, fmt.Errorf("flat: vector %d: %w", i, err)
		}
	}

	return idx, nil
}

// Load restores an index written by Save. Any structural defect yields
// domain.ErrIndexCorrupt.
func (f *Factory) Load(path string) (driven.VectorIndex, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("flat: read index: %w", err)
	}

	if len(data) < headerSize+trailerSize {
		return nil, fmt.Errorf("%w: index file truncated (%d bytes)", domain.ErrIndexCorrupt, len(data))
	}

	if got := binary.LittleEndian.Uint32(data[0:4]); got != fileMagic {
		return nil, fmt.Errorf("%w: bad magic 0x%08x", domain.ErrIndexCorrupt, got)
	}
	if got := binary.LittleEndian.Uint32(data[4:8]); got != fileVersion {
		return nil, fmt.Errorf("%w: unsupported index version %d", domain.ErrIndexCorrupt, got)
	}

	dims := int(binary.LittleEndian.Uint32(data[8:12]))
	count := int(binary.LittleEndian.Uint32(data[12:16]))
	if dims <= 0 || count <= 0 {
		return nil, fmt.Errorf("%w: invalid shape %dx%d", domain.ErrIndexCorrupt, count, dims)
	}

	payload := len(data) - headerSize - trailerSize
	if payload != count*dims*4 {
		return nil, fmt.Errorf("%w: expected %d vector bytes, found %d",
			domain.ErrIndexCorrupt, count*dims*4, payload)
	}

	stored := binary.LittleEndian.Uint32(data[len(data)-trailerSize:])
	if computed := crc32.ChecksumIEEE(data[:len(data)-trailerSize]); computed != stored {
		return nil, fmt.Errorf("%w: checksum mismatch", domain.ErrIndexCorrupt)
	}

	vectors := make([]float32, count*dims)
	if err := binary.Read(bytes.NewReader(data[headerSize:len(data)-trailerSize]), binary.LittleEndian, vectors); err != nil {
		return nil, fmt.Errorf("%w: decode vectors: %v", domain.ErrIndexCorrupt, err)
	}

	return &Index{dims: dims, count: count, vectors: vectors}, nil
}

// Search returns the k most similar vectors to the query, best first.
// Ties are broken by lower position.
func (idx *Index) Search(ctx context.Context, query []float32, k int) ([]driven.VectorHit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(query) != idx.dims {
		return nil, fmt.Errorf("flat: query has %d dimensions, index has %d", len(query), idx.dims)
	}
	if k <= 0 {
		return nil, fmt.Errorf("flat: k must be positive, got %d", k)
	}

	q := make([]float32, idx.dims)
	copy(q, query)
	if err := normalise(q); err != nil {
		return nil, fmt.Errorf("flat: query: %w", err)
	}

	hits := make([]driven.VectorHit, idx.count)
	for i := 0; i < idx.count; i++ {
		row := idx.vectors[i*idx.dims : (i+1)*idx.dims]
		hits[i] = driven.VectorHit{Position: i, Score: dot(q, row)}
	}

	sort.Slice(hits, func(a, b int) bool {
		if hits[a].Score != hits[b].Score {
			return hits[a].Score > hits[b].Score
		}
		return hits[a].Position < hits[b].Position
	})

	if k > len(hits) {
		k = len(hits)
	}
	return hits[:k], nil
}

// Dimensions returns the vector dimensionality of the index.
func (idx *Index) Dimensions() int {
	return idx.dims
}

// Len returns the number of vectors in the index.
func (idx *Index) Len() int {
	return idx.count
}

// Save writes the index to path. The write is not atomic; callers that
// need atomicity write to a temporary path and rename.
func (idx *Index) Save(path string) error {
	var buf bytes.Buffer
	buf.Grow(headerSize + len(idx.vectors)*4 + trailerSize)

	header := make([]byte, headerSize)
	binary.LittleEndian.PutUint32(header[0:4], fileMagic)
	binary.LittleEndian.PutUint32(header[4:8], fileVersion)
	binary.LittleEndian.PutUint32(header[8:12], uint32(idx.dims))
	binary.LittleEndian.PutUint32(header[12:16], uint32(idx.count))
	buf.Write(header)

	if err := binary.Write(&buf, binary.LittleEndian, idx.vectors); err != nil {
		return fmt.Errorf("flat: encode vectors: %w", err)
	}

	trailer := make([]byte, trailerSize)
	binary.LittleEndian.PutUint32(trailer, crc32.ChecksumIEEE(buf.Bytes()))
	buf.Write(trailer)

	if err := os.WriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("flat: write index: %w", err)
	}
	return nil
}

// Close releases resources. A flat index holds none beyond memory.
func (idx *Index) Close() error {
	return nil
}

// normalise scales the vector to unit length in place.
func normalise(vec []float32) error {
	var sum float64
	for _, v := range vec {
		sum += float64(v) * float64(v)
	}
	if sum == 0 {
		return fmt.Errorf("zero vector cannot be normalised")
	}
	norm := float32(math.Sqrt(sum))
	for i := range vec {
		vec[i] /= norm
	}
	return nil
}

// dot returns the inner product of two equal-length vectors.
func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
