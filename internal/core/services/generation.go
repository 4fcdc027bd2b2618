package services

import (
	"sync/atomic"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driven"
)

// Generation is one immutable build of the vector index together with
// the chunks it was built from. Vector position i corresponds to
// Chunks[i]. A Generation is never mutated after it is published.
type Generation struct {
	Info   domain.IndexGeneration
	Index  driven.VectorIndex
	Chunks []domain.Chunk
}

// GenerationHolder publishes index generations to readers without
// locking. Readers snapshot the current generation once per request
// and keep using that snapshot even if a newer generation is
// published mid-request. Old generations are reclaimed by the
// garbage collector once the last reader drops its snapshot.
type GenerationHolder struct {
	current atomic.Pointer[Generation]
}

// NewGenerationHolder creates a holder with no generation loaded.
func NewGenerationHolder() *GenerationHolder {
	return &GenerationHolder{}
}

// Current returns the live generation, or nil if none has been
// published yet.
func (h *GenerationHolder) Current() *Generation {
	return h.current.Load()
}

// Publish atomically replaces the live generation. In-flight readers
// holding the previous generation are unaffected.
func (h *GenerationHolder) Publish(gen *Generation) {
	h.current.Store(gen)
}
