package driven

import (
	"context"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
)

// Chunker splits a document into overlapping word-bounded passages.
type Chunker interface {
	// Name returns the chunker name for logging and configuration.
	Name() string

	// Process chunks a document. A document with missing required
	// headers yields domain.ErrMalformedDocument; a document with no
	// words yields zero chunks and no error.
	Process(ctx context.Context, doc domain.Document) ([]domain.Chunk, error)
}
