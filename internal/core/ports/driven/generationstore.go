package driven

import (
	"context"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
)

// GenerationStore persists index generations. A generation on disk is
// three files: the binary vector index, a line-delimited chunk record
// file whose record order matches the index's vector order exactly,
// and a manifest describing the build.
type GenerationStore interface {
	// Save writes the generation atomically: a reader never observes a
	// mix of old and new files. The chunk slice must be aligned with
	// the index (chunk i described vector i at build time).
	Save(ctx context.Context, info domain.IndexGeneration, index VectorIndex, chunks []domain.Chunk) error

	// Load restores the persisted generation. Returns an error
	// wrapping fs.ErrNotExist when nothing has been persisted, and
	// domain.ErrIndexCorrupt when the three files disagree (count
	// mismatch, bad checksum, unreadable records).
	Load(ctx context.Context) (domain.IndexGeneration, VectorIndex, []domain.Chunk, error)
}
