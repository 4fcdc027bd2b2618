package driving

import (
	"context"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
)

// IndexService builds and publishes index generations.
type IndexService interface {
	// Rebuild reads the corpus, chunks and embeds every document,
	// builds a new index generation, persists it, and publishes it
	// atomically. In-flight answers keep the generation they started
	// with. At most one rebuild runs at a time; a concurrent call
	// returns domain.ErrRebuildInProgress.
	Rebuild(ctx context.Context) (domain.RebuildReport, error)

	// Bootstrap loads the persisted generation from disk and publishes
	// it, so a restarted process serves without an immediate rebuild.
	// Returns an error wrapping fs.ErrNotExist when nothing has been
	// persisted yet.
	Bootstrap(ctx context.Context) (domain.IndexGeneration, error)

	// Current returns the published generation's descriptor, or false
	// when none has been published.
	Current() (domain.IndexGeneration, bool)
}
