package driving

import (
	"context"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
)

// RoadmapService turns incident descriptions into legal roadmaps.
type RoadmapService interface {
	// Answer retrieves relevant knowledge for the query and generates
	// a validated roadmap. The query must be 10 to 2000 characters.
	// Returns domain.ErrRetrievalUnavailable when no index generation
	// has been published yet.
	Answer(ctx context.Context, query string, opts domain.AnswerOptions) (domain.Roadmap, error)

	// Health reports the current serving state.
	Health() domain.Health
}
