package services

import (
	"context"
	"fmt"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driven"
	"github.com/nyay-sahayak/nyay-core/internal/logger"
)

// DefaultTopK is the number of passages retrieved per query when the
// configured value is missing or invalid.
const DefaultTopK = 3

// Retriever ranks indexed chunks against a query and hydrates the
// winning positions back into passages.
type Retriever struct {
	embedder driven.EmbeddingService
	holder   *GenerationHolder
	topK     int
}

// NewRetriever creates a retriever reading from holder.
// topK values below 1 fall back to DefaultTopK.
func NewRetriever(embedder driven.EmbeddingService, holder *GenerationHolder, topK int) *Retriever {
	if topK < 1 {
		topK = DefaultTopK
	}
	return &Retriever{
		embedder: embedder,
		holder:   holder,
		topK:     topK,
	}
}

// Retrieve returns up to topK passages ranked by similarity to the
// query, most similar first. Metadata filters in opts are applied
// after ranking, never by widening the search, so fewer than topK
// passages may come back. The generation is snapshotted once at
// entry; a rebuild published mid-call does not affect the result.
func (r *Retriever) Retrieve(ctx context.Context, query string, opts domain.AnswerOptions) ([]domain.RetrievedPassage, error) {
	logger.Section("Retrieval")
	logger.Debug("Query: %q", query)

	gen := r.holder.Current()
	if gen == nil {
		logger.Warn("Retrieval unavailable: no index generation published")
		return nil, fmt.Errorf("%w: no index generation loaded", domain.ErrRetrievalUnavailable)
	}
	logger.Debug("Generation %d: %d chunks, %d dimensions",
		gen.Info.Number, len(gen.Chunks), gen.Index.Dimensions())

	if r.embedder == nil {
		return nil, fmt.Errorf("%w: embedding service not configured", domain.ErrEmbeddingUnavailable)
	}

	vector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		logger.Warn("Query embedding failed: %v", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}
	logger.Debug("Query embedding: %d dimensions", len(vector))

	hits, err := gen.Index.Search(ctx, vector, r.topK)
	if err != nil {
		logger.Warn("Vector search failed: %v", err)
		return nil, fmt.Errorf("%w: %w", domain.ErrRetrievalUnavailable, err)
	}
	logger.Debug("Vector search: %d hits", len(hits))

	passages := make([]domain.RetrievedPassage, 0, len(hits))
	for _, hit := range hits {
		if hit.Position < 0 || hit.Position >= len(gen.Chunks) {
			return nil, fmt.Errorf("%w: hit position %d outside generation of %d chunks",
				domain.ErrIndexCorrupt, hit.Position, len(gen.Chunks))
		}
		chunk := gen.Chunks[hit.Position]
		if !chunk.Meta.Matches(opts.City, opts.IncidentType) {
			logger.Debug("Dropped %s: metadata filter (city=%q, incident_type=%q)",
				chunk.ID, chunk.Meta.City, chunk.Meta.IncidentType)
			continue
		}
		passages = append(passages, domain.RetrievedPassage{Chunk: chunk, Score: hit.Score})
	}

	logger.Info("Retrieved %d of %d passages", len(passages), len(hits))
	return passages, nil
}

// TopK returns the configured passage count.
func (r *Retriever) TopK() int {
	return r.topK
}
