package services

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driving"
	"github.com/nyay-sahayak/nyay-core/internal/logger"
)

// Ensure RoadmapService implements the interface.
var _ driving.RoadmapService = (*RoadmapService)(nil)

// Query length bounds in runes. Queries outside these bounds are
// rejected before any model call.
const (
	QueryMinLength = 10
	QueryMaxLength = 2000
)

// RoadmapService answers incident descriptions with structured legal
// roadmaps by running retrieval, prompt composition and generation in
// sequence.
type RoadmapService struct {
	retriever *Retriever
	composer  *Composer
	generator *Generator
	holder    *GenerationHolder
	version   string
}

// NewRoadmapService creates the roadmap pipeline service.
func NewRoadmapService(
	retriever *Retriever,
	composer *Composer,
	generator *Generator,
	holder *GenerationHolder,
	version string,
) *RoadmapService {
	return &RoadmapService{
		retriever: retriever,
		composer:  composer,
		generator: generator,
		holder:    holder,
		version:   version,
	}
}

// Answer turns a free-text incident description into a validated
// roadmap. Filters in opts narrow retrieval but never widen it; a
// fully filtered-out result set still proceeds to generation with an
// empty legal context.
func (s *RoadmapService) Answer(ctx context.Context, query string, opts domain.AnswerOptions) (domain.Roadmap, error) {
	if err := validateQuery(query); err != nil {
		return domain.Roadmap{}, err
	}

	passages, err := s.retriever.Retrieve(ctx, query, opts)
	if err != nil {
		return domain.Roadmap{}, fmt.Errorf("answer: %w", err)
	}

	prompt, dropped := s.composer.Compose(query, passages, opts)
	if dropped > 0 {
		logger.Info("Prompt budget dropped %d passage(s)", dropped)
	}

	roadmap, err := s.generator.Generate(ctx, prompt)
	if err != nil {
		return domain.Roadmap{}, fmt.Errorf("answer: %w", err)
	}

	logger.Info("Roadmap: %q with %d actions, %d FIR steps, %d evidence items, %d laws",
		roadmap.CrimeType,
		len(roadmap.ImmediateActions),
		len(roadmap.FIRSteps),
		len(roadmap.EvidenceToPreserve),
		len(roadmap.RelevantLaws))

	return roadmap, nil
}

// Health reports liveness of the answer pipeline. The service is
// healthy once an index generation is loaded; a missing generation
// backend is reported separately rather than degrading the status.
func (s *RoadmapService) Health() domain.Health {
	health := domain.Health{
		Status:              domain.HealthDegraded,
		Version:             s.version,
		GeneratorConfigured: s.generator.Configured(),
	}

	if gen := s.holder.Current(); gen != nil {
		health.Status = domain.HealthHealthy
		health.IndexLoaded = true
		health.Generation = gen.Info.Number
		if !gen.Info.BuiltAt.IsZero() {
			health.GenerationAge = time.Since(gen.Info.BuiltAt)
		}
	}

	return health
}

// validateQuery enforces the query length bounds.
func validateQuery(query string) error {
	length := utf8.RuneCountInString(query)
	if length < QueryMinLength {
		return fmt.Errorf("%w: query must be at least %d characters, got %d",
			domain.ErrInvalidQuery, QueryMinLength, length)
	}
	if length > QueryMaxLength {
		return fmt.Errorf("%w: query must be at most %d characters, got %d",
			domain.ErrInvalidQuery, QueryMaxLength, length)
	}
	return nil
}
