package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driven"
	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driving"
	"github.com/nyay-sahayak/nyay-core/internal/logger"
)

// Ensure Indexer implements the interface.
var _ driving.IndexService = (*Indexer)(nil)

const (
	// embedBatchSize is the number of chunk texts sent per embedding
	// call during a rebuild.
	embedBatchSize = 32
	// embedParallelism bounds concurrent embedding batches.
	embedParallelism = 4
)

// Indexer builds index generations from the corpus and publishes them
// to the holder. At most one rebuild runs at a time; a failed rebuild
// leaves the live generation untouched.
type Indexer struct {
	corpus   driven.CorpusLoader
	chunker  driven.Chunker
	embedder driven.EmbeddingService
	factory  driven.IndexFactory
	store    driven.GenerationStore
	holder   *GenerationHolder

	mu sync.Mutex
}

// NewIndexer creates an indexer. All parameters are required.
func NewIndexer(
	corpus driven.CorpusLoader,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	factory driven.IndexFactory,
	store driven.GenerationStore,
	holder *GenerationHolder,
) *Indexer {
	return &Indexer{
		corpus:   corpus,
		chunker:  chunker,
		embedder: embedder,
		factory:  factory,
		store:    store,
		holder:   holder,
	}
}

// Rebuild loads the corpus, chunks and embeds it, builds a fresh
// index generation, persists it and atomically publishes it. Returns
// ErrRebuildInProgress when another rebuild holds the lock. Answers
// keep reading the previous generation until the swap.
func (s *Indexer) Rebuild(ctx context.Context) (domain.RebuildReport, error) {
	if !s.mu.TryLock() {
		return domain.RebuildReport{}, domain.ErrRebuildInProgress
	}
	defer s.mu.Unlock()

	started := time.Now()
	logger.Section("Index Rebuild")

	docs, err := s.corpus.Load(ctx)
	if err != nil {
		return domain.RebuildReport{}, fmt.Errorf("rebuild: load corpus: %w", err)
	}
	logger.Info("Corpus: %d documents", len(docs))

	var chunks []domain.Chunk
	var skipped []domain.SkippedDocument
	for _, doc := range docs {
		cs, err := s.chunker.Process(ctx, doc)
		if err != nil {
			if errors.Is(err, domain.ErrMalformedDocument) {
				logger.Warn("Skipping %s: %v", doc.Name, err)
				skipped = append(skipped, domain.SkippedDocument{Name: doc.Name, Reason: err.Error()})
				continue
			}
			return domain.RebuildReport{}, fmt.Errorf("rebuild: chunk %s: %w", doc.Name, err)
		}
		if len(cs) == 0 {
			logger.Warn("Skipping %s: document has no text", doc.Name)
			skipped = append(skipped, domain.SkippedDocument{Name: doc.Name, Reason: "document has no text"})
			continue
		}
		chunks = append(chunks, cs...)
	}
	logger.Info("Chunking: %d chunks from %d documents (%d skipped)",
		len(chunks), len(docs)-len(skipped), len(skipped))

	if len(chunks) == 0 {
		return domain.RebuildReport{}, fmt.Errorf("%w: %d documents yielded no chunks",
			domain.ErrCorpusEmpty, len(docs))
	}

	vectors, err := s.embedChunks(ctx, chunks)
	if err != nil {
		return domain.RebuildReport{}, fmt.Errorf("rebuild: %w", err)
	}

	index, err := s.factory.Build(vectors)
	if err != nil {
		return domain.RebuildReport{}, fmt.Errorf("rebuild: build index: %w", err)
	}

	info := domain.IndexGeneration{
		Number:     s.nextNumber(),
		BuiltAt:    time.Now().UTC(),
		Model:      s.embedder.ModelName(),
		Dimensions: index.Dimensions(),
		ChunkCount: len(chunks),
	}

	// Persist before publishing so a crash between the two never
	// leaves disk ahead of memory.
	if err := s.store.Save(ctx, info, index, chunks); err != nil {
		return domain.RebuildReport{}, fmt.Errorf("rebuild: persist generation: %w", err)
	}

	s.holder.Publish(&Generation{Info: info, Index: index, Chunks: chunks})

	report := domain.RebuildReport{
		Generation: info.Number,
		Documents:  len(docs) - len(skipped),
		Chunks:     len(chunks),
		Skipped:    skipped,
		Took:       time.Since(started),
	}
	logger.Info("Generation %d live: %d chunks in %s",
		info.Number, len(chunks), report.Took.Round(time.Millisecond))
	return report, nil
}

// Bootstrap restores the most recent persisted generation and
// publishes it. Returns fs.ErrNotExist (wrapped) when nothing has
// been persisted yet.
func (s *Indexer) Bootstrap(ctx context.Context) (domain.IndexGeneration, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Section("Index Bootstrap")

	info, index, chunks, err := s.store.Load(ctx)
	if err != nil {
		return domain.IndexGeneration{}, fmt.Errorf("bootstrap: %w", err)
	}

	s.holder.Publish(&Generation{Info: info, Index: index, Chunks: chunks})
	logger.Info("Restored generation %d: %d chunks, model %s",
		info.Number, info.ChunkCount, info.Model)
	return info, nil
}

// Current returns the live generation descriptor, if any.
func (s *Indexer) Current() (domain.IndexGeneration, bool) {
	gen := s.holder.Current()
	if gen == nil {
		return domain.IndexGeneration{}, false
	}
	return gen.Info, true
}

// embedChunks embeds chunk texts in bounded-parallel batches. The
// returned slice is aligned with chunks: vectors[i] embeds chunks[i].
func (s *Indexer) embedChunks(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	logger.Debug("Embedding %d chunks (batch=%d, parallel=%d)",
		len(chunks), embedBatchSize, embedParallelism)

	vectors := make([][]float32, len(chunks))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(embedParallelism)

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		g.Go(func() error {
			texts := make([]string, end-start)
			for i, chunk := range chunks[start:end] {
				texts[i] = chunk.Text
			}
			batch, err := s.embedder.EmbedBatch(ctx, texts)
			if err != nil {
				return fmt.Errorf("%w: batch at %d: %w", domain.ErrEmbeddingUnavailable, start, err)
			}
			if len(batch) != len(texts) {
				return fmt.Errorf("%w: batch at %d returned %d vectors for %d texts",
					domain.ErrEmbeddingUnavailable, start, len(batch), len(texts))
			}
			copy(vectors[start:end], batch)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// nextNumber allocates the next generation number, continuing from
// whatever generation is live (including one restored from disk).
func (s *Indexer) nextNumber() uint64 {
	if cur := s.holder.Current(); cur != nil {
		return cur.Info.Number + 1
	}
	return 1
}
