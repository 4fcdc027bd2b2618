// Package chunker provides a fixed-size word-window chunking processor.
package chunker

import (
	"context"
	"fmt"
	"strings"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
)

// DefaultChunkSize is the default number of words per chunk.
const DefaultChunkSize = 450

// DefaultChunkOverlap is the default number of overlapping words.
const DefaultChunkOverlap = 80

// Processor splits document text into overlapping word windows.
// It implements the driven.Chunker interface.
type Processor struct {
	chunkSize int
	overlap   int
}

// Option configures the chunker processor.
type Option func(*Processor)

// WithChunkSize sets the chunk size in words.
func WithChunkSize(size int) Option {
	return func(p *Processor) {
		if size > 0 {
			p.chunkSize = size
		}
	}
}

// WithOverlap sets the overlap between chunks in words.
func WithOverlap(overlap int) Option {
	return func(p *Processor) {
		if overlap >= 0 {
			p.overlap = overlap
		}
	}
}

// New creates a new chunker processor with the given options.
func New(opts ...Option) *Processor {
	p := &Processor{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultChunkOverlap,
	}

	for _, opt := range opts {
		opt(p)
	}

	// Ensure overlap doesn't exceed chunk size
	if p.overlap >= p.chunkSize {
		p.overlap = p.chunkSize / 4
	}

	return p
}

// Name returns the processor name.
func (p *Processor) Name() string {
	return "chunker"
}

// Process splits the document text into overlapping word windows.
// Each chunk keeps the document's provenance metadata and carries the
// ID "{document}__chunk{position}". A document missing required headers
// fails with domain.ErrMalformedDocument; a document with no words
// produces no chunks and no error.
//
// A window that would start inside the final overlap region is fully
// contained in the previous chunk and is not emitted, so a document
// never ends in a near-duplicate fragment.
func (p *Processor) Process(ctx context.Context, doc domain.Document) ([]domain.Chunk, error) {
	if missing := doc.Meta.Validate(); len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s missing headers: %s",
			domain.ErrMalformedDocument, doc.Name, strings.Join(missing, ", "))
	}

	words := strings.Fields(doc.Text())
	if len(words) == 0 {
		// Empty text produces no chunks
		return nil, nil
	}

	step := p.chunkSize - p.overlap
	estimatedChunks := (len(words) / step) + 1
	chunks := make([]domain.Chunk, 0, estimatedChunks)

	position := 0
	for start := 0; start < len(words); start += step {
		if start > 0 && len(words)-start <= p.overlap {
			// The remaining words are already part of the previous chunk.
			break
		}

		end := start + p.chunkSize
		if end > len(words) {
			end = len(words)
		}

		chunks = append(chunks, domain.Chunk{
			ID:       domain.ChunkID(doc.Name, position),
			Document: doc.Name,
			Position: position,
			Text:     strings.Join(words[start:end], " "),
			Meta:     doc.Meta,
		})
		position++
	}

	return chunks, nil
}
