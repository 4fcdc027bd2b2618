package domain

import "time"

// IndexGeneration describes one immutable build of the vector index.
// Exactly one generation is current at a time; answers snapshot it once
// at entry and old generations are reclaimed by the garbage collector
// when the last in-flight request drops its reference.
type IndexGeneration struct {
	// Number increases monotonically across rebuilds within a process
	// and across restarts via the persisted manifest.
	Number uint64 `json:"generation"`

	// BuiltAt is when the build completed.
	BuiltAt time.Time `json:"built_at"`

	// Model is the embedding model the vectors were produced with.
	// Vectors from different models are never mixed in one generation.
	Model string `json:"model"`

	// Dimensions is the vector dimensionality of the generation.
	Dimensions int `json:"dimensions"`

	// ChunkCount is the number of chunks (and vectors) in the build.
	ChunkCount int `json:"chunk_count"`
}

// SkippedDocument records a corpus document a rebuild left out and why.
type SkippedDocument struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// RebuildReport summarises one index rebuild.
type RebuildReport struct {
	Generation uint64 `json:"generation"`

	// Documents is the number of corpus documents chunked into the build.
	Documents int `json:"documents_processed"`

	// Chunks is the number of chunks embedded and indexed.
	Chunks int `json:"chunks_created"`

	// Skipped lists documents left out of the build with reasons.
	Skipped []SkippedDocument `json:"skipped,omitempty"`

	// Took is the wall-clock duration of the rebuild.
	Took time.Duration `json:"-"`
}

// Health status values.
const (
	HealthHealthy  = "healthy"
	HealthDegraded = "degraded"
)

// Health reports the serving state of the system.
type Health struct {
	// Status is HealthHealthy when queries can be answered,
	// HealthDegraded otherwise.
	Status string

	// Version is the build version string.
	Version string

	// IndexLoaded reports whether a generation is published.
	IndexLoaded bool

	// Generation is the current generation number, 0 when none.
	Generation uint64

	// GenerationAge is the time since the current generation was built.
	GenerationAge time.Duration

	// GeneratorConfigured reports whether a language model is wired.
	GeneratorConfigured bool
}
