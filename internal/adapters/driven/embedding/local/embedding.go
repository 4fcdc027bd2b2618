// Package local provides an in-process embedding service running an
// ONNX sentence-transformer model through hugot. No external service
// is needed; the model is downloaded on first use.
package local

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/knights-analytics/hugot"
	"github.com/knights-analytics/hugot/pipelines"

	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driven"
	"github.com/nyay-sahayak/nyay-core/internal/logger"
)

// Ensure EmbeddingService implements the interface.
var _ driven.EmbeddingService = (*EmbeddingService)(nil)

// Default configuration values.
const (
	DefaultModel      = "sentence-transformers/all-MiniLM-L6-v2"
	DefaultModelDir   = "models"
	DefaultDimensions = 384 // all-MiniLM-L6-v2
)

// Config holds configuration for the local embedding service.
type Config struct {
	// Model is the Hugging Face model name (default: all-MiniLM-L6-v2).
	Model string

	// ModelDir is where model files are stored (default: models).
	ModelDir string

	// Dimensions is the embedding vector size (default: 384).
	Dimensions int
}

// EmbeddingService generates embeddings with an in-process ONNX model.
type EmbeddingService struct {
	session    *hugot.Session
	pipeline   *pipelines.FeatureExtractionPipeline
	model      string
	dimensions int

	// The pipeline is not safe for concurrent use; calls are serialised.
	mu sync.Mutex
}

// NewEmbeddingService loads the model and builds the inference
// pipeline. The model is downloaded into ModelDir when not present.
func NewEmbeddingService(cfg Config) (*EmbeddingService, error) {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.ModelDir == "" {
		cfg.ModelDir = DefaultModelDir
	}
	if cfg.Dimensions == 0 {
		cfg.Dimensions = DefaultDimensions
	}

	modelPath, err := prepareModel(cfg.ModelDir, cfg.Model)
	if err != nil {
		return nil, fmt.Errorf("local: prepare model: %w", err)
	}

	session, err := hugot.NewGoSession()
	if err != nil {
		return nil, fmt.Errorf("local: create session: %w", err)
	}

	pipeline, err := hugot.NewPipeline(session, hugot.FeatureExtractionConfig{
		ModelPath: modelPath,
		Name:      "embedder",
	})
	if err != nil {
		if destroyErr := session.Destroy(); destroyErr != nil {
			logger.Warn("Session cleanup failed: %v", destroyErr)
		}
		return nil, fmt.Errorf("local: create pipeline: %w", err)
	}

	return &EmbeddingService{
		session:    session,
		pipeline:   pipeline,
		model:      cfg.Model,
		dimensions: cfg.Dimensions,
	}, nil
}

// prepareModel ensures the model files exist locally and returns their
// path, downloading from Hugging Face when missing.
func prepareModel(modelDir, model string) (string, error) {
	modelPath := filepath.Join(modelDir, strings.ReplaceAll(model, "/", "_"))
	if _, err := os.Stat(modelPath); err == nil {
		return modelPath, nil
	}

	if err := os.MkdirAll(modelDir, 0750); err != nil {
		return "", fmt.Errorf("create model directory: %w", err)
	}

	logger.Info("Downloading embedding model %s to %s", model, modelDir)
	opts := hugot.NewDownloadOptions()
	opts.OnnxFilePath = "onnx/model.onnx"
	downloaded, err := hugot.DownloadModel(model, modelDir, opts)
	if err != nil {
		return "", fmt.Errorf("download model: %w", err)
	}
	return downloaded, nil
}

// Embed generates a vector embedding for the given text.
func (s *EmbeddingService) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := s.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in one pipeline
// run.
func (s *EmbeddingService) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	result, err := s.pipeline.RunPipeline(texts)
	s.mu.Unlock()
	if err != nil {
		return nil, fmt.Errorf("local: run pipeline: %w", err)
	}

	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("local: got %d embeddings for %d texts", len(result.Embeddings), len(texts))
	}
	return result.Embeddings, nil
}

// Dimensions returns the embedding vector size.
func (s *EmbeddingService) Dimensions() int {
	return s.dimensions
}

// ModelName returns the name of the embedding model being used.
func (s *EmbeddingService) ModelName() string {
	return s.model
}

// Ping runs a single tiny inference to verify the pipeline works.
func (s *EmbeddingService) Ping(ctx context.Context) error {
	if _, err := s.Embed(ctx, "ping"); err != nil {
		return fmt.Errorf("local: ping: %w", err)
	}
	return nil
}

// Close destroys the inference session and releases model memory.
func (s *EmbeddingService) Close() error {
	if s.session == nil {
		return nil
	}
	return s.session.Destroy()
}
