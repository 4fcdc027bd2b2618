// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"os"
	"time"

	geminiembed "github.com/nyay-sahayak/nyay-core/internal/adapters/driven/embedding/gemini"
	localembed "github.com/nyay-sahayak/nyay-core/internal/adapters/driven/embedding/local"
	ollamaembed "github.com/nyay-sahayak/nyay-core/internal/adapters/driven/embedding/ollama"
	geminillm "github.com/nyay-sahayak/nyay-core/internal/adapters/driven/llm/gemini"
	ollamallm "github.com/nyay-sahayak/nyay-core/internal/adapters/driven/llm/ollama"
	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// EnvGoogleAPIKey is the environment variable holding the Gemini API key.
// Keys are never read from the settings store.
const EnvGoogleAPIKey = "GOOGLE_API_KEY"

// InitResult contains the result of AI service initialisation.
type InitResult struct {
	EmbeddingService driven.EmbeddingService
	LLMService       driven.LLMService // Nil when generation is disabled.
	Warnings         []string          // Non-fatal issues that degraded the setup.
}

// Close releases all resources held by InitResult.
func (r *InitResult) Close() {
	if r.EmbeddingService != nil {
		r.EmbeddingService.Close()
	}
	if r.LLMService != nil {
		r.LLMService.Close()
	}
}

// Initialize creates and validates the AI services from settings.
//
// The embedding service is required: without one neither queries nor
// rebuilds can work, so any failure is an error. The LLM is optional: a
// missing key or unreachable provider becomes a warning, the service
// runs without a generator, and queries fail with a typed error until
// it is configured.
func Initialize(ctx context.Context, settings *domain.AppSettings) (*InitResult, error) {
	embedder, err := CreateAndValidateEmbeddingService(ctx, &settings.Embedding)
	if err != nil {
		return nil, err
	}
	if embedder == nil {
		return nil, fmt.Errorf("%w: no embedding provider configured", domain.ErrEmbeddingUnavailable)
	}

	result := &InitResult{EmbeddingService: embedder}

	llm, err := CreateAndValidateLLMService(ctx, &settings.LLM)
	if err != nil {
		result.Warnings = append(result.Warnings, fmt.Sprintf("generation disabled: %v", err))
		return result, nil
	}
	result.LLMService = llm
	return result, nil
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns nil without error when the provider is not configured.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateEmbeddingService(ctx, settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrEmbeddingUnavailable, err)
	}

	if svc == nil {
		return nil, nil
	}

	// Validate connectivity.
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// CreateAndValidateLLMService creates an LLM service and validates connectivity.
// Returns nil without error when the provider is not configured.
func CreateAndValidateLLMService(ctx context.Context, settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	svc, err := CreateLLMService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}

	if svc == nil {
		return nil, nil
	}

	// Validate connectivity.
	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(pingCtx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w)", domain.ErrGenerationUnavailable, err)
	}

	return svc, nil
}

// CreateEmbeddingService creates the appropriate embedding service based on settings.
// Returns nil if the provider is not configured.
func CreateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderLocal:
		return createLocalEmbedding(settings)

	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderGemini:
		return createGeminiEmbedding(ctx, settings)

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the appropriate LLM service based on settings.
// Returns nil if the provider is not configured.
func CreateLLMService(settings *domain.LLMSettings) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderGemini:
		return createGeminiLLM(settings)

	case domain.AIProviderOllama:
		return createOllamaLLM(settings), nil

	case domain.AIProviderLocal:
		// The local provider only embeds.
		return nil, fmt.Errorf("the local provider does not support generation, use gemini or ollama")

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// createLocalEmbedding creates an in-process ONNX embedding service.
func createLocalEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	return localembed.NewEmbeddingService(localembed.Config{
		Model:      settings.Model,
		ModelDir:   settings.ModelDir,
		Dimensions: domain.EmbeddingDimensions()[settings.Model],
	})
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	dimensions := domain.EmbeddingDimensions()[settings.Model]
	if dimensions == 0 {
		dimensions = ollamaembed.DefaultDimensions
	}

	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: dimensions,
	})
}

// createGeminiEmbedding creates a Gemini embedding service.
func createGeminiEmbedding(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	apiKey := os.Getenv(EnvGoogleAPIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%s is not set", EnvGoogleAPIKey)
	}

	return geminiembed.NewEmbeddingService(ctx, geminiembed.Config{
		APIKey:     apiKey,
		Model:      settings.Model,
		Dimensions: domain.EmbeddingDimensions()[settings.Model],
	})
}

// createGeminiLLM creates a Gemini LLM service.
func createGeminiLLM(settings *domain.LLMSettings) (driven.LLMService, error) {
	apiKey := os.Getenv(EnvGoogleAPIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%s is not set", EnvGoogleAPIKey)
	}

	return geminillm.NewLLMService(geminillm.Config{
		APIKey:  apiKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}

// createOllamaLLM creates an Ollama LLM service.
func createOllamaLLM(settings *domain.LLMSettings) driven.LLMService {
	return ollamallm.NewLLMService(ollamallm.Config{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
}
