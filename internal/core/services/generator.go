package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driven"
	"github.com/nyay-sahayak/nyay-core/internal/logger"
)

// generationState tracks a roadmap request through the generator.
// Terminal states are valid and failed.
type generationState string

const (
	statePending   generationState = "pending"
	stateGenerated generationState = "generated"
	stateValid     generationState = "valid"
	stateRepairing generationState = "repairing"
	stateFailed    generationState = "failed"
)

// defaultRepairPrompt is appended to the original prompt for the
// single repair attempt. Placeholders, in order: the schema problems
// found, the previous model output.
const defaultRepairPrompt = `Your previous response could not be used as a legal roadmap. Problems found:
%s

Your previous response:
%s

Produce the JSON object again with the exact keys crime_type, immediate_actions, fir_steps, evidence_to_preserve and relevant_laws, fixing every problem listed above. Every field must be non-empty.

Return ONLY the JSON object, no additional text or markdown formatting.`

// fencedJSON matches a JSON object inside a markdown code fence,
// with or without a language tag.
var fencedJSON = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// bareJSON matches the widest brace-delimited span in free text.
var bareJSON = regexp.MustCompile(`(?s)\{.*\}`)

// GeneratorConfig tunes retry and sampling behaviour.
type GeneratorConfig struct {
	// MaxRetries is the number of additional attempts after the first
	// call fails with a transient transport error.
	MaxRetries int
	// BackoffBase is the delay before the first retry. Each further
	// retry doubles the delay.
	BackoffBase time.Duration
	// BackoffCap bounds the per-retry delay.
	BackoffCap time.Duration
	// MaxTokens and Temperature are passed through to the model.
	MaxTokens   int
	Temperature float64
}

// DefaultGeneratorConfig returns the production retry and sampling
// settings.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		MaxRetries:  3,
		BackoffBase: time.Second,
		BackoffCap:  30 * time.Second,
		MaxTokens:   2048,
		Temperature: 0.2,
	}
}

// Generator turns a composed prompt into a validated roadmap. Model
// output that fails validation gets exactly one repair attempt
// carrying the malformed output and the violations back to the model.
// Transient transport failures are retried with exponential backoff;
// every other model error fails the request immediately.
type Generator struct {
	llm         driven.LLMService
	promptStore driven.PromptStore
	cfg         GeneratorConfig
}

// NewGenerator creates a generator over llm, which may be nil when no
// generation backend is configured.
func NewGenerator(llm driven.LLMService, cfg GeneratorConfig) *Generator {
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.BackoffBase <= 0 {
		cfg.BackoffBase = time.Second
	}
	if cfg.BackoffCap < cfg.BackoffBase {
		cfg.BackoffCap = cfg.BackoffBase
	}
	return &Generator{llm: llm, cfg: cfg}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
// If not set, the embedded default repair template is used.
func (g *Generator) SetPromptStore(store driven.PromptStore) {
	g.promptStore = store
}

// Configured reports whether a generation backend is wired in.
func (g *Generator) Configured() bool {
	return g.llm != nil
}

// Generate sends the prompt to the model and parses the reply into a
// roadmap. Unreachable or persistently failing backends surface as
// ErrGenerationUnavailable; output that still violates the schema
// after the repair attempt surfaces as ErrSchemaViolation.
func (g *Generator) Generate(ctx context.Context, prompt string) (domain.Roadmap, error) {
	logger.Section("Roadmap Generation")
	logger.Debug("State: %s", statePending)

	if g.llm == nil {
		return domain.Roadmap{}, fmt.Errorf("%w: no generation backend configured", domain.ErrGenerationUnavailable)
	}

	raw, err := g.callWithRetry(ctx, prompt)
	if err != nil {
		logger.Debug("State: %s", stateFailed)
		return domain.Roadmap{}, err
	}
	logger.Debug("State: %s (%d bytes)", stateGenerated, len(raw))

	roadmap, violations := parseRoadmap(raw)
	if len(violations) == 0 {
		logger.Debug("State: %s", stateValid)
		return roadmap, nil
	}

	logger.Debug("State: %s", stateRepairing)
	logger.Warn("Schema violations, attempting repair: %s", strings.Join(violations, "; "))

	repairTemplate := g.loadPrompt(driven.PromptRoadmapRepair, defaultRepairPrompt)
	repairPrompt := prompt + "\n\n" + fmt.Sprintf(repairTemplate, bulletList(violations), raw)

	raw, err = g.callWithRetry(ctx, repairPrompt)
	if err != nil {
		logger.Debug("State: %s", stateFailed)
		return domain.Roadmap{}, err
	}

	roadmap, violations = parseRoadmap(raw)
	if len(violations) > 0 {
		logger.Debug("State: %s", stateFailed)
		logger.Warn("Repair attempt still violates schema: %s", strings.Join(violations, "; "))
		return domain.Roadmap{}, fmt.Errorf("%w: %s", domain.ErrSchemaViolation, strings.Join(violations, "; "))
	}

	logger.Debug("State: %s (after repair)", stateValid)
	return roadmap, nil
}

// callWithRetry performs one model call, retrying transient transport
// failures with exponential backoff up to MaxRetries extra attempts.
func (g *Generator) callWithRetry(ctx context.Context, prompt string) (string, error) {
	opts := driven.GenerateOptions{
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	}

	var lastErr error
	for attempt := 0; attempt <= g.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := g.cfg.BackoffBase << (attempt - 1)
			if delay <= 0 || delay > g.cfg.BackoffCap {
				delay = g.cfg.BackoffCap
			}
			logger.Debug("Retry %d/%d in %s", attempt, g.cfg.MaxRetries, delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return "", fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, ctx.Err())
			}
		}

		raw, err := g.llm.Generate(ctx, prompt, opts)
		if err == nil {
			return raw, nil
		}
		lastErr = err

		if !errors.Is(err, domain.ErrTransport) {
			return "", fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
		}
		logger.Warn("Generation attempt %d/%d failed: %v", attempt+1, g.cfg.MaxRetries+1, err)
	}

	return "", fmt.Errorf("%w: %d attempts exhausted: %w",
		domain.ErrGenerationUnavailable, g.cfg.MaxRetries+1, lastErr)
}

// loadPrompt returns the named prompt from the store, falling back to
// the embedded default when no store is set or the load fails.
func (g *Generator) loadPrompt(name, fallback string) string {
	if g.promptStore == nil {
		return fallback
	}
	prompt, err := g.promptStore.Load(name)
	if err != nil {
		logger.Warn("Prompt %q unavailable, using default: %v", name, err)
		return fallback
	}
	return prompt
}

// parseRoadmap extracts the JSON object from raw model output,
// normalises it and validates it. A nil violation slice means the
// roadmap is usable.
func parseRoadmap(raw string) (domain.Roadmap, []string) {
	payload, ok := extractJSON(raw)
	if !ok {
		return domain.Roadmap{}, []string{"response contains no JSON object"}
	}

	var roadmap domain.Roadmap
	if err := json.Unmarshal([]byte(payload), &roadmap); err != nil {
		return domain.Roadmap{}, []string{fmt.Sprintf("response is not valid JSON: %v", err)}
	}

	roadmap = roadmap.Normalize()
	if violations := roadmap.Validate(); len(violations) > 0 {
		return roadmap, violations
	}
	return roadmap, nil
}

// extractJSON pulls a JSON object out of model output, preferring a
// fenced code block over a bare brace span.
func extractJSON(raw string) (string, bool) {
	if m := fencedJSON.FindStringSubmatch(raw); m != nil {
		return m[1], true
	}
	if m := bareJSON.FindString(raw); m != "" {
		return m, true
	}
	return "", false
}

// bulletList renders violations one per line for the repair prompt.
func bulletList(items []string) string {
	lines := make([]string, len(items))
	for i, item := range items {
		lines[i] = "- " + item
	}
	return strings.Join(lines, "\n")
}
