package services

import (
	"fmt"
	"strings"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driven"
	"github.com/nyay-sahayak/nyay-core/internal/logger"
)

// DefaultPromptBudgetWords caps the assembled prompt size. The cap is
// generous for three 450-word passages plus instructions, so it only
// bites when operators raise top-k or chunk size.
const DefaultPromptBudgetWords = 4000

// defaultRoadmapPrompt is the fallback template when no PromptStore is
// configured. Placeholders, in order: situation context lines, the
// user situation, the retrieved legal context.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
const defaultRoadmapPrompt = `You are "Nyay Sahayak", an empathetic legal AI assistant helping Indian citizens take their first legal steps after a crime or incident.

Analyze the following user situation and the provided legal texts from Indian Penal Code (IPC) and Information Technology Act.

%s
User Situation:
%s

Relevant Legal Context:
%s

Based on the user's situation and the legal context provided, identify:
1. Crime/incident type
2. Immediate actions the user should take
3. FIR filing process (step-by-step)
4. Evidence to preserve
5. Relevant IPC/IT Act sections

Return strictly in valid JSON format with these exact keys:
{
  "crime_type": "<string>",
  "immediate_actions": ["<action1>", "<action2>", ...],
  "fir_steps": ["<step1>", "<step2>", ...],
  "evidence_to_preserve": ["<evidence1>", "<evidence2>", ...],
  "relevant_laws": ["<law1>", "<law2>", ...]
}

Important:
- Be specific and actionable
- Use Indian legal terminology
- Include relevant IPC sections (e.g., "IPC 420 – Cheating")
- Include IT Act sections if applicable (e.g., "IT Act 66D – Impersonation")
- Provide clear, step-by-step FIR filing instructions
- Focus on immediate actions the user can take right now

Return ONLY the JSON object, no additional text or markdown formatting.`

// passageSeparator sits between passages in the legal context block.
const passageSeparator = "\n\n---\n\n"

// Composer assembles generation prompts from ranked passages. Ranking
// order is preserved verbatim; when the assembled prompt exceeds the
// word budget, whole passages are dropped lowest-ranked first and the
// drop is reported, never silent.
type Composer struct {
	promptStore driven.PromptStore
	budgetWords int
}

// NewComposer creates a composer with the given word budget.
// Budgets below 1 fall back to DefaultPromptBudgetWords.
func NewComposer(budgetWords int) *Composer {
	if budgetWords < 1 {
		budgetWords = DefaultPromptBudgetWords
	}
	return &Composer{budgetWords: budgetWords}
}

// SetPromptStore sets the prompt store for loading customisable prompts.
// If not set, the embedded default template is used.
func (c *Composer) SetPromptStore(store driven.PromptStore) {
	c.promptStore = store
}

// Compose builds the generation prompt for query over the given
// passages and returns it together with the number of passages
// dropped to honour the word budget.
func (c *Composer) Compose(query string, passages []domain.RetrievedPassage, opts domain.AnswerOptions) (string, int) {
	logger.Section("Prompt Composition")
	logger.Debug("Passages: %d, budget: %d words", len(passages), c.budgetWords)

	template := c.loadPrompt(driven.PromptRoadmapSystem, defaultRoadmapPrompt)
	situation := situationLines(opts)

	keep := len(passages)
	prompt := c.assemble(template, situation, query, passages[:keep])
	for keep > 0 && countWords(prompt) > c.budgetWords {
		keep--
		prompt = c.assemble(template, situation, query, passages[:keep])
	}

	dropped := len(passages) - keep
	if dropped > 0 {
		logger.Warn("Dropped %d lowest-ranked passage(s) to fit %d-word budget", dropped, c.budgetWords)
	}
	logger.Debug("Prompt: %d words", countWords(prompt))

	return prompt, dropped
}

// assemble fills the template with the situation lines, the verbatim
// query and the passages in rank order.
func (c *Composer) assemble(template, situation, query string, passages []domain.RetrievedPassage) string {
	entries := make([]string, len(passages))
	for i, p := range passages {
		source := p.Chunk.Meta.SourceName
		if jurisdiction := strings.TrimSpace(p.Chunk.Meta.Jurisdiction); jurisdiction != "" {
			source = fmt.Sprintf("%s (%s)", source, jurisdiction)
		}
		entries[i] = fmt.Sprintf("Source: %s\nContent: %s", source, p.Chunk.Text)
	}
	return fmt.Sprintf(template, situation, query, strings.Join(entries, passageSeparator))
}

// loadPrompt returns the named prompt from the store, falling back to
// the embedded default when no store is set or the load fails.
func (c *Composer) loadPrompt(name, fallback string) string {
	if c.promptStore == nil {
		return fallback
	}
	prompt, err := c.promptStore.Load(name)
	if err != nil {
		logger.Warn("Prompt %q unavailable, using default: %v", name, err)
		return fallback
	}
	return prompt
}

// situationLines renders the optional scoping filters as prompt
// context. Empty options produce an empty string so the template
// collapses cleanly.
func situationLines(opts domain.AnswerOptions) string {
	var b strings.Builder
	if city := strings.TrimSpace(opts.City); city != "" {
		fmt.Fprintf(&b, "City: %s\n", city)
	}
	if incidentType := strings.TrimSpace(opts.IncidentType); incidentType != "" {
		fmt.Fprintf(&b, "Incident Type: %s\n", incidentType)
	}
	return b.String()
}

// countWords counts whitespace-separated words, matching the counting
// used by the chunker.
func countWords(s string) int {
	return len(strings.Fields(s))
}
