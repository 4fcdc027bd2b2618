package file

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driven"
)

// Ensure PromptStore implements the interface.
var _ driven.PromptStore = (*PromptStore)(nil)

// PromptStore loads LLM prompts from user-editable files on disk.
// Prompts are loaded from a configurable directory with fallback to embedded defaults.
//
// The store uses lazy initialisation - files are only created when first accessed,
// not in the constructor. This makes testing easier and avoids unexpected I/O.
type PromptStore struct {
	mu        sync.RWMutex
	promptDir string
	cache     map[string]string
	initOnce  sync.Once
	initErr   error
}

// defaultPrompts contains embedded default prompts.
// These are used when user files don't exist and as the initial content for
// new files. They must stay in step with the fallbacks compiled into the
// core services, which apply when no prompt store is wired at all.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultPrompts = map[string]string{
	driven.PromptRoadmapSystem: `You are "Nyay Sahayak", an empathetic legal AI assistant helping Indian citizens take their first legal steps after a crime or incident.

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

Return ONLY the JSON object, no additional text or markdown formatting.`,

	driven.PromptRoadmapRepair: `Your previous response could not be used as a legal roadmap. Problems found:
%s

Your previous response:
%s

Produce the JSON object again with the exact keys crime_type, immediate_actions, fir_steps, evidence_to_preserve and relevant_laws, fixing every problem listed above. Every field must be non-empty.

Return ONLY the JSON object, no additional text or markdown formatting.`,
}

// NewPromptStore creates a new file-based prompt store.
// If promptDir is empty, defaults to ~/.nyay/prompts/.
//
// The constructor does not perform any I/O - directory creation and
// file writes happen lazily on first Load() call.
func NewPromptStore(promptDir string) (*PromptStore, error) {
	if promptDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("get home directory: %w", err)
		}
		promptDir = filepath.Join(home, ".nyay", "prompts")
	}

	return &PromptStore{
		promptDir: promptDir,
		cache:     make(map[string]string),
	}, nil
}

// Load returns the prompt template for the given name.
// On first call, initialises the prompt directory and creates default files.
// Returns cached value if available, otherwise loads from file.
// Falls back to embedded default if file doesn't exist.
func (s *PromptStore) Load(name string) (string, error) {
	// Ensure directory and defaults exist (lazy init)
	s.initOnce.Do(s.initialise)
	if s.initErr != nil {
		// Fall back to embedded defaults if init failed
		if prompt, ok := defaultPrompts[name]; ok {
			return prompt, nil
		}
		return "", fmt.Errorf("prompt store init failed: %w", s.initErr)
	}

	// Check cache first (read lock)
	s.mu.RLock()
	if prompt, ok := s.cache[name]; ok {
		s.mu.RUnlock()
		return prompt, nil
	}
	s.mu.RUnlock()

	// Load from file (no lock held during I/O)
	prompt, err := s.loadFromFile(name)
	if err != nil {
		// Fall back to embedded default
		if defaultPrompt, ok := defaultPrompts[name]; ok {
			return defaultPrompt, nil
		}
		return "", fmt.Errorf("load prompt %q: %w", name, err)
	}

	// Cache the result (write lock)
	// Use double-check pattern to avoid overwriting concurrent loads
	s.mu.Lock()
	if _, ok := s.cache[name]; !ok {
		s.cache[name] = prompt
	} else {
		// Another goroutine loaded it first, use their value
		prompt = s.cache[name]
	}
	s.mu.Unlock()

	return prompt, nil
}

// Reload clears the prompt cache, forcing fresh loads from disk.
func (s *PromptStore) Reload() {
	s.mu.Lock()
	s.cache = make(map[string]string)
	s.mu.Unlock()
}

// Dir returns the prompt directory path.
func (s *PromptStore) Dir() string {
	return s.promptDir
}

// initialise creates the prompt directory and default files.
// Called once via sync.Once on first Load().
func (s *PromptStore) initialise() {
	// Create directory
	if err := os.MkdirAll(s.promptDir, 0700); err != nil {
		s.initErr = fmt.Errorf("create prompt directory: %w", err)
		return
	}

	// Create default prompt files (only if they don't exist)
	for name, content := range defaultPrompts {
		path := filepath.Join(s.promptDir, name+".txt")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			if err := os.WriteFile(path, []byte(content), 0600); err != nil {
				s.initErr = fmt.Errorf("create default prompt %q: %w", name, err)
				return
			}
		}
	}

	// Create README
	if err := s.createReadme(); err != nil {
		s.initErr = err
	}
}

// loadFromFile reads a prompt from disk.
func (s *PromptStore) loadFromFile(name string) (string, error) {
	path := filepath.Join(s.promptDir, name+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(data)), nil
}

// createReadme writes a README file explaining the prompts directory.
func (s *PromptStore) createReadme() error {
	path := filepath.Join(s.promptDir, "README.md")
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		return nil // Already exists or stat error (ignore)
	}

	content := `# Nyay Sahayak Prompts

This directory contains customisable prompts used for roadmap generation.

## Files

- ` + "`roadmap_system.txt`" + ` - Full generation template: persona, roadmap JSON schema, output rules
- ` + "`roadmap_repair.txt`" + ` - Asks the model to regenerate a malformed roadmap

## Customisation

Edit any file to customise model behaviour. Changes take effect on the next
command or after restarting the server.

## Format Placeholders

Both prompts use Go fmt ` + "`%s`" + ` placeholders:
- ` + "`roadmap_system.txt`" + ` expects three: situation context lines, the user situation, the retrieved legal context
- ` + "`roadmap_repair.txt`" + ` expects two: the problems found, the previous model output

Ensure customised prompts maintain placeholders in the correct positions.
`
	return os.WriteFile(path, []byte(content), 0600)
}
