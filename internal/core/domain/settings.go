package domain

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or generation.
type AIProvider string

// Available AI providers.
const (
	// AIProviderGemini is the Google Gemini cloud API.
	AIProviderGemini AIProvider = "gemini"

	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderLocal is an in-process ONNX sentence-transformer model.
	// Embeddings only.
	AIProviderLocal AIProvider = "local"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderGemini, AIProviderOllama, AIProviderLocal:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderGemini
}

// IsLocal returns true if this provider runs on the local machine.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderLocal
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderGemini:
		return "Gemini (cloud)"
	case AIProviderOllama:
		return "Ollama (local server)"
	case AIProviderLocal:
		return "Local (in-process ONNX)"
	default:
		return unknownDescription
	}
}

// CorpusSettings holds knowledge-source corpus configuration.
type CorpusSettings struct {
	// Dir is the directory containing the knowledge-source files.
	Dir string

	// Watch enables the directory watcher that triggers automatic
	// rebuilds when corpus files change.
	Watch bool
}

// IndexSettings holds index persistence configuration.
type IndexSettings struct {
	// Dir is the directory the index files are written to.
	Dir string
}

// ChunkingSettings holds document chunking configuration.
type ChunkingSettings struct {
	// SizeWords is the chunk window size in words.
	SizeWords int

	// OverlapWords is the overlap between adjacent chunks in words.
	// Must be smaller than SizeWords.
	OverlapWords int
}

// RetrievalSettings holds retrieval configuration.
type RetrievalSettings struct {
	// TopK is the number of passages retrieved per query.
	TopK int
}

// EmbeddingSettings holds embedding provider configuration.
// API keys are never stored here; they come from the environment.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name.
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// ModelDir is where local model files live (for the local provider).
	ModelDir string
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	return e.Provider.IsValid() && e.Model != ""
}

// EmbeddingDimensions returns the native vector size of known embedding
// models. Models not listed use the provider adapter's default. Vectors
// from different models are never mixed within one index generation, so
// the size recorded here must match what the model actually returns.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Local ONNX models
		"sentence-transformers/all-MiniLM-L6-v2": 384,
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// Gemini models
		"text-embedding-004": 768,
		"embedding-001":      768,
	}
}

// LLMSettings holds generation provider configuration.
// API keys are never stored here; they come from the environment.
type LLMSettings struct {
	// Provider is the generation service provider.
	Provider AIProvider

	// Model is the generation model name.
	Model string

	// BaseURL is the API endpoint (for Ollama, or a Gemini proxy).
	BaseURL string

	// MaxTokens caps the generated output length. Zero uses the
	// provider default.
	MaxTokens int

	// Temperature controls randomness. Zero uses the provider default.
	Temperature float64
}

// IsConfigured returns true if the generation provider is set up.
// The local provider cannot generate.
func (l LLMSettings) IsConfigured() bool {
	return l.Provider.IsValid() && l.Provider != AIProviderLocal && l.Model != ""
}

// ServerSettings holds HTTP server configuration.
type ServerSettings struct {
	// Host is the listen address.
	Host string

	// Port is the listen port.
	Port int
}

// SMTPSettings holds outbound email configuration.
// The password is never stored here; it comes from the environment.
type SMTPSettings struct {
	// Host is the SMTP server host.
	Host string

	// Port is the SMTP server port (STARTTLS).
	Port int

	// Username authenticates against the server.
	Username string

	// FromAddress is the sender address. Defaults to Username.
	FromAddress string

	// FromName is the sender display name.
	FromName string
}

// IsConfigured returns true if mail delivery is set up.
func (s SMTPSettings) IsConfigured() bool {
	return s.Host != "" && s.Username != ""
}

// From returns the effective sender address.
func (s SMTPSettings) From() string {
	if s.FromAddress != "" {
		return s.FromAddress
	}
	return s.Username
}

// AppSettings holds all application settings.
type AppSettings struct {
	// Corpus holds knowledge-source settings.
	Corpus CorpusSettings

	// Index holds index persistence settings.
	Index IndexSettings

	// Chunking holds document chunking settings.
	Chunking ChunkingSettings

	// Retrieval holds retrieval settings.
	Retrieval RetrievalSettings

	// Embedding holds embedding provider settings.
	Embedding EmbeddingSettings

	// LLM holds generation provider settings.
	LLM LLMSettings

	// Server holds HTTP server settings.
	Server ServerSettings

	// SMTP holds outbound email settings.
	SMTP SMTPSettings
}

// DefaultAppSettings returns settings with sensible defaults: the
// in-process MiniLM embedder and Gemini generation, chunking at 450
// words with an 80 word overlap, and three passages per query.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Corpus: CorpusSettings{
			Dir:   "data/legal_knowledge",
			Watch: false,
		},
		Index: IndexSettings{
			Dir: "index",
		},
		Chunking: ChunkingSettings{
			SizeWords:    450,
			OverlapWords: 80,
		},
		Retrieval: RetrievalSettings{
			TopK: 3,
		},
		Embedding: EmbeddingSettings{
			Provider: AIProviderLocal,
			Model:    "sentence-transformers/all-MiniLM-L6-v2",
			ModelDir: "models",
		},
		LLM: LLMSettings{
			Provider:    AIProviderGemini,
			Model:       "gemini-1.5-pro",
			MaxTokens:   2048,
			Temperature: 0.2,
		},
		Server: ServerSettings{
			Host: "0.0.0.0",
			Port: 8080,
		},
		SMTP: SMTPSettings{
			Host:     "smtp.gmail.com",
			Port:     587,
			FromName: "Nyay Sahayak",
		},
	}
}
