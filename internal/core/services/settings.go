package services

import (
	"fmt"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driven"
	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage. API keys and SMTP passwords are
// deliberately absent: secrets are read from the environment and
// never persisted.
const (
	keyCorpusDir       = "corpus.dir"
	keyCorpusWatch     = "corpus.watch"
	keyIndexDir        = "index.dir"
	keyChunkSize       = "chunking.size_words"
	keyChunkOverlap    = "chunking.overlap_words"
	keyTopK            = "retrieval.top_k"
	keyEmbedProvider   = "embedding.provider"
	keyEmbedModel      = "embedding.model"
	keyEmbedBaseURL    = "embedding.base_url"
	keyEmbedModelDir   = "embedding.model_dir"
	keyLLMProvider     = "llm.provider"
	keyLLMModel        = "llm.model"
	keyLLMBaseURL      = "llm.base_url"
	keyLLMMaxTokens    = "llm.max_tokens"
	keyLLMTemperature  = "llm.temperature"
	keyServerHost      = "server.host"
	keyServerPort      = "server.port"
	keySMTPHost        = "smtp.host"
	keySMTPPort        = "smtp.port"
	keySMTPUsername    = "smtp.username"
	keySMTPFromAddress = "smtp.from_address"
	keySMTPFromName    = "smtp.from_name"
)

// SettingsService manages application settings.
type SettingsService struct {
	configStore driven.ConfigStore
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore) *SettingsService {
	return &SettingsService{configStore: configStore}
}

// Get retrieves current application settings, merging stored values
// over the defaults.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	defaults := domain.DefaultAppSettings()

	settings := &domain.AppSettings{
		Corpus: domain.CorpusSettings{
			Dir:   s.getString(keyCorpusDir, defaults.Corpus.Dir),
			Watch: s.getBool(keyCorpusWatch, defaults.Corpus.Watch),
		},
		Index: domain.IndexSettings{
			Dir: s.getString(keyIndexDir, defaults.Index.Dir),
		},
		Chunking: domain.ChunkingSettings{
			SizeWords:    s.getInt(keyChunkSize, defaults.Chunking.SizeWords),
			OverlapWords: s.getInt(keyChunkOverlap, defaults.Chunking.OverlapWords),
		},
		Retrieval: domain.RetrievalSettings{
			TopK: s.getInt(keyTopK, defaults.Retrieval.TopK),
		},
		Embedding: domain.EmbeddingSettings{
			Provider: s.getProvider(keyEmbedProvider, defaults.Embedding.Provider),
			Model:    s.getString(keyEmbedModel, defaults.Embedding.Model),
			BaseURL:  s.configStore.GetString(keyEmbedBaseURL), // No default - empty is valid for cloud providers
			ModelDir: s.getString(keyEmbedModelDir, defaults.Embedding.ModelDir),
		},
		LLM: domain.LLMSettings{
			Provider:    s.getProvider(keyLLMProvider, defaults.LLM.Provider),
			Model:       s.getString(keyLLMModel, defaults.LLM.Model),
			BaseURL:     s.configStore.GetString(keyLLMBaseURL), // No default - empty is valid for cloud providers
			MaxTokens:   s.getInt(keyLLMMaxTokens, defaults.LLM.MaxTokens),
			Temperature: s.getFloat(keyLLMTemperature, defaults.LLM.Temperature),
		},
		Server: domain.ServerSettings{
			Host: s.getString(keyServerHost, defaults.Server.Host),
			Port: s.getInt(keyServerPort, defaults.Server.Port),
		},
		SMTP: domain.SMTPSettings{
			Host:        s.getString(keySMTPHost, defaults.SMTP.Host),
			Port:        s.getInt(keySMTPPort, defaults.SMTP.Port),
			Username:    s.configStore.GetString(keySMTPUsername),
			FromAddress: s.configStore.GetString(keySMTPFromAddress),
			FromName:    s.getString(keySMTPFromName, defaults.SMTP.FromName),
		},
	}

	return settings, nil
}

// Save persists application settings.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	if err := s.configStore.Set(keyCorpusDir, settings.Corpus.Dir); err != nil {
		return fmt.Errorf("save corpus dir: %w", err)
	}
	if err := s.configStore.Set(keyCorpusWatch, settings.Corpus.Watch); err != nil {
		return fmt.Errorf("save corpus watch: %w", err)
	}
	if err := s.configStore.Set(keyIndexDir, settings.Index.Dir); err != nil {
		return fmt.Errorf("save index dir: %w", err)
	}

	if err := s.configStore.Set(keyChunkSize, settings.Chunking.SizeWords); err != nil {
		return fmt.Errorf("save chunk size: %w", err)
	}
	if err := s.configStore.Set(keyChunkOverlap, settings.Chunking.OverlapWords); err != nil {
		return fmt.Errorf("save chunk overlap: %w", err)
	}
	if err := s.configStore.Set(keyTopK, settings.Retrieval.TopK); err != nil {
		return fmt.Errorf("save top_k: %w", err)
	}

	if err := s.configStore.Set(keyEmbedProvider, settings.Embedding.Provider.String()); err != nil {
		return fmt.Errorf("save embedding provider: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModel, settings.Embedding.Model); err != nil {
		return fmt.Errorf("save embedding model: %w", err)
	}
	if err := s.configStore.Set(keyEmbedBaseURL, settings.Embedding.BaseURL); err != nil {
		return fmt.Errorf("save embedding base_url: %w", err)
	}
	if err := s.configStore.Set(keyEmbedModelDir, settings.Embedding.ModelDir); err != nil {
		return fmt.Errorf("save embedding model_dir: %w", err)
	}

	if err := s.configStore.Set(keyLLMProvider, settings.LLM.Provider.String()); err != nil {
		return fmt.Errorf("save llm provider: %w", err)
	}
	if err := s.configStore.Set(keyLLMModel, settings.LLM.Model); err != nil {
		return fmt.Errorf("save llm model: %w", err)
	}
	if err := s.configStore.Set(keyLLMBaseURL, settings.LLM.BaseURL); err != nil {
		return fmt.Errorf("save llm base_url: %w", err)
	}
	if err := s.configStore.Set(keyLLMMaxTokens, settings.LLM.MaxTokens); err != nil {
		return fmt.Errorf("save llm max_tokens: %w", err)
	}
	if err := s.configStore.Set(keyLLMTemperature, settings.LLM.Temperature); err != nil {
		return fmt.Errorf("save llm temperature: %w", err)
	}

	if err := s.configStore.Set(keyServerHost, settings.Server.Host); err != nil {
		return fmt.Errorf("save server host: %w", err)
	}
	if err := s.configStore.Set(keyServerPort, settings.Server.Port); err != nil {
		return fmt.Errorf("save server port: %w", err)
	}

	if err := s.configStore.Set(keySMTPHost, settings.SMTP.Host); err != nil {
		return fmt.Errorf("save smtp host: %w", err)
	}
	if err := s.configStore.Set(keySMTPPort, settings.SMTP.Port); err != nil {
		return fmt.Errorf("save smtp port: %w", err)
	}
	if err := s.configStore.Set(keySMTPUsername, settings.SMTP.Username); err != nil {
		return fmt.Errorf("save smtp username: %w", err)
	}
	if err := s.configStore.Set(keySMTPFromAddress, settings.SMTP.FromAddress); err != nil {
		return fmt.Errorf("save smtp from_address: %w", err)
	}
	if err := s.configStore.Set(keySMTPFromName, settings.SMTP.FromName); err != nil {
		return fmt.Errorf("save smtp from_name: %w", err)
	}

	return nil
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
