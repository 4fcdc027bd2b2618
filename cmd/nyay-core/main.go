package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/nyay-sahayak/nyay-core/internal/adapters/driven/ai"
	configfile "github.com/nyay-sahayak/nyay-core/internal/adapters/driven/config/file"
	"github.com/nyay-sahayak/nyay-core/internal/adapters/driven/corpus/filesystem"
	"github.com/nyay-sahayak/nyay-core/internal/adapters/driven/index/flat"
	smtpmail "github.com/nyay-sahayak/nyay-core/internal/adapters/driven/mail/smtp"
	storagefile "github.com/nyay-sahayak/nyay-core/internal/adapters/driven/storage/file"
	"github.com/nyay-sahayak/nyay-core/internal/adapters/driving/cli"
	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driven"
	"github.com/nyay-sahayak/nyay-core/internal/core/services"
	"github.com/nyay-sahayak/nyay-core/internal/logger"
	"github.com/nyay-sahayak/nyay-core/internal/postprocessors/chunker"
)

// version is injected at build time via -ldflags.
var version = "dev"

// Environment variables for secrets. Secrets never live in the
// settings store.
const (
	envSMTPUsername = "SMTP_USERNAME"
	envSMTPPassword = "SMTP_PASSWORD"
)

func main() {
	// Load .env when present; a missing file is fine.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.SetVersion(version)

	configStore, err := configfile.NewConfigStore("")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: config store: %v\n", err)
		os.Exit(1)
	}
	settingsService := services.NewSettingsService(configStore)

	settings, err := settingsService.Get()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: load settings: %v\n", err)
		os.Exit(1)
	}

	// Wire the pipeline services. A failed wiring leaves the pipeline
	// services nil so the version command keeps working; serve, query
	// and rebuild fail with a clear message instead.
	roadmaps, index, fir, cleanup, err := wireServices(ctx, settings)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		cli.SetServices(nil, nil, nil, settingsService)
	} else {
		defer cleanup()
		cli.SetServices(roadmaps, index, fir, settingsService)
	}

	if err := cli.Execute(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// wireServices builds the driven adapters and core services from
// settings. The embedding service is required; the generator and the
// mailer degrade to disabled when unconfigured.
func wireServices(ctx context.Context, settings *domain.AppSettings) (
	*services.RoadmapService,
	*services.Indexer,
	*services.FIRService,
	func(),
	error,
) {
	aiResult, err := ai.Initialize(ctx, settings)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("AI services unavailable: %w", err)
	}
	for _, warning := range aiResult.Warnings {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", warning)
	}

	promptStore, err := configfile.NewPromptStore("")
	if err != nil {
		aiResult.Close()
		return nil, nil, nil, nil, fmt.Errorf("prompt store: %w", err)
	}

	factory := flat.NewFactory()
	store, err := storagefile.NewStore(settings.Index.Dir, factory)
	if err != nil {
		aiResult.Close()
		return nil, nil, nil, nil, fmt.Errorf("index storage: %w", err)
	}

	holder := services.NewGenerationHolder()
	retriever := services.NewRetriever(aiResult.EmbeddingService, holder, settings.Retrieval.TopK)

	composer := services.NewComposer(services.DefaultPromptBudgetWords)
	composer.SetPromptStore(promptStore)

	genCfg := services.DefaultGeneratorConfig()
	genCfg.MaxTokens = settings.LLM.MaxTokens
	genCfg.Temperature = settings.LLM.Temperature
	generator := services.NewGenerator(aiResult.LLMService, genCfg)
	generator.SetPromptStore(promptStore)

	roadmaps := services.NewRoadmapService(retriever, composer, generator, holder, version)

	proc := chunker.New(
		chunker.WithChunkSize(settings.Chunking.SizeWords),
		chunker.WithOverlap(settings.Chunking.OverlapWords),
	)
	loader := filesystem.NewLoader(settings.Corpus.Dir)
	indexer := services.NewIndexer(loader, proc, aiResult.EmbeddingService, factory, store, holder)

	// Restore the persisted generation so a restarted process answers
	// without an immediate rebuild. A corrupt generation is never
	// published; it also blocks serve until a rebuild replaces it.
	if info, err := indexer.Bootstrap(ctx); err != nil {
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Info("No persisted index found; run 'nyay rebuild' to build one")
		case errors.Is(err, domain.ErrIndexCorrupt):
			fmt.Fprintf(os.Stderr, "Error: persisted index is corrupt: %v\n", err)
			cli.SetBootstrapError(err)
		default:
			fmt.Fprintf(os.Stderr, "Warning: index bootstrap failed: %v\n", err)
		}
	} else {
		logger.Info("Restored index generation %d (%d chunks)", info.Number, info.ChunkCount)
	}

	fir := services.NewFIRService(roadmaps, buildMailer(settings))

	return roadmaps, indexer, fir, aiResult.Close, nil
}

// buildMailer creates the SMTP mailer when credentials are present in
// the environment. Returns nil (delivery disabled) otherwise.
func buildMailer(settings *domain.AppSettings) driven.Mailer {
	username := settings.SMTP.Username
	if env := os.Getenv(envSMTPUsername); env != "" {
		username = env
	}
	password := os.Getenv(envSMTPPassword)
	if username == "" || password == "" {
		return nil
	}

	mailer, err := smtpmail.NewMailer(smtpmail.Config{
		Host:        settings.SMTP.Host,
		Port:        settings.SMTP.Port,
		Username:    username,
		Password:    password,
		FromAddress: settings.SMTP.FromAddress,
		FromName:    settings.SMTP.FromName,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: email delivery disabled: %v\n", err)
		return nil
	}
	return mailer
}
