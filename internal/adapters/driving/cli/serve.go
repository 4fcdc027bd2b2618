package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nyay-sahayak/nyay-core/internal/adapters/driven/corpus/filesystem"
	"github.com/nyay-sahayak/nyay-core/internal/adapters/driving/rest"
)

var (
	serveHost string
	servePort int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long: `Starts the REST API that answers incident queries with legal
roadmaps, rebuilds the index and emails FIR drafts.

Endpoints live under /api/v1; GET /api/v1/health reports the serving
state. The server runs until interrupted and shuts down gracefully.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "", "listen address (defaults to the configured host)")
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (defaults to the configured port)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	if bootstrapErr != nil {
		return fmt.Errorf("refusing to serve: %w; run 'nyay rebuild' to replace the persisted index", bootstrapErr)
	}
	if roadmapService == nil || indexService == nil || firService == nil {
		return errors.New("server services not configured")
	}

	cfg := rest.DefaultConfig()
	cfg.Version = version

	var watchDir string
	if settingsService != nil {
		settings, err := settingsService.Get()
		if err == nil {
			cfg.Host = settings.Server.Host
			cfg.Port = settings.Server.Port
			if settings.Corpus.Watch {
				watchDir = settings.Corpus.Dir
			}
		}
	}
	if serveHost != "" {
		cfg.Host = serveHost
	}
	if servePort != 0 {
		cfg.Port = servePort
	}

	if watchDir != "" {
		watcher, err := filesystem.NewWatcher(watchDir, indexService)
		if err != nil {
			cmd.PrintErrf("Warning: corpus watcher disabled: %v\n", err)
		} else if err := watcher.Start(cmd.Context()); err != nil {
			cmd.PrintErrf("Warning: corpus watcher disabled: %v\n", err)
		} else {
			defer watcher.Stop()
		}
	}

	server := rest.NewServer(cfg, roadmapService, indexService, firService)

	cmd.Printf("Nyay Sahayak API listening on %s\n", server.Addr())
	return server.Start(cmd.Context())
}
