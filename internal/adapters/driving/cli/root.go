// Package cli implements the nyay command-line interface.
package cli

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/nyay-sahayak/nyay-core/internal/core/ports/driving"
	"github.com/nyay-sahayak/nyay-core/internal/logger"
)

// version is the build version, injected via SetVersion at startup.
var version = "dev"

var verbose bool

// Services are injected from main before Execute runs. Commands check
// for nil and fail with a clear message, so the version command keeps
// working when wiring failed.
var (
	roadmapService  driving.RoadmapService
	indexService    driving.IndexService
	firService      driving.FIRService
	settingsService driving.SettingsService
)

// bootstrapErr is set when the persisted index failed to restore with
// corruption. A garbled index must never be served, so serve refuses
// to start while this is set; rebuild stays available to write a
// fresh generation.
var bootstrapErr error

var rootCmd = &cobra.Command{
	Use:   "nyay",
	Short: "Legal first-aid for incident reports",
	Long: `Nyay Sahayak turns a plain description of an incident into a
structured legal roadmap: the likely crime type, immediate actions,
FIR filing steps, evidence to preserve and the relevant laws.

Knowledge comes from a local corpus of legal documents. Run 'nyay
rebuild' after changing the corpus, then 'nyay query' or 'nyay serve'.`,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
}

// SetVersion sets the version reported by the version command and the
// HTTP server.
func SetVersion(v string) {
	version = v
}

// SetBootstrapError marks the persisted index as unusable. The serve
// command refuses to start until a rebuild replaces it.
func SetBootstrapError(err error) {
	bootstrapErr = err
}

// SetServices injects the driving services the commands run against.
// Any of them may be nil; the commands that need a missing one fail
// when run.
func SetServices(
	roadmaps driving.RoadmapService,
	index driving.IndexService,
	fir driving.FIRService,
	settings driving.SettingsService,
) {
	roadmapService = roadmaps
	indexService = index
	firService = fir
	settingsService = settings
}

// Execute runs the root command with the given context. The context
// reaches long-running commands through cmd.Context().
func Execute(ctx context.Context) error {
	return rootCmd.ExecuteContext(ctx)
}
