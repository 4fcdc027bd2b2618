package cli

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

var rebuildCmd = &cobra.Command{
	Use:   "rebuild",
	Short: "Rebuild the knowledge index",
	Long: `Reads every document in the corpus directory, chunks and embeds
them, and publishes a new index generation. Queries keep hitting the
previous generation until the new one is swapped in.`,
	RunE: runRebuild,
}

func init() {
	rootCmd.AddCommand(rebuildCmd)
}

func runRebuild(cmd *cobra.Command, _ []string) error {
	if indexService == nil {
		return errors.New("index service not configured")
	}

	cmd.Println("Rebuilding index...")

	report, err := indexService.Rebuild(cmd.Context())
	if err != nil {
		return fmt.Errorf("rebuild failed: %w", err)
	}

	cmd.Printf("Generation %d published in %s\n", report.Generation, report.Took.Round(time.Millisecond))
	cmd.Printf("  Documents: %d\n", report.Documents)
	cmd.Printf("  Chunks:    %d\n", report.Chunks)
	if len(report.Skipped) > 0 {
		cmd.Printf("  Skipped:   %d\n", len(report.Skipped))
		for _, skipped := range report.Skipped {
			cmd.Printf("    %s: %s\n", skipped.Name, skipped.Reason)
		}
	}

	return nil
}
