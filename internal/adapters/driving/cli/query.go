package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
)

var (
	queryCity     string
	queryIncident string
	queryJSON     bool
)

var queryCmd = &cobra.Command{
	Use:   "query [incident description]",
	Short: "Get a legal roadmap for an incident",
	Long: `Turns a free-text description of an incident into a structured
legal roadmap: the likely crime type, immediate actions, FIR filing
steps, evidence to preserve and the relevant laws.

The description must be 10 to 2000 characters. Retrieval can be
narrowed with --city and --incident-type when the corpus carries
matching metadata.`,
	Args: cobra.ExactArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVar(&queryCity, "city", "", "narrow retrieval to sources for a city")
	queryCmd.Flags().StringVar(&queryIncident, "incident-type", "", "narrow retrieval to an incident category")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output the roadmap as JSON")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	if roadmapService == nil {
		return errors.New("roadmap service not configured")
	}

	opts := domain.AnswerOptions{
		City:         queryCity,
		IncidentType: queryIncident,
	}

	roadmap, err := roadmapService.Answer(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("query failed: %w", err)
	}

	if queryJSON {
		return outputRoadmapJSON(cmd, roadmap)
	}

	outputRoadmapText(cmd, roadmap)
	return nil
}

func outputRoadmapJSON(cmd *cobra.Command, roadmap domain.Roadmap) error {
	data, err := json.MarshalIndent(roadmap, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal roadmap: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputRoadmapText(cmd *cobra.Command, roadmap domain.Roadmap) {
	cmd.Printf("Crime Type: %s\n", roadmap.CrimeType)

	printNumbered(cmd, "Immediate Actions", roadmap.ImmediateActions)
	printNumbered(cmd, "FIR Steps", roadmap.FIRSteps)
	printBullets(cmd, "Evidence to Preserve", roadmap.EvidenceToPreserve)
	printBullets(cmd, "Relevant Laws", roadmap.RelevantLaws)
}

func printNumbered(cmd *cobra.Command, heading string, entries []string) {
	cmd.Printf("\n%s:\n", heading)
	for i, entry := range entries {
		cmd.Printf("  %d. %s\n", i+1, entry)
	}
}

func printBullets(cmd *cobra.Command, heading string, entries []string) {
	cmd.Printf("\n%s:\n", heading)
	for _, entry := range entries {
		cmd.Printf("  - %s\n", entry)
	}
}
