package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nyay-sahayak/nyay-core/internal/core/domain"
)

var (
	firEmail    string
	firName     string
	firCity     string
	firIncident string
)

var firCmd = &cobra.Command{
	Use:   "fir [incident description]",
	Short: "Draft a First Information Report",
	Long: `Generates a legal roadmap for the incident and renders it as a
First Information Report draft.

The draft prints to stdout. With --email it is instead sent to the
given address using the configured SMTP account; the password comes
from the SMTP_PASSWORD environment variable.`,
	Args: cobra.ExactArgs(1),
	RunE: runFIR,
}

func init() {
	firCmd.Flags().StringVar(&firEmail, "email", "", "send the draft to this address instead of printing it")
	firCmd.Flags().StringVar(&firName, "name", "", "recipient name used in the draft salutation")
	firCmd.Flags().StringVar(&firCity, "city", "", "narrow retrieval to sources for a city")
	firCmd.Flags().StringVar(&firIncident, "incident-type", "", "narrow retrieval to an incident category")
	rootCmd.AddCommand(firCmd)
}

func runFIR(cmd *cobra.Command, args []string) error {
	if firService == nil {
		return errors.New("fir service not configured")
	}

	opts := domain.AnswerOptions{
		City:         firCity,
		IncidentType: firIncident,
	}

	if firEmail != "" {
		draft, err := firService.SendDraft(cmd.Context(), firEmail, firName, args[0], opts)
		if err != nil {
			return fmt.Errorf("sending FIR draft: %w", err)
		}

		cmd.Printf("FIR draft sent to %s\n", firEmail)
		cmd.Printf("Subject: %s\n", draft.Subject)
		return nil
	}

	draft, _, err := firService.DraftFromQuery(cmd.Context(), args[0], opts)
	if err != nil {
		return fmt.Errorf("drafting FIR: %w", err)
	}

	cmd.Println(draft.Text)
	return nil
}
