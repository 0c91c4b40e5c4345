// Package cli provides the command-line interface for tlshift.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pcrtools/tlshift/internal/cli/commands"
)

// Execute runs the root command and returns the exit code.
func Execute() int {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	rootCmd := NewRootCommand()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		// Print error to stderr (SilenceErrors prevents Cobra from doing this)
		_, _ = fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2 // Configuration or runtime error
	}
	return commands.ExitCode
}

// NewRootCommand creates the root cobra command.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "tlshift",
		Short: "Shift battle timeline timestamps to a new starting time",
		Long: `tlshift rewrites the M:SS and MSS timestamps of a battle timeline so it can
be reused when a battle starts with less than the full 90 seconds.

Give the seconds remaining at the start of the battle and every timestamp
is shifted by (remaining - 90). Digit width is preserved, so full-width
timelines stay full-width. Timestamps that drop below one second are
flagged, and their lines can be hidden.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewShiftCommand())
	rootCmd.AddCommand(commands.NewScanCommand())
	rootCmd.AddCommand(commands.NewDiagnoseCommand())
	rootCmd.AddCommand(commands.NewValidateCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
