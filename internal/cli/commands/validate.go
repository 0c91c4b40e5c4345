package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pcrtools/tlshift/pkg/config"
	"github.com/pcrtools/tlshift/pkg/input"
)

// NewValidateCommand creates the validate command.
func NewValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <config-file>",
		Short: "Validate a configuration file",
		Long: `Validate a tlshift configuration file without shifting anything.

Checks:
  - YAML syntax
  - Remaining seconds range (0-90)
  - Encoding names and output format
  - Webhook URLs and triggers
  - Input file existence (warning only)`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}
}

func runValidate(cmd *cobra.Command, args []string) error {
	configPath := args[0]
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "Validating %s...\n", configPath)

	cfg, err := config.Load(ctx, configPath)
	if err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	fmt.Fprintf(out, "\nConfiguration valid!\n")
	fmt.Fprintf(out, "  Remaining seconds: %d (offset %+d)\n", cfg.RemainingSeconds, cfg.Offset())
	fmt.Fprintf(out, "  Strict mode:       %v\n", cfg.StrictMode)
	fmt.Fprintf(out, "  Hide low time:     %v\n", cfg.HideLowTime)
	fmt.Fprintf(out, "  Comment times:     %v\n", cfg.MatchCommentTime)
	fmt.Fprintf(out, "  Highlight:         %v\n", cfg.HighlightTime)
	fmt.Fprintf(out, "  Encoding:          %s\n", cfg.Encoding)
	fmt.Fprintf(out, "  Output:            %s\n", cfg.Output)
	fmt.Fprintf(out, "  Webhooks:          %d\n", len(cfg.Webhooks))

	if len(cfg.Inputs) == 0 {
		fmt.Fprintf(out, "\nNo inputs configured; standard input will be read\n")
		return nil
	}

	// Input existence is a warning only
	files, err := input.ExpandGlobs(cfg.Inputs)
	if err != nil {
		fmt.Fprintf(out, "\nWarning: Error expanding input patterns: %v\n", err)
		return nil
	}

	fmt.Fprintf(out, "\nInputs matched: %d\n", len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			fmt.Fprintf(out, "  - %s (warning: not found)\n", f)
			continue
		}
		fmt.Fprintf(out, "  - %s\n", f)
	}
	return nil
}
