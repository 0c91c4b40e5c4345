package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"golang.org/x/term"

	"github.com/pcrtools/tlshift/pkg/config"
	"github.com/pcrtools/tlshift/pkg/input"
	"github.com/pcrtools/tlshift/pkg/output"
	"github.com/pcrtools/tlshift/pkg/rewriter"
	"github.com/pcrtools/tlshift/pkg/webhook"
)

// ExitCode is set by commands to indicate the result
var ExitCode = 0

// ErrInteractiveStdin is returned when input would be read from a terminal.
var ErrInteractiveStdin = errors.New("refusing to read a timeline from an interactive terminal (pass a file or pipe input)")

// ShiftOptions holds command-line options for the shift command.
type ShiftOptions struct {
	ConfigFile string
	EnvFile    string

	Remaining        int
	Strict           bool
	HideLowTime      bool
	MatchCommentTime bool
	Highlight        bool

	Encoding         string
	FallbackEncoding string
	Output           string
	Color            string
	Markers          bool
	Verbose          bool
	Quiet            bool

	// Webhook options
	WebhookURL     string
	WebhookToken   string
	WebhookTrigger string
}

// NewShiftCommand creates the shift command.
func NewShiftCommand() *cobra.Command {
	opts := &ShiftOptions{}

	cmd := &cobra.Command{
		Use:   "shift [file|glob|-]...",
		Short: "Shift timeline timestamps by the remaining battle time",
		Long: `Rewrite every M:SS and MSS timestamp in a timeline so it matches a battle
that starts with the given number of seconds remaining (0-90).

Each input is processed independently. Standard input is read when no
inputs are given on the command line or in the config file.

Comments after "#" or "//" are left untouched unless --match-comment-time
is set. Lines containing URLs are never rewritten. A line whose shifted
time drops below one second is hidden together with the annotation lines
that follow it, unless --hide-low-time=false, in which case a warning
banner is inserted before it.

Exit codes:
  0 - All shifted times are at least one second
  1 - At least one shifted time dropped below one second
  2 - Configuration or runtime error`,
		Example: `  tlshift shift -r 45 timeline.txt
  cat timeline.txt | tlshift shift --strict --highlight
  tlshift shift -c tlshift.yaml -o html 'timelines/*.txt'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runShift(cmd, args, opts)
		},
	}

	defaults := config.DefaultConfig()

	cmd.Flags().StringVarP(&opts.ConfigFile, "config", "c", "", "Configuration file")
	cmd.Flags().StringVar(&opts.EnvFile, "env-file", config.DefaultEnvFile, "Dotenv file loaded before environment overrides")

	cmd.Flags().IntVarP(&opts.Remaining, "remaining", "r", defaults.RemainingSeconds, "Seconds remaining when the battle starts (0-90)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", defaults.StrictMode, "Rewrite only the first timestamp of each line")
	cmd.Flags().BoolVar(&opts.HideLowTime, "hide-low-time", defaults.HideLowTime, "Hide lines whose shifted time is below one second")
	cmd.Flags().BoolVar(&opts.MatchCommentTime, "match-comment-time", defaults.MatchCommentTime, "Also rewrite timestamps inside comments")
	cmd.Flags().BoolVar(&opts.Highlight, "highlight", defaults.HighlightTime, "Highlight rewritten timestamps")

	cmd.Flags().StringVar(&opts.Encoding, "encoding", defaults.Encoding, "Input encoding (auto, utf-8, big5, shift_jis, ...)")
	cmd.Flags().StringVar(&opts.FallbackEncoding, "fallback-encoding", "", "Encoding used in auto mode when input is not UTF-8")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", defaults.Output, "Output format (text|json|html)")
	cmd.Flags().StringVar(&opts.Color, "color", defaults.Color, "Colour highlighted timestamps on a terminal (auto|never)")
	cmd.Flags().BoolVar(&opts.Markers, "markers", false, "Wrap highlighted timestamps in U+E000 markers (text output)")
	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Log debug details and append run statistics")
	cmd.Flags().BoolVarP(&opts.Quiet, "quiet", "q", false, "Summary only, no rewritten text")

	// Webhook flags
	cmd.Flags().StringVar(&opts.WebhookURL, "webhook-url", "", "Webhook endpoint URL")
	cmd.Flags().StringVar(&opts.WebhookToken, "webhook-token", "", "Bearer token for webhook auth")
	cmd.Flags().StringVar(&opts.WebhookTrigger, "webhook-trigger", string(config.WebhookTriggerOnLowTime), "When to fire webhook (on_low_time|always|never)")

	return cmd
}

func runShift(cmd *cobra.Command, args []string, opts *ShiftOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	logger := newLogger(cmd.ErrOrStderr(), opts.Verbose, opts.Quiet)

	cfg, err := loadShiftConfig(ctx, cmd.Flags(), opts, logger)
	if err != nil {
		return err
	}

	patterns := args
	if len(patterns) == 0 {
		patterns = cfg.Inputs
	}
	if len(patterns) == 0 {
		patterns = []string{input.StdinName}
	}
	paths, err := input.ExpandGlobs(patterns)
	if err != nil {
		return fmt.Errorf("expanding inputs: %w", err)
	}

	stdin := cmd.InOrStdin()
	if slices.Contains(paths, input.StdinName) && isTerminal(stdin) {
		return ErrInteractiveStdin
	}

	decoder, err := input.NewDecoder(cfg.Encoding, cfg.FallbackEncoding)
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	source := input.NewFileSource(paths, decoder).WithStdin(stdin)
	defer source.Close()

	out := cmd.OutOrStdout()
	formatter, err := output.New(cfg.Output, output.FormatOptions{
		Verbose:    opts.Verbose,
		Quiet:      opts.Quiet,
		Color:      cfg.Color == "auto" && isTerminal(out),
		ShowSource: len(paths) > 1,
		Markers:    opts.Markers,
	})
	if err != nil {
		return err
	}

	notifier := webhook.NewNotifier(nil, cfg.Webhooks, logger)
	rewriteOpts := cfg.Options()
	offset := cfg.Offset()

	lowTime := false
	var sent, failed int
	for {
		started := time.Now()
		doc, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		logger.Debug("decoded input", "source", doc.Name, "encoding", doc.Encoding, "bytes", len(doc.Text))

		result := rewriter.Process(doc.Text, offset, rewriteOpts)
		report := output.NewReport(doc, cfg.RemainingSeconds, rewriteOpts, result, started)
		logger.Debug("shifted input",
			"source", doc.Name,
			"offset", offset,
			"tokens_found", result.Stats.TokensFound,
			"tokens_rewritten", result.Stats.TokensRewritten,
			"suppressed_lines", result.Stats.SuppressedLines,
			"low_time", result.HadLowTime)

		if err := formatter.Format(ctx, report, out); err != nil {
			return fmt.Errorf("formatting output: %w", err)
		}

		// Webhook failures are logged but don't fail the run
		for _, d := range notifier.Notify(ctx, report) {
			if d.Response.Success() {
				sent++
			} else {
				failed++
			}
		}

		if report.HasLowTime() {
			lowTime = true
		}
	}

	if sent+failed > 0 {
		logger.Debug("webhook deliveries", "sent", sent, "failed", failed)
	}

	if lowTime {
		ExitCode = 1
	}
	return nil
}

// loadShiftConfig layers defaults, the config file, the environment and
// explicitly set flags, in that order.
func loadShiftConfig(ctx context.Context, flags *pflag.FlagSet, opts *ShiftOptions, logger *slog.Logger) (*config.Config, error) {
	if err := config.LoadEnvFile(opts.EnvFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load(ctx, opts.ConfigFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if opts.ConfigFile != "" {
		logger.Debug("loaded config", "path", opts.ConfigFile)
	}

	if flags.Changed("remaining") {
		clamped := rewriter.ClampRemaining(opts.Remaining)
		if clamped != opts.Remaining {
			logger.Warn("remaining seconds clamped", "given", opts.Remaining, "used", clamped)
		}
		cfg.RemainingSeconds = clamped
	}
	if flags.Changed("strict") {
		cfg.StrictMode = opts.Strict
	}
	if flags.Changed("hide-low-time") {
		cfg.HideLowTime = opts.HideLowTime
	}
	if flags.Changed("match-comment-time") {
		cfg.MatchCommentTime = opts.MatchCommentTime
	}
	if flags.Changed("highlight") {
		cfg.HighlightTime = opts.Highlight
	}
	if flags.Changed("encoding") {
		cfg.Encoding = opts.Encoding
	}
	if flags.Changed("fallback-encoding") {
		cfg.FallbackEncoding = opts.FallbackEncoding
	}
	if flags.Changed("output") {
		cfg.Output = opts.Output
	}
	if flags.Changed("color") {
		cfg.Color = opts.Color
	}
	cfg.Webhooks = collectWebhooks(cfg, opts)

	if err := config.Validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}
	return cfg, nil
}

// collectWebhooks merges config file webhooks with CLI webhook.
func collectWebhooks(cfg *config.Config, opts *ShiftOptions) []config.WebhookConfig {
	webhooks := make([]config.WebhookConfig, 0, len(cfg.Webhooks)+1)
	webhooks = append(webhooks, cfg.Webhooks...)

	if opts.WebhookURL != "" {
		trigger := config.WebhookTrigger(opts.WebhookTrigger)
		if trigger == "" {
			trigger = config.WebhookTriggerOnLowTime
		}

		webhooks = append(webhooks, config.WebhookConfig{
			Name:    "cli",
			URL:     opts.WebhookURL,
			Token:   opts.WebhookToken,
			Trigger: trigger,
			Timeout: config.DefaultWebhookTimeout,
		})
	}

	return webhooks
}

// isTerminal reports whether v is a file attached to a terminal.
func isTerminal(v any) bool {
	f, ok := v.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
