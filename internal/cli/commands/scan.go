package commands

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/pcrtools/tlshift/pkg/config"
	"github.com/pcrtools/tlshift/pkg/input"
	"github.com/pcrtools/tlshift/pkg/rewriter"
)

// ScanOptions holds command-line options for the scan command.
type ScanOptions struct {
	Output           string
	Remaining        int
	Strict           bool
	MatchCommentTime bool
	Encoding         string
	WriteConfig      string
}

// NewScanCommand creates the scan command.
func NewScanCommand() *cobra.Command {
	opts := &ScanOptions{}

	cmd := &cobra.Command{
		Use:   "scan [file|-]...",
		Short: "List the timestamps found in a timeline",
		Long: `List every timestamp token in a timeline together with its shifted value,
without rewriting anything.

Tokens that shift would leave unchanged are reported with the reason:
  strict   - not the first token of the line in strict mode
  comment  - inside a "#" or "//" comment
  url      - on a line containing a URL

Optionally writes a starter config file for the scanned inputs with
--write-config.

Example:
  tlshift scan timeline.txt
  tlshift scan -r 45 -o json timeline.txt
  tlshift scan -w tlshift.yaml timelines/*.txt`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "text", "Output format (text|json)")
	cmd.Flags().IntVarP(&opts.Remaining, "remaining", "r", rewriter.DefaultRemainingSeconds, "Seconds remaining when the battle starts (0-90)")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "Mark tokens strict mode would skip")
	cmd.Flags().BoolVar(&opts.MatchCommentTime, "match-comment-time", false, "Treat timestamps inside comments as rewritable")
	cmd.Flags().StringVar(&opts.Encoding, "encoding", input.AutoEncoding, "Input encoding (auto, utf-8, big5, shift_jis, ...)")
	cmd.Flags().StringVarP(&opts.WriteConfig, "write-config", "w", "", "Write starter config to file (will not overwrite)")

	return cmd
}

// ScanToken is a token in scan output.
type ScanToken struct {
	Line         int    `json:"line"`
	Column       int    `json:"column"`
	Raw          string `json:"raw"`
	Normalized   string `json:"normalized"`
	Form         string `json:"form"`
	TotalSeconds int    `json:"total_seconds"`
	Shifted      string `json:"shifted"`
	ShiftedTotal int    `json:"shifted_total"`
	LowTime      bool   `json:"low_time"`
	Skip         string `json:"skip,omitempty"`
}

// ScanOutput is the scan result for one input.
type ScanOutput struct {
	Source    string      `json:"source"`
	Encoding  string      `json:"encoding"`
	Offset    int         `json:"offset"`
	Tokens    []ScanToken `json:"tokens"`
	LowTime   int         `json:"low_time"`
	Rewritten int         `json:"rewritten"`
}

func runScan(cmd *cobra.Command, args []string, opts *ScanOptions) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.Output != "text" && opts.Output != "json" {
		return fmt.Errorf("unknown output format %q (use text or json)", opts.Output)
	}

	patterns := args
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

	decoder, err := input.NewDecoder(opts.Encoding, "")
	if err != nil {
		return fmt.Errorf("creating decoder: %w", err)
	}
	source := input.NewFileSource(paths, decoder).WithStdin(stdin)
	defer source.Close()

	rewriteOpts := rewriter.Options{StrictMode: opts.Strict, MatchCommentTime: opts.MatchCommentTime}
	offset := rewriter.OffsetFromRemaining(opts.Remaining)

	var results []ScanOutput
	for {
		doc, err := source.Next(ctx)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}
		results = append(results, scanDocument(doc, offset, rewriteOpts))
	}

	if opts.WriteConfig != "" {
		if err := writeStarterConfig(cmd.ErrOrStderr(), opts, paths); err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	if opts.Output == "json" {
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		return encoder.Encode(results)
	}
	for i, r := range results {
		if i > 0 {
			fmt.Fprintln(out)
		}
		outputScanText(out, r)
	}
	return nil
}

func scanDocument(doc *input.Document, offset int, opts rewriter.Options) ScanOutput {
	result := ScanOutput{
		Source:   doc.Name,
		Encoding: doc.Encoding,
		Offset:   offset,
		Tokens:   make([]ScanToken, 0),
	}

	for _, f := range rewriter.Inspect(doc.Text, offset, opts) {
		result.Tokens = append(result.Tokens, ScanToken{
			Line:         f.Line + 1,
			Column:       f.Column,
			Raw:          f.Token.Raw,
			Normalized:   f.Token.Normalized(),
			Form:         f.Token.Form.String(),
			TotalSeconds: f.Token.TotalSeconds(),
			Shifted:      f.Shifted.Text,
			ShiftedTotal: f.Shifted.Total,
			LowTime:      f.Shifted.LowTime,
			Skip:         f.Skip,
		})
		if f.Skip != "" {
			continue
		}
		result.Rewritten++
		if f.Shifted.LowTime {
			result.LowTime++
		}
	}
	return result
}

func outputScanText(w io.Writer, r ScanOutput) {
	fmt.Fprintf(w, "=== %s (%s, offset %+d) ===\n", r.Source, r.Encoding, r.Offset)
	if len(r.Tokens) == 0 {
		fmt.Fprintln(w, "No timestamps found.")
		return
	}

	for _, tok := range r.Tokens {
		fmt.Fprintf(w, "%4d:%-3d %-8s %-7s -> %-8s", tok.Line, tok.Column, tok.Raw, tok.Form, tok.Shifted)
		switch {
		case tok.Skip != "":
			fmt.Fprintf(w, " (skipped: %s)", tok.Skip)
		case tok.LowTime:
			fmt.Fprint(w, " LOW TIME")
		}
		fmt.Fprintln(w)
	}
	fmt.Fprintf(w, "Summary: %d tokens, %d rewritten, %d low time\n", len(r.Tokens), r.Rewritten, r.LowTime)
}

// writeStarterConfig writes a config file carrying the scan settings.
func writeStarterConfig(w io.Writer, opts *ScanOptions, paths []string) error {
	if _, err := os.Stat(opts.WriteConfig); err == nil {
		return fmt.Errorf("config file already exists: %s (will not overwrite)", opts.WriteConfig)
	}

	cfg := config.DefaultConfig()
	cfg.RemainingSeconds = rewriter.ClampRemaining(opts.Remaining)
	cfg.StrictMode = opts.Strict
	cfg.MatchCommentTime = opts.MatchCommentTime
	cfg.Encoding = opts.Encoding
	for _, p := range paths {
		if p != input.StdinName {
			cfg.Inputs = append(cfg.Inputs, p)
		}
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	content := "# tlshift configuration\n# Run: tlshift shift -c " + opts.WriteConfig + "\n\n" + string(data)
	// #nosec G306 - config file doesn't need restrictive permissions
	if err := os.WriteFile(opts.WriteConfig, []byte(content), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(w, "Wrote starter config to: %s\n", opts.WriteConfig)
	return nil
}
