package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pcrtools/tlshift/pkg/config"
	"github.com/pcrtools/tlshift/pkg/input"
	"github.com/pcrtools/tlshift/pkg/rewriter"
)

// Diagnostic statuses.
const (
	StatusOK      = "ok"
	StatusWarning = "warning"
	StatusError   = "error"
)

// DiagnoseOptions holds options for the diagnose command
type DiagnoseOptions struct {
	Verbose bool
}

// DiagnosticResult represents the result of a single diagnostic check
type DiagnosticResult struct {
	Check    string
	Status   string
	Message  string
	Details  []string
	Suggests []string
}

// NewDiagnoseCommand creates the diagnose command
func NewDiagnoseCommand() *cobra.Command {
	opts := &DiagnoseOptions{}

	cmd := &cobra.Command{
		Use:   "diagnose <config-file>",
		Short: "Diagnose common configuration issues",
		Long: `Diagnose common configuration issues.

This command checks your configuration file for common problems:
- Config file syntax and values
- Input file existence and character set
- Timestamps found in each input and how many would drop below one second
- Webhook reachability (with --verbose)

Example:
  tlshift diagnose tlshift.yaml
  tlshift diagnose -v tlshift.yaml  # verbose output`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			results := runDiagnose(ctx, args[0], opts)
			printDiagnostics(cmd.OutOrStdout(), results, opts)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&opts.Verbose, "verbose", "v", false, "Show detailed diagnostic output")

	return cmd
}

func runDiagnose(ctx context.Context, configPath string, opts *DiagnoseOptions) []DiagnosticResult {
	result := checkConfigExists(configPath)
	results := []DiagnosticResult{result}
	if result.Status == StatusError {
		return results
	}

	cfg, result := checkConfigParseable(ctx, configPath)
	results = append(results, result)
	if result.Status == StatusError {
		return results
	}

	docs, inputResults := checkInputs(ctx, cfg)
	results = append(results, inputResults...)
	results = append(results, checkTimestamps(cfg, docs)...)

	if opts.Verbose {
		for _, wh := range cfg.Webhooks {
			results = append(results, checkWebhookConnectivity(ctx, wh))
		}
	}
	return results
}

func checkConfigExists(path string) DiagnosticResult {
	result := DiagnosticResult{Check: "Config File"}

	info, err := os.Stat(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		result.Status = StatusError
		result.Message = fmt.Sprintf("Config file not found: %s", path)
		result.Suggests = []string{
			"Check the file path is correct",
			"Use 'tlshift scan -w tlshift.yaml <timeline>' to generate a starter config",
		}
	case err != nil:
		result.Status = StatusError
		result.Message = fmt.Sprintf("Cannot access config file: %v", err)
		result.Suggests = []string{"Check file permissions"}
	case info.IsDir():
		result.Status = StatusError
		result.Message = "Path is a directory, not a file"
	default:
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Found: %s (%d bytes)", path, info.Size())
	}
	return result
}

func checkConfigParseable(ctx context.Context, path string) (*config.Config, DiagnosticResult) {
	result := DiagnosticResult{Check: "Config Syntax"}

	cfg, err := config.Load(ctx, path)
	if err != nil {
		result.Status = StatusError
		result.Message = fmt.Sprintf("Failed to load config: %v", err)
		if strings.Contains(err.Error(), "yaml") {
			result.Suggests = []string{"Check YAML syntax - ensure proper indentation (use spaces, not tabs)"}
		}
		if strings.Contains(err.Error(), "remaining_seconds") {
			result.Suggests = []string{"remaining_seconds must be between 0 and 90"}
		}
		return nil, result
	}

	result.Status = StatusOK
	result.Message = "Config file parsed successfully"
	result.Details = []string{
		fmt.Sprintf("Remaining seconds: %d (offset %+d)", cfg.RemainingSeconds, cfg.Offset()),
		fmt.Sprintf("Inputs: %d", len(cfg.Inputs)),
		fmt.Sprintf("Webhooks: %d", len(cfg.Webhooks)),
	}
	return cfg, result
}

func checkInputs(ctx context.Context, cfg *config.Config) ([]*input.Document, []DiagnosticResult) {
	if len(cfg.Inputs) == 0 {
		return nil, []DiagnosticResult{{
			Check:   "Inputs",
			Status:  StatusWarning,
			Message: "No inputs configured; shift will read standard input",
			Suggests: []string{
				"Add an inputs section to your config",
				"Example: inputs:\n  - timelines/*.txt",
			},
		}}
	}

	paths, err := input.ExpandGlobs(cfg.Inputs)
	if err != nil {
		return nil, []DiagnosticResult{{Check: "Inputs", Status: StatusError, Message: err.Error()}}
	}

	decoder, err := input.NewDecoder(cfg.Encoding, cfg.FallbackEncoding)
	if err != nil {
		return nil, []DiagnosticResult{{Check: "Inputs", Status: StatusError, Message: err.Error()}}
	}

	var docs []*input.Document
	var results []DiagnosticResult
	for _, path := range paths {
		result := DiagnosticResult{Check: fmt.Sprintf("Input: %s", path)}

		source := input.NewFileSource([]string{path}, decoder).WithStdin(strings.NewReader(""))
		doc, err := source.Next(ctx)
		source.Close()

		switch {
		case err != nil:
			result.Status = StatusError
			result.Message = fmt.Sprintf("Cannot read input: %v", err)
			result.Suggests = []string{"Check the path and the encoding setting"}
		case doc.Text == "":
			result.Status = StatusWarning
			result.Message = "Input is empty"
		default:
			result.Status = StatusOK
			result.Message = fmt.Sprintf("Readable (%s, %d lines)", doc.Encoding, strings.Count(doc.Text, "\n")+1)
			docs = append(docs, doc)
		}
		results = append(results, result)
	}

	if len(docs) == 0 {
		results = append(results, DiagnosticResult{
			Check:    "Inputs Summary",
			Status:   StatusError,
			Message:  "No readable inputs found",
			Suggests: []string{"Ensure at least one input exists and is readable"},
		})
	}
	return docs, results
}

func checkTimestamps(cfg *config.Config, docs []*input.Document) []DiagnosticResult {
	var results []DiagnosticResult
	for _, doc := range docs {
		result := DiagnosticResult{Check: fmt.Sprintf("Timestamps: %s", doc.Name)}

		found, rewritten, low := 0, 0, 0
		for _, f := range rewriter.Inspect(doc.Text, cfg.Offset(), cfg.Options()) {
			found++
			if f.Skip != "" {
				continue
			}
			rewritten++
			if f.Shifted.LowTime {
				low++
			}
		}

		switch {
		case found == 0:
			result.Status = StatusWarning
			result.Message = "No timestamps found"
			result.Suggests = []string{"Timestamps are written as M:SS or MSS, for example 1:23 or 123"}
		case rewritten == 0:
			result.Status = StatusWarning
			result.Message = fmt.Sprintf("%d timestamp(s) found, none would be rewritten", found)
			result.Suggests = []string{"Set match_comment_time: true to rewrite timestamps inside comments"}
		case low > 0:
			result.Status = StatusWarning
			result.Message = fmt.Sprintf("%d of %d timestamp(s) drop below one second", low, rewritten)
			if cfg.HideLowTime {
				result.Suggests = []string{"Those lines will be hidden; set hide_low_time: false to keep them"}
			}
		default:
			result.Status = StatusOK
			result.Message = fmt.Sprintf("%d timestamp(s) found, %d rewritten", found, rewritten)
		}
		results = append(results, result)
	}
	return results
}

func checkWebhookConnectivity(ctx context.Context, wh config.WebhookConfig) DiagnosticResult {
	name := wh.Name
	if name == "" {
		name = wh.URL
	}
	result := DiagnosticResult{Check: fmt.Sprintf("Webhook Connectivity: %s", name)}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	// A HEAD request is enough to tell whether the endpoint is reachable
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, wh.URL, nil)
	if err != nil {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot create request: %v", err)
		return result
	}
	if wh.Token != "" {
		req.Header.Set("Authorization", "Bearer "+wh.Token)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Cannot connect: %v", err)
		result.Suggests = []string{"Check if the webhook URL is correct", "Verify network connectivity"}
		return result
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		result.Status = StatusOK
		result.Message = fmt.Sprintf("Reachable (status %d)", resp.StatusCode)
	} else {
		result.Status = StatusWarning
		result.Message = fmt.Sprintf("Reachable but returned status %d", resp.StatusCode)
		result.Suggests = []string{"The endpoint may only accept POST, which is what shift sends"}
	}
	return result
}

func printDiagnostics(w io.Writer, results []DiagnosticResult, opts *DiagnoseOptions) {
	fmt.Fprintln(w, "=== tlshift Configuration Diagnostics ===")
	fmt.Fprintln(w)

	okCount, warnCount, errCount := 0, 0, 0
	for _, r := range results {
		var icon string
		switch r.Status {
		case StatusOK:
			icon = "PASS"
			okCount++
		case StatusWarning:
			icon = "WARN"
			warnCount++
		case StatusError:
			icon = "FAIL"
			errCount++
		}

		fmt.Fprintf(w, "[%s] %s\n", icon, r.Check)
		fmt.Fprintf(w, "    %s\n", r.Message)

		if opts.Verbose || r.Status != StatusOK {
			for _, d := range r.Details {
				fmt.Fprintf(w, "      - %s\n", d)
			}
		}
		for _, s := range r.Suggests {
			fmt.Fprintf(w, "      Hint: %s\n", s)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, "---")
	fmt.Fprintf(w, "Summary: %d passed, %d warnings, %d errors\n", okCount, warnCount, errCount)

	switch {
	case errCount > 0:
		fmt.Fprintln(w, "\nFix the errors above before shifting.")
	case warnCount > 0:
		fmt.Fprintln(w, "\nConfiguration is usable but has warnings.")
	default:
		fmt.Fprintln(w, "\nConfiguration looks good!")
	}
}
