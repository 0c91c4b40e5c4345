package output

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/pcrtools/tlshift/pkg/highlight"
)

// ColorHighlight is the terminal colour of rewritten tokens.
var ColorHighlight = lipgloss.Color("205")

// TextFormatter writes the rewritten timeline as plain text.
type TextFormatter struct {
	opts FormatOptions
}

// NewTextFormatter creates a new text formatter with the given options.
func NewTextFormatter(opts FormatOptions) *TextFormatter {
	return &TextFormatter{opts: opts}
}

// Name returns the format name.
func (f *TextFormatter) Name() string {
	return "text"
}

// Format renders the report as text.
func (f *TextFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		return f.formatQuiet(report, w)
	}
	return f.formatFull(report, w)
}

func (f *TextFormatter) formatQuiet(report *Report, w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s: %d of %d tokens rewritten, %d lines suppressed, low time: %s\n",
		report.Source,
		report.Summary.TokensRewritten,
		report.Summary.TokensFound,
		report.Summary.SuppressedLines,
		yesNo(report.HadLowTime))
	return err
}

func (f *TextFormatter) formatFull(report *Report, w io.Writer) error {
	if f.opts.ShowSource {
		fmt.Fprintf(w, "==> %s <==\n", report.Source)
	}

	text := report.Text
	switch {
	case f.opts.Markers:
		text = highlight.Mark(text, report.Spans)
	case f.opts.Color && len(report.Spans) > 0:
		style := lipgloss.NewRenderer(w).NewStyle().Bold(true).Foreground(ColorHighlight)
		text = highlight.Apply(text, report.Spans, func(s string) string {
			return style.Render(s)
		})
	}

	if _, err := io.WriteString(w, text); err != nil {
		return fmt.Errorf("failed to write text: %w", err)
	}
	if text != "" && !strings.HasSuffix(text, "\n") {
		fmt.Fprintln(w)
	}

	if f.opts.Verbose {
		fmt.Fprintln(w, "---")
		fmt.Fprintf(w, "Lines: %d in, %d out, %d suppressed\n",
			report.Summary.InputLines,
			report.Summary.OutputLines,
			report.Summary.SuppressedLines)
		fmt.Fprintf(w, "Tokens: %d found, %d rewritten (offset %+d)\n",
			report.Summary.TokensFound,
			report.Summary.TokensRewritten,
			report.Metadata.Offset)
		fmt.Fprintf(w, "Low time: %s\n", yesNo(report.HadLowTime))
		fmt.Fprintf(w, "Duration: %s\n", report.Metadata.Duration.Round(1e3))
	}

	return nil
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
