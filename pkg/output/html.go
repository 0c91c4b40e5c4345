package output

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/pcrtools/tlshift/pkg/highlight"
)

// HighlightClass is the CSS class of a rewritten token in HTML output.
const HighlightClass = "time-highlight"

// HTMLFormatter renders the rewritten timeline as an HTML code block.
// Rewritten tokens are wrapped in spans when the report carries spans.
type HTMLFormatter struct {
	opts FormatOptions
}

// NewHTMLFormatter creates a new HTML formatter with the given options.
func NewHTMLFormatter(opts FormatOptions) *HTMLFormatter {
	return &HTMLFormatter{opts: opts}
}

// Name returns the format name.
func (f *HTMLFormatter) Name() string {
	return "html"
}

// Format renders the report as an HTML fragment.
func (f *HTMLFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	if f.opts.Quiet {
		_, err := fmt.Fprintf(w, "<p class=\"summary\">%s: %d tokens rewritten, low time: %s</p>\n",
			html.EscapeString(report.Source), report.Summary.TokensRewritten, yesNo(report.HadLowTime))
		return err
	}

	body := highlight.Wrap(report.Text, report.Spans, html.EscapeString, func(s string) string {
		return `<span class="` + HighlightClass + `">` + html.EscapeString(s) + `</span>`
	})

	if f.opts.ShowSource {
		fmt.Fprintf(w, "<h2>%s</h2>\n", html.EscapeString(report.Source))
	}
	if _, err := fmt.Fprintf(w, "<pre><code>%s</code></pre>\n", body); err != nil {
		return fmt.Errorf("failed to write html: %w", err)
	}
	return nil
}
