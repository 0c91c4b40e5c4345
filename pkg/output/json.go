package output

import (
	"context"
	"encoding/json"
	"io"

	"github.com/pcrtools/tlshift/pkg/rewriter"
)

// JSONFormatter formats reports as JSON.
type JSONFormatter struct {
	opts FormatOptions
}

// NewJSONFormatter creates a new JSON formatter with the given options.
func NewJSONFormatter(opts FormatOptions) *JSONFormatter {
	return &JSONFormatter{opts: opts}
}

// Name returns the format name.
func (f *JSONFormatter) Name() string {
	return "json"
}

// Format renders the report as JSON.
func (f *JSONFormatter) Format(ctx context.Context, report *Report, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)

	if f.opts.Quiet {
		return encoder.Encode(quietReport{
			Source:     report.Source,
			HadLowTime: report.HadLowTime,
			Summary:    report.Summary,
		})
	}

	return encoder.Encode(report)
}

type quietReport struct {
	Source     string         `json:"source"`
	HadLowTime bool           `json:"had_low_time"`
	Summary    rewriter.Stats `json:"summary"`
}
