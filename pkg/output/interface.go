package output

import (
	"context"
	"fmt"
	"io"
)

// Formatter renders shift reports in a specific format.
type Formatter interface {
	// Format renders the report to the given writer.
	Format(ctx context.Context, report *Report, w io.Writer) error

	// Name returns the format name (text, json, html).
	Name() string
}

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	// Verbose appends run statistics to the rewritten text.
	Verbose bool

	// Quiet replaces the rewritten text with a one-line summary.
	Quiet bool

	// Color renders highlight spans with terminal styling.
	Color bool

	// ShowSource prefixes each report with the name of its input.
	ShowSource bool

	// Markers wraps highlight spans in highlight.Marker runes instead of
	// styling them, for post-processing by an external highlighter.
	Markers bool
}

// New returns the formatter registered under name.
func New(name string, opts FormatOptions) (Formatter, error) {
	switch name {
	case "", "text":
		return NewTextFormatter(opts), nil
	case "json":
		return NewJSONFormatter(opts), nil
	case "html":
		return NewHTMLFormatter(opts), nil
	}
	return nil, fmt.Errorf("unknown output format %q (expected text, json, or html)", name)
}
