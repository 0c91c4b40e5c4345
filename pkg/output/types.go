// Package output provides the report model and formatters for shifted
// timelines.
package output

import (
	"time"

	"github.com/pcrtools/tlshift/pkg/input"
	"github.com/pcrtools/tlshift/pkg/rewriter"
)

// Report is the outcome of shifting one input document.
type Report struct {
	// Source is the input path, or "-" for standard input.
	Source string `json:"source"`

	// Text is the rewritten timeline.
	Text string `json:"text"`

	// HadLowTime is set when any token shifted below one second.
	HadLowTime bool `json:"had_low_time"`

	// Spans locate the rewritten tokens in Text when highlighting is on.
	Spans []rewriter.Span `json:"spans,omitempty"`

	// Summary provides run statistics.
	Summary rewriter.Stats `json:"summary"`

	// Metadata provides context about the run.
	Metadata Metadata `json:"metadata"`
}

// Metadata provides context about a shift run.
type Metadata struct {
	// RemainingSeconds is the clamped remaining battle time.
	RemainingSeconds int `json:"remaining_seconds"`

	// Offset is the number of seconds added to every token.
	Offset int `json:"offset"`

	Options Options `json:"options"`

	// Encoding is the character set the input was decoded from.
	Encoding string `json:"encoding,omitempty"`

	// ProcessedAt is when the run finished.
	ProcessedAt time.Time `json:"processed_at"`

	// Duration is how long decoding and rewriting took.
	Duration time.Duration `json:"duration"`
}

// Options mirrors rewriter.Options for serialization.
type Options struct {
	StrictMode       bool `json:"strict_mode"`
	HideLowTime      bool `json:"hide_low_time"`
	MatchCommentTime bool `json:"match_comment_time"`
	HighlightTime    bool `json:"highlight_time"`
}

// NewReport creates a Report from a rewriter result.
func NewReport(doc *input.Document, remaining int, opts rewriter.Options, result *rewriter.Result, started time.Time) *Report {
	now := time.Now()
	return &Report{
		Source:     doc.Name,
		Text:       result.Text,
		HadLowTime: result.HadLowTime,
		Spans:      result.Spans,
		Summary:    result.Stats,
		Metadata: Metadata{
			RemainingSeconds: rewriter.ClampRemaining(remaining),
			Offset:           rewriter.OffsetFromRemaining(remaining),
			Options: Options{
				StrictMode:       opts.StrictMode,
				HideLowTime:      opts.HideLowTime,
				MatchCommentTime: opts.MatchCommentTime,
				HighlightTime:    opts.HighlightTime,
			},
			Encoding:    doc.Encoding,
			ProcessedAt: now,
			Duration:    now.Sub(started),
		},
	}
}

// HasLowTime returns true if any token shifted below one second.
func (r *Report) HasLowTime() bool {
	return r.HadLowTime
}
