// Package rewriter shifts M:SS and MSS timestamps embedded in free-form
// timeline text by a fixed number of seconds.
//
// Processing is line oriented. Each line is split into a rewritable segment
// and a verbatim comment tail, timestamp tokens are located in the segment,
// shifted, and reformatted in the digit width and script they were written
// in. Lines whose shifted time drops below one second can be hidden together
// with the annotation lines that follow them.
package rewriter

// Battle timing bounds, in seconds.
const (
	BattleSeconds           = 90
	MinRemainingSeconds     = 0
	MaxRemainingSeconds     = 90
	DefaultRemainingSeconds = 30
)

// Options controls a single Process run.
type Options struct {
	// StrictMode rewrites only the first token of each line.
	StrictMode bool

	// HideLowTime suppresses a line whose shifted time is below one second,
	// together with the token-less lines that follow it.
	HideLowTime bool

	// MatchCommentTime disables comment detection so timestamps after
	// "#" or "//" are rewritten as well.
	MatchCommentTime bool

	// HighlightTime records the output span of every rewritten token.
	HighlightTime bool
}

// DefaultOptions returns the options a fresh session starts with.
func DefaultOptions() Options {
	return Options{HideLowTime: true}
}

// OffsetFromRemaining clamps remaining to 0..90 and converts it into the
// offset applied to every token.
func OffsetFromRemaining(remaining int) int {
	return ClampRemaining(remaining) - BattleSeconds
}

// ClampRemaining limits remaining seconds to the valid battle range.
func ClampRemaining(remaining int) int {
	switch {
	case remaining < MinRemainingSeconds:
		return MinRemainingSeconds
	case remaining > MaxRemainingSeconds:
		return MaxRemainingSeconds
	}
	return remaining
}

// Form identifies which timestamp alternative a token matched.
type Form int

const (
	// FormColon is M:SS with an ASCII or full-width colon.
	FormColon Form = iota
	// FormCompact is MSS without a separator.
	FormCompact
)

func (f Form) String() string {
	if f == FormColon {
		return "colon"
	}
	return "compact"
}

// Token is a timestamp found in a line's eligible segment.
type Token struct {
	// Raw is the matched text.
	Raw string

	// Start and End are byte offsets of Raw within the scanned segment.
	Start int
	End   int

	Form    Form
	Minutes Digits
	Seconds Digits

	// Separator is ":" or "：" for colon tokens, empty otherwise.
	Separator string
}

// Mask returns the digit-script flags of the token, minutes then seconds.
func (t Token) Mask() []bool {
	return append(t.Minutes.Mask(), t.Seconds.wide...)
}

// Normalized returns the token with half-width digits and an ASCII colon.
func (t Token) Normalized() string {
	if t.Form == FormColon {
		return t.Minutes.ASCII() + ":" + t.Seconds.ASCII()
	}
	return t.Minutes.ASCII() + t.Seconds.ASCII()
}

// TotalSeconds is the unshifted value of the token.
func (t Token) TotalSeconds() int {
	return t.Minutes.Value()*60 + t.Seconds.Value()
}

// Span locates a highlighted token in Result.Text.
type Span struct {
	// Line is the 0-based index of the output line.
	Line int `json:"line"`

	// Start and End are byte offsets into Result.Text.
	Start int `json:"start"`
	End   int `json:"end"`
}

// Stats summarises a run.
type Stats struct {
	InputLines      int  `json:"input_lines"`
	OutputLines     int  `json:"output_lines"`
	SuppressedLines int  `json:"suppressed_lines"`
	TokensFound     int  `json:"tokens_found"`
	TokensRewritten int  `json:"tokens_rewritten"`
	LowTimeLines    int  `json:"low_time_lines"`
	BannerInserted  bool `json:"banner_inserted"`
}

// Result is the outcome of Process.
type Result struct {
	Text       string
	HadLowTime bool

	// Spans is populated only when Options.HighlightTime is set.
	Spans []Span

	Stats Stats
}
