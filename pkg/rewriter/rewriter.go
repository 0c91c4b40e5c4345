package rewriter

import (
	"strings"
	"unicode/utf8"
)

// Process shifts every timestamp in input by offset seconds and applies the
// line policy described by opts. The run is self-contained: nothing is
// shared between calls.
func Process(input string, offset int, opts Options) *Result {
	lines := strings.Split(input, "\n")

	maxLen := 0
	for _, line := range lines {
		maxLen = max(maxLen, utf8.RuneCountInString(line))
	}

	state := &runState{hideLowTime: opts.HideLowTime}
	asm := &assembler{highlight: opts.HighlightTime}
	res := &Result{}
	res.Stats.InputLines = len(lines)

	for _, line := range lines {
		// Verbatim lines skip scanning but still count as token-less lines
		// for suppression.
		seg := SplitLine(line, opts.MatchCommentTime)
		rl := rewrittenLine{text: line}
		if !seg.Verbatim {
			rl = rewriteLine(seg.Eligible, offset, opts.StrictMode)
			rl.text += seg.Tail
		}
		res.Stats.TokensFound += rl.found
		res.Stats.TokensRewritten += rl.rewritten
		if rl.lowTime {
			res.HadLowTime = true
			res.Stats.LowTimeLines++
		}

		d := state.decide(lineState{matched: rl.found > 0, lowTime: rl.lowTime})
		if !d.emit {
			res.Stats.SuppressedLines++
			continue
		}
		if d.banner {
			asm.add(Banner(maxLen), nil)
			res.Stats.BannerInserted = true
		}
		asm.add(rl.text, rl.spans)
	}

	res.Text = asm.String()
	res.Spans = asm.spans
	res.Stats.OutputLines = asm.lines
	return res
}

// rewrittenLine is the eligible segment after token transformation.
type rewrittenLine struct {
	text      string
	spans     [][2]int // byte ranges of rewritten tokens within text
	found     int
	rewritten int
	lowTime   bool
}

func rewriteLine(segment string, offset int, strict bool) rewrittenLine {
	tokens := Scan(segment)
	out := rewrittenLine{found: len(tokens)}
	if len(tokens) == 0 {
		out.text = segment
		return out
	}

	var b strings.Builder
	last := 0
	for i, tok := range tokens {
		b.WriteString(segment[last:tok.Start])
		last = tok.End
		if strict && i > 0 {
			b.WriteString(tok.Raw)
			continue
		}

		shifted := Shift(tok, offset)
		if shifted.LowTime {
			out.lowTime = true
		}
		start := b.Len()
		b.WriteString(shifted.Text)
		out.spans = append(out.spans, [2]int{start, b.Len()})
		out.rewritten++
	}
	b.WriteString(segment[last:])
	out.text = b.String()
	return out
}

// assembler joins emitted lines and translates line-relative spans into
// offsets of the final text.
type assembler struct {
	b         strings.Builder
	lines     int
	highlight bool
	spans     []Span
}

func (a *assembler) add(line string, spans [][2]int) {
	if a.lines > 0 {
		a.b.WriteByte('\n')
	}
	base := a.b.Len()
	a.b.WriteString(line)
	if a.highlight {
		for _, s := range spans {
			a.spans = append(a.spans, Span{Line: a.lines, Start: base + s[0], End: base + s[1]})
		}
	}
	a.lines++
}

func (a *assembler) String() string {
	return a.b.String()
}
