// Package highlight converts rewritten-token spans into visual markup.
//
// Text that has to pass through an external highlighter first is tagged with
// a private-use sentinel rune around every span. After the external pass the
// sentinels are located in pairs and each enclosed run is wrapped by the
// caller's markup.
package highlight

import (
	"sort"
	"strings"

	"github.com/pcrtools/tlshift/pkg/rewriter"
)

// Marker delimits a highlighted run. It is a private-use code point, so it
// does not occur in ordinary timeline text.
const Marker = '\uE000'

// Mark inserts a Marker before and after every span of text. Spans that are
// out of range or overlap an earlier span are ignored.
func Mark(text string, spans []rewriter.Span) string {
	m := string(Marker)
	return Wrap(text, spans, nil, func(s string) string { return m + s + m })
}

// Wrap rebuilds text, passing every run outside the spans through plain and
// every run inside a span through wrap. A nil plain keeps runs unchanged.
// Spans that are out of range or overlap an earlier span are ignored.
func Wrap(text string, spans []rewriter.Span, plain, wrap func(string) string) string {
	if plain == nil {
		plain = func(s string) string { return s }
	}

	var b strings.Builder
	b.Grow(len(text) + len(spans)*8)
	last := 0
	for _, s := range validSpans(text, spans) {
		b.WriteString(plain(text[last:s.Start]))
		b.WriteString(wrap(text[s.Start:s.End]))
		last = s.End
	}
	b.WriteString(plain(text[last:]))
	return b.String()
}

// validSpans returns spans sorted by start, dropping invalid and overlapping
// ones.
func validSpans(text string, spans []rewriter.Span) []rewriter.Span {
	sorted := append([]rewriter.Span(nil), spans...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Start < sorted[j].Start })

	out := sorted[:0]
	last := 0
	for _, s := range sorted {
		if s.Start < last || s.End < s.Start || s.End > len(text) {
			continue
		}
		out = append(out, s)
		last = s.End
	}
	return out
}

// Replace wraps every run enclosed by a pair of markers with wrap and drops
// the markers. If the number of markers is odd the input is returned
// unchanged.
func Replace(marked string, wrap func(string) string) string {
	n := strings.Count(marked, string(Marker))
	if n == 0 || n%2 != 0 {
		return marked
	}

	var b strings.Builder
	b.Grow(len(marked))
	rest := marked
	for {
		open := strings.IndexRune(rest, Marker)
		if open < 0 {
			b.WriteString(rest)
			break
		}
		b.WriteString(rest[:open])
		rest = rest[open+len(string(Marker)):]

		end := strings.IndexRune(rest, Marker)
		b.WriteString(wrap(rest[:end]))
		rest = rest[end+len(string(Marker)):]
	}
	return b.String()
}

// Strip removes every marker.
func Strip(s string) string {
	return strings.ReplaceAll(s, string(Marker), "")
}

// Apply wraps each span of text directly, without an intermediate marker
// pass, so markers already present in text are left alone.
func Apply(text string, spans []rewriter.Span, wrap func(string) string) string {
	return Wrap(text, spans, nil, wrap)
}
