package rewriter

import "strings"

// Segment is a line split into the part eligible for rewriting and the
// comment tail that is reattached verbatim.
type Segment struct {
	Eligible string
	Tail     string

	// Verbatim lines are never scanned: lines holding a URL, and lines that
	// are a comment from the first character. They are still subject to
	// low-time suppression.
	Verbatim bool
}

// SplitLine applies the URL guard and, unless matchCommentTime is set, splits
// the line at the earliest "#" or "//".
func SplitLine(line string, matchCommentTime bool) Segment {
	if isURLLine(line) {
		return Segment{Eligible: line, Verbatim: true}
	}
	if matchCommentTime {
		return Segment{Eligible: line}
	}

	idx := commentIndex(line)
	switch {
	case idx < 0:
		return Segment{Eligible: line}
	case idx == 0:
		return Segment{Eligible: line, Verbatim: true}
	}
	return Segment{Eligible: line[:idx], Tail: line[idx:]}
}

func commentIndex(line string) int {
	hash := strings.IndexByte(line, '#')
	slash := strings.Index(line, "//")
	switch {
	case hash < 0:
		return slash
	case slash < 0:
		return hash
	}
	return min(hash, slash)
}
