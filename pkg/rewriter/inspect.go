package rewriter

import (
	"strings"
	"unicode/utf8"
)

// Reasons a found token is left unchanged by Process.
const (
	SkipStrict  = "strict"
	SkipComment = "comment"
	SkipURL     = "url"
)

// Finding is a token located by Inspect.
type Finding struct {
	// Line is the 0-based input line.
	Line int

	// Column is the 1-based code point position of the token in the line.
	Column int

	Token   Token
	Shifted Shifted

	// Skip is empty when Process would rewrite the token, otherwise one of
	// SkipStrict, SkipComment or SkipURL.
	Skip string
}

// Inspect lists every timestamp token in input without rewriting anything.
// Tokens in comments and URL lines are reported too, marked with the reason
// Process leaves them alone.
func Inspect(input string, offset int, opts Options) []Finding {
	var findings []Finding
	for i, line := range strings.Split(input, "\n") {
		seg := SplitLine(line, opts.MatchCommentTime)

		eligible, tail, tailSkip := seg.Eligible, seg.Tail, SkipComment
		if seg.Verbatim {
			eligible, tail = "", line
			if isURLLine(line) {
				tailSkip = SkipURL
			}
		}

		for n, tok := range Scan(eligible) {
			f := newFinding(i, line, 0, tok, offset)
			if opts.StrictMode && n > 0 {
				f.Skip = SkipStrict
			}
			findings = append(findings, f)
		}

		base := len(line) - len(tail)
		for _, tok := range Scan(tail) {
			f := newFinding(i, line, base, tok, offset)
			f.Skip = tailSkip
			findings = append(findings, f)
		}
	}
	return findings
}

func newFinding(lineIdx int, line string, base int, tok Token, offset int) Finding {
	tok.Start += base
	tok.End += base
	return Finding{
		Line:    lineIdx,
		Column:  utf8.RuneCountInString(line[:tok.Start]) + 1,
		Token:   tok,
		Shifted: Shift(tok, offset),
	}
}

func isURLLine(line string) bool {
	return strings.Contains(line, "http://") || strings.Contains(line, "https://")
}
