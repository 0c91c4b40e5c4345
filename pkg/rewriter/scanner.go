package rewriter

// Scan returns the timestamp tokens of segment, left to right and
// non-overlapping.
//
// A token is either colon form, [0]?[01]? then ":" or "：" then [0-5]\d, or
// compact form, [0]?[01]? then [0-5]\d not followed by a colon. Digits may be
// ASCII or full-width. A token may not follow a digit, ',' '.' or any of
// rRkKvV, and may not be followed by a digit, 'w', 'W' or '-'.
func Scan(segment string) []Token {
	runes := []rune(segment)
	offsets := make([]int, 0, len(runes)+1)
	for i := range segment {
		offsets = append(offsets, i)
	}
	offsets = append(offsets, len(segment))

	var tokens []Token
	for i := 0; i < len(runes); {
		tok, end, ok := matchAt(runes, i)
		if !ok {
			i++
			continue
		}
		tok.Start = offsets[i]
		tok.End = offsets[end]
		tok.Raw = segment[tok.Start:tok.End]
		tokens = append(tokens, tok)
		i = end
	}
	return tokens
}

// matchAt tries both alternatives at position i, colon form first, with
// minute lengths in greedy-first order. end is the rune index after the match.
func matchAt(runes []rune, i int) (Token, int, bool) {
	if i > 0 && blockedBefore(runes[i-1]) {
		return Token{}, 0, false
	}
	candidates := minuteCandidates(runes, i)

	for _, m := range candidates {
		sep := i + m
		if sep >= len(runes) || !isSeparator(runes[sep]) {
			continue
		}
		if !secondsAt(runes, sep+1) || blockedAfter(runes, sep+3) {
			continue
		}
		return Token{
			Form:      FormColon,
			Minutes:   ParseDigits(string(runes[i:sep])),
			Separator: string(runes[sep]),
			Seconds:   ParseDigits(string(runes[sep+1 : sep+3])),
		}, sep + 3, true
	}

	for _, m := range candidates {
		sec := i + m
		if !secondsAt(runes, sec) {
			continue
		}
		end := sec + 2
		if end < len(runes) && isSeparator(runes[end]) {
			continue
		}
		if blockedAfter(runes, end) {
			continue
		}
		return Token{
			Form:    FormCompact,
			Minutes: ParseDigits(string(runes[i:sec])),
			Seconds: ParseDigits(string(runes[sec:end])),
		}, end, true
	}

	return Token{}, 0, false
}

// minuteCandidates lists the lengths an optional "0" followed by an optional
// "0"/"1" can take at i, longest alternative first.
func minuteCandidates(runes []rune, i int) []int {
	at := func(k int, ok func(rune) bool) bool {
		return k < len(runes) && ok(runes[k])
	}

	var out []int
	add := func(n int) {
		for _, v := range out {
			if v == n {
				return
			}
		}
		out = append(out, n)
	}

	if at(i, isZero) {
		if at(i+1, isZeroOrOne) {
			add(2)
		}
		add(1)
	}
	if at(i, isZeroOrOne) {
		add(1)
	}
	add(0)
	return out
}

func secondsAt(runes []rune, i int) bool {
	if i+1 >= len(runes) {
		return false
	}
	return isDigit(runes[i]) && digitValue(runes[i]) <= 5 && isDigit(runes[i+1])
}

func blockedBefore(r rune) bool {
	if isDigit(r) {
		return true
	}
	switch r {
	case ',', '.', 'r', 'R', 'k', 'K', 'v', 'V':
		return true
	}
	return false
}

func blockedAfter(runes []rune, i int) bool {
	if i >= len(runes) {
		return false
	}
	r := runes[i]
	return isDigit(r) || r == 'w' || r == 'W' || r == '-'
}

func isSeparator(r rune) bool { return r == ':' || r == '：' }

func isZero(r rune) bool { return r == '0' || r == '０' }

func isZeroOrOne(r rune) bool {
	return isZero(r) || r == '1' || r == '１'
}
