package rewriter

import (
	"strconv"
	"strings"

	"golang.org/x/text/width"
)

// Digits is a run of decimal digits paired with the script (half-width or
// full-width) of every position.
type Digits struct {
	ascii string
	wide  []bool
}

// ParseDigits folds s to ASCII digits and records which positions were
// full-width. s must contain only digits accepted by isDigit.
func ParseDigits(s string) Digits {
	d := Digits{ascii: width.Narrow.String(s)}
	for _, r := range s {
		d.wide = append(d.wide, isWideDigit(r))
	}
	return d
}

// Len returns the number of digit positions.
func (d Digits) Len() int {
	return len(d.wide)
}

// ASCII returns the half-width form.
func (d Digits) ASCII() string {
	return d.ascii
}

// Value returns the numeric value, 0 for an empty run.
func (d Digits) Value() int {
	if d.ascii == "" {
		return 0
	}
	n, err := strconv.Atoi(d.ascii)
	if err != nil {
		return 0
	}
	return n
}

// String returns the digits in their original script.
func (d Digits) String() string {
	return applyScript(d.ascii, d.wide)
}

// Mask returns a copy of the per-position full-width flags.
func (d Digits) Mask() []bool {
	return append([]bool(nil), d.wide...)
}

// applyScript widens the ASCII digits of s wherever mask is set. Positions
// past the end of the mask reuse its last flag.
func applyScript(s string, mask []bool) string {
	if len(mask) == 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s) * 3)
	i := 0
	for _, r := range s {
		wide := mask[len(mask)-1]
		if i < len(mask) {
			wide = mask[i]
		}
		if wide {
			b.WriteString(width.Widen.String(string(r)))
		} else {
			b.WriteRune(r)
		}
		i++
	}
	return b.String()
}

func isASCIIDigit(r rune) bool { return r >= '0' && r <= '9' }

func isWideDigit(r rune) bool { return r >= '０' && r <= '９' }

func isDigit(r rune) bool { return isASCIIDigit(r) || isWideDigit(r) }

// digitValue returns the numeric value of an ASCII or full-width digit.
func digitValue(r rune) int {
	if isWideDigit(r) {
		return int(r - '０')
	}
	return int(r - '0')
}
