package rewriter

import (
	"strconv"
	"strings"
	"unicode/utf8"
)

// Shifted is a token after the offset has been applied.
type Shifted struct {
	// Text is the reformatted token, sign and separator included.
	Text string

	// Total is the shifted value in seconds, possibly negative.
	Total int

	// LowTime reports Total < 1.
	LowTime bool
}

// Shift applies offset to tok and formats the result the way tok was
// written: seconds keep two digits, colon tokens keep at least one minute
// digit, compact tokens keep their minute width (none if they had none),
// and every digit keeps the script of its position in tok.
func Shift(tok Token, offset int) Shifted {
	total := tok.TotalSeconds() + offset

	abs := total
	if abs < 0 {
		abs = -abs
	}
	minutes, seconds := abs/60, abs%60

	minuteWidth := tok.Minutes.Len()
	if tok.Form == FormColon && minuteWidth < 1 {
		minuteWidth = 1
	}

	var minStr string
	if minuteWidth > 0 || minutes > 0 {
		minStr = zeroPad(minutes, minuteWidth)
	}
	secStr := zeroPad(seconds, tok.Seconds.Len())

	scripted := applyScript(minStr+secStr, tok.Mask())
	split := byteIndexOfRune(scripted, utf8.RuneCountInString(minStr))

	var b strings.Builder
	if total < 0 {
		b.WriteByte('-')
	}
	b.WriteString(scripted[:split])
	if tok.Form == FormColon {
		b.WriteString(tok.Separator)
	}
	b.WriteString(scripted[split:])

	return Shifted{
		Text:    b.String(),
		Total:   total,
		LowTime: total < 1,
	}
}

func zeroPad(n, width int) string {
	s := strconv.Itoa(n)
	if len(s) >= width {
		return s
	}
	return strings.Repeat("0", width-len(s)) + s
}

// byteIndexOfRune returns the byte offset of the n-th rune of s.
func byteIndexOfRune(s string, n int) int {
	i := 0
	for off := range s {
		if i == n {
			return off
		}
		i++
	}
	return len(s)
}
