package rewriter

import (
	"strings"
	"unicode/utf8"
)

// BannerText is the warning shown before the first emitted low-time line.
const BannerText = "=== 補償時間不足 ==="

// BannerPrefix makes the banner a comment line.
const BannerPrefix = "// "

// Banner centres BannerText in '=' padding so it is width code points wide
// (never narrower than BannerText), prefixed with BannerPrefix.
func Banner(width int) string {
	pad := max(0, width-utf8.RuneCountInString(BannerText))
	left := pad / 2
	right := pad - left
	return BannerPrefix + strings.Repeat("=", left) + BannerText + strings.Repeat("=", right)
}

// lineState is what the policy needs to know about one processed line.
type lineState struct {
	matched bool
	lowTime bool
}

// decision is the policy verdict for one line.
type decision struct {
	emit   bool
	banner bool
}

// runState carries the only state shared between lines of a run.
type runState struct {
	warningShown  bool
	skipFollowers bool
	hideLowTime   bool
}

// decide runs the per-line state machine. Suppression is decided before the
// banner, so a suppressed line never receives it.
func (s *runState) decide(line lineState) decision {
	if line.matched {
		s.skipFollowers = line.lowTime && s.hideLowTime
		if s.skipFollowers {
			return decision{}
		}
	} else if s.skipFollowers {
		return decision{}
	}

	d := decision{emit: true}
	if line.lowTime && !s.warningShown {
		d.banner = true
		s.warningShown = true
	}
	return d
}
