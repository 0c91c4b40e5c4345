package rewriter

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOffsetFromRemaining(t *testing.T) {
	assert.Equal(t, -60, OffsetFromRemaining(30))
	assert.Equal(t, -90, OffsetFromRemaining(0))
	assert.Equal(t, 0, OffsetFromRemaining(90))
	assert.Equal(t, -90, OffsetFromRemaining(-5))
	assert.Equal(t, 0, OffsetFromRemaining(120))
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.True(t, opts.HideLowTime)
	assert.False(t, opts.StrictMode)
	assert.False(t, opts.MatchCommentTime)
	assert.False(t, opts.HighlightTime)
}

func TestProcess_SuppressesLowTimeLineWithoutBanner(t *testing.T) {
	res := Process("1:30\nnote\n0:05", -60, DefaultOptions())

	assert.Equal(t, "0:30\nnote", res.Text)
	assert.True(t, res.HadLowTime)
	assert.False(t, res.Stats.BannerInserted)
	assert.Equal(t, 1, res.Stats.SuppressedLines)
	assert.Equal(t, 3, res.Stats.InputLines)
	assert.Equal(t, 2, res.Stats.OutputLines)
}

func TestProcess_BannerBeforeFirstLowTimeLine(t *testing.T) {
	res := Process("1:30\nnote\n0:05", -60, Options{})

	assert.Equal(t, "0:30\nnote\n// === 補償時間不足 ===\n-0:55", res.Text)
	assert.True(t, res.HadLowTime)
	assert.True(t, res.Stats.BannerInserted)
}

func TestProcess_BannerOnlyOnce(t *testing.T) {
	res := Process("0:10\n0:20\n0:30", -60, Options{})

	assert.Equal(t, 1, strings.Count(res.Text, BannerText))
	assert.Equal(t, "// === 補償時間不足 ===\n-0:50\n-0:40\n-0:30", res.Text)
	assert.Equal(t, 3, res.Stats.LowTimeLines)
}

func TestProcess_BannerPaddedToLongestLine(t *testing.T) {
	input := "1:30 a fairly long opening line\n0:10"
	res := Process(input, -60, Options{})

	lines := strings.Split(res.Text, "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, Banner(len("1:30 a fairly long opening line")), lines[1])
	assert.Equal(t, "-0:50", lines[2])
}

func TestProcess_SuppressesFollowersUntilNextTimestamp(t *testing.T) {
	input := strings.Join([]string{
		"1:30 open",
		"0:10 boss",
		"  child a",
		"  child b",
		"1:20 next",
		"  child c",
	}, "\n")

	res := Process(input, -60, DefaultOptions())

	assert.Equal(t, "0:30 open\n0:20 next\n  child c", res.Text)
	assert.Equal(t, 3, res.Stats.SuppressedLines)
}

func TestProcess_FollowersKeptWhenNotHiding(t *testing.T) {
	res := Process("0:10 boss\n  child", -60, Options{})

	assert.Equal(t, "// === 補償時間不足 ===\n-0:50 boss\n  child", res.Text)
}

func TestProcess_StrictMode(t *testing.T) {
	opts := DefaultOptions()
	opts.StrictMode = true

	res := Process("1:30 ub 1:20 set 1:10", -60, opts)

	assert.Equal(t, "0:30 ub 1:20 set 1:10", res.Text)
	assert.Equal(t, 3, res.Stats.TokensFound)
	assert.Equal(t, 1, res.Stats.TokensRewritten)
}

func TestProcess_StrictModeIgnoresLaterLowTime(t *testing.T) {
	opts := DefaultOptions()
	opts.StrictMode = true

	res := Process("1:30 then 0:10", -60, opts)

	assert.Equal(t, "0:30 then 0:10", res.Text)
	assert.False(t, res.HadLowTime)
}

func TestProcess_AllTokensWithoutStrictMode(t *testing.T) {
	res := Process("1:30 ub 1:20 set 1:10", -60, DefaultOptions())

	assert.Equal(t, "0:30 ub 0:20 set 0:10", res.Text)
}

func TestProcess_LowTimeFromAnyTokenOnLine(t *testing.T) {
	res := Process("0:10 then 1:30\nnext", -60, DefaultOptions())

	assert.Equal(t, "", res.Text)
	assert.Equal(t, 2, res.Stats.SuppressedLines)
}

func TestProcess_Comments(t *testing.T) {
	tests := []struct {
		name         string
		input        string
		matchComment bool
		want         string
	}{
		{"hash tail kept", "1:30 # at 1:20", false, "0:30 # at 1:20"},
		{"slash tail kept", "1:30 // at 1:20", false, "0:30 // at 1:20"},
		{"earliest marker wins", "1:30 // x # 1:20", false, "0:30 // x # 1:20"},
		{"whole line comment", "# 1:30", false, "# 1:30"},
		{"whole line slash comment", "// 1:30", false, "// 1:30"},
		{"comment time matched", "1:30 # at 1:20", true, "0:30 # at 0:20"},
		{"comment line matched", "// 1:30", true, "// 0:30"},
		{"single slash is not a comment", "1:30 / 1:20", false, "0:30 / 0:20"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := DefaultOptions()
			opts.MatchCommentTime = tt.matchComment
			assert.Equal(t, tt.want, Process(tt.input, -60, opts).Text)
		})
	}
}

func TestProcess_CommentAndURLLinesFollowSuppression(t *testing.T) {
	input := strings.Join([]string{
		"0:50 boss ub",
		"// note A",
		"  // note B",
		"note C",
		"https://wiki/x",
		"1:20 next",
		"// note D",
		"https://wiki/y",
	}, "\n")

	res := Process(input, -60, DefaultOptions())

	assert.Equal(t, "0:20 next\n// note D\nhttps://wiki/y", res.Text)
	assert.Equal(t, 5, res.Stats.SuppressedLines)
	assert.True(t, res.HadLowTime)
}

func TestProcess_CommentLinesKeptWhenNotHiding(t *testing.T) {
	res := Process("0:10 boss\n// note\nhttps://wiki/x", -60, Options{})

	assert.Equal(t, "// === 補償時間不足 ===\n-0:50 boss\n// note\nhttps://wiki/x", res.Text)
	assert.Zero(t, res.Stats.SuppressedLines)
}

func TestProcess_URLLinesVerbatim(t *testing.T) {
	input := "https://example.com/1:30\nsee http://x/130 at 1:30\n1:30"
	res := Process(input, -60, DefaultOptions())

	assert.Equal(t, "https://example.com/1:30\nsee http://x/130 at 1:30\n0:30", res.Text)
	assert.Equal(t, 1, res.Stats.TokensFound)
}

func TestProcess_FullWidth(t *testing.T) {
	res := Process("１：３０　ＵＢ\n１３０", -60, DefaultOptions())

	assert.Equal(t, "０：３０　ＵＢ\n０３０", res.Text)
}

func TestProcess_PreservesCarriageReturns(t *testing.T) {
	res := Process("1:30\r\nnote\r\n", -60, DefaultOptions())

	assert.Equal(t, "0:30\r\nnote\r\n", res.Text)
}

func TestProcess_NoTimestamps(t *testing.T) {
	input := "just a note\n\nanother"
	res := Process(input, -60, DefaultOptions())

	assert.Equal(t, input, res.Text)
	assert.False(t, res.HadLowTime)
	assert.Zero(t, res.Stats.TokensFound)
}

func TestProcess_EmptyInput(t *testing.T) {
	res := Process("", -60, DefaultOptions())

	assert.Equal(t, "", res.Text)
	assert.False(t, res.HadLowTime)
}

func TestProcess_HighlightSpans(t *testing.T) {
	opts := Options{HighlightTime: true}
	res := Process("note\n1:30 x 1:10\n0:05", -60, opts)

	require.Len(t, res.Spans, 3)
	lines := strings.Split(res.Text, "\n")
	require.Len(t, lines, 4)

	var got []string
	for _, s := range res.Spans {
		got = append(got, res.Text[s.Start:s.End])
	}
	assert.Equal(t, []string{"0:30", "0:10", "-0:55"}, got)
	assert.Equal(t, 1, res.Spans[0].Line)
	assert.Equal(t, 1, res.Spans[1].Line)
	// the banner shifts the last rewritten line down by one
	assert.Equal(t, 3, res.Spans[2].Line)
}

func TestProcess_HighlightSpansOnlyForRewrittenTokens(t *testing.T) {
	opts := Options{HighlightTime: true, StrictMode: true}
	res := Process("1:30 1:20 # 1:10", -60, opts)

	require.Len(t, res.Spans, 1)
	assert.Equal(t, "0:30", res.Text[res.Spans[0].Start:res.Spans[0].End])
}

func TestProcess_NoSpansWithoutHighlight(t *testing.T) {
	res := Process("1:30", -60, DefaultOptions())
	assert.Empty(t, res.Spans)
}

func TestProcess_IndependentRuns(t *testing.T) {
	input := "0:10\nchild\n1:30"
	first := Process(input, -60, Options{})
	second := Process(input, -60, Options{})

	assert.Equal(t, first, second)
	assert.True(t, second.Stats.BannerInserted)
}
