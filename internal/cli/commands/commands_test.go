package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pcrtools/tlshift/pkg/config"
)

// runCommand executes cmd with args and returns what it wrote to stdout.
func runCommand(t *testing.T, cmd *cobra.Command, stdin io.Reader, args ...string) (string, error) {
	t.Helper()
	out, _, err := runCommandOutput(t, cmd, stdin, args...)
	return out, err
}

// runCommandOutput executes cmd with args and returns stdout and stderr.
func runCommandOutput(t *testing.T, cmd *cobra.Command, stdin io.Reader, args ...string) (string, string, error) {
	t.Helper()
	for _, name := range []string{
		config.EnvRemainingSeconds, config.EnvStrictMode, config.EnvHideLowTime,
		config.EnvMatchCommentTime, config.EnvHighlightTime, config.EnvEncoding,
	} {
		t.Setenv(name, "")
	}
	ExitCode = 0

	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	if stdin == nil {
		stdin = strings.NewReader("")
	}
	cmd.SetIn(stdin)
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(context.Background())
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644), "writing %s", name)
	return path
}

func TestNewShiftCommand(t *testing.T) {
	cmd := NewShiftCommand()

	assert.True(t, strings.HasPrefix(cmd.Use, "shift"), "Use = %s", cmd.Use)

	flags := []string{
		"config", "env-file", "remaining", "strict", "hide-low-time",
		"match-comment-time", "highlight", "encoding", "fallback-encoding",
		"output", "color", "markers", "verbose", "quiet",
		"webhook-url", "webhook-token", "webhook-trigger",
	}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "missing flag %s", flag)
	}
}

func TestRunShift_File(t *testing.T) {
	path := writeFile(t, t.TempDir(), "timeline.txt", "1:30 ub\nnote\n0:05 boss\n  child")

	got, err := runCommand(t, NewShiftCommand(), nil, "--env-file", "", path)
	require.NoError(t, err)

	assert.Equal(t, "0:30 ub\nnote\n", got)
	assert.Equal(t, 1, ExitCode)
}

func TestRunShift_Stdin(t *testing.T) {
	got, err := runCommand(t, NewShiftCommand(), strings.NewReader("1:30 ub 1:20"), "--env-file", "")
	require.NoError(t, err)

	assert.Equal(t, "0:30 ub 0:20\n", got)
	assert.Equal(t, 0, ExitCode)
}

func TestRunShift_Flags(t *testing.T) {
	tests := []struct {
		name  string
		args  []string
		input string
		want  string
	}{
		{"remaining", []string{"-r", "60"}, "1:30", "1:00\n"},
		{"remaining clamped high", []string{"-r", "200"}, "1:30", "1:30\n"},
		{"remaining clamped low", []string{"--remaining=-5"}, "1:45", "0:15\n"},
		{"strict", []string{"--strict"}, "1:30 1:20", "0:30 1:20\n"},
		{"comment time", []string{"--match-comment-time"}, "1:30 # 1:20", "0:30 # 0:20\n"},
		{"show low time", []string{"--hide-low-time=false"}, "0:10", "// === 補償時間不足 ===\n-0:50\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--env-file", ""}, tt.args...)
			got, err := runCommand(t, NewShiftCommand(), strings.NewReader(tt.input), args...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRunShift_HidesNotesUnderLowTimeLine(t *testing.T) {
	input := "0:50 boss ub\n// note\n  // indented note\nhttps://wiki/boss\n1:20 next"

	got, err := runCommand(t, NewShiftCommand(), strings.NewReader(input), "--env-file", "")
	require.NoError(t, err)

	assert.Equal(t, "0:20 next\n", got)
	assert.Equal(t, 1, ExitCode)
}

func TestRunShift_ConfigFileThenFlags(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "timeline.txt", "1:30 # 1:20")
	cfg := writeFile(t, dir, "tlshift.yaml", "remaining_seconds: 45\nmatch_comment_time: true\ninputs:\n  - "+input+"\n")

	got, err := runCommand(t, NewShiftCommand(), nil, "--env-file", "", "-c", cfg)
	require.NoError(t, err)
	assert.Equal(t, "0:45 # 0:35\n", got)

	got, err = runCommand(t, NewShiftCommand(), nil, "--env-file", "", "-c", cfg, "-r", "30")
	require.NoError(t, err)
	assert.Equal(t, "0:30 # 0:20\n", got, "flag should override config")
}

func TestRunShift_EnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := writeFile(t, dir, ".env", config.EnvRemainingSeconds+"=60\n")

	ExitCode = 0
	t.Setenv(config.EnvRemainingSeconds, "")
	os.Unsetenv(config.EnvRemainingSeconds)

	var out bytes.Buffer
	cmd := NewShiftCommand()
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetIn(strings.NewReader("1:30"))
	cmd.SetArgs([]string{"--env-file", envFile})

	require.NoError(t, cmd.ExecuteContext(context.Background()))
	assert.Equal(t, "1:00\n", out.String())
}

func TestRunShift_MultipleInputs(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.txt", "1:30")
	writeFile(t, dir, "b.txt", "0:05")

	got, err := runCommand(t, NewShiftCommand(), nil, "--env-file", "", filepath.Join(dir, "*.txt"))
	require.NoError(t, err)

	assert.Contains(t, got, "==> "+filepath.Join(dir, "a.txt")+" <==\n0:30\n")
	assert.Contains(t, got, "==> "+filepath.Join(dir, "b.txt")+" <==\n")
	assert.Equal(t, 1, ExitCode)
}

func TestRunShift_JSON(t *testing.T) {
	got, err := runCommand(t, NewShiftCommand(), strings.NewReader("1:30 ub"), "--env-file", "", "-o", "json", "--highlight")
	require.NoError(t, err)

	var report struct {
		Source string `json:"source"`
		Text   string `json:"text"`
		Spans  []struct {
			Start int `json:"start"`
			End   int `json:"end"`
		} `json:"spans"`
	}
	require.NoError(t, json.Unmarshal([]byte(got), &report))
	assert.Equal(t, "-", report.Source)
	assert.Equal(t, "0:30 ub", report.Text)
	require.Len(t, report.Spans, 1)
	assert.Equal(t, 4, report.Spans[0].End)
}

func TestRunShift_HTML(t *testing.T) {
	got, err := runCommand(t, NewShiftCommand(), strings.NewReader("1:30 <b>"), "--env-file", "", "-o", "html", "--highlight")
	require.NoError(t, err)

	want := `<pre><code><span class="time-highlight">0:30</span> &lt;b&gt;</code></pre>` + "\n"
	assert.Equal(t, want, got)
}

func TestRunShift_Markers(t *testing.T) {
	got, err := runCommand(t, NewShiftCommand(), strings.NewReader("1:30 ub"), "--env-file", "", "--highlight", "--markers")
	require.NoError(t, err)

	assert.Equal(t, "\uE000"+"0:30"+"\uE000"+" ub\n", got)
}

func TestRunShift_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing file", []string{"/nonexistent/timeline.txt"}},
		{"missing config", []string{"-c", "/nonexistent/tlshift.yaml"}},
		{"bad output", []string{"-o", "xml"}},
		{"bad encoding", []string{"--encoding", "klingon"}},
		{"bad color", []string{"--color", "always"}},
		{"bad webhook trigger", []string{"--webhook-url", "http://localhost:1", "--webhook-trigger", "sometimes"}},
		{"bad webhook url", []string{"--webhook-url", "ftp://example.com"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{"--env-file", ""}, tt.args...)
			_, err := runCommand(t, NewShiftCommand(), strings.NewReader("1:30"), args...)
			assert.Error(t, err)
		})
	}
}

func TestRunShift_Webhook(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, err := runCommand(t, NewShiftCommand(), strings.NewReader("1:30"),
		"--env-file", "", "--webhook-url", server.URL, "--webhook-trigger", "always")
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())

	// default trigger only fires on low time
	_, err = runCommand(t, NewShiftCommand(), strings.NewReader("1:30"),
		"--env-file", "", "--webhook-url", server.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestRunShift_VerboseLogsWebhookDeliveries(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	_, stderr, err := runCommandOutput(t, NewShiftCommand(), strings.NewReader("1:30"),
		"--env-file", "", "-v", "--webhook-url", server.URL, "--webhook-trigger", "always")
	require.NoError(t, err)

	assert.Contains(t, stderr, "webhook deliveries")
	assert.Contains(t, stderr, "sent=1")
	assert.Contains(t, stderr, "failed=0")
}

func TestRunShift_WebhookFailureDoesNotFail(t *testing.T) {
	_, err := runCommand(t, NewShiftCommand(), strings.NewReader("0:10"),
		"--env-file", "", "--webhook-url", "http://127.0.0.1:59999")
	require.NoError(t, err)
	assert.Equal(t, 1, ExitCode)
}

func TestNewScanCommand(t *testing.T) {
	cmd := NewScanCommand()

	for _, flag := range []string{"output", "remaining", "strict", "match-comment-time", "encoding", "write-config"} {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "missing flag %s", flag)
	}
}

func TestRunScan_Text(t *testing.T) {
	input := "1:30 ub 1:20 # 1:10\n0:05 boss"

	got, err := runCommand(t, NewScanCommand(), strings.NewReader(input), "--strict")
	require.NoError(t, err)

	for _, want := range []string{
		"=== - (utf-8, offset -60) ===",
		"(skipped: strict)",
		"(skipped: comment)",
		"LOW TIME",
		"Summary: 4 tokens, 2 rewritten, 1 low time",
	} {
		assert.Contains(t, got, want)
	}
}

func TestRunScan_NoTokens(t *testing.T) {
	got, err := runCommand(t, NewScanCommand(), strings.NewReader("nothing here"))
	require.NoError(t, err)
	assert.Contains(t, got, "No timestamps found.")
}

func TestRunScan_JSON(t *testing.T) {
	got, err := runCommand(t, NewScanCommand(), strings.NewReader("１：３０ ０４５"), "-o", "json", "-r", "45")
	require.NoError(t, err)

	var results []ScanOutput
	require.NoError(t, json.Unmarshal([]byte(got), &results))
	require.Len(t, results, 1)
	require.Len(t, results[0].Tokens, 2)

	tok := results[0].Tokens[0]
	assert.Equal(t, "colon", tok.Form)
	assert.Equal(t, "1:30", tok.Normalized)
	assert.Equal(t, 90, tok.TotalSeconds)
	assert.Equal(t, "０：４５", tok.Shifted)
	assert.Equal(t, 45, tok.ShiftedTotal)

	compact := results[0].Tokens[1]
	assert.Equal(t, "compact", compact.Form)
	assert.Equal(t, "045", compact.Normalized)
}

func TestRunScan_InvalidOutput(t *testing.T) {
	_, err := runCommand(t, NewScanCommand(), strings.NewReader("1:30"), "-o", "html")
	assert.Error(t, err)
}

func TestRunScan_WriteConfig(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "timeline.txt", "1:30")
	cfgPath := filepath.Join(dir, "tlshift.yaml")

	_, err := runCommand(t, NewScanCommand(), nil, "-r", "50", "--strict", "-w", cfgPath, input)
	require.NoError(t, err)

	cfg, err := config.Load(context.Background(), cfgPath)
	require.NoError(t, err, "written config does not load")
	assert.Equal(t, 50, cfg.RemainingSeconds)
	assert.True(t, cfg.StrictMode)
	assert.Equal(t, []string{input}, cfg.Inputs)

	// refuses to overwrite
	_, err = runCommand(t, NewScanCommand(), nil, "-w", cfgPath, input)
	assert.Error(t, err)
}

func TestNewValidateCommand(t *testing.T) {
	cmd := NewValidateCommand()

	assert.Equal(t, "validate <config-file>", cmd.Use)
	assert.Contains(t, cmd.Long, "Validate")
}

func TestRunValidate_Success(t *testing.T) {
	dir := t.TempDir()
	input := writeFile(t, dir, "timeline.txt", "1:30")
	configPath := writeFile(t, dir, "tlshift.yaml", `remaining_seconds: 20
inputs:
  - `+input+`
  - `+filepath.Join(dir, "missing.txt")+`
`)

	got, err := runCommand(t, NewValidateCommand(), nil, configPath)
	require.NoError(t, err)

	for _, want := range []string{"Configuration valid!", "offset -70", "Inputs matched: 2", "(warning: not found)"} {
		assert.Contains(t, got, want)
	}
}

func TestRunValidate_InvalidConfig(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"invalid yaml", "invalid: yaml: content"},
		{"out of range", "remaining_seconds: 120\n"},
		{"bad output", "output: pdf\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			configPath := writeFile(t, t.TempDir(), "tlshift.yaml", tt.content)
			_, err := runCommand(t, NewValidateCommand(), nil, configPath)
			assert.Error(t, err)
		})
	}
}

func TestRunValidate_MissingFile(t *testing.T) {
	_, err := runCommand(t, NewValidateCommand(), nil, "/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestNewVersionCommand(t *testing.T) {
	got, err := runCommand(t, NewVersionCommand(), nil)
	require.NoError(t, err)
	assert.Equal(t, "tlshift dev\n", got)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		verbose, quiet bool
		level          slog.Level
	}{
		{false, false, slog.LevelInfo},
		{true, false, slog.LevelDebug},
		{false, true, slog.LevelError},
		{true, true, slog.LevelDebug},
	}

	for _, tt := range tests {
		logger := newLogger(io.Discard, tt.verbose, tt.quiet)
		assert.True(t, logger.Enabled(context.Background(), tt.level),
			"verbose=%v quiet=%v: level %v disabled", tt.verbose, tt.quiet, tt.level)
		if tt.level > slog.LevelDebug {
			assert.False(t, logger.Enabled(context.Background(), tt.level-4),
				"verbose=%v quiet=%v: level below %v enabled", tt.verbose, tt.quiet, tt.level)
		}
	}
}
