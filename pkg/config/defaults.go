package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/pcrtools/tlshift/pkg/input"
	"github.com/pcrtools/tlshift/pkg/rewriter"
)

// Default values for configuration.
const (
	DefaultWebhookTimeout = 10 * time.Second
	DefaultOutput         = "text"
	DefaultColor          = "auto"
	DefaultEnvFile        = ".env"
)

// Environment variable names.
const (
	EnvRemainingSeconds = "TLSHIFT_REMAINING_SECONDS"
	EnvStrictMode       = "TLSHIFT_STRICT_MODE"
	EnvHideLowTime      = "TLSHIFT_HIDE_LOW_TIME"
	EnvMatchCommentTime = "TLSHIFT_MATCH_COMMENT_TIME"
	EnvHighlightTime    = "TLSHIFT_HIGHLIGHT_TIME"
	EnvEncoding         = "TLSHIFT_ENCODING"
)

// DefaultConfig returns the configuration a fresh session starts with.
func DefaultConfig() *Config {
	opts := rewriter.DefaultOptions()
	return &Config{
		RemainingSeconds: rewriter.DefaultRemainingSeconds,
		StrictMode:       opts.StrictMode,
		HideLowTime:      opts.HideLowTime,
		MatchCommentTime: opts.MatchCommentTime,
		HighlightTime:    opts.HighlightTime,
		Encoding:         input.AutoEncoding,
		Output:           DefaultOutput,
		Color:            DefaultColor,
	}
}

// LoadEnvFile loads variables from a dotenv file without overriding ones
// already set. A missing file is not an error.
func LoadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading env file %s: %w", path, err)
	}
	return nil
}

// applyEnvironmentOverrides applies environment variable overrides to the config.
func (c *Config) applyEnvironmentOverrides() error {
	if v := os.Getenv(EnvRemainingSeconds); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvRemainingSeconds, err)
		}
		c.RemainingSeconds = n
	}

	bools := []struct {
		name string
		dst  *bool
	}{
		{EnvStrictMode, &c.StrictMode},
		{EnvHideLowTime, &c.HideLowTime},
		{EnvMatchCommentTime, &c.MatchCommentTime},
		{EnvHighlightTime, &c.HighlightTime},
	}
	for _, b := range bools {
		v := os.Getenv(b.name)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", b.name, err)
		}
		*b.dst = parsed
	}

	if v := os.Getenv(EnvEncoding); v != "" {
		c.Encoding = v
	}
	return nil
}
