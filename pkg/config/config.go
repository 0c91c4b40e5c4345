package config

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pcrtools/tlshift/pkg/input"
	"github.com/pcrtools/tlshift/pkg/rewriter"
)

// Load reads and validates a configuration file. An empty path yields the
// defaults with environment overrides applied.
func Load(_ context.Context, path string) (*Config, error) {
	cfg := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path) // #nosec G304 -- user-provided config path is expected
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	if err := cfg.applyEnvironmentOverrides(); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Validate checks a configuration for errors and fills defaults for
// optional fields.
func Validate(cfg *Config) error {
	if cfg.RemainingSeconds < rewriter.MinRemainingSeconds || cfg.RemainingSeconds > rewriter.MaxRemainingSeconds {
		return fmt.Errorf("remaining_seconds: %d out of range %d..%d",
			cfg.RemainingSeconds, rewriter.MinRemainingSeconds, rewriter.MaxRemainingSeconds)
	}

	if cfg.Encoding == "" {
		cfg.Encoding = input.AutoEncoding
	}
	if err := input.CheckEncoding(cfg.Encoding); err != nil {
		return fmt.Errorf("encoding: %w", err)
	}
	if cfg.FallbackEncoding != "" {
		if strings.EqualFold(cfg.FallbackEncoding, input.AutoEncoding) {
			return errors.New("fallback_encoding: must name a concrete encoding")
		}
		if err := input.CheckEncoding(cfg.FallbackEncoding); err != nil {
			return fmt.Errorf("fallback_encoding: %w", err)
		}
	}

	if cfg.Output == "" {
		cfg.Output = DefaultOutput
	}
	switch cfg.Output {
	case "text", "json", "html":
	default:
		return fmt.Errorf("output: invalid format %q (must be text, json, or html)", cfg.Output)
	}

	if cfg.Color == "" {
		cfg.Color = DefaultColor
	}
	switch cfg.Color {
	case "auto", "never":
	default:
		return fmt.Errorf("color: invalid value %q (must be auto or never)", cfg.Color)
	}

	// Webhooks are optional, but validate if present
	for i := range cfg.Webhooks {
		if err := validateWebhook(&cfg.Webhooks[i]); err != nil {
			name := cfg.Webhooks[i].Name
			if name == "" {
				name = cfg.Webhooks[i].URL
			}
			return fmt.Errorf("webhooks[%d] (%s): %w", i, name, err)
		}
	}

	return nil
}

func validateWebhook(wh *WebhookConfig) error {
	if wh.URL == "" {
		return errors.New("url is required")
	}

	u, err := url.Parse(wh.URL)
	if err != nil {
		return fmt.Errorf("invalid url: %w", err)
	}

	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("url scheme must be http or https, got %q", u.Scheme)
	}

	if u.Host == "" {
		return errors.New("url must have a host")
	}

	// Expand environment variables in token
	wh.Token = expandEnvVar(wh.Token)

	if wh.Trigger != "" {
		if err := ValidateTrigger(wh.Trigger); err != nil {
			return err
		}
	} else {
		wh.Trigger = WebhookTriggerOnLowTime
	}

	if wh.Timeout <= 0 {
		wh.Timeout = DefaultWebhookTimeout
	}

	return nil
}

// ValidateTrigger reports whether t is a known webhook trigger.
func ValidateTrigger(t WebhookTrigger) error {
	switch t {
	case WebhookTriggerOnLowTime, WebhookTriggerAlways, WebhookTriggerNever:
		return nil
	}
	return fmt.Errorf("invalid trigger %q (must be on_low_time, always, or never)", t)
}

// expandEnvVar expands environment variables in the format ${VAR} or $VAR.
func expandEnvVar(s string) string {
	if s == "" {
		return s
	}

	if strings.HasPrefix(s, "${") && strings.HasSuffix(s, "}") {
		return os.Getenv(s[2 : len(s)-1])
	}

	if strings.HasPrefix(s, "$") && !strings.HasPrefix(s, "${") {
		return os.Getenv(s[1:])
	}

	return s
}
