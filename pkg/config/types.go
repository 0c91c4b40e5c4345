// Package config provides configuration loading and validation for tlshift.
package config

import (
	"time"

	"github.com/pcrtools/tlshift/pkg/rewriter"
)

// Config is the root configuration structure loaded from YAML.
type Config struct {
	// RemainingSeconds is the battle time left when the timeline starts,
	// 0..90. Every timestamp is shifted by RemainingSeconds - 90.
	RemainingSeconds int `yaml:"remaining_seconds"`

	StrictMode       bool `yaml:"strict_mode"`
	HideLowTime      bool `yaml:"hide_low_time"`
	MatchCommentTime bool `yaml:"match_comment_time"`
	HighlightTime    bool `yaml:"highlight_time"`

	// Inputs are files or glob patterns used when none are given on the
	// command line.
	Inputs []string `yaml:"inputs,omitempty"`

	// Encoding of input files, "auto" or a WHATWG label such as "big5".
	Encoding string `yaml:"encoding,omitempty"`

	// FallbackEncoding is used in auto mode for input that is not UTF-8.
	FallbackEncoding string `yaml:"fallback_encoding,omitempty"`

	// Output is the report format: text, json or html.
	Output string `yaml:"output,omitempty"`

	// Color controls terminal highlighting: auto or never.
	Color string `yaml:"color,omitempty"`

	Webhooks []WebhookConfig `yaml:"webhooks,omitempty"`
}

// Options returns the rewriter options described by the config.
func (c *Config) Options() rewriter.Options {
	return rewriter.Options{
		StrictMode:       c.StrictMode,
		HideLowTime:      c.HideLowTime,
		MatchCommentTime: c.MatchCommentTime,
		HighlightTime:    c.HighlightTime,
	}
}

// Offset returns the shift applied to every timestamp.
func (c *Config) Offset() int {
	return rewriter.OffsetFromRemaining(c.RemainingSeconds)
}

// WebhookTrigger determines when a webhook fires.
type WebhookTrigger string

const (
	// WebhookTriggerOnLowTime fires only when a shifted time dropped below
	// one second (default).
	WebhookTriggerOnLowTime WebhookTrigger = "on_low_time"
	// WebhookTriggerAlways fires after every run.
	WebhookTriggerAlways WebhookTrigger = "always"
	// WebhookTriggerNever disables the webhook.
	WebhookTriggerNever WebhookTrigger = "never"
)

// WebhookConfig defines an endpoint that receives shift reports.
type WebhookConfig struct {
	// Name is an optional identifier for the webhook.
	Name string `yaml:"name,omitempty"`

	// URL is the webhook endpoint (required).
	URL string `yaml:"url"`

	// Token is an optional bearer token for authentication.
	Token string `yaml:"token,omitempty"`

	// Trigger determines when the webhook fires.
	// Defaults to "on_low_time" if not specified.
	Trigger WebhookTrigger `yaml:"trigger,omitempty"`

	// Timeout is the HTTP request timeout.
	// Defaults to 10s if not specified.
	Timeout time.Duration `yaml:"timeout,omitempty"`
}
