package webhook

import (
	"context"
	"io"
	"log/slog"

	"github.com/pcrtools/tlshift/pkg/config"
	"github.com/pcrtools/tlshift/pkg/output"
)

// Delivery records the outcome of one webhook for one report.
type Delivery struct {
	Name     string
	Source   string
	Response *Response
}

// ShouldFire reports whether a webhook with the given trigger fires for a
// report.
func ShouldFire(trigger config.WebhookTrigger, lowTime bool) bool {
	switch trigger {
	case config.WebhookTriggerAlways:
		return true
	case config.WebhookTriggerNever:
		return false
	default:
		return lowTime
	}
}

// Notifier fans reports out to the configured webhooks. Failures are logged
// and returned, never fatal.
type Notifier struct {
	client *Client
	hooks  []config.WebhookConfig
	logger *slog.Logger
}

// NewNotifier creates a Notifier. A nil logger discards log output.
func NewNotifier(client *Client, hooks []config.WebhookConfig, logger *slog.Logger) *Notifier {
	if client == nil {
		client = NewClient()
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Notifier{client: client, hooks: hooks, logger: logger}
}

// Notify sends report to every webhook whose trigger matches.
func (n *Notifier) Notify(ctx context.Context, report *output.Report) []Delivery {
	var deliveries []Delivery
	for _, wh := range n.hooks {
		if !ShouldFire(wh.Trigger, report.HasLowTime()) {
			continue
		}

		resp := n.client.Send(ctx, report, SendOptions{
			URL:     wh.URL,
			Token:   wh.Token,
			Timeout: wh.Timeout,
		})

		name := wh.Name
		if name == "" {
			name = wh.URL
		}

		if resp.Success() {
			n.logger.Info("webhook sent", "webhook", name, "source", report.Source,
				"status", resp.StatusCode, "duration", resp.Duration)
		} else {
			n.logger.Warn("webhook failed", "webhook", name, "source", report.Source, "error", resp.Error)
		}

		deliveries = append(deliveries, Delivery{Name: name, Source: report.Source, Response: resp})
	}
	return deliveries
}
