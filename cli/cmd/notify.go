package cmd

import (
	"context"
	"time"

	"github.com/pithecene-io/mediaresolve/adapter"
	"github.com/pithecene-io/mediaresolve/adapter/redis"
	"github.com/pithecene-io/mediaresolve/adapter/webhook"
	"github.com/pithecene-io/mediaresolve/log"
	"github.com/pithecene-io/mediaresolve/metrics"
	"github.com/pithecene-io/mediaresolve/types"
)

// Adapter types accepted by --adapter.
const (
	adapterWebhook = "webhook"
	adapterRedis   = "redis"
)

// newAdapter builds the configured adapter. Returns nil when none is set.
func newAdapter(choice adapterChoice) (adapter.Adapter, error) {
	switch choice.kind {
	case adapterWebhook:
		cfg := webhook.Config{
			URL:     choice.url,
			Headers: choice.headers,
			Timeout: choice.timeout,
			Retries: webhook.DefaultRetries,
		}
		if choice.retries != nil {
			cfg.Retries = *choice.retries
		}
		return webhook.New(cfg)
	case adapterRedis:
		cfg := redis.Config{
			URL:     choice.url,
			Channel: choice.channel,
			Timeout: choice.timeout,
			Retries: redis.DefaultRetries,
		}
		if choice.retries != nil {
			cfg.Retries = *choice.retries
		}
		return redis.New(cfg)
	default:
		return nil, nil
	}
}

// notify publishes the completion event. Failures are logged and counted
// but never change the batch result.
func notify(ctx context.Context, a adapter.Adapter, outcome *types.BatchOutcome, label *string, reportPath string, logger *log.Logger, collector *metrics.Collector) {
	event := adapter.NewBatchCompletedEvent(outcome, label, reportPath, time.Now())
	if err := a.Publish(ctx, event); err != nil {
		collector.IncNotify(false)
		logger.Warn("completion notification failed", map[string]any{
			"batch_id": outcome.BatchID,
			"error":    err.Error(),
		})
		return
	}
	collector.IncNotify(true)
	logger.Debug("completion notification sent", map[string]any{
		"batch_id": outcome.BatchID,
		"outcome":  event.Outcome,
	})
}
