// Package adapter defines the completion-notification boundary.
//
// Adapters publish a BatchCompletedEvent to a downstream system once a batch
// finishes. Publishing is best effort: a failed notification never changes
// the batch outcome.
package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/pithecene-io/mediaresolve/types"
)

// EventContractVersion versions the BatchCompletedEvent shape.
const EventContractVersion = "0.1.0"

// EventTypeBatchCompleted is the event_type of every published event.
const EventTypeBatchCompleted = "batch_completed"

// Batch outcome statuses carried in BatchCompletedEvent.Outcome.
const (
	OutcomeSuccess = "success" // every handle resolved
	OutcomePartial = "partial" // some handles failed
	OutcomeFailed  = "failed"  // every handle failed
)

// BatchCompletedEvent is the payload published when a batch finishes.
type BatchCompletedEvent struct {
	ContractVersion string         `json:"contract_version"`
	EventType       string         `json:"event_type"` // always "batch_completed"
	BatchID         string         `json:"batch_id"`
	Label           string         `json:"label,omitempty"`
	Outcome         string         `json:"outcome"`
	Day             string         `json:"day"`
	ReportPath      string         `json:"report_path,omitempty"`
	Timestamp       string         `json:"timestamp"` // RFC 3339
	Total           int            `json:"total"`
	Resolved        int            `json:"resolved"`
	Failed          int            `json:"failed"`
	FailuresByKind  map[string]int `json:"failures_by_kind,omitempty"`
	DurationMs      int64          `json:"duration_ms"`
}

// OutcomeStatus summarizes an outcome as success, partial or failed.
// An empty batch is a success.
func OutcomeStatus(o *types.BatchOutcome) string {
	switch {
	case len(o.Failures) == 0:
		return OutcomeSuccess
	case len(o.Artifacts) == 0:
		return OutcomeFailed
	default:
		return OutcomePartial
	}
}

// NewBatchCompletedEvent builds the event for an outcome.
// reportPath is the stored report key, empty when no report was written.
func NewBatchCompletedEvent(o *types.BatchOutcome, label *string, reportPath string, now time.Time) *BatchCompletedEvent {
	day := o.StartedAt
	if day.IsZero() {
		day = now
	}
	e := &BatchCompletedEvent{
		ContractVersion: EventContractVersion,
		EventType:       EventTypeBatchCompleted,
		BatchID:         o.BatchID,
		Outcome:         OutcomeStatus(o),
		Day:             day.UTC().Format(time.DateOnly),
		ReportPath:      reportPath,
		Timestamp:       now.UTC().Format(time.RFC3339),
		Total:           o.Total(),
		Resolved:        len(o.Artifacts),
		Failed:          len(o.Failures),
		DurationMs:      o.Duration.Milliseconds(),
	}
	if label != nil {
		e.Label = *label
	}
	if byKind := o.FailuresByKind(); len(byKind) > 0 {
		e.FailuresByKind = make(map[string]int, len(byKind))
		for k, v := range byKind {
			e.FailuresByKind[string(k)] = v
		}
	}
	return e
}

// Adapter publishes batch completion events to a downstream system.
type Adapter interface {
	// Publish sends a batch completion event.
	// Must respect context cancellation and deadlines.
	Publish(ctx context.Context, event *BatchCompletedEvent) error

	// Close releases adapter resources.
	Close() error
}

// BaseBackoff is the delay before the first retry; it doubles per retry.
const BaseBackoff = 500 * time.Millisecond

// Backoff returns the delay before retry n (n >= 1).
func Backoff(n int) time.Duration {
	if n < 1 {
		return 0
	}
	return time.Duration(1<<uint(n-1)) * BaseBackoff
}

// Retry calls fn up to 1+retries times with exponential backoff between
// attempts. It stops early when ctx is done or permanent reports the error
// as non-retriable. name prefixes returned errors.
func Retry(ctx context.Context, name string, retries int, fn func(context.Context) error, permanent func(error) bool) error {
	var lastErr error
	attempts := 1 + retries

	for i := range attempts {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("%s: context canceled: %w", name, err)
		}

		if i > 0 {
			select {
			case <-ctx.Done():
				return fmt.Errorf("%s: context canceled during backoff: %w", name, ctx.Err())
			case <-time.After(Backoff(i)):
			}
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if permanent != nil && permanent(lastErr) {
			return fmt.Errorf("%s: non-retriable error: %w", name, lastErr)
		}
	}

	return fmt.Errorf("%s: failed after %d attempts: %w", name, attempts, lastErr)
}
