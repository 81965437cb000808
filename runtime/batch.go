package runtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pithecene-io/mediaresolve/handle"
	"github.com/pithecene-io/mediaresolve/log"
	"github.com/pithecene-io/mediaresolve/metrics"
	"github.com/pithecene-io/mediaresolve/types"
)

// ErrSelectionLimit is returned when a batch carries more handles than
// the configured selection limit. No handle is attempted.
var ErrSelectionLimit = errors.New("selection limit exceeded")

// ItemResolver resolves one handle. *Resolver satisfies it.
type ItemResolver interface {
	Resolve(ctx context.Context, h handle.Handle) (types.Artifact, error)
}

// BatchConfig configures a Batch.
type BatchConfig struct {
	// Parallel caps in-flight resolutions (0 = one goroutine per handle).
	Parallel int
	// SelectionLimit rejects larger batches up front (0 = unlimited).
	SelectionLimit int
	// Label is an optional tag attached to logs and reports.
	Label *string
	// Logger receives batch lifecycle and per-failure entries (nil = silent).
	Logger *log.Logger
	// Collector receives batch counters (nil = disabled).
	Collector *metrics.Collector
	// NewID generates batch IDs (nil = UUIDv4).
	NewID func() string
}

// Batch fans N handles out to an ItemResolver and fans the results back in,
// ordered by original index.
type Batch struct {
	resolver ItemResolver
	config   BatchConfig
}

// NewBatch creates a Batch over resolver.
func NewBatch(resolver ItemResolver, config BatchConfig) *Batch {
	if config.NewID == nil {
		config.NewID = uuid.NewString
	}
	return &Batch{resolver: resolver, config: config}
}

// slot holds the single result written by the worker for one index.
type slot struct {
	artifact types.Artifact
	failure  *types.ResolutionFailure
}

// ResolveAll resolves every handle concurrently and returns the complete
// partition. Item failures never abort the batch and never surface as the
// returned error; the only error is ErrSelectionLimit.
func (b *Batch) ResolveAll(ctx context.Context, handles []handle.Handle) (*types.BatchOutcome, error) {
	collector := b.config.Collector
	n := len(handles)
	if limit := b.config.SelectionLimit; limit > 0 && n > limit {
		collector.IncBatchRejected()
		return nil, fmt.Errorf("%w: %d handles, limit %d", ErrSelectionLimit, n, limit)
	}

	meta := types.BatchMeta{BatchID: b.config.NewID(), Label: b.config.Label}
	logger := b.config.Logger.ForBatch(meta)
	collector.SetBatchID(meta.BatchID)
	collector.IncBatchStarted(n)

	logger.Info("batch started", map[string]any{
		"handles":  n,
		"parallel": b.config.Parallel,
	})

	started := time.Now()
	slots := make([]slot, n)

	var sem chan struct{}
	if b.config.Parallel > 0 {
		sem = make(chan struct{}, b.config.Parallel)
	}

	var wg sync.WaitGroup
	for i, h := range handles {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem != nil {
				sem <- struct{}{}
				defer func() { <-sem }()
			}
			art, err := b.resolveOne(ctx, i, h)
			if err != nil {
				slots[i].failure = types.AsFailure(err)
				return
			}
			slots[i].artifact = art
		}()
	}
	wg.Wait()

	outcome := &types.BatchOutcome{
		BatchID:   meta.BatchID,
		StartedAt: started,
		Duration:  time.Since(started),
	}
	for i, s := range slots {
		if s.failure != nil {
			outcome.Failures = append(outcome.Failures, types.IndexedFailure{Index: i, Failure: s.failure})
			logger.Warn("item failed", map[string]any{
				"index": i,
				"kind":  string(s.failure.Kind),
				"error": s.failure.Error(),
			})
			continue
		}
		outcome.Artifacts = append(outcome.Artifacts, types.IndexedArtifact{Index: i, Artifact: s.artifact})
	}

	collector.IncBatchCompleted()
	logger.Info("batch completed", map[string]any{
		"handles":     n,
		"resolved":    len(outcome.Artifacts),
		"failed":      len(outcome.Failures),
		"duration_ms": outcome.Duration.Milliseconds(),
	})
	return outcome, nil
}

// resolveOne isolates a single item: a nil handle or a panicking
// resolver becomes that item's failure. The recovery path never calls
// back into h, which may be a typed nil.
func (b *Batch) resolveOne(ctx context.Context, index int, h handle.Handle) (art types.Artifact, err error) {
	if h == nil {
		return types.Artifact{}, types.NewFailure(types.FailureUnknown, errors.New("nil handle"))
	}
	defer func() {
		if p := recover(); p != nil {
			art = types.Artifact{}
			err = types.NewFailure(types.FailureUnknown, fmt.Errorf("panic resolving handle %d: %v", index, p))
		}
	}()
	return b.resolver.Resolve(ctx, h)
}
