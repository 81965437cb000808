//nolint:revive // types is a common Go package naming convention
package types

import (
	"fmt"
	"time"
)

// BatchOutcome is the complete partition of one batch call.
//
// Invariants:
//   - len(Artifacts)+len(Failures) equals the number of input handles
//   - indices across both slices are exactly {0..N-1}, no duplicates
//   - both slices are sorted by Index ascending
type BatchOutcome struct {
	// BatchID identifies the batch call.
	BatchID string
	// Artifacts holds successful resolutions ordered by index.
	Artifacts []IndexedArtifact
	// Failures holds failed resolutions ordered by index.
	Failures []IndexedFailure
	// StartedAt is when fan-out began.
	StartedAt time.Time
	// Duration is the wall time from fan-out to fan-in.
	Duration time.Duration
}

// Total returns the number of handles accounted for.
func (o *BatchOutcome) Total() int {
	return len(o.Artifacts) + len(o.Failures)
}

// Succeeded reports whether every handle resolved.
func (o *BatchOutcome) Succeeded() bool {
	return len(o.Failures) == 0
}

// FailuresByKind counts failures per kind. Kinds with no failures are omitted.
func (o *BatchOutcome) FailuresByKind() map[FailureKind]int {
	counts := make(map[FailureKind]int)
	for _, f := range o.Failures {
		counts[f.Failure.Kind]++
	}
	return counts
}

// VideoPaths returns staged video paths in index order.
// These files belong to the caller.
func (o *BatchOutcome) VideoPaths() []string {
	var paths []string
	for _, a := range o.Artifacts {
		if a.Artifact.IsVideo() {
			paths = append(paths, a.Artifact.VideoPath)
		}
	}
	return paths
}

// Validate checks the partition invariants against the input size n.
func (o *BatchOutcome) Validate(n int) error {
	if got := o.Total(); got != n {
		return fmt.Errorf("outcome accounts for %d handles, want %d", got, n)
	}

	seen := make([]bool, n)
	mark := func(idx int) error {
		if idx < 0 || idx >= n {
			return fmt.Errorf("index %d out of range [0,%d)", idx, n)
		}
		if seen[idx] {
			return fmt.Errorf("index %d reported more than once", idx)
		}
		seen[idx] = true
		return nil
	}

	prev := -1
	for _, a := range o.Artifacts {
		if a.Index <= prev {
			return fmt.Errorf("artifacts not ordered by index at %d", a.Index)
		}
		prev = a.Index
		if err := mark(a.Index); err != nil {
			return err
		}
	}
	prev = -1
	for _, f := range o.Failures {
		if f.Index <= prev {
			return fmt.Errorf("failures not ordered by index at %d", f.Index)
		}
		prev = f.Index
		if f.Failure == nil {
			return fmt.Errorf("failure at index %d has no error", f.Index)
		}
		if err := mark(f.Index); err != nil {
			return err
		}
	}
	return nil
}
