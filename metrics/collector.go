// Package metrics provides per-batch metrics collection.
//
// The Collector accumulates counters during a single batch. It is a leaf
// package with no internal dependencies; failure kinds are recorded as
// plain strings so callers pass types.FailureKind values through string().
package metrics

import "sync"

// Snapshot is an immutable point-in-time view of all batch metrics.
// Returned by Collector.Snapshot(). Safe to read concurrently after creation.
type Snapshot struct {
	// Batch lifecycle
	BatchesStarted   int64 `json:"batches_started" yaml:"batches_started"`
	BatchesCompleted int64 `json:"batches_completed" yaml:"batches_completed"`
	BatchesRejected  int64 `json:"batches_rejected" yaml:"batches_rejected"`

	// Resolution
	HandlesReceived int64            `json:"handles_received" yaml:"handles_received"`
	ImagesResolved  int64            `json:"images_resolved" yaml:"images_resolved"`
	VideosResolved  int64            `json:"videos_resolved" yaml:"videos_resolved"`
	Failures        int64            `json:"failures" yaml:"failures"`
	FailuresByKind  map[string]int64 `json:"failures_by_kind,omitempty" yaml:"failures_by_kind,omitempty"`

	// Staging
	BytesStaged        int64 `json:"bytes_staged" yaml:"bytes_staged"`
	StagedFilesRemoved int64 `json:"staged_files_removed" yaml:"staged_files_removed"`

	// Outbound (report persistence and completion notification)
	ReportWriteSuccess int64 `json:"report_write_success" yaml:"report_write_success"`
	ReportWriteFailure int64 `json:"report_write_failure" yaml:"report_write_failure"`
	NotifySuccess      int64 `json:"notify_success" yaml:"notify_success"`
	NotifyFailure      int64 `json:"notify_failure" yaml:"notify_failure"`

	// Dimensions (informational, set at construction)
	Filter        string `json:"filter,omitempty" yaml:"filter,omitempty"`
	SourceBackend string `json:"source_backend,omitempty" yaml:"source_backend,omitempty"`
	BatchID       string `json:"batch_id,omitempty" yaml:"batch_id,omitempty"`
}

// Collector accumulates metrics during a single batch.
// Thread-safe via sync.Mutex. All methods are nil-receiver safe.
type Collector struct {
	mu sync.Mutex

	batchesStarted   int64
	batchesCompleted int64
	batchesRejected  int64

	handlesReceived int64
	imagesResolved  int64
	videosResolved  int64
	failures        int64
	failuresByKind  map[string]int64

	bytesStaged        int64
	stagedFilesRemoved int64

	reportWriteSuccess int64
	reportWriteFailure int64
	notifySuccess      int64
	notifyFailure      int64

	filter        string
	sourceBackend string
	batchID       string
}

// NewCollector creates a Collector with dimension labels.
// batchID may be empty and set later via SetBatchID once it is known.
func NewCollector(filter, sourceBackend, batchID string) *Collector {
	return &Collector{
		failuresByKind: make(map[string]int64),
		filter:         filter,
		sourceBackend:  sourceBackend,
		batchID:        batchID,
	}
}

// SetBatchID records the batch identifier dimension.
func (c *Collector) SetBatchID(id string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.batchID = id
	c.mu.Unlock()
}

// --- Batch lifecycle ---

// IncBatchStarted records a batch start and the number of handles it carries.
func (c *Collector) IncBatchStarted(handles int) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.batchesStarted++
	c.handlesReceived += int64(handles)
	c.mu.Unlock()
}

// IncBatchCompleted records a batch that reached fan-in.
func (c *Collector) IncBatchCompleted() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.batchesCompleted++
	c.mu.Unlock()
}

// IncBatchRejected records a batch refused before any work (selection limit).
func (c *Collector) IncBatchRejected() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.batchesRejected++
	c.mu.Unlock()
}

// --- Resolution ---

// IncImageResolved records a decoded image artifact.
func (c *Collector) IncImageResolved() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.imagesResolved++
	c.mu.Unlock()
}

// IncVideoResolved records a staged video artifact.
func (c *Collector) IncVideoResolved() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.videosResolved++
	c.mu.Unlock()
}

// IncFailure records an item-level failure of the given kind.
func (c *Collector) IncFailure(kind string) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.failures++
	c.failuresByKind[kind]++
	c.mu.Unlock()
}

// --- Staging ---

// AddBytesStaged records bytes copied into the scratch directory.
func (c *Collector) AddBytesStaged(n int64) {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.bytesStaged += n
	c.mu.Unlock()
}

// IncStagedFileRemoved records a staged file deleted by the resolver.
func (c *Collector) IncStagedFileRemoved() {
	if c == nil {
		return
	}
	c.mu.Lock()
	c.stagedFilesRemoved++
	c.mu.Unlock()
}

// --- Outbound ---

// IncReportWrite records the result of one outcome report write.
func (c *Collector) IncReportWrite(ok bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	if ok {
		c.reportWriteSuccess++
	} else {
		c.reportWriteFailure++
	}
	c.mu.Unlock()
}

// IncNotify records the result of one completion notification.
func (c *Collector) IncNotify(ok bool) {
	if c == nil {
		return
	}
	c.mu.Lock()
	if ok {
		c.notifySuccess++
	} else {
		c.notifyFailure++
	}
	c.mu.Unlock()
}

// --- Snapshot ---

// Snapshot returns an immutable point-in-time view of all metrics.
// The returned Snapshot is safe to read concurrently; the Collector can
// continue to be mutated independently.
func (c *Collector) Snapshot() Snapshot {
	if c == nil {
		return Snapshot{}
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	byKind := make(map[string]int64, len(c.failuresByKind))
	for k, v := range c.failuresByKind {
		byKind[k] = v
	}

	return Snapshot{
		BatchesStarted:   c.batchesStarted,
		BatchesCompleted: c.batchesCompleted,
		BatchesRejected:  c.batchesRejected,

		HandlesReceived: c.handlesReceived,
		ImagesResolved:  c.imagesResolved,
		VideosResolved:  c.videosResolved,
		Failures:        c.failures,
		FailuresByKind:  byKind,

		BytesStaged:        c.bytesStaged,
		StagedFilesRemoved: c.stagedFilesRemoved,

		ReportWriteSuccess: c.reportWriteSuccess,
		ReportWriteFailure: c.reportWriteFailure,
		NotifySuccess:      c.notifySuccess,
		NotifyFailure:      c.notifyFailure,

		Filter:        c.filter,
		SourceBackend: c.sourceBackend,
		BatchID:       c.batchID,
	}
}
