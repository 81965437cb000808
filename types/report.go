//nolint:revive // types is a common Go package naming convention
package types

import "time"

// ReportContractVersion versions the BatchReport shape.
const ReportContractVersion = "0.1.0"

// ItemStatus is the per-item status in a report.
type ItemStatus string

// Item statuses.
const (
	ItemResolved ItemStatus = "resolved"
	ItemFailed   ItemStatus = "failed"
)

// ReportItem is the serializable view of one handle's result.
// Pixel data is never included.
type ReportItem struct {
	Index       int         `msgpack:"index" json:"index" yaml:"index"`
	Status      ItemStatus  `msgpack:"status" json:"status" yaml:"status"`
	Kind        MediaKind   `msgpack:"kind,omitempty" json:"kind,omitempty" yaml:"kind,omitempty"`
	Path        string      `msgpack:"path,omitempty" json:"path,omitempty" yaml:"path,omitempty"`
	Format      string      `msgpack:"format,omitempty" json:"format,omitempty" yaml:"format,omitempty"`
	Width       int         `msgpack:"width,omitempty" json:"width,omitempty" yaml:"width,omitempty"`
	Height      int         `msgpack:"height,omitempty" json:"height,omitempty" yaml:"height,omitempty"`
	SizeBytes   int64       `msgpack:"size_bytes,omitempty" json:"size_bytes,omitempty" yaml:"size_bytes,omitempty"`
	FailureKind FailureKind `msgpack:"failure_kind,omitempty" json:"failure_kind,omitempty" yaml:"failure_kind,omitempty"`
	Message     string      `msgpack:"message,omitempty" json:"message,omitempty" yaml:"message,omitempty"`
}

// BatchReport is the serializable view of a BatchOutcome.
type BatchReport struct {
	ContractVersion string       `msgpack:"contract_version" json:"contract_version" yaml:"contract_version"`
	BatchID         string       `msgpack:"batch_id" json:"batch_id" yaml:"batch_id"`
	StartedAt       time.Time    `msgpack:"started_at" json:"started_at" yaml:"started_at"`
	DurationMs      int64        `msgpack:"duration_ms" json:"duration_ms" yaml:"duration_ms"`
	Total           int          `msgpack:"total" json:"total" yaml:"total"`
	Resolved        int          `msgpack:"resolved" json:"resolved" yaml:"resolved"`
	Failed          int          `msgpack:"failed" json:"failed" yaml:"failed"`
	Items           []ReportItem `msgpack:"items" json:"items" yaml:"items"`
}

// NewBatchReport flattens an outcome into a report with items in index order.
func NewBatchReport(o *BatchOutcome) *BatchReport {
	r := &BatchReport{
		ContractVersion: ReportContractVersion,
		BatchID:         o.BatchID,
		StartedAt:       o.StartedAt,
		DurationMs:      o.Duration.Milliseconds(),
		Total:           o.Total(),
		Resolved:        len(o.Artifacts),
		Failed:          len(o.Failures),
		Items:           make([]ReportItem, 0, o.Total()),
	}

	// Both slices are index-ordered; merge them.
	ai, fi := 0, 0
	for ai < len(o.Artifacts) || fi < len(o.Failures) {
		if fi >= len(o.Failures) || (ai < len(o.Artifacts) && o.Artifacts[ai].Index < o.Failures[fi].Index) {
			r.Items = append(r.Items, artifactItem(o.Artifacts[ai]))
			ai++
			continue
		}
		r.Items = append(r.Items, failureItem(o.Failures[fi]))
		fi++
	}
	return r
}

func artifactItem(a IndexedArtifact) ReportItem {
	w, h := a.Artifact.Bounds()
	return ReportItem{
		Index:     a.Index,
		Status:    ItemResolved,
		Kind:      a.Artifact.Kind,
		Path:      a.Artifact.VideoPath,
		Format:    a.Artifact.Format,
		Width:     w,
		Height:    h,
		SizeBytes: a.Artifact.SizeBytes,
	}
}

func failureItem(f IndexedFailure) ReportItem {
	return ReportItem{
		Index:       f.Index,
		Status:      ItemFailed,
		FailureKind: f.Failure.Kind,
		Message:     f.Failure.Error(),
	}
}
