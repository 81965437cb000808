package lode

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/justapithecus/lode/lode"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/pithecene-io/mediaresolve/iox"
	"github.com/pithecene-io/mediaresolve/types"
)

// ReportFormat selects the report encoding.
type ReportFormat string

// Report formats.
const (
	ReportJSON    ReportFormat = "json"
	ReportMsgpack ReportFormat = "msgpack"
)

// ParseReportFormat parses a report format. Empty means ReportJSON.
func ParseReportFormat(s string) (ReportFormat, error) {
	switch strings.ToLower(s) {
	case "", "json":
		return ReportJSON, nil
	case "msgpack":
		return ReportMsgpack, nil
	default:
		return "", fmt.Errorf("invalid report format: %q (must be json or msgpack)", s)
	}
}

// ReportPath computes the Hive-partitioned report key.
// Format: reports/day=<YYYY-MM-DD>/batch_id=<id>/outcome.<ext>
func ReportPath(day time.Time, batchID string, format ReportFormat) string {
	return fmt.Sprintf("reports/day=%s/batch_id=%s/outcome.%s",
		day.UTC().Format(time.DateOnly), batchID, format)
}

// ReportWriter persists batch outcome reports to a lode Store.
type ReportWriter struct {
	store  lode.Store
	format ReportFormat
}

// NewReportWriter creates a ReportWriter. An empty format means JSON.
func NewReportWriter(store lode.Store, format ReportFormat) *ReportWriter {
	if format == "" {
		format = ReportJSON
	}
	return &ReportWriter{store: store, format: format}
}

// WriteReport encodes the outcome and stores it. Returns the report key.
// The day partition comes from the outcome's start time.
func (w *ReportWriter) WriteReport(ctx context.Context, outcome *types.BatchOutcome) (string, error) {
	report := types.NewBatchReport(outcome)
	data, err := encodeReport(report, w.format)
	if err != nil {
		return "", err
	}

	started := outcome.StartedAt
	if started.IsZero() {
		started = time.Now()
	}
	path := ReportPath(started, outcome.BatchID, w.format)
	if err := w.store.Put(ctx, path, bytes.NewReader(data)); err != nil {
		return "", WrapWriteError(err, path)
	}
	return path, nil
}

// ReadReport loads a stored report, choosing the codec from the key extension.
func ReadReport(ctx context.Context, store lode.Store, path string) (*types.BatchReport, error) {
	rc, err := store.Get(ctx, path)
	if err != nil {
		return nil, WrapReadError(err, path)
	}
	defer iox.DiscardClose(rc)

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, WrapReadError(err, path)
	}

	format := ReportJSON
	if strings.HasSuffix(path, "."+string(ReportMsgpack)) {
		format = ReportMsgpack
	}
	return decodeReport(data, format)
}

func encodeReport(r *types.BatchReport, format ReportFormat) ([]byte, error) {
	switch format {
	case ReportJSON:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode report: %w", err)
		}
		return data, nil
	case ReportMsgpack:
		data, err := msgpack.Marshal(r)
		if err != nil {
			return nil, fmt.Errorf("encode report: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("invalid report format: %q", format)
	}
}

func decodeReport(data []byte, format ReportFormat) (*types.BatchReport, error) {
	var r types.BatchReport
	var err error
	switch format {
	case ReportMsgpack:
		err = msgpack.Unmarshal(data, &r)
	default:
		err = json.Unmarshal(data, &r)
	}
	if err != nil {
		return nil, fmt.Errorf("decode report: %w", err)
	}
	return &r, nil
}
