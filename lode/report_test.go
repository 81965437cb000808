package lode

import (
	"context"
	"errors"
	"image"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/mediaresolve/types"
)

// failingStore is a lode.Store whose writes and reads fail.
type failingStore struct {
	putErr   error
	getErr   error
	putPaths []string
}

func (s *failingStore) Put(_ context.Context, path string, _ io.Reader) error {
	s.putPaths = append(s.putPaths, path)
	return s.putErr
}

func (s *failingStore) Get(_ context.Context, _ string) (io.ReadCloser, error) {
	return nil, s.getErr
}

func (s *failingStore) Exists(context.Context, string) (bool, error) { return false, nil }

func (s *failingStore) List(context.Context, string) ([]string, error) { return nil, nil }

func (s *failingStore) Delete(context.Context, string) error { return nil }

func (s *failingStore) ReadRange(context.Context, string, int64, int64) ([]byte, error) {
	return nil, errors.New("not implemented")
}

func (s *failingStore) ReaderAt(context.Context, string) (io.ReaderAt, error) {
	return nil, errors.New("not implemented")
}

var _ lode.Store = (*failingStore)(nil)

func sampleOutcome() *types.BatchOutcome {
	return &types.BatchOutcome{
		BatchID:   "batch-7",
		StartedAt: time.Date(2026, 3, 14, 23, 30, 0, 0, time.UTC),
		Duration:  1500 * time.Millisecond,
		Artifacts: []types.IndexedArtifact{
			{Index: 0, Artifact: types.VideoArtifact("/scratch/a.mov", 2048)},
			{Index: 2, Artifact: types.ImageArtifact(image.NewRGBA(image.Rect(0, 0, 4, 3)), "png", 99)},
		},
		Failures: []types.IndexedFailure{
			{Index: 1, Failure: types.NewFailure(types.FailureUnsupportedExtension, nil)},
		},
	}
}

func TestReportPath(t *testing.T) {
	day := time.Date(2026, 3, 14, 23, 30, 0, 0, time.FixedZone("X", -5*3600))
	got := ReportPath(day, "b1", ReportMsgpack)
	// 23:30 at UTC-5 is the next day in UTC.
	if want := "reports/day=2026-03-15/batch_id=b1/outcome.msgpack"; got != want {
		t.Errorf("ReportPath = %q, want %q", got, want)
	}
}

func TestParseReportFormat(t *testing.T) {
	if f, err := ParseReportFormat(""); err != nil || f != ReportJSON {
		t.Errorf("empty = %q, %v", f, err)
	}
	if f, err := ParseReportFormat("MSGPACK"); err != nil || f != ReportMsgpack {
		t.Errorf("msgpack = %q, %v", f, err)
	}
	if _, err := ParseReportFormat("xml"); err == nil {
		t.Error("xml should be rejected")
	}
}

func TestReportWriter_RoundTrip(t *testing.T) {
	for _, format := range []ReportFormat{ReportJSON, ReportMsgpack} {
		t.Run(string(format), func(t *testing.T) {
			store := lode.NewMemory()
			w := NewReportWriter(store, format)

			path, err := w.WriteReport(t.Context(), sampleOutcome())
			if err != nil {
				t.Fatalf("WriteReport: %v", err)
			}
			if want := "reports/day=2026-03-14/batch_id=batch-7/outcome." + string(format); path != want {
				t.Errorf("path = %q, want %q", path, want)
			}

			r, err := ReadReport(t.Context(), store, path)
			if err != nil {
				t.Fatalf("ReadReport: %v", err)
			}
			if r.ContractVersion != types.ReportContractVersion || r.BatchID != "batch-7" {
				t.Errorf("header = %+v", r)
			}
			if r.Total != 3 || r.Resolved != 2 || r.Failed != 1 || r.DurationMs != 1500 {
				t.Errorf("counts = %d/%d/%d, %dms", r.Total, r.Resolved, r.Failed, r.DurationMs)
			}
			if !r.StartedAt.Equal(sampleOutcome().StartedAt) {
				t.Errorf("StartedAt = %v", r.StartedAt)
			}
			if len(r.Items) != 3 {
				t.Fatalf("items = %d", len(r.Items))
			}
			for i, it := range r.Items {
				if it.Index != i {
					t.Errorf("item %d has index %d", i, it.Index)
				}
			}
			if r.Items[0].Path != "/scratch/a.mov" || r.Items[0].Kind != types.KindVideo {
				t.Errorf("item 0 = %+v", r.Items[0])
			}
			if r.Items[1].Status != types.ItemFailed || r.Items[1].FailureKind != types.FailureUnsupportedExtension {
				t.Errorf("item 1 = %+v", r.Items[1])
			}
			if r.Items[2].Width != 4 || r.Items[2].Height != 3 || r.Items[2].Format != "png" {
				t.Errorf("item 2 = %+v", r.Items[2])
			}
		})
	}
}

func TestReportWriter_JSONHasNoPixels(t *testing.T) {
	store := lode.NewMemory()
	path, err := NewReportWriter(store, "").WriteReport(t.Context(), sampleOutcome())
	if err != nil {
		t.Fatal(err)
	}
	rc, err := store.Get(t.Context(), path)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	data, _ := io.ReadAll(rc)
	if strings.Contains(string(data), "Pix") {
		t.Error("report must not carry pixel data")
	}
	if !strings.Contains(string(data), `"failure_kind": "unsupported_extension"`) {
		t.Errorf("report missing failure kind:\n%s", data)
	}
}

func TestReportWriter_PutFailureClassified(t *testing.T) {
	store := &failingStore{putErr: errors.New("AccessDenied: Forbidden")}
	_, err := NewReportWriter(store, ReportJSON).WriteReport(t.Context(), sampleOutcome())

	var se *StorageError
	if !errors.As(err, &se) {
		t.Fatalf("err = %v, want *StorageError", err)
	}
	if se.Op != "write" {
		t.Errorf("Op = %q", se.Op)
	}
	if !errors.Is(err, ErrAccessDenied) {
		t.Errorf("kind = %v, want ErrAccessDenied", se.Kind)
	}
	if len(store.putPaths) != 1 {
		t.Errorf("put calls = %d", len(store.putPaths))
	}
}

func TestReadReport_Missing(t *testing.T) {
	store := &failingStore{getErr: errors.New("NoSuchKey")}
	_, err := ReadReport(t.Context(), store, "reports/x/outcome.json")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}
