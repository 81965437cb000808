package cmd

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/pithecene-io/mediaresolve/adapter"
	"github.com/pithecene-io/mediaresolve/adapter/redis"
	"github.com/pithecene-io/mediaresolve/types"
)

func TestResolve_AllResolved(t *testing.T) {
	src := t.TempDir()
	scratch := filepath.Join(t.TempDir(), "scratch")
	video := writeFile(t, src, "clip.mp4", []byte("fake mp4 payload"))
	img := writeFile(t, src, "photo.png", pngBytes(t, 3, 2))

	res := runApp(t, "resolve", "--scratch-dir", scratch, "--format", "json", video, img)
	if res.code != exitResolved {
		t.Fatalf("code = %d, want 0\nstdout: %s\nstderr: %s", res.code, res.stdout, res.stderr)
	}

	rep := decodeOutcome(t, res).Report
	if rep.Total != 2 || rep.Resolved != 2 || rep.Failed != 0 {
		t.Fatalf("counts = %d/%d/%d, want 2/2/0", rep.Total, rep.Resolved, rep.Failed)
	}

	vid := rep.Items[0]
	if vid.Kind != types.KindVideo || filepath.Dir(vid.Path) != scratch || filepath.Ext(vid.Path) != ".mp4" {
		t.Errorf("video item = %+v", vid)
	}
	data, err := os.ReadFile(vid.Path)
	if err != nil || string(data) != "fake mp4 payload" {
		t.Errorf("staged video content = %q, %v", data, err)
	}

	im := rep.Items[1]
	if im.Kind != types.KindImage || im.Format != "png" || im.Width != 3 || im.Height != 2 {
		t.Errorf("image item = %+v", im)
	}

	// Only the video survives in the scratch dir; staged images are removed.
	if names := listDir(t, scratch); len(names) != 1 {
		t.Errorf("scratch contents = %v, want the staged video only", names)
	}
	// Sources are untouched.
	if _, err := os.Stat(video); err != nil {
		t.Errorf("source video moved: %v", err)
	}
}

func TestResolve_PartialFailure(t *testing.T) {
	src := t.TempDir()
	bmp := writeFile(t, src, "scan.bmp", []byte{'B'})
	video := writeFile(t, src, "clip.mov", []byte("mov"))

	res := runApp(t, "resolve", "--scratch-dir", t.TempDir(), "--format", "json", bmp, video)
	if res.code != exitItemFailures {
		t.Fatalf("code = %d, want %d\nstderr: %s", res.code, exitItemFailures, res.stderr)
	}

	rep := decodeOutcome(t, res).Report
	if rep.Items[0].Status != types.ItemFailed || rep.Items[0].FailureKind != types.FailureUnsupportedExtension {
		t.Errorf("item 0 = %+v, want unsupported_extension failure", rep.Items[0])
	}
	if rep.Items[1].Status != types.ItemResolved || rep.Items[1].Kind != types.KindVideo {
		t.Errorf("item 1 = %+v, want resolved video", rep.Items[1])
	}
	// Item failures are logged at warn level with the batch context.
	if !strings.Contains(res.stderr, `"item failed"`) || !strings.Contains(res.stderr, `"batch_id"`) {
		t.Errorf("expected item failure log on stderr, got: %s", res.stderr)
	}
}

func TestResolve_InvalidInput(t *testing.T) {
	src := t.TempDir()
	a := writeFile(t, src, "a.mp4", []byte("a"))
	b := writeFile(t, src, "b.mp4", []byte("b"))

	tests := []struct {
		name    string
		args    []string
		wantMsg string
	}{
		{"no handles", []string{"resolve"}, "no handles given"},
		{"bad filter", []string{"resolve", "--filter", "audio", a}, "invalid filter"},
		{"negative parallel", []string{"resolve", "--parallel", "-1", a}, "parallel"},
		{"selection limit", []string{"resolve", "--selection-limit", "1", a, b}, "selection limit exceeded"},
		{"unknown adapter", []string{"resolve", "--adapter", "kafka", "--adapter-url", "x", a}, "unknown adapter"},
		{"adapter without url", []string{"resolve", "--adapter", "webhook", a}, "--adapter-url is required"},
		{"store handle without store", []string{"resolve", "store://x.mp4"}, "no source store"},
		{"bad report format", []string{"resolve", "--report-path", "r", "--report-format", "xml", a}, "invalid report format"},
		{"bad output format", []string{"resolve", "--format", "csv", a}, "invalid format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			args := append([]string{tt.args[0], "--scratch-dir", t.TempDir()}, tt.args[1:]...)
			res := runApp(t, args...)
			if res.code != exitInvalidInput {
				t.Fatalf("code = %d, want %d (err=%v)", res.code, exitInvalidInput, res.err)
			}
			if res.err == nil || !strings.Contains(res.err.Error(), tt.wantMsg) {
				t.Errorf("error = %v, want mention of %q", res.err, tt.wantMsg)
			}
			if res.stdout != "" {
				t.Errorf("no output expected, got: %s", res.stdout)
			}
		})
	}
}

func TestResolve_SetupFailures(t *testing.T) {
	src := t.TempDir()
	a := writeFile(t, src, "a.mp4", []byte("a"))
	blocker := writeFile(t, src, "not-a-dir", []byte("x"))

	tests := []struct {
		name string
		args []string
	}{
		{"missing config", []string{"resolve", "--config", filepath.Join(src, "missing.yaml"), a}},
		{"scratch dir under a file", []string{"resolve", "--scratch-dir", filepath.Join(blocker, "scratch"), a}},
		{"invalid redis url", []string{"resolve", "--adapter", "redis", "--adapter-url", "not-a-url", a}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := runApp(t, tt.args...)
			if res.code != exitSetupFailure {
				t.Errorf("code = %d, want %d (err=%v)", res.code, exitSetupFailure, res.err)
			}
		})
	}
}

func TestResolve_ConfigFileAndOverride(t *testing.T) {
	src := t.TempDir()
	video := writeFile(t, src, "clip.mp4", []byte("v"))
	scratch := t.TempDir()
	cfgPath := writeFile(t, src, "mediaresolve.yaml", []byte("filter: images\nscratch_dir: "+scratch+"\n"))

	// The config narrows to images, so the video handle resolves to unknown.
	res := runApp(t, "resolve", "--config", cfgPath, "--format", "json", video)
	if res.code != exitItemFailures {
		t.Fatalf("code = %d, want %d\nstderr: %s", res.code, exitItemFailures, res.stderr)
	}
	if got := decodeOutcome(t, res).Report.Items[0].FailureKind; got != types.FailureUnknown {
		t.Errorf("failure kind = %q, want unknown", got)
	}
	if names := listDir(t, scratch); len(names) != 0 {
		t.Errorf("filtered handle should stage nothing, found %v", names)
	}

	// A flag wins over the file.
	res = runApp(t, "resolve", "--config", cfgPath, "--filter", "any", "--format", "json", video)
	if res.code != exitResolved {
		t.Fatalf("code = %d, want 0\nstderr: %s", res.code, res.stderr)
	}
}

func TestResolve_StoreHandle(t *testing.T) {
	storeRoot := t.TempDir()
	writeFile(t, storeRoot, "uploads/clip.mov", []byte("stored movie"))

	res := runApp(t, "resolve",
		"--scratch-dir", t.TempDir(),
		"--source-backend", "fs",
		"--source-path", storeRoot,
		"--format", "json",
		"store://uploads/clip.mov",
	)
	if res.code != exitResolved {
		t.Fatalf("code = %d, want 0\nstdout: %s\nstderr: %s", res.code, res.stdout, res.stderr)
	}

	item := decodeOutcome(t, res).Report.Items[0]
	data, err := os.ReadFile(item.Path)
	if err != nil || string(data) != "stored movie" {
		t.Errorf("staged content = %q, %v", data, err)
	}
	if filepath.Ext(item.Path) != ".mov" {
		t.Errorf("staged path %q should keep .mov", item.Path)
	}
}

func TestResolve_StoreDownloadCappedByPolicy(t *testing.T) {
	storeRoot := t.TempDir()
	writeFile(t, storeRoot, "uploads/clip.mov", []byte("stored movie"))
	scratch := t.TempDir()
	cfgPath := writeFile(t, t.TempDir(), "mediaresolve.yaml", []byte("policy:\n  max_video_bytes: 4\n"))

	res := runApp(t, "resolve",
		"--config", cfgPath,
		"--scratch-dir", scratch,
		"--source-backend", "fs",
		"--source-path", storeRoot,
		"--format", "json",
		"--metrics",
		"store://uploads/clip.mov",
	)
	if res.code != exitItemFailures {
		t.Fatalf("code = %d, want %d\nstderr: %s", res.code, exitItemFailures, res.stderr)
	}

	view := decodeOutcome(t, res)
	if got := view.Report.Items[0].FailureKind; got != types.FailureVideoTooLarge {
		t.Errorf("failure kind = %q, want video_too_large", got)
	}
	if view.Metrics == nil || view.Metrics.BytesStaged != 5 {
		t.Errorf("metrics = %+v, want 5 bytes staged", view.Metrics)
	}
	if names := listDir(t, scratch); len(names) != 0 {
		t.Errorf("rejected video left %v in scratch", names)
	}
}

func TestResolve_ReportAndWebhook(t *testing.T) {
	var received adapter.BatchCompletedEvent
	var calls atomic.Int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if r.Header.Get("X-Token") != "abc" {
			t.Errorf("X-Token = %q", r.Header.Get("X-Token"))
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("unmarshal: %v", err)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer ts.Close()

	src := t.TempDir()
	reports := t.TempDir()
	video := writeFile(t, src, "clip.mp4", []byte("v"))

	res := runApp(t, "resolve",
		"--scratch-dir", t.TempDir(),
		"--label", "picker-7",
		"--report-path", reports,
		"--adapter", "webhook",
		"--adapter-url", ts.URL,
		"--adapter-header", "X-Token=abc",
		"--metrics",
		"--format", "json",
		video,
	)
	if res.code != exitResolved {
		t.Fatalf("code = %d, want 0\nstderr: %s", res.code, res.stderr)
	}

	view := decodeOutcome(t, res)
	if view.Label != "picker-7" {
		t.Errorf("label = %q", view.Label)
	}
	if !strings.HasPrefix(view.ReportPath, "reports/day=") || !strings.HasSuffix(view.ReportPath, "/outcome.json") {
		t.Fatalf("report path = %q", view.ReportPath)
	}
	if _, err := os.Stat(filepath.Join(reports, filepath.FromSlash(view.ReportPath))); err != nil {
		t.Errorf("report not on disk: %v", err)
	}

	if calls.Load() != 1 {
		t.Fatalf("webhook calls = %d, want 1", calls.Load())
	}
	if received.BatchID != view.Report.BatchID || received.Label != "picker-7" {
		t.Errorf("event identity = %q/%q, want %q/picker-7", received.BatchID, received.Label, view.Report.BatchID)
	}
	if received.Outcome != adapter.OutcomeSuccess || received.ReportPath != view.ReportPath {
		t.Errorf("event = %+v", received)
	}

	m := view.Metrics
	if m == nil {
		t.Fatal("--metrics should include a snapshot")
	}
	if m.VideosResolved != 1 || m.ReportWriteSuccess != 1 || m.NotifySuccess != 1 {
		t.Errorf("metrics = %+v", *m)
	}
}

func TestResolve_NotificationFailureKeepsExitCode(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer ts.Close()

	video := writeFile(t, t.TempDir(), "clip.mp4", []byte("v"))
	res := runApp(t, "resolve",
		"--scratch-dir", t.TempDir(),
		"--adapter", "webhook",
		"--adapter-url", ts.URL,
		"--metrics",
		"--format", "json",
		video,
	)
	if res.code != exitResolved {
		t.Fatalf("code = %d, want 0", res.code)
	}
	if m := decodeOutcome(t, res).Metrics; m == nil || m.NotifyFailure != 1 {
		t.Errorf("metrics = %+v, want one notify failure", m)
	}
	if !strings.Contains(res.stderr, "completion notification failed") {
		t.Errorf("expected warning on stderr, got: %s", res.stderr)
	}
}

func TestResolve_ReportFailureKeepsExitCode(t *testing.T) {
	blocker := writeFile(t, t.TempDir(), "file", []byte("x"))
	video := writeFile(t, t.TempDir(), "clip.mp4", []byte("v"))

	res := runApp(t, "resolve",
		"--scratch-dir", t.TempDir(),
		"--report-path", filepath.Join(blocker, "reports"),
		"--metrics",
		"--format", "json",
		video,
	)
	if res.code != exitResolved {
		t.Fatalf("code = %d, want 0", res.code)
	}
	view := decodeOutcome(t, res)
	if view.ReportPath != "" {
		t.Errorf("report path = %q, want empty after failure", view.ReportPath)
	}
	if view.Metrics == nil || view.Metrics.ReportWriteFailure != 1 {
		t.Errorf("metrics = %+v, want one report failure", view.Metrics)
	}
}

func TestResolve_RedisNotification(t *testing.T) {
	mr := miniredis.RunT(t)
	sub := mr.NewSubscriber()
	sub.Subscribe(redis.DefaultChannel)
	msgs := make(chan miniredis.PubsubMessage, 1)
	go func() { msgs <- <-sub.Messages() }()

	video := writeFile(t, t.TempDir(), "clip.mp4", []byte("v"))
	res := runApp(t, "resolve",
		"--scratch-dir", t.TempDir(),
		"--adapter", "redis",
		"--adapter-url", "redis://"+mr.Addr(),
		"--format", "json",
		video,
	)
	if res.code != exitResolved {
		t.Fatalf("code = %d, want 0\nstderr: %s", res.code, res.stderr)
	}

	select {
	case msg := <-msgs:
		var e adapter.BatchCompletedEvent
		if err := json.Unmarshal([]byte(msg.Message), &e); err != nil {
			t.Fatalf("unmarshal: %v", err)
		}
		if e.Resolved != 1 || e.EventType != adapter.EventTypeBatchCompleted {
			t.Errorf("event = %+v", e)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for pub/sub message")
	}
}

func TestResolve_QuietAndTable(t *testing.T) {
	video := writeFile(t, t.TempDir(), "clip.mp4", []byte("v"))

	res := runApp(t, "resolve", "--scratch-dir", t.TempDir(), "--quiet", video)
	if res.code != exitResolved || res.stdout != "" {
		t.Errorf("quiet: code=%d stdout=%q", res.code, res.stdout)
	}

	res = runApp(t, "resolve", "--scratch-dir", t.TempDir(), "--format", "table", "--no-color", video)
	if res.code != exitResolved {
		t.Fatalf("table: code=%d", res.code)
	}
	if !strings.Contains(res.stdout, "1 handles, 1 resolved, 0 failed") || !strings.Contains(res.stdout, "resolved") {
		t.Errorf("table output = %s", res.stdout)
	}
}

func TestResolve_VerboseLogsDebug(t *testing.T) {
	video := writeFile(t, t.TempDir(), "clip.mp4", []byte("v"))

	quiet := runApp(t, "resolve", "--scratch-dir", t.TempDir(), "--format", "json", video)
	verbose := runApp(t, "resolve", "--scratch-dir", t.TempDir(), "--format", "json", "--verbose", video)

	if strings.Contains(quiet.stderr, `"batch started"`) {
		t.Errorf("info logs should be hidden by default: %s", quiet.stderr)
	}
	if !strings.Contains(verbose.stderr, `"batch started"`) {
		t.Errorf("--verbose should show batch lifecycle logs: %s", verbose.stderr)
	}

	var entry map[string]any
	line, _, _ := bytes.Cut([]byte(verbose.stderr), []byte("\n"))
	if err := json.Unmarshal(line, &entry); err != nil {
		t.Fatalf("log line is not JSON: %q", line)
	}
	if _, ok := entry["timestamp"]; !ok {
		t.Errorf("log entry missing timestamp: %v", entry)
	}
}
