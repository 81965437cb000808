package stage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

func writeSource(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write source: %v", err)
	}
	return path
}

func newStager(t *testing.T, opts ...Option) *Stager {
	t.Helper()
	s, err := New(t.TempDir(), opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func scratchEntries(t *testing.T, s *Stager) []os.DirEntry {
	t.Helper()
	entries, err := os.ReadDir(s.Dir())
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	return entries
}

func TestNew_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "scratch")
	s, err := New(dir)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Dir() != dir {
		t.Errorf("Dir() = %q, want %q", s.Dir(), dir)
	}
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Fatalf("scratch dir not created: %v", err)
	}
}

func TestNew_EmptyDirUsesDefault(t *testing.T) {
	s, err := New("")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if s.Dir() != DefaultDir() {
		t.Errorf("Dir() = %q, want %q", s.Dir(), DefaultDir())
	}
}

func TestStage_CopiesBytes(t *testing.T) {
	data := bytes.Repeat([]byte("media-bytes-"), 4096)
	src := writeSource(t, "clip.MOV", data)
	s := newStager(t)

	dst, err := s.Stage(t.Context(), src)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}

	if filepath.Dir(dst) != s.Dir() {
		t.Errorf("staged into %q, want dir %q", filepath.Dir(dst), s.Dir())
	}
	if filepath.Ext(dst) != ".MOV" {
		t.Errorf("extension = %q, want .MOV", filepath.Ext(dst))
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read staged: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Error("staged bytes differ from source")
	}

	orig, err := os.ReadFile(src)
	if err != nil {
		t.Fatalf("source removed or unreadable: %v", err)
	}
	if !bytes.Equal(orig, data) {
		t.Error("source modified")
	}
}

func TestStage_NoExtension(t *testing.T) {
	src := writeSource(t, "blob", []byte("x"))
	s := newStager(t)

	dst, err := s.Stage(t.Context(), src)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if filepath.Ext(dst) != "" {
		t.Errorf("extension = %q, want none", filepath.Ext(dst))
	}
}

func TestStage_EmptySource(t *testing.T) {
	src := writeSource(t, "empty.png", nil)
	s := newStager(t)

	dst, err := s.Stage(t.Context(), src)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	size, err := s.Size(dst)
	if err != nil {
		t.Fatalf("Size: %v", err)
	}
	if size != 0 {
		t.Errorf("size = %d, want 0", size)
	}
}

func TestStage_ConcurrentNamesAreDistinct(t *testing.T) {
	src := writeSource(t, "photo.jpg", []byte("jpeg"))
	s := newStager(t)

	const n = 1000
	paths := make([]string, n)
	errs := make([]error, n)

	// Bounded so the test stays under typical fd limits.
	sem := make(chan struct{}, 64)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()
			paths[i], errs[i] = s.Stage(context.Background(), src)
		}()
	}
	wg.Wait()

	seen := make(map[string]bool, n)
	for i := range n {
		if errs[i] != nil {
			t.Fatalf("Stage[%d]: %v", i, errs[i])
		}
		if seen[paths[i]] {
			t.Fatalf("duplicate staged path %q", paths[i])
		}
		seen[paths[i]] = true
	}
	if got := len(scratchEntries(t, s)); got != n {
		t.Errorf("scratch holds %d files, want %d", got, n)
	}
}

func TestStage_CollisionRetriesWithoutOverwrite(t *testing.T) {
	ids := []string{"taken", "taken", "fresh"}
	var mu sync.Mutex
	next := func() string {
		mu.Lock()
		defer mu.Unlock()
		id := ids[0]
		ids = ids[1:]
		return id
	}
	s := newStager(t, WithIDFunc(next))

	existing := filepath.Join(s.Dir(), "taken.png")
	if err := os.WriteFile(existing, []byte("keep me"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := writeSource(t, "new.png", []byte("new"))
	dst, err := s.Stage(t.Context(), src)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if filepath.Base(dst) != "fresh.png" {
		t.Errorf("staged as %q, want fresh.png", filepath.Base(dst))
	}
	kept, err := os.ReadFile(existing)
	if err != nil || string(kept) != "keep me" {
		t.Errorf("existing file disturbed: %q, %v", kept, err)
	}
}

func TestStage_CollisionExhausted(t *testing.T) {
	s := newStager(t, WithIDFunc(func() string { return "same" }))
	existing := filepath.Join(s.Dir(), "same.gif")
	if err := os.WriteFile(existing, []byte("other"), 0o644); err != nil {
		t.Fatal(err)
	}

	src := writeSource(t, "a.gif", []byte("gif"))
	_, err := s.Stage(t.Context(), src)
	if !errors.Is(err, ErrIO) {
		t.Fatalf("err = %v, want ErrIO", err)
	}
	kept, _ := os.ReadFile(existing)
	if string(kept) != "other" {
		t.Error("existing file must not be removed or overwritten")
	}
}

func TestStage_MissingSource(t *testing.T) {
	s := newStager(t)

	_, err := s.Stage(t.Context(), filepath.Join(t.TempDir(), "gone.jpg"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	var se *Error
	if !errors.As(err, &se) || se.Op != "open" {
		t.Errorf("expected *Error with op open, got %#v", err)
	}
	if n := len(scratchEntries(t, s)); n != 0 {
		t.Errorf("scratch has %d residual files", n)
	}
}

func TestStage_DirectorySource(t *testing.T) {
	s := newStager(t)

	_, err := s.Stage(t.Context(), t.TempDir())
	if !errors.Is(err, ErrIO) {
		t.Fatalf("err = %v, want ErrIO", err)
	}
	if n := len(scratchEntries(t, s)); n != 0 {
		t.Errorf("scratch has %d residual files", n)
	}
}

func TestStage_CanceledContext(t *testing.T) {
	src := writeSource(t, "a.mp4", []byte("video"))
	s := newStager(t)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	_, err := s.Stage(ctx, src)
	if !errors.Is(err, ErrCanceled) {
		t.Fatalf("err = %v, want ErrCanceled", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("underlying context error lost: %v", err)
	}
	if n := len(scratchEntries(t, s)); n != 0 {
		t.Errorf("scratch has %d residual files", n)
	}
}

func TestRemove(t *testing.T) {
	src := writeSource(t, "a.png", []byte("png"))
	s := newStager(t)

	dst, err := s.Stage(t.Context(), src)
	if err != nil {
		t.Fatalf("Stage: %v", err)
	}
	if err := s.Remove(dst); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(dst); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("staged file still exists: %v", err)
	}
	if err := s.Remove(dst); err != nil {
		t.Errorf("Remove of missing file = %v, want nil", err)
	}
}

func TestSize_Missing(t *testing.T) {
	s := newStager(t)
	_, err := s.Size(filepath.Join(s.Dir(), "nope"))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestPurge(t *testing.T) {
	s := newStager(t)
	now := time.Now()

	for i, age := range []time.Duration{48 * time.Hour, 30 * time.Hour, time.Hour} {
		path := filepath.Join(s.Dir(), fmt.Sprintf("f%d.mov", i))
		if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
			t.Fatal(err)
		}
		mt := now.Add(-age)
		if err := os.Chtimes(path, mt, mt); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(s.Dir(), "subdir"), 0o755); err != nil {
		t.Fatal(err)
	}

	removed, err := s.Purge(24*time.Hour, now)
	if err != nil {
		t.Fatalf("Purge: %v", err)
	}
	if removed != 2 {
		t.Errorf("removed = %d, want 2", removed)
	}

	var names []string
	for _, e := range scratchEntries(t, s) {
		names = append(names, e.Name())
	}
	if len(names) != 2 {
		t.Fatalf("remaining = %v, want [f2.mov subdir]", names)
	}
	if names[0] != "f2.mov" || names[1] != "subdir" {
		t.Errorf("remaining = %v, want [f2.mov subdir]", names)
	}
}
