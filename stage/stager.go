// Package stage copies transient media sources into a scratch directory.
//
// Each staged file gets a freshly generated UUID name that preserves the
// source extension. Destinations are opened with O_EXCL, so concurrent
// stagers sharing one directory never overwrite each other and no locking
// is needed. A failed copy removes its partial destination before the
// error is returned.
package stage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/pithecene-io/mediaresolve/iox"
)

// DefaultDirName is the scratch subdirectory created under os.TempDir().
const DefaultDirName = "mediaresolve"

// maxNameAttempts bounds retries when a generated name already exists.
const maxNameAttempts = 3

// Stager copies sources into a shared scratch directory.
// Safe for concurrent use.
type Stager struct {
	dir   string
	newID func() string
}

// Option configures a Stager.
type Option func(*Stager)

// WithIDFunc overrides the name generator (UUIDv4 by default).
func WithIDFunc(fn func() string) Option {
	return func(s *Stager) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// DefaultDir returns the default scratch directory.
func DefaultDir() string {
	return filepath.Join(os.TempDir(), DefaultDirName)
}

// New creates a Stager rooted at dir, creating the directory if needed.
// An empty dir selects DefaultDir().
func New(dir string, opts ...Option) (*Stager, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, wrap(err, "init", dir)
	}

	s := &Stager{dir: dir, newID: uuid.NewString}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Dir returns the scratch directory.
func (s *Stager) Dir() string {
	return s.dir
}

// Stage copies src into the scratch directory and returns the new path.
// The source is never moved or modified.
func (s *Stager) Stage(ctx context.Context, src string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", wrap(err, "stage", src)
	}

	in, err := os.Open(src)
	if err != nil {
		return "", wrap(err, "open", src)
	}
	defer iox.DiscardClose(in)

	info, err := in.Stat()
	if err != nil {
		return "", wrap(err, "stat", src)
	}
	if !info.Mode().IsRegular() {
		return "", NewError(ErrIO, "open", src, errors.New("source is not a regular file"))
	}

	out, dst, err := s.create(filepath.Ext(src))
	if err != nil {
		return "", err
	}

	if _, err := io.Copy(out, iox.ContextReader(ctx, in)); err != nil {
		iox.DiscardClose(out)
		_ = iox.RemoveIfExists(dst)
		return "", wrap(err, "copy", dst)
	}
	if err := out.Close(); err != nil {
		_ = iox.RemoveIfExists(dst)
		return "", wrap(err, "close", dst)
	}
	return dst, nil
}

// create opens a fresh uniquely named destination with O_EXCL.
// A name collision is retried with a new ID; the existing file is untouched.
func (s *Stager) create(ext string) (*os.File, string, error) {
	var lastErr error
	for range maxNameAttempts {
		dst := filepath.Join(s.dir, s.newID()+ext)
		f, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err == nil {
			return f, dst, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", wrap(err, "create", dst)
		}
		lastErr = err
	}
	return nil, "", NewError(ErrIO, "create", s.dir,
		fmt.Errorf("no unused name after %d attempts: %w", maxNameAttempts, lastErr))
}

// Size returns the byte size of a staged file.
func (s *Stager) Size(path string) (int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, wrap(err, "stat", path)
	}
	return info.Size(), nil
}

// Remove deletes a staged file. A missing file is not an error.
func (s *Stager) Remove(path string) error {
	return wrap(iox.RemoveIfExists(path), "remove", path)
}

// Purge deletes regular files in the scratch directory last modified
// before now-olderThan. Returns the number of files removed.
// Removal continues past individual failures; all failures are joined.
func (s *Stager) Purge(olderThan time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, wrap(err, "purge", s.dir)
	}

	cutoff := now.Add(-olderThan)
	removed := 0
	var errs []error
	for _, e := range entries {
		if !e.Type().IsRegular() {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(s.dir, e.Name())
		if err := s.Remove(path); err != nil {
			errs = append(errs, err)
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
