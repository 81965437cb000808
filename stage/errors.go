package stage

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"syscall"
)

// Sentinel errors for staging failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrPermissionDenied indicates a permission/access failure (EACCES, EPERM).
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNotFound indicates the source or scratch path does not exist (ENOENT).
	ErrNotFound = errors.New("not found")

	// ErrDiskFull indicates the scratch volume is out of space (ENOSPC).
	ErrDiskFull = errors.New("no space left on device")

	// ErrCanceled indicates the context ended before staging finished.
	ErrCanceled = errors.New("staging canceled")

	// ErrIO is the catch-all for unclassified local I/O failures.
	ErrIO = errors.New("i/o error")
)

// Error wraps an underlying error with staging classification.
// It preserves the original error in the chain for inspection via errors.As.
type Error struct {
	// Kind is the sentinel error for classification (e.g., ErrDiskFull).
	Kind error
	// Op is the operation that failed (e.g., "open", "create", "copy").
	Op string
	// Path is the filesystem path involved, if any.
	Path string
	// Err is the underlying error.
	Err error
}

func (e *Error) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s %s: %v: %v", e.Op, e.Path, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error for errors.Is/As chain traversal.
func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *Error) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

// NewError creates a classified staging error.
func NewError(kind error, op, path string, err error) *Error {
	return &Error{Kind: kind, Op: op, Path: path, Err: err}
}

// wrap classifies err and wraps it. Returns nil if err is nil.
func wrap(err error, op, path string) error {
	if err == nil {
		return nil
	}
	var already *Error
	if errors.As(err, &already) {
		return err
	}
	return NewError(classify(err), op, path, err)
}

// classify determines the sentinel for err.
// Typed checks come first; message patterns catch wrapped platform errors
// that lost their type on the way up.
func classify(err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return ErrCanceled
	case errors.Is(err, fs.ErrPermission):
		return ErrPermissionDenied
	case errors.Is(err, fs.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, syscall.ENOSPC):
		return ErrDiskFull
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, "permission denied", "operation not permitted", "access is denied"):
		return ErrPermissionDenied
	case containsAny(msg, "no such file", "does not exist", "cannot find"):
		return ErrNotFound
	case containsAny(msg, "no space left", "disk full", "quota exceeded"):
		return ErrDiskFull
	default:
		return ErrIO
	}
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
