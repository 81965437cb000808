//nolint:revive // types is a common Go package naming convention
package types

import (
	"errors"
	"fmt"
)

// FailureKind classifies an item-level resolution failure.
type FailureKind string

// Failure kinds. All are item-level; none aborts a batch.
const (
	FailureMissingImage         FailureKind = "missing_image"
	FailureMissingVideo         FailureKind = "missing_video"
	FailureImageTooLarge        FailureKind = "image_too_large"
	FailureVideoTooLarge        FailureKind = "video_too_large"
	FailureUnsupportedExtension FailureKind = "unsupported_extension"
	FailureUnknown              FailureKind = "unknown"
	FailureIO                   FailureKind = "io_error"
)

// Sentinel errors, one per failure kind.
// Use errors.Is(err, ErrXxx) instead of comparing kinds by hand.
var (
	ErrMissingImage         = errors.New("missing image")
	ErrMissingVideo         = errors.New("missing video")
	ErrImageTooLarge        = errors.New("image file too large")
	ErrVideoTooLarge        = errors.New("video file too large")
	ErrUnsupportedExtension = errors.New("unsupported image extension")
	ErrUnknownMedia         = errors.New("handle offers neither image nor video")
	ErrIO                   = errors.New("local i/o failure")
)

var sentinels = map[FailureKind]error{
	FailureMissingImage:         ErrMissingImage,
	FailureMissingVideo:         ErrMissingVideo,
	FailureImageTooLarge:        ErrImageTooLarge,
	FailureVideoTooLarge:        ErrVideoTooLarge,
	FailureUnsupportedExtension: ErrUnsupportedExtension,
	FailureUnknown:              ErrUnknownMedia,
	FailureIO:                   ErrIO,
}

// FailureKinds returns every failure kind in a stable order.
func FailureKinds() []FailureKind {
	return []FailureKind{
		FailureMissingImage,
		FailureMissingVideo,
		FailureImageTooLarge,
		FailureVideoTooLarge,
		FailureUnsupportedExtension,
		FailureUnknown,
		FailureIO,
	}
}

// ResolutionFailure is the typed error produced for one handle.
// It never carries staged resources.
type ResolutionFailure struct {
	// Kind is the failure classification.
	Kind FailureKind
	// Err is the underlying cause, if any.
	Err error
}

// NewFailure creates a failure of the given kind wrapping cause (may be nil).
func NewFailure(kind FailureKind, cause error) *ResolutionFailure {
	return &ResolutionFailure{Kind: kind, Err: cause}
}

func (f *ResolutionFailure) Error() string {
	msg := f.sentinel().Error()
	if f.Err != nil {
		return fmt.Sprintf("%s: %v", msg, f.Err)
	}
	return msg
}

// Unwrap returns the underlying cause for errors.Is/As chain traversal.
func (f *ResolutionFailure) Unwrap() error {
	return f.Err
}

// Is reports whether target is the sentinel for this failure's kind.
func (f *ResolutionFailure) Is(target error) bool {
	return f.sentinel() == target
}

func (f *ResolutionFailure) sentinel() error {
	if s, ok := sentinels[f.Kind]; ok {
		return s
	}
	return ErrUnknownMedia
}

// KindOf extracts the failure kind from err.
// Errors that are not a *ResolutionFailure classify as FailureUnknown.
func KindOf(err error) FailureKind {
	var f *ResolutionFailure
	if errors.As(err, &f) {
		return f.Kind
	}
	return FailureUnknown
}

// AsFailure coerces err into a *ResolutionFailure, wrapping foreign errors
// as FailureUnknown. Returns nil for a nil err.
func AsFailure(err error) *ResolutionFailure {
	if err == nil {
		return nil
	}
	var f *ResolutionFailure
	if errors.As(err, &f) {
		return f
	}
	return NewFailure(FailureUnknown, err)
}

// IndexedFailure pairs a failure with its handle's position in the batch.
type IndexedFailure struct {
	Index   int
	Failure *ResolutionFailure
}
