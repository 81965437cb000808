// Package handle provides media handles: opaque references to user-selected
// media that can be materialized into a transient local file.
//
// The resolver only reads through a Handle. Capabilities are declared up
// front (HasImage, HasVideo); bytes are produced on demand by Materialize.
package handle

import (
	"context"
	"errors"
	"fmt"

	"github.com/pithecene-io/mediaresolve/types"
)

// ErrNotOffered is returned by Materialize when the handle does not declare
// the requested kind.
var ErrNotOffered = errors.New("media kind not offered by handle")

// Handle is one selected media item.
type Handle interface {
	// ID returns a human-readable identifier (path, URL or store key).
	ID() string
	// HasImage reports whether the handle offers a still image.
	HasImage() bool
	// HasVideo reports whether the handle offers a video.
	HasVideo() bool
	// Materialize produces a transient local file holding the requested
	// kind. release must be called once the caller is done with the file;
	// it is never nil when err is nil.
	Materialize(ctx context.Context, kind types.MediaKind) (path string, release func(), err error)
}

// Limits caps the bytes a downloading handle copies per kind (0 = no cap).
// A larger source is cut to cap+1 bytes, so size validation with the same
// limits still reports it as too large.
type Limits struct {
	Image int64
	Video int64
}

func (l Limits) forKind(kind types.MediaKind) int64 {
	switch kind {
	case types.KindImage:
		return l.Image
	case types.KindVideo:
		return l.Video
	default:
		return 0
	}
}

// Option configures an HTTPHandle or StoreHandle.
type Option func(*downloadOptions)

type downloadOptions struct {
	limits Limits
}

// WithLimits bounds how much of the source Materialize copies.
func WithLimits(l Limits) Option {
	return func(o *downloadOptions) { o.limits = l }
}

func applyOptions(opts []Option) downloadOptions {
	var o downloadOptions
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

func noRelease() {}

// offers reports whether caps include kind.
func offers(kind types.MediaKind, image, video bool) bool {
	switch kind {
	case types.KindImage:
		return image
	case types.KindVideo:
		return video
	default:
		return false
	}
}

func notOffered(id string, kind types.MediaKind) error {
	return fmt.Errorf("%s: %s: %w", id, kind, ErrNotOffered)
}
