// Package policy defines the validation rules applied to staged media.
//
// Rules are pure: no state, no I/O. A Policy is an immutable value; zero
// fields fall back to the defaults below.
//
//   - Image extension must be in the allowed set (case-insensitive).
//   - Image size must be <= MaxImageBytes.
//   - Video size must be <= MaxVideoBytes.
//   - Extension is checked before size, so an oversized file with a
//     disallowed extension reports unsupported_extension.
package policy

import (
	"sort"
	"strings"

	"github.com/pithecene-io/mediaresolve/types"
)

// Default limits. Boundaries are inclusive.
const (
	DefaultMaxImageBytes int64 = 50 * 1024 * 1024
	DefaultMaxVideoBytes int64 = 100 * 1024 * 1024
)

// defaultImageExtensions is the allowed image extension set.
var defaultImageExtensions = []string{"jpg", "jpeg", "gif", "png", "heic"}

// Policy holds validation limits.
type Policy struct {
	// MaxImageBytes is the largest accepted image (0 = default).
	MaxImageBytes int64
	// MaxVideoBytes is the largest accepted video (0 = default).
	MaxVideoBytes int64
	// ImageExtensions lists allowed image extensions without dots
	// (empty = default set).
	ImageExtensions []string
}

// Default returns the default policy.
func Default() Policy {
	return Policy{}.WithDefaults()
}

// WithDefaults returns a copy with zero fields replaced by defaults and
// extensions normalized.
func (p Policy) WithDefaults() Policy {
	if p.MaxImageBytes <= 0 {
		p.MaxImageBytes = DefaultMaxImageBytes
	}
	if p.MaxVideoBytes <= 0 {
		p.MaxVideoBytes = DefaultMaxVideoBytes
	}
	src := p.ImageExtensions
	if len(src) == 0 {
		src = defaultImageExtensions
	}
	exts := make([]string, 0, len(src))
	for _, e := range src {
		if n := NormalizeExtension(e); n != "" {
			exts = append(exts, n)
		}
	}
	sort.Strings(exts)
	p.ImageExtensions = exts
	return p
}

// NormalizeExtension lower-cases ext and strips a leading dot.
func NormalizeExtension(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// AllowsImageExtension reports whether ext is in the allowed set.
func (p Policy) AllowsImageExtension(ext string) bool {
	ext = NormalizeExtension(ext)
	allowed := p.ImageExtensions
	if len(allowed) == 0 {
		allowed = defaultImageExtensions
	}
	for _, a := range allowed {
		if NormalizeExtension(a) == ext {
			return true
		}
	}
	return false
}

// ValidateImage checks an image's extension and size.
// Returns nil, or a *types.ResolutionFailure of kind
// unsupported_extension or image_too_large.
func (p Policy) ValidateImage(ext string, sizeBytes int64) error {
	if !p.AllowsImageExtension(ext) {
		return types.NewFailure(types.FailureUnsupportedExtension, nil)
	}
	maxBytes := p.MaxImageBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	if sizeBytes > maxBytes {
		return types.NewFailure(types.FailureImageTooLarge, nil)
	}
	return nil
}

// ValidateVideo checks a video's size.
// Returns nil, or a *types.ResolutionFailure of kind video_too_large.
func (p Policy) ValidateVideo(sizeBytes int64) error {
	maxBytes := p.MaxVideoBytes
	if maxBytes <= 0 {
		maxBytes = DefaultMaxVideoBytes
	}
	if sizeBytes > maxBytes {
		return types.NewFailure(types.FailureVideoTooLarge, nil)
	}
	return nil
}
