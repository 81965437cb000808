// Package types defines core domain types for media resolution.
//
//nolint:revive // types is a common Go package naming convention
package types

import (
	"fmt"
	"image"
	"strings"
)

// MediaKind discriminates the two artifact shapes.
type MediaKind string

// Media kinds.
const (
	KindImage MediaKind = "image"
	KindVideo MediaKind = "video"
)

// Filter narrows which handle capabilities a resolver honours.
// Mirrors the picker filter the selection surface was opened with.
type Filter string

// Filter values.
const (
	FilterAny    Filter = "any"
	FilterImages Filter = "images"
	FilterVideos Filter = "videos"
)

// ParseFilter parses a filter string. Empty means FilterAny.
func ParseFilter(s string) (Filter, error) {
	switch strings.ToLower(s) {
	case "", "any":
		return FilterAny, nil
	case "images", "image":
		return FilterImages, nil
	case "videos", "video":
		return FilterVideos, nil
	default:
		return "", fmt.Errorf("invalid filter: %q (must be any, images, or videos)", s)
	}
}

// Allows reports whether kind passes the filter.
func (f Filter) Allows(kind MediaKind) bool {
	switch f {
	case FilterImages:
		return kind == KindImage
	case FilterVideos:
		return kind == KindVideo
	default:
		return true
	}
}

// Artifact is the validated output of one successful resolution.
// Exactly one of Image or VideoPath is meaningful, selected by Kind.
type Artifact struct {
	// Kind selects the populated variant.
	Kind MediaKind
	// Image is the decoded image (KindImage only).
	Image image.Image
	// Format is the decoder-reported format, e.g. "png" (KindImage only).
	Format string
	// VideoPath is the staged file path (KindVideo only).
	// The caller owns the file and must delete it.
	VideoPath string
	// SizeBytes is the size of the staged source file.
	SizeBytes int64
}

// ImageArtifact builds an image artifact.
func ImageArtifact(img image.Image, format string, size int64) Artifact {
	return Artifact{Kind: KindImage, Image: img, Format: format, SizeBytes: size}
}

// VideoArtifact builds a video artifact.
func VideoArtifact(path string, size int64) Artifact {
	return Artifact{Kind: KindVideo, VideoPath: path, SizeBytes: size}
}

// IsImage reports whether the artifact is an image.
func (a Artifact) IsImage() bool { return a.Kind == KindImage }

// IsVideo reports whether the artifact is a video.
func (a Artifact) IsVideo() bool { return a.Kind == KindVideo }

// Bounds returns the image dimensions, or zero for videos.
func (a Artifact) Bounds() (width, height int) {
	if a.Image == nil {
		return 0, 0
	}
	b := a.Image.Bounds()
	return b.Dx(), b.Dy()
}

// IndexedArtifact pairs an artifact with its handle's position in the batch.
type IndexedArtifact struct {
	Index    int
	Artifact Artifact
}
