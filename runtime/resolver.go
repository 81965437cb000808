// Package runtime implements media resolution: one handle into one artifact
// (Resolver) and N handles into an ordered, partitioned outcome (Batch).
package runtime

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"io"
	"os"
	"path/filepath"

	"github.com/pithecene-io/mediaresolve/handle"
	"github.com/pithecene-io/mediaresolve/iox"
	"github.com/pithecene-io/mediaresolve/log"
	"github.com/pithecene-io/mediaresolve/metrics"
	"github.com/pithecene-io/mediaresolve/policy"
	"github.com/pithecene-io/mediaresolve/stage"
	"github.com/pithecene-io/mediaresolve/types"
)

// Decoder decodes staged image bytes. It returns the image and the
// format name reported by the decoder.
type Decoder func(r io.Reader) (image.Image, string, error)

// DefaultDecoder decodes any format registered with the image package
// (JPEG, PNG and GIF are registered by this package).
func DefaultDecoder(r io.Reader) (image.Image, string, error) {
	return image.Decode(r)
}

// ResolverConfig configures a Resolver.
type ResolverConfig struct {
	// Stager copies materialized sources into the scratch directory (required).
	Stager *stage.Stager
	// Policy holds validation limits (zero value = defaults).
	Policy policy.Policy
	// Decoder decodes images (nil = DefaultDecoder).
	Decoder Decoder
	// Filter narrows which capabilities are honoured (empty = any).
	Filter types.Filter
	// Logger receives per-item debug and cleanup warnings (nil = silent).
	Logger *log.Logger
	// Collector receives per-item counters (nil = disabled).
	Collector *metrics.Collector
}

// Resolver turns a single handle into a validated artifact.
// Safe for concurrent use; each call stages at most one file.
type Resolver struct {
	stager    *stage.Stager
	policy    policy.Policy
	decode    Decoder
	filter    types.Filter
	logger    *log.Logger
	collector *metrics.Collector
}

// ErrNoStager is returned by NewResolver when no Stager is configured.
var ErrNoStager = errors.New("resolver requires a stager")

// NewResolver creates a Resolver.
func NewResolver(cfg ResolverConfig) (*Resolver, error) {
	if cfg.Stager == nil {
		return nil, ErrNoStager
	}
	decode := cfg.Decoder
	if decode == nil {
		decode = DefaultDecoder
	}
	filter := cfg.Filter
	if filter == "" {
		filter = types.FilterAny
	}
	return &Resolver{
		stager:    cfg.Stager,
		policy:    cfg.Policy.WithDefaults(),
		decode:    decode,
		filter:    filter,
		logger:    cfg.Logger,
		collector: cfg.Collector,
	}, nil
}

// Resolve materializes, stages, validates and (for images) decodes h.
//
// Video wins when h offers both kinds. A non-nil error is always a
// *types.ResolutionFailure, and no staged file survives an error.
// A successful video artifact's file belongs to the caller.
func (r *Resolver) Resolve(ctx context.Context, h handle.Handle) (types.Artifact, error) {
	var (
		art types.Artifact
		err error
	)
	switch {
	case h.HasVideo() && r.filter.Allows(types.KindVideo):
		art, err = r.resolveVideo(ctx, h)
	case h.HasImage() && r.filter.Allows(types.KindImage):
		art, err = r.resolveImage(ctx, h)
	default:
		err = types.NewFailure(types.FailureUnknown, nil)
	}

	if err != nil {
		f := types.AsFailure(err)
		r.collector.IncFailure(string(f.Kind))
		return types.Artifact{}, f
	}

	r.logger.Debug("item resolved", map[string]any{
		"handle": h.ID(),
		"kind":   string(art.Kind),
		"bytes":  art.SizeBytes,
	})
	return art, nil
}

func (r *Resolver) resolveVideo(ctx context.Context, h handle.Handle) (types.Artifact, error) {
	staged, size, err := r.stageFrom(ctx, h, types.KindVideo, types.FailureMissingVideo)
	if err != nil {
		return types.Artifact{}, err
	}
	if err := r.policy.ValidateVideo(size); err != nil {
		r.discard(staged)
		return types.Artifact{}, err
	}
	r.collector.IncVideoResolved()
	return types.VideoArtifact(staged, size), nil
}

func (r *Resolver) resolveImage(ctx context.Context, h handle.Handle) (types.Artifact, error) {
	staged, size, err := r.stageFrom(ctx, h, types.KindImage, types.FailureMissingImage)
	if err != nil {
		return types.Artifact{}, err
	}
	// Image artifacts live only in memory; the staged copy never outlives this call.
	defer r.discard(staged)

	ext := policy.NormalizeExtension(filepath.Ext(staged))
	if err := r.policy.ValidateImage(ext, size); err != nil {
		return types.Artifact{}, err
	}

	img, format, err := r.decodeFile(staged)
	if err != nil {
		return types.Artifact{}, types.NewFailure(types.FailureMissingImage, err)
	}
	r.collector.IncImageResolved()
	return types.ImageArtifact(img, format, size), nil
}

// stageFrom materializes kind from h and stages it. The transient
// materialized file is released before returning on every path.
func (r *Resolver) stageFrom(ctx context.Context, h handle.Handle, kind types.MediaKind, missing types.FailureKind) (string, int64, error) {
	src, release, err := h.Materialize(ctx, kind)
	if err != nil {
		return "", 0, types.NewFailure(missing, err)
	}

	staged, err := r.stager.Stage(ctx, src)
	relErr := runRelease(release)
	if err != nil {
		return "", 0, types.NewFailure(types.FailureIO, err)
	}
	if relErr != nil {
		r.discard(staged)
		return "", 0, types.NewFailure(types.FailureUnknown, relErr)
	}
	size, err := r.stager.Size(staged)
	if err != nil {
		r.discard(staged)
		return "", 0, types.NewFailure(types.FailureIO, err)
	}
	r.collector.AddBytesStaged(size)
	return staged, size, nil
}

// runRelease calls release, turning a panic into an error so the caller
// can still remove what it staged.
func runRelease(release func()) (err error) {
	if release == nil {
		return nil
	}
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("release panicked: %v", p)
		}
	}()
	release()
	return nil
}

func (r *Resolver) decodeFile(path string) (image.Image, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, "", err
	}
	defer iox.DiscardClose(f)
	return r.decode(f)
}

// discard removes a staged file. Removal failures are logged, not returned.
func (r *Resolver) discard(path string) {
	if err := r.stager.Remove(path); err != nil {
		r.logger.Warn("staged file cleanup failed", map[string]any{
			"path":  path,
			"error": err.Error(),
		})
		return
	}
	r.collector.IncStagedFileRemoved()
}
