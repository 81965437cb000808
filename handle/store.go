package handle

import (
	"context"
	"fmt"
	"path"

	"github.com/justapithecus/lode/lode"

	"github.com/pithecene-io/mediaresolve/iox"
	"github.com/pithecene-io/mediaresolve/types"
)

// StoreHandle references an object in a lode Store (filesystem or S3).
// Capabilities come from the key extension.
type StoreHandle struct {
	store lode.Store
	key   string
	kind  types.MediaKind
	opts  downloadOptions
}

// NewStoreHandle creates a handle for key in store.
func NewStoreHandle(store lode.Store, key string, opts ...Option) *StoreHandle {
	kind, _ := KindForExtension(path.Ext(key))
	return &StoreHandle{store: store, key: key, kind: kind, opts: applyOptions(opts)}
}

// ID returns the store URI of the object.
func (h *StoreHandle) ID() string { return StoreScheme + h.key }

// HasImage reports whether the key names an image.
func (h *StoreHandle) HasImage() bool { return h.kind == types.KindImage }

// HasVideo reports whether the key names a video.
func (h *StoreHandle) HasVideo() bool { return h.kind == types.KindVideo }

// Materialize streams the object into a temp file released by the caller.
func (h *StoreHandle) Materialize(ctx context.Context, kind types.MediaKind) (string, func(), error) {
	if !offers(kind, h.HasImage(), h.HasVideo()) {
		return "", nil, notOffered(h.ID(), kind)
	}

	rc, err := h.store.Get(ctx, h.key)
	if err != nil {
		return "", nil, fmt.Errorf("store get %s: %w", h.key, err)
	}
	defer iox.DiscardClose(rc)

	return spool(ctx, rc, path.Ext(h.key), h.opts.limits.forKind(kind))
}
