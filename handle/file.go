package handle

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/pithecene-io/mediaresolve/iox"
	"github.com/pithecene-io/mediaresolve/types"
)

// FileHandle references a file on local disk.
//
// Capabilities come from the extension; files with an unknown extension
// are classified by sniffing their first bytes once.
type FileHandle struct {
	path string

	once      sync.Once
	kind      types.MediaKind
	sniffed   bool
	sniffType string
}

// NewFileHandle creates a handle for a local path. The file is not opened.
func NewFileHandle(path string) *FileHandle {
	return &FileHandle{path: path}
}

// ID returns the file path.
func (h *FileHandle) ID() string { return h.path }

// HasImage reports whether the file is an image.
func (h *FileHandle) HasImage() bool { return h.detect() == types.KindImage }

// HasVideo reports whether the file is a video.
func (h *FileHandle) HasVideo() bool { return h.detect() == types.KindVideo }

func (h *FileHandle) detect() types.MediaKind {
	h.once.Do(func() {
		if kind, ok := KindForExtension(filepath.Ext(h.path)); ok {
			h.kind = kind
			return
		}
		head, err := readHead(h.path)
		if err != nil {
			return
		}
		if kind, ok := Sniff(head); ok {
			h.kind = kind
			h.sniffed = true
			h.sniffType = http.DetectContentType(head)
		}
	})
	return h.kind
}

// Materialize returns the file itself when its extension is known.
// A sniffed file is copied to a temp file carrying an extension derived
// from its content type, so downstream extension checks see a real one.
func (h *FileHandle) Materialize(ctx context.Context, kind types.MediaKind) (string, func(), error) {
	kinds := h.detect()
	if !offers(kind, kinds == types.KindImage, kinds == types.KindVideo) {
		return "", nil, notOffered(h.path, kind)
	}
	if err := ctx.Err(); err != nil {
		return "", nil, err
	}

	info, err := os.Stat(h.path)
	if err != nil {
		return "", nil, err
	}
	if !info.Mode().IsRegular() {
		return "", nil, fmt.Errorf("%s: not a regular file", h.path)
	}
	if !h.sniffed {
		return h.path, noRelease, nil
	}

	f, err := os.Open(h.path)
	if err != nil {
		return "", nil, err
	}
	defer iox.DiscardClose(f)
	return spool(ctx, f, extensionForContentType(h.sniffType), 0)
}

func readHead(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer iox.DiscardClose(f)

	buf := make([]byte, sniffLen)
	n, err := io.ReadFull(f, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}
