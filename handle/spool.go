package handle

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/pithecene-io/mediaresolve/iox"
)

// spoolPattern names transient materialized files in os.TempDir().
const spoolPattern = "mediaresolve-src-*"

// spool copies r into a new temp file ending in ext.
// A positive maxBytes stops the copy after maxBytes+1 bytes, enough for
// size validation to reject the source without holding all of it.
// On error nothing is left behind.
func spool(ctx context.Context, r io.Reader, ext string, maxBytes int64) (string, func(), error) {
	if maxBytes > 0 {
		r = io.LimitReader(r, maxBytes+1)
	}

	f, err := os.CreateTemp("", spoolPattern+ext)
	if err != nil {
		return "", nil, fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()

	if _, err := io.Copy(f, iox.ContextReader(ctx, r)); err != nil {
		iox.DiscardClose(f)
		_ = iox.RemoveIfExists(tmp)
		return "", nil, fmt.Errorf("copy to temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = iox.RemoveIfExists(tmp)
		return "", nil, fmt.Errorf("close temp file: %w", err)
	}
	return tmp, func() { _ = iox.RemoveIfExists(tmp) }, nil
}
