package handle

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/pithecene-io/mediaresolve/iox"
	"github.com/pithecene-io/mediaresolve/types"
)

// DefaultHTTPTimeout bounds a single download when no client is supplied.
const DefaultHTTPTimeout = 2 * time.Minute

// StatusError is returned when a download responds with a non-200 status.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("download %s: unexpected status %d", e.URL, e.StatusCode)
}

// HTTPHandle references media behind an http(s) URL.
// Capabilities come from the URL path extension.
type HTTPHandle struct {
	rawURL string
	ext    string
	kind   types.MediaKind
	client *http.Client
	opts   downloadOptions
}

// NewHTTPHandle creates a handle for rawURL. A nil client gets one with
// DefaultHTTPTimeout.
func NewHTTPHandle(client *http.Client, rawURL string, opts ...Option) (*HTTPHandle, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid url %q: %w", rawURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid url %q: scheme must be http or https", rawURL)
	}
	if client == nil {
		client = &http.Client{Timeout: DefaultHTTPTimeout}
	}
	h := &HTTPHandle{rawURL: rawURL, ext: path.Ext(u.Path), client: client, opts: applyOptions(opts)}
	h.kind, _ = KindForExtension(h.ext)
	return h, nil
}

// ID returns the URL.
func (h *HTTPHandle) ID() string { return h.rawURL }

// HasImage reports whether the URL names an image.
func (h *HTTPHandle) HasImage() bool { return h.kind == types.KindImage }

// HasVideo reports whether the URL names a video.
func (h *HTTPHandle) HasVideo() bool { return h.kind == types.KindVideo }

// Materialize downloads the URL into a temp file released by the caller.
func (h *HTTPHandle) Materialize(ctx context.Context, kind types.MediaKind) (string, func(), error) {
	if !offers(kind, h.HasImage(), h.HasVideo()) {
		return "", nil, notOffered(h.rawURL, kind)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, h.rawURL, http.NoBody)
	if err != nil {
		return "", nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return "", nil, fmt.Errorf("failed to download: %w", err)
	}
	defer iox.DiscardClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return "", nil, &StatusError{URL: h.rawURL, StatusCode: resp.StatusCode}
	}

	ext := h.ext
	if ext == "" {
		ext = extensionForContentType(resp.Header.Get("Content-Type"))
	}
	return spool(ctx, resp.Body, ext, h.opts.limits.forKind(kind))
}
