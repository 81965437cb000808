package handle

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/justapithecus/lode/lode"
)

// StoreScheme prefixes handles that resolve against a lode Store.
const StoreScheme = "store://"

// Parse errors.
var (
	ErrEmptyHandle = errors.New("empty handle")
	ErrNoStore     = errors.New("store:// handle given but no source store is configured")
)

// Sources supplies the backends handles may resolve against.
type Sources struct {
	// HTTPClient is used for http(s) handles (nil = default client).
	HTTPClient *http.Client
	// Store backs store:// handles (nil = store handles rejected).
	Store lode.Store
	// Limits bounds http(s) and store:// downloads (zero = unbounded).
	Limits Limits
}

// Parse maps a CLI argument to a handle:
//
//	http://… or https://…  HTTPHandle
//	store://<key>          StoreHandle
//	file://<path> or path  FileHandle
func Parse(arg string, src Sources) (Handle, error) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return nil, ErrEmptyHandle
	}

	lower := strings.ToLower(arg)
	switch {
	case strings.HasPrefix(lower, "http://"), strings.HasPrefix(lower, "https://"):
		h, err := NewHTTPHandle(src.HTTPClient, arg, WithLimits(src.Limits))
		if err != nil {
			return nil, err
		}
		return h, nil
	case strings.HasPrefix(lower, StoreScheme):
		if src.Store == nil {
			return nil, ErrNoStore
		}
		key := strings.TrimLeft(arg[len(StoreScheme):], "/")
		if key == "" {
			return nil, fmt.Errorf("%q: %w", arg, ErrEmptyHandle)
		}
		return NewStoreHandle(src.Store, key, WithLimits(src.Limits)), nil
	case strings.HasPrefix(lower, "file://"):
		p := arg[len("file://"):]
		if p == "" {
			return nil, fmt.Errorf("%q: %w", arg, ErrEmptyHandle)
		}
		return NewFileHandle(p), nil
	default:
		return NewFileHandle(arg), nil
	}
}

// ParseAll parses every argument, stopping at the first invalid one.
func ParseAll(args []string, src Sources) ([]Handle, error) {
	handles := make([]Handle, 0, len(args))
	for i, a := range args {
		h, err := Parse(a, src)
		if err != nil {
			return nil, fmt.Errorf("handle %d: %w", i, err)
		}
		handles = append(handles, h)
	}
	return handles, nil
}
