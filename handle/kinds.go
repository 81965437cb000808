package handle

import (
	"mime"
	"net/http"
	"strings"

	"github.com/pithecene-io/mediaresolve/types"
)

// sniffLen is the number of leading bytes inspected by content sniffing.
const sniffLen = 512

// Known extensions (lowercase, with leading dot). The image table is a
// superset of the default validation set: .bmp classifies as an image and is
// then rejected by policy.
var (
	imageExtensions = map[string]bool{
		".jpg":  true,
		".jpeg": true,
		".png":  true,
		".gif":  true,
		".heic": true,
		".heif": true,
		".bmp":  true,
		".webp": true,
		".tif":  true,
		".tiff": true,
	}
	videoExtensions = map[string]bool{
		".mkv":  true,
		".mp4":  true,
		".avi":  true,
		".m4v":  true,
		".mov":  true,
		".wmv":  true,
		".flv":  true,
		".webm": true,
		".ts":   true,
		".m2ts": true,
		".mpg":  true,
		".mpeg": true,
		".vob":  true,
		".ogv":  true,
		".3gp":  true,
	}
)

// KindForExtension classifies a file extension (with or without dot).
func KindForExtension(ext string) (types.MediaKind, bool) {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	switch {
	case imageExtensions[ext]:
		return types.KindImage, true
	case videoExtensions[ext]:
		return types.KindVideo, true
	default:
		return "", false
	}
}

// KindForContentType classifies a MIME type such as "image/png".
func KindForContentType(contentType string) (types.MediaKind, bool) {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		mediaType = strings.ToLower(strings.TrimSpace(contentType))
	}
	switch {
	case strings.HasPrefix(mediaType, "image/"):
		return types.KindImage, true
	case strings.HasPrefix(mediaType, "video/"):
		return types.KindVideo, true
	default:
		return "", false
	}
}

// Sniff classifies leading file bytes.
func Sniff(head []byte) (types.MediaKind, bool) {
	if len(head) == 0 {
		return "", false
	}
	if len(head) > sniffLen {
		head = head[:sniffLen]
	}
	return KindForContentType(http.DetectContentType(head))
}

// extensionForContentType picks a file extension for a MIME type,
// preferring one the extension tables know about.
func extensionForContentType(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}
	exts, err := mime.ExtensionsByType(mediaType)
	if err != nil || len(exts) == 0 {
		return ""
	}
	// Stable preference: the shortest known extension, ".jpg" over ".jpeg".
	best := ""
	for _, e := range exts {
		if _, ok := KindForExtension(e); !ok {
			continue
		}
		if best == "" || len(e) < len(best) || (len(e) == len(best) && e < best) {
			best = e
		}
	}
	if best != "" {
		return best
	}
	return exts[0]
}
