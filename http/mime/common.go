package mime

import (
	"path/filepath"
	"strings"

	"github.com/indigo-web/webserv/internal/strutil"
)

type MIME = string

const (
	OctetStream    MIME = "application/octet-stream"
	Plain          MIME = "text/plain"
	HTML           MIME = "text/html"
	XML            MIME = "text/xml"
	CSS            MIME = "text/css"
	CSV            MIME = "text/csv"
	JS             MIME = "text/javascript"
	Markdown       MIME = "text/markdown"
	JSON           MIME = "application/json"
	YAML           MIME = "application/yaml"
	PDF            MIME = "application/pdf"
	FormUrlencoded MIME = "application/x-www-form-urlencoded"
	Multipart      MIME = "multipart/form-data"
	ZIP            MIME = "application/zip"
	GZIP           MIME = "application/gzip"
	TAR            MIME = "application/x-tar"
	WASM           MIME = "application/wasm"
	AVIF           MIME = "image/avif"
	GIF            MIME = "image/gif"
	JPEG           MIME = "image/jpeg"
	PNG            MIME = "image/png"
	SVG            MIME = "image/svg+xml"
	ICO            MIME = "image/vnd.microsoft.icon"
	WEBP           MIME = "image/webp"
	MP3            MIME = "audio/mpeg"
	MP4            MIME = "video/mp4"
	WOFF2          MIME = "font/woff2"
)

var Extension = map[string]MIME{
	".avif":  AVIF,
	".css":   CSS,
	".csv":   CSV,
	".gif":   GIF,
	".htm":   HTML,
	".html":  HTML,
	".jpeg":  JPEG,
	".jpg":   JPEG,
	".js":    JS,
	".mjs":   JS,
	".json":  JSON,
	".md":    Markdown,
	".pdf":   PDF,
	".png":   PNG,
	".svg":   SVG,
	".txt":   Plain,
	".wasm":  WASM,
	".webp":  WEBP,
	".xml":   XML,
	".gz":    GZIP,
	".tar":   TAR,
	".yaml":  YAML,
	".yml":   YAML,
	".zip":   ZIP,
	".ico":   ICO,
	".mp3":   MP3,
	".mp4":   MP4,
	".woff2": WOFF2,
}

// FromPath returns the MIME type by the file extension, case-insensitively. The fallback
// is returned for unknown extensions.
func FromPath(path string, fallback MIME) MIME {
	if mime, found := Extension[strings.ToLower(filepath.Ext(path))]; found {
		return mime
	}

	return fallback
}

// IsText reports whether a charset parameter is meaningful for the MIME.
func IsText(mime MIME) bool {
	mime, _ = strutil.CutHeader(mime)

	switch {
	case strings.HasPrefix(mime, "text/"):
		return true
	case mime == JSON, mime == XML, mime == YAML, mime == SVG, mime == "application/javascript":
		return true
	default:
		return false
	}
}

// Complies returns whether two MIMEs are compatible. Empty MIME is
// considered compatible with any other MIME
func Complies(mime MIME, with string) bool {
	with, _ = strutil.CutHeader(with)
	return len(with) == 0 || strings.EqualFold(with, mime)
}
