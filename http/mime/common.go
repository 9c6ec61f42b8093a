package mime

import (
	"github.com/indigo-web/connector/internal/strutil"
)

type MIME = string

const (
	OctetStream    MIME = "application/octet-stream"
	Plain          MIME = "text/plain"
	HTML           MIME = "text/html"
	XML            MIME = "text/xml"
	JSON           MIME = "application/json"
	YAML           MIME = "application/yaml"
	PDF            MIME = "application/pdf"
	FormUrlencoded MIME = "application/x-www-form-urlencoded"
	Multipart      MIME = "multipart/form-data"
	ZIP            MIME = "application/zip"
	GZIP           MIME = "application/gzip"
	CSS            MIME = "text/css"
	GIF            MIME = "image/gif"
	JPEG           MIME = "image/jpeg"
	PNG            MIME = "image/png"
	SVG            MIME = "image/svg+xml"
	WEBP           MIME = "image/webp"
	JS             MIME = "text/javascript"
	WASM           MIME = "application/wasm"
	Any            MIME = "*/*"
)

// Complies returns whether two MIMEs are compatible. Empty MIME is
// considered compatible with any other MIME
func Complies(mime MIME, with string) bool {
	// get rid of parameters if any
	with, _ = strutil.CutHeader(with)
	return len(with) == 0 || strutil.CmpFold(with, mime)
}

// Textual reports whether the media type is meant to be read by humans, so a charset
// makes sense for it.
func Textual(mime MIME) bool {
	if len(mime) > 5 && strutil.CmpFold(mime[:5], "text/") {
		return true
	}

	return strutil.CmpFold(mime, JSON) || strutil.CmpFold(mime, XML) ||
		strutil.CmpFold(mime, JS) || strutil.CmpFold(mime, YAML)
}
