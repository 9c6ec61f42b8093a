package mime

import (
	"path"
	"strings"
)

var Extension = map[string]MIME{
	".css":  CSS,
	".gif":  GIF,
	".htm":  HTML,
	".html": HTML,
	".jpeg": JPEG,
	".jpg":  JPEG,
	".js":   JS,
	".mjs":  JS,
	".json": JSON,
	".pdf":  PDF,
	".png":  PNG,
	".svg":  SVG,
	".txt":  Plain,
	".wasm": WASM,
	".webp": WEBP,
	".xml":  XML,
	".gz":   GZIP,
	".yaml": YAML,
	".zip":  ZIP,
}

// Defaults describes fallbacks applied to representations which don't state their own
// metadata.
type Defaults struct {
	// MediaType is used when neither the representation nor its location tells the type.
	MediaType MIME
	// Charset is added to textual media types lacking one.
	Charset Charset
}

func DefaultMetadata() Defaults {
	return Defaults{
		MediaType: OctetStream,
		Charset:   UTF8,
	}
}

// Guess derives the media type from the extension of the location. If the extension is
// unknown, the default media type is returned.
func (d Defaults) Guess(location string) MIME {
	if i := strings.IndexAny(location, "?#"); i != -1 {
		location = location[:i]
	}

	if mime, found := Extension[strings.ToLower(path.Ext(location))]; found {
		return mime
	}

	return d.MediaType
}
