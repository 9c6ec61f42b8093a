package mime

import (
	"errors"
	"strings"

	"github.com/indigo-web/connector/internal/strutil"
	"github.com/indigo-web/connector/kv"
)

var ErrMalformedContentType = errors.New("malformed Content-Type value")

// ContentType is a parsed value of the Content-Type header. The charset parameter is
// extracted into its own field and is never present among Params.
type ContentType struct {
	MediaType MIME
	Params    *kv.Storage
	Charset   Charset
}

// ParseContentType parses the header value in form of type/subtype *(; key=value). Type and
// subtype are lower-cased, parameters are kept in their order.
func ParseContentType(value string) (ContentType, error) {
	mediatype, rawParams := strutil.CutHeader(value)
	slash := strings.IndexByte(mediatype, '/')
	if slash <= 0 || slash == len(mediatype)-1 || !isToken(mediatype[:slash]) || !isToken(mediatype[slash+1:]) {
		return ContentType{}, ErrMalformedContentType
	}

	ct := ContentType{
		MediaType: strings.ToLower(mediatype),
		Params:    kv.New(),
	}

	for key, value := range strutil.WalkParams(rawParams) {
		if len(key) == 0 {
			return ContentType{}, ErrMalformedContentType
		}

		if strutil.CmpFold(key, "charset") {
			ct.Charset = value
			continue
		}

		ct.Params.Add(key, value)
	}

	return ct, nil
}

// String renders the content type back, appending the charset as the last parameter.
func (c ContentType) String() string {
	var b strings.Builder
	b.WriteString(c.MediaType)

	if c.Params != nil {
		for key, value := range c.Params.Pairs() {
			writeParam(&b, key, value)
		}
	}

	if len(c.Charset) > 0 {
		writeParam(&b, "charset", c.Charset)
	}

	return b.String()
}

func writeParam(b *strings.Builder, key, value string) {
	b.WriteString("; ")
	b.WriteString(key)
	b.WriteByte('=')

	if isToken(value) {
		b.WriteString(value)
		return
	}

	b.WriteByte('"')
	b.WriteString(value)
	b.WriteByte('"')
}

func isToken(str string) bool {
	if len(str) == 0 {
		return false
	}

	for i := 0; i < len(str); i++ {
		switch c := str[i]; {
		case c <= ' ' || c >= 0x7f:
			return false
		case strings.IndexByte(`()<>@,;:\"/[]?={}`, c) != -1:
			return false
		}
	}

	return true
}
