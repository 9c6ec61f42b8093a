package cookie

import (
	"strings"

	"github.com/indigo-web/connector/internal/strutil"
	"github.com/indigo-web/connector/kv"
)

// Jar holds cookies, received from a user-agent. Those are plain key-value pairs, as
// the Cookie header carries no attributes.
type Jar = *kv.Storage

func NewJar() Jar {
	return kv.New()
}

// Parse parses cookies, received from a user-agent. These are basically key-value pairs,
// so the function isn't applicable for Set-Cookie values
func Parse(jar Jar, data string) error {
	for len(data) > 0 {
		var pair string
		pair, data, _ = strings.Cut(data, ";")
		if pair = strutil.StripWS(pair); len(pair) == 0 {
			continue
		}

		key, value, found := strings.Cut(pair, "=")
		if !found || len(key) == 0 {
			return ErrBadCookie
		}

		// empty value is fine
		jar.Add(key, strutil.Unquote(value))
	}

	return nil
}

// Render produces the value of the Cookie header.
func Render(jar Jar) string {
	var b strings.Builder

	for key, value := range jar.Pairs() {
		if b.Len() > 0 {
			b.WriteString("; ")
		}

		b.WriteString(key)
		b.WriteByte('=')
		b.WriteString(value)
	}

	return b.String()
}
