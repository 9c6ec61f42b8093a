package strutil

import (
	"errors"
	"iter"
	"strings"
)

var ErrMalformedParams = errors.New("malformed parameters")

// WalkParams iterates over semicolon-separated key=value pairs. Quoted values are unquoted
// and may contain semicolons. Whitespaces around keys and values are stripped. Malformed
// input (key without a value, empty key or an unterminated quote) stops the iteration and
// yields a single pair of empty strings, which the caller must treat as an error.
func WalkParams(data string) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for len(data) > 0 {
			eq := strings.IndexByte(data, '=')
			semicolon := strings.IndexByte(data, ';')
			if semicolon != -1 && (eq == -1 || semicolon < eq) {
				if len(StripWS(data[:semicolon])) > 0 {
					yield("", "")
					return
				}

				// tolerate empty elements, e.g. trailing semicolons
				data = data[semicolon+1:]
				continue
			}

			if eq == -1 {
				if len(StripWS(data)) > 0 {
					yield("", "")
				}

				return
			}

			key := StripWS(data[:eq])
			if len(key) == 0 {
				yield("", "")
				return
			}

			data = LStripWS(data[eq+1:])
			var value string

			if len(data) > 0 && data[0] == '"' {
				closing := strings.IndexByte(data[1:], '"')
				if closing == -1 {
					yield("", "")
					return
				}

				value = data[1 : closing+1]
				data = LStripWS(data[closing+2:])
				if len(data) > 0 {
					if data[0] != ';' {
						yield("", "")
						return
					}

					data = data[1:]
				}
			} else {
				boundary := strings.IndexByte(data, ';')
				if boundary == -1 {
					value, data = RStripWS(data), ""
				} else {
					value, data = RStripWS(data[:boundary]), data[boundary+1:]
				}
			}

			if !yield(key, value) {
				return
			}
		}
	}
}
