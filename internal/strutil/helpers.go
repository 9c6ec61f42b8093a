package strutil

import (
	"strings"

	"github.com/indigo-web/utils/strcomp"
	go4str "go4.org/strutil"
)

// CmpFold compares two ASCII strings case-insensitively.
func CmpFold(a, b string) bool {
	return strcomp.EqualFold(a, b)
}

// ContainsFold reports whether substr is within s, ignoring the case.
func ContainsFold(s, substr string) bool {
	return go4str.ContainsFold(s, substr)
}

func LStripWS(str string) string {
	for i, c := range str {
		switch c {
		case ' ', '\t':
		default:
			return str[i:]
		}
	}

	return ""
}

func RStripWS(str string) string {
	for i := len(str); i > 0; i-- {
		switch str[i-1] {
		case ' ', '\t':
		default:
			return str[:i]
		}
	}

	return ""
}

// StripWS strips spaces and horizontal tabs from both sides.
func StripWS(str string) string {
	return RStripWS(LStripWS(str))
}

// CutHeader separates the header value from its parameters. Whitespaces around both
// are stripped.
func CutHeader(header string) (value, params string) {
	sep := strings.IndexByte(header, ';')
	if sep == -1 {
		return StripWS(header), ""
	}

	return StripWS(header[:sep]), StripWS(header[sep+1:])
}

func Unquote(str string) string {
	if len(str) > 1 && str[0] == '"' && str[len(str)-1] == '"' {
		return str[1 : len(str)-1]
	}

	return str
}

// AppendList appends comma-separated elements of the value to dst, skipping empty ones.
func AppendList(dst []string, value string) []string {
	offset := len(dst)
	dst = go4str.AppendSplitN(dst, value, ",", -1)
	n := offset

	for _, elem := range dst[offset:] {
		if elem = StripWS(elem); len(elem) > 0 {
			dst[n] = elem
			n++
		}
	}

	return dst[:n]
}
