package headers

import (
	"time"
)

// TimeFormat is the preferred format of HTTP dates (IMF-fixdate).
const TimeFormat = "Mon, 02 Jan 2006 15:04:05 GMT"

var obsoleteFormats = []string{
	time.RFC850,
	time.ANSIC,
}

// FormatDate renders the time in the IMF-fixdate format, always in GMT.
func FormatDate(t time.Time) string {
	return string(AppendDate(nil, t))
}

func AppendDate(dst []byte, t time.Time) []byte {
	return t.UTC().AppendFormat(dst, TimeFormat)
}

// ParseDate accepts all three formats a recipient is obligated to understand.
func ParseDate(value string) (t time.Time, ok bool) {
	t, err := time.Parse(TimeFormat, value)
	if err == nil {
		return t, true
	}

	for _, layout := range obsoleteFormats {
		if t, err = time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}

	return time.Time{}, false
}
