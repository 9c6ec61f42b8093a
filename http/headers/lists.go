package headers

import (
	"strconv"

	"github.com/indigo-web/connector/internal/strutil"
)

// List merges comma-separated elements of all the passed values into a single list.
// Empty elements are skipped.
func List(values []string) (list []string) {
	for _, value := range values {
		list = strutil.AppendList(list, value)
	}

	return list
}

// HasToken reports whether any of the list elements equals the token, ignoring the case.
func HasToken(values []string, token string) bool {
	for _, elem := range List(values) {
		if strutil.CmpFold(elem, token) {
			return true
		}
	}

	return false
}

// Preference is a single element of the Accept-like header.
type Preference struct {
	Value string
	// Quality is in range [0, 1]. Elements without an explicit quality have 1.
	Quality float32
}

// Preferences parses Accept, Accept-Charset, Accept-Encoding and Accept-Language values.
// Elements with malformed parameters keep the default quality. The order is preserved.
func Preferences(values []string) []Preference {
	list := List(values)
	prefs := make([]Preference, 0, len(list))

	for _, elem := range list {
		value, params := strutil.CutHeader(elem)
		if len(value) == 0 {
			continue
		}

		prefs = append(prefs, Preference{
			Value:   value,
			Quality: qualityOf(params),
		})
	}

	return prefs
}

// RenderPreferences is the inverse of Preferences.
func RenderPreferences(prefs []Preference) string {
	var buff []byte

	for i, pref := range prefs {
		if i > 0 {
			buff = append(buff, ", "...)
		}

		buff = append(buff, pref.Value...)
		if pref.Quality < 1 {
			buff = append(buff, ";q="...)
			buff = strconv.AppendFloat(buff, float64(pref.Quality), 'f', -1, 32)
		}
	}

	return string(buff)
}

func qualityOf(params string) float32 {
	for key, value := range strutil.WalkParams(params) {
		if key != "q" && key != "Q" {
			continue
		}

		q, err := strconv.ParseFloat(value, 32)
		if err != nil || q < 0 || q > 1 {
			return 1
		}

		return float32(q)
	}

	return 1
}
