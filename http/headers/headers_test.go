package headers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDates(t *testing.T) {
	want := time.Date(1994, time.November, 6, 8, 49, 37, 0, time.UTC)

	for _, tc := range []string{
		"Sun, 06 Nov 1994 08:49:37 GMT",
		"Sunday, 06-Nov-94 08:49:37 GMT",
		"Sun Nov  6 08:49:37 1994",
	} {
		got, ok := ParseDate(tc)
		require.True(t, ok, tc)
		require.True(t, want.Equal(got), tc)
	}

	_, ok := ParseDate("yesterday")
	require.False(t, ok)
	require.Equal(t, "Sun, 06 Nov 1994 08:49:37 GMT", FormatDate(want.In(time.FixedZone("EET", 7200))))
}

func TestList(t *testing.T) {
	require.Equal(t, []string{"gzip", "chunked", "br"}, List([]string{"gzip, chunked", " br"}))
	require.True(t, HasToken([]string{"keep-alive, Close"}, "close"))
	require.False(t, HasToken([]string{"keep-alive"}, "close"))
}

func TestPreferences(t *testing.T) {
	prefs := Preferences([]string{"text/html, application/xml;q=0.9", "*/*;q=0.8, image/webp;q=bad"})
	require.Equal(t, []Preference{
		{"text/html", 1},
		{"application/xml", 0.9},
		{"*/*", 0.8},
		{"image/webp", 1},
	}, prefs)

	require.Equal(t, "text/html, application/xml;q=0.9", RenderPreferences(prefs[:2]))
}
