package mime

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComplies(t *testing.T) {
	for _, tc := range []string{"", JSON, JSON + ";", JSON + ";param", "Application/JSON"} {
		require.True(t, Complies(JSON, tc))
	}

	require.False(t, Complies(JSON, HTML))
}

func TestDefaults(t *testing.T) {
	d := DefaultMetadata()
	require.Equal(t, HTML, d.Guess("/index.HTML?query#fragment"))
	require.Equal(t, OctetStream, d.Guess("/archive.unknown"))
	require.True(t, Textual(HTML))
	require.True(t, Textual(JSON))
	require.False(t, Textual(PNG))
}

func TestParseContentType(t *testing.T) {
	t.Run("charset", func(t *testing.T) {
		ct, err := ParseContentType("text/html; charset=UTF-8")
		require.NoError(t, err)
		require.Equal(t, HTML, ct.MediaType)
		require.Equal(t, "UTF-8", ct.Charset)
		require.False(t, ct.Params.Has("charset"))
		require.Equal(t, "text/html; charset=UTF-8", ct.String())
	})

	t.Run("params order", func(t *testing.T) {
		ct, err := ParseContentType(`Multipart/Form-Data; boundary="a b"; Charset=utf-8; x=y`)
		require.NoError(t, err)
		require.Equal(t, Multipart, ct.MediaType)
		require.Equal(t, "utf-8", ct.Charset)
		require.Equal(t, []string{"a b"}, ct.Params.Values("boundary"))
		require.Equal(t, 2, ct.Params.Len())
		require.Equal(t, `multipart/form-data; boundary="a b"; x=y; charset=utf-8`, ct.String())
	})

	t.Run("bare", func(t *testing.T) {
		ct, err := ParseContentType("application/json")
		require.NoError(t, err)
		require.Equal(t, JSON, ct.MediaType)
		require.Empty(t, ct.Charset)
		require.True(t, ct.Params.Empty())
	})

	t.Run("malformed", func(t *testing.T) {
		for _, tc := range []string{
			"", "text", "text/", "/html", "te xt/html", "text/html; charset",
			`text/html; charset="utf-8`, "text/html; =x",
		} {
			_, err := ParseContentType(tc)
			require.ErrorIs(t, err, ErrMalformedContentType, tc)
		}
	})
}
