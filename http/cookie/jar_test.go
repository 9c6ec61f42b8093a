package cookie

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Run("single pair", func(t *testing.T) {
		jar := NewJar()
		require.NoError(t, Parse(jar, "a=b"))
		require.Equal(t, "b", jar.Value("a"))
		require.NoError(t, Parse(jar.Clear(), "a=b;"))
		require.Equal(t, "b", jar.Value("a"))
		require.NoError(t, Parse(jar.Clear(), "a=b; "))
		require.Equal(t, "b", jar.Value("a"))
	})

	t.Run("multiple pairs", func(t *testing.T) {
		jar := NewJar()
		require.NoError(t, Parse(jar, `hello=world; men=in black; quoted="value"`))
		require.Equal(t, "world", jar.Value("hello"))
		require.Equal(t, "in black", jar.Value("men"))
		require.Equal(t, "value", jar.Value("quoted"))
		require.Equal(t, `hello=world; men=in black; quoted=value`, Render(jar))
	})

	t.Run("malformed", func(t *testing.T) {
		require.ErrorIs(t, Parse(NewJar(), "novalue"), ErrBadCookie)
		require.ErrorIs(t, Parse(NewJar(), "=value"), ErrBadCookie)
	})
}

func TestSetting(t *testing.T) {
	expires := time.Date(2030, time.January, 2, 3, 4, 5, 0, time.UTC)

	t.Run("render", func(t *testing.T) {
		c := Build("session", "abc").
			Path("/").
			Domain("example.com").
			Expires(expires).
			MaxAge(3600).
			SameSite(SameSiteLax).
			Secure(true).
			HttpOnly(true).
			Cookie()

		want := "session=abc; Path=/; Domain=example.com; Expires=Wed, 02 Jan 2030 03:04:05 GMT; " +
			"Max-Age=3600; SameSite=Lax; Secure; HttpOnly"
		require.Equal(t, want, c.Render())
		require.Equal(t, "gone=; Max-Age=0", Build("gone", "").MaxAge(-1).Cookie().Render())
	})

	t.Run("parse", func(t *testing.T) {
		c, err := ParseSetting("session=abc; path=/; Expires=Wed, 02 Jan 2030 03:04:05 GMT; Max-Age=0; secure; Unknown=1")
		require.NoError(t, err)
		require.Equal(t, "session", c.Name)
		require.Equal(t, "abc", c.Value)
		require.Equal(t, "/", c.Path)
		require.True(t, expires.Equal(c.Expires))
		require.Equal(t, -1, c.MaxAge)
		require.True(t, c.Secure)
		require.False(t, c.HttpOnly)
	})

	t.Run("round trip", func(t *testing.T) {
		original := Build("a", "b").Path("/x").SameSite(SameSiteStrict).HttpOnly(true).Cookie()
		parsed, err := ParseSetting(original.Render())
		require.NoError(t, err)
		require.Equal(t, original, parsed)
	})

	t.Run("malformed", func(t *testing.T) {
		_, err := ParseSetting("; Path=/")
		require.ErrorIs(t, err, ErrBadCookie)
	})
}
