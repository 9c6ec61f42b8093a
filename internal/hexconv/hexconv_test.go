package hexconv

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for i, c := range "0123456789abcdef" {
		value, ok := Parse(byte(c))
		require.True(t, ok)
		require.Equal(t, byte(i), value)
	}

	for i, c := range "ABCDEF" {
		value, ok := Parse(byte(c))
		require.True(t, ok)
		require.Equal(t, byte(i+10), value)
	}

	for _, c := range []byte("gG xX;\r\n\x00\xff") {
		_, ok := Parse(c)
		require.False(t, ok, string(c))
	}
}

func benchLocal(b *testing.B, str string) {
	b.SetBytes(int64(len(str)))
	b.ResetTimer()

	for range b.N {
		var result uint64

		for j := range str {
			result = (result << 4) | uint64(Halfbyte[str[j]])
		}

		_ = result
	}
}

func BenchmarkParse(b *testing.B) {
	b.Run("short", func(b *testing.B) {
		benchLocal(b, "123456789abcdef")
	})

	b.Run("long", func(b *testing.B) {
		benchLocal(b, strings.Repeat("123456789abcdef", 100))
	})
}
