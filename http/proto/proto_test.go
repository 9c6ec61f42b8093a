package proto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	require.Equal(t, HTTP10, Parse("HTTP/1.0"))
	require.Equal(t, HTTP11, Parse("HTTP/1.1"))

	for _, tc := range []string{"", "HTTP/2", "HTTP/2.0", "http/1.1", "HTTP/1.2", "HTTP/1-1"} {
		require.Equal(t, Unknown, Parse(tc), tc)
	}

	require.Equal(t, "HTTP/1.1", HTTP11.String())
	require.Equal(t, "", Unknown.String())
}
