package proto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFromString(t *testing.T) {
	require.Equal(t, HTTP10, FromString("HTTP/1.0"))
	require.Equal(t, HTTP11, FromString("HTTP/1.1"))

	for _, tc := range []string{"HTTP/2.0", "HTTP/1.2", "http/1.1", "HTTP/1", "HTTP/1.1 ", "HTTP/1x1"} {
		require.Equal(t, Unknown, FromString(tc), tc)
	}

	require.Equal(t, "HTTP/1.1", HTTP11.String())
}

func TestKeepAlive(t *testing.T) {
	require.True(t, KeepAlive(HTTP11, ""))
	require.False(t, KeepAlive(HTTP11, "close"))
	require.False(t, KeepAlive(HTTP10, ""))
	require.True(t, KeepAlive(HTTP10, "Keep-Alive"))
	require.False(t, KeepAlive(HTTP11, "upgrade, Close"))
}
