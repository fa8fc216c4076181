package http

import (
	"testing"

	"github.com/indigo-web/webserv/http/status"
	"github.com/stretchr/testify/require"
)

func TestParseURI(t *testing.T) {
	t.Run("origin form", func(t *testing.T) {
		uri, err := ParseURI("/static/index.html?lang=en&x=1#top", "GET")
		require.NoError(t, err)
		require.Equal(t, URI{
			Path:     "/static/index.html",
			Query:    "lang=en&x=1",
			Fragment: "top",
		}, uri)
	})

	t.Run("absolute form", func(t *testing.T) {
		uri, err := ParseURI("HTTP://www.w3.org:8080/pub/WWW/TheProject.html?a=b", "GET")
		require.NoError(t, err)
		require.Equal(t, URI{
			Scheme:    "http",
			Authority: "www.w3.org:8080",
			Path:      "/pub/WWW/TheProject.html",
			Query:     "a=b",
		}, uri)

		uri, err = ParseURI("http://example.com", "GET")
		require.NoError(t, err)
		require.Equal(t, "/", uri.Path)
	})

	t.Run("percent decoding", func(t *testing.T) {
		uri, err := ParseURI("/hello%20world/%2Fetc", "GET")
		require.NoError(t, err)
		require.Equal(t, "/hello world/%2fetc", uri.Path)

		_, err = ParseURI("/bad%zzescape", "GET")
		require.ErrorIs(t, err, status.ErrURLDecoding)
	})

	t.Run("asterisk", func(t *testing.T) {
		uri, err := ParseURI("*", "OPTIONS")
		require.NoError(t, err)
		require.Equal(t, "*", uri.Path)

		_, err = ParseURI("*", "GET")
		require.ErrorIs(t, err, status.ErrBadRequestTarget)
	})

	t.Run("malformed", func(t *testing.T) {
		for _, tc := range []string{
			"",
			"index.html",
			"1http://example.com/",
			"http:///path",
			"http://exa mple.com/",
			"/path with space",
			"/<script>",
			"/path?query\"quoted",
			"/path#frag#ment",
		} {
			_, err := ParseURI(tc, "GET")
			require.Error(t, err, tc)
		}
	})
}
