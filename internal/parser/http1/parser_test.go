package http1

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/dchest/uniuri"
	"github.com/indigo-web/chunkedbody"
	"github.com/indigo-web/webserv/config"
	"github.com/indigo-web/webserv/http"
	"github.com/indigo-web/webserv/http/proto"
	"github.com/indigo-web/webserv/http/status"
	"github.com/indigo-web/webserv/kv"
	"github.com/stretchr/testify/require"
)

func getParser(cfg *config.Config) (*Parser, *http.Request) {
	request := http.NewRequest(kv.NewPrealloc(cfg.Headers.Prealloc))
	return NewParser(cfg, request), request
}

func BenchmarkParser(b *testing.B) {
	parser, _ := getParser(config.Default())

	b.Run("with 10 headers", func(b *testing.B) {
		data := []byte(generateRequest(genHeaders(10)))
		b.SetBytes(int64(len(data)))
		b.ReportAllocs()
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			_ = parser.Parse(data)
			parser.Reset()
		}
	})
}

type wantedRequest struct {
	Headers  http.Headers
	Method   string
	Path     string
	Protocol proto.Proto
}

func compareRequests(t *testing.T, wanted wantedRequest, actual *http.Request) {
	require.Equal(t, wanted.Method, actual.Method)
	require.Equal(t, wanted.Path, actual.URI.Path)
	require.Equal(t, wanted.Protocol, actual.Protocol)

	for _, key := range wanted.Headers.Keys() {
		require.Equal(t, wanted.Headers.Values(key), actual.Headers.Values(key), key)
	}
}

func splitIntoParts(req []byte, n int) (parts [][]byte) {
	for i := 0; i < len(req); i += n {
		end := i + n
		if end > len(req) {
			end = len(req)
		}

		parts = append(parts, req[i:end])
	}

	return parts
}

func feedPartially(p *Parser, raw []byte, n int) (Result, error) {
	parts := splitIntoParts(raw, n)

	for i, chunk := range parts {
		result := p.Parse(chunk)
		if result.Outcome != Pending {
			if i+1 < len(parts) {
				return result, errors.New("not all chunks were fed")
			}

			return result, nil
		}
	}

	return p.Parse(nil), nil
}

// decodeChunked decodes the chunked body with an independent implementation.
func decodeChunked(t *testing.T, data []byte) string {
	parser := chunkedbody.NewParser(chunkedbody.DefaultSettings())
	var body []byte

	for len(data) > 0 {
		chunk, extra, err := parser.Parse(data, false)
		body = append(body, chunk...)
		if err != nil {
			require.ErrorIs(t, err, io.EOF)
			break
		}

		data = extra
	}

	return string(body)
}

func TestParser(t *testing.T) {
	cfg := config.Default()

	t.Run("simple GET", func(t *testing.T) {
		raw := "GET / HTTP/1.1\r\nHost: localhost\r\n\r\n"
		parser, request := getParser(cfg)
		result := parser.Parse([]byte(raw))
		require.Equal(t, Done, result.Outcome)
		require.Empty(t, parser.Extra())

		compareRequests(t, wantedRequest{
			Method:   "GET",
			Path:     "/",
			Protocol: proto.HTTP11,
			Headers:  kv.New().Add("Host", "localhost"),
		}, request)
		require.Empty(t, request.Body)
		require.Equal(t, -1, request.ContentLength)
	})

	t.Run("headers keep order and spelling", func(t *testing.T) {
		raw := "GET / HTTP/1.1\r\nHost: localhost\r\nAccept: one,two\r\nX-Custom:\tpadded \r\naccept: three\r\n\r\n"
		parser, request := getParser(cfg)
		require.Equal(t, Done, parser.Parse([]byte(raw)).Outcome)

		require.Equal(t, []kv.Pair{
			{"Host", "localhost"},
			{"Accept", "one,two"},
			{"X-Custom", "padded"},
			{"accept", "three"},
		}, request.Headers.Expose())
		require.Equal(t, []string{"one,two", "three"}, request.Headers.Values("ACCEPT"))
	})

	t.Run("only lf", func(t *testing.T) {
		raw := "GET /index.html HTTP/1.0\nHost: localhost\nHello: World!\n\n"
		parser, request := getParser(cfg)
		require.Equal(t, Done, parser.Parse([]byte(raw)).Outcome)

		compareRequests(t, wantedRequest{
			Method:   "GET",
			Path:     "/index.html",
			Protocol: proto.HTTP10,
			Headers:  kv.New().Add("hello", "World!"),
		}, request)
	})

	t.Run("leading empty lines", func(t *testing.T) {
		raw := "\r\n\r\nGET / HTTP/1.1\r\nHost: localhost\r\n\r\n"
		parser, _ := getParser(cfg)
		require.Equal(t, Done, parser.Parse([]byte(raw)).Outcome)
	})

	t.Run("split at any offset", func(t *testing.T) {
		raw := "POST /upload?name=a HTTP/1.1\r\nHost: localhost\r\nHello: World!\r\nContent-Length: 13\r\n\r\nHello, world!"
		parser, request := getParser(cfg)

		for i := 1; i <= len(raw); i++ {
			result, err := feedPartially(parser, []byte(raw), i)
			require.NoError(t, err, i)
			require.Equal(t, Done, result.Outcome, i)
			require.Empty(t, parser.Extra(), i)

			compareRequests(t, wantedRequest{
				Method:   "POST",
				Path:     "/upload",
				Protocol: proto.HTTP11,
				Headers:  kv.New().Add("hello", "World!").Add("content-length", "13"),
			}, request)
			require.Equal(t, "name=a", request.URI.Query)
			require.Equal(t, "Hello, world!", string(request.Body))
			require.Equal(t, 13, request.ContentLength)
			parser.Reset()
		}
	})

	t.Run("unknown but well-formed method", func(t *testing.T) {
		raw := "PROPFIND /dav HTTP/1.1\r\nHost: localhost\r\n\r\n"
		parser, request := getParser(cfg)
		require.Equal(t, Done, parser.Parse([]byte(raw)).Outcome)
		require.Equal(t, "PROPFIND", request.Method)
	})

	t.Run("absolute form", func(t *testing.T) {
		raw := "GET http://www.w3.org/pub/WWW/TheProject.html HTTP/1.1\r\nHost: www.w3.org\r\n\r\n"
		parser, request := getParser(cfg)
		require.Equal(t, Done, parser.Parse([]byte(raw)).Outcome)
		require.Equal(t, "http://www.w3.org/pub/WWW/TheProject.html", request.Target)
		require.Equal(t, "www.w3.org", request.URI.Authority)
		require.Equal(t, "/pub/WWW/TheProject.html", request.URI.Path)
	})

	t.Run("obsolete line folding", func(t *testing.T) {
		raw := "GET / HTTP/1.1\r\nHost: localhost\r\nX-Long: first\r\n  second\r\n\tthird\r\n\r\n"
		parser, request := getParser(cfg)
		require.Equal(t, Done, parser.Parse([]byte(raw)).Outcome)
		require.Equal(t, "first second third", request.Headers.Value("x-long"))
	})

	t.Run("pipelined messages", func(t *testing.T) {
		first := "PUT /a HTTP/1.1\r\nHost: localhost\r\nContent-Length: 5\r\n\r\nhello"
		second := "DELETE /a HTTP/1.1\r\nHost: localhost\r\n\r\n"
		parser, request := getParser(cfg)

		require.Equal(t, Done, parser.Parse([]byte(first+second)).Outcome)
		require.Equal(t, "hello", string(request.Body))
		require.Equal(t, second, string(parser.Extra()))

		parser.Reset()
		require.Equal(t, Done, parser.Parse(nil).Outcome)
		require.Equal(t, "DELETE", request.Method)
		require.Empty(t, request.Body)
		require.Empty(t, parser.Extra())
	})

	t.Run("body surplus is kept", func(t *testing.T) {
		raw := "POST / HTTP/1.1\r\nHost: localhost\r\nContent-Length: 5\r\n\r\nhelloGET"
		parser, request := getParser(cfg)
		require.Equal(t, Done, parser.Parse([]byte(raw)).Outcome)
		require.Equal(t, "hello", string(request.Body))
		require.Equal(t, "GET", string(parser.Extra()))
	})

	t.Run("zero content length", func(t *testing.T) {
		raw := "PUT /empty HTTP/1.1\r\nHost: localhost\r\nContent-Length: 0\r\n\r\n"
		parser, request := getParser(cfg)
		require.Equal(t, Done, parser.Parse([]byte(raw)).Outcome)
		require.NotNil(t, request.Body)
		require.Empty(t, request.Body)
		require.False(t, request.BodyMissing)
	})

	t.Run("body-requiring method without body", func(t *testing.T) {
		raw := "POST /upload HTTP/1.1\r\nHost: localhost\r\n\r\n"
		parser, request := getParser(cfg)
		result := parser.Parse([]byte(raw))
		require.Equal(t, NoBody, result.Outcome)
		require.True(t, result.Complete())
		require.True(t, request.BodyMissing)
	})

	t.Run("results are sticky until reset", func(t *testing.T) {
		parser, _ := getParser(cfg)
		require.Equal(t, Error, parser.Parse([]byte("GET /\r\n")).Outcome)
		require.Equal(t, Error, parser.Parse([]byte("GET / HTTP/1.1\r\n")).Outcome)
	})
}

func TestChunked(t *testing.T) {
	cfg := config.Default()
	const wikipedia = "4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n"

	t.Run("wikipedia", func(t *testing.T) {
		raw := "POST /wiki HTTP/1.1\r\nHost: localhost\r\nTransfer-Encoding: chunked\r\n\r\n" + wikipedia
		parser, request := getParser(cfg)
		require.Equal(t, Done, parser.Parse([]byte(raw)).Outcome)
		require.True(t, request.Chunked)
		require.Equal(t, "Wikipedia", string(request.Body))
		require.Equal(t, decodeChunked(t, []byte(wikipedia)), string(request.Body))
	})

	t.Run("split at any offset", func(t *testing.T) {
		raw := "POST /wiki HTTP/1.1\r\nHost: localhost\r\nTransfer-Encoding: chunked\r\n\r\n" + wikipedia
		parser, request := getParser(cfg)

		for i := 1; i <= len(raw); i++ {
			result, err := feedPartially(parser, []byte(raw), i)
			require.NoError(t, err, i)
			require.Equal(t, Done, result.Outcome, i)
			require.Equal(t, "Wikipedia", string(request.Body), i)
			parser.Reset()
		}
	})

	t.Run("random chunks against reference decoder", func(t *testing.T) {
		var (
			encoded strings.Builder
			plain   strings.Builder
		)

		for i := 1; i < 20; i++ {
			chunk := uniuri.NewLen(i * 7)
			plain.WriteString(chunk)
			fmt.Fprintf(&encoded, "%x\r\n%s\r\n", len(chunk), chunk)
		}

		encoded.WriteString("0\r\n\r\n")

		raw := "PUT /random HTTP/1.1\r\nHost: localhost\r\nTransfer-Encoding: chunked\r\n\r\n" + encoded.String()
		parser, request := getParser(cfg)
		result, err := feedPartially(parser, []byte(raw), 13)
		require.NoError(t, err)
		require.Equal(t, Done, result.Outcome)
		require.Equal(t, plain.String(), string(request.Body))
		require.Equal(t, decodeChunked(t, []byte(encoded.String())), string(request.Body))
	})

	t.Run("extensions and trailers", func(t *testing.T) {
		raw := "POST / HTTP/1.1\r\nHost: localhost\r\nTransfer-Encoding: chunked\r\nX-Checksum: none\r\n\r\n" +
			"4;name=value\r\nWiki\r\n0\r\nX-Checksum: abc\r\nExpires: never\r\n\r\n"
		parser, request := getParser(cfg)
		require.Equal(t, Done, parser.Parse([]byte(raw)).Outcome)
		require.Equal(t, "Wiki", string(request.Body))
		require.Equal(t, []string{"abc"}, request.Headers.Values("x-checksum"))
		require.Equal(t, "never", request.Headers.Value("expires"))
	})

	t.Run("trailer can't override host", func(t *testing.T) {
		for i, host := range []string{"x@y", "other.example", ""} {
			raw := "POST / HTTP/1.1\r\nHost: localhost\r\nTransfer-Encoding: chunked\r\n\r\n" +
				"4\r\nWiki\r\n0\r\nHost: " + host + "\r\n\r\n"
			parser, request := getParser(cfg)
			result := parser.Parse([]byte(raw))
			require.Equal(t, Error, result.Outcome, i)
			require.ErrorIs(t, result.Err, status.ErrTrailerFormat, i)
			require.Equal(t, []string{"localhost"}, request.Headers.Values("host"), i)
		}
	})

	t.Run("empty body", func(t *testing.T) {
		raw := "POST / HTTP/1.1\r\nHost: localhost\r\nTransfer-Encoding: chunked\r\n\r\n0\r\n\r\n"
		parser, request := getParser(cfg)
		require.Equal(t, Done, parser.Parse([]byte(raw)).Outcome)
		require.NotNil(t, request.Body)
		require.Empty(t, request.Body)
	})

	t.Run("transfer encoding overrides content length", func(t *testing.T) {
		raw := "POST / HTTP/1.1\r\nHost: localhost\r\nContent-Length: 100\r\nTransfer-Encoding: chunked\r\n\r\n" + wikipedia
		parser, request := getParser(cfg)
		require.Equal(t, Done, parser.Parse([]byte(raw)).Outcome)
		require.Equal(t, "Wikipedia", string(request.Body))
	})

	t.Run("malformed", func(t *testing.T) {
		for i, tc := range []struct {
			Body string
			Err  error
		}{
			{"z\r\nWiki\r\n0\r\n\r\n", status.ErrChunkFormat},
			{"\r\nWiki\r\n0\r\n\r\n", status.ErrChunkFormat},
			{"4\r\nWikiXX\r\n0\r\n\r\n", status.ErrChunkFormat},
			{"4\r\nWiki\rX0\r\n\r\n", status.ErrChunkFormat},
			{"123456789\r\n", status.ErrChunkFormat},
			{"4\r\nWiki\r\n0\r\nbroken trailer\r\n\r\n", status.ErrTrailerFormat},
			{"4\r\nWiki\r\n0\r\n: empty name\r\n\r\n", status.ErrTrailerFormat},
			{"4\r\nWiki\r\n0\r\nContent-Length: 100\r\n\r\n", status.ErrTrailerFormat},
			{"4\r\nWiki\r\n0\r\ntransfer-encoding: chunked\r\n\r\n", status.ErrTrailerFormat},
			{"4\r\nWiki\r\n0\r\nConnection: close\r\n\r\n", status.ErrTrailerFormat},
		} {
			raw := "POST / HTTP/1.1\r\nHost: localhost\r\nTransfer-Encoding: chunked\r\n\r\n" + tc.Body
			parser, _ := getParser(cfg)
			result := parser.Parse([]byte(raw))
			require.Equal(t, Error, result.Outcome, i)
			require.ErrorIs(t, result.Err, tc.Err, i)
			require.Equal(t, status.BadRequest, result.Code(), i)
		}
	})
}

func TestErrors(t *testing.T) {
	cfg := config.Default()

	parse := func(raw string) Result {
		parser, _ := getParser(cfg)
		return parser.Parse([]byte(raw))
	}

	t.Run("request line", func(t *testing.T) {
		for i, tc := range []struct {
			Raw string
			Err error
		}{
			{"GET /\r\n", status.ErrMalformedRequestLine},
			{"GET / HTTP/1.1 extra\r\n", status.ErrMalformedRequestLine},
			{"GET  / HTTP/1.1\r\n", status.ErrMalformedRequestLine},
			{"G(ET / HTTP/1.1\r\n", status.ErrInvalidMethodToken},
			{"GET / HTTP/2.0\r\n", status.ErrHTTPVersionNotSupported},
			{"GET / HTTP/1.9\r\n", status.ErrHTTPVersionNotSupported},
			{"GET / HTTPS/1.1\r\n", status.ErrMalformedRequestLine},
			{"GET index.html HTTP/1.1\r\n", status.ErrBadRequestTarget},
			{"GET * HTTP/1.1\r\n", status.ErrBadRequestTarget},
			{"GET /%zz HTTP/1.1\r\n", status.ErrURLDecoding},
		} {
			result := parse(tc.Raw)
			require.Equal(t, Error, result.Outcome, i)
			require.ErrorIs(t, result.Err, tc.Err, i)
		}
	})

	t.Run("asterisk for options", func(t *testing.T) {
		require.Equal(t, Done, parse("OPTIONS * HTTP/1.1\r\nHost: localhost\r\n\r\n").Outcome)
	})

	t.Run("headers", func(t *testing.T) {
		for i, tc := range []string{
			"GET / HTTP/1.1\r\nHost: localhost\r\nNo colon here\r\n\r\n",
			"GET / HTTP/1.1\r\nHost: localhost\r\n: no name\r\n\r\n",
			"GET / HTTP/1.1\r\nHost: localhost\r\nEmpty-Value: \r\n\r\n",
			"GET / HTTP/1.1\r\nHost: localhost\r\nBad Name: value\r\n\r\n",
			"GET / HTTP/1.1\r\n folded: first\r\nHost: localhost\r\n\r\n",
		} {
			result := parse(tc)
			require.Equal(t, Error, result.Outcome, i)
			require.ErrorIs(t, result.Err, status.ErrMalformedHeader, i)
		}
	})

	t.Run("host", func(t *testing.T) {
		for _, m := range []string{"GET", "POST", "PUT", "DELETE", "PROPFIND"} {
			for i, tc := range []string{
				m + " / HTTP/1.1\r\n\r\n",
				m + " / HTTP/1.1\r\nHost: user@localhost\r\n\r\n",
				m + " / HTTP/1.1\r\nHost: a\r\nHost: b\r\n\r\n",
				m + " / HTTP/1.0\r\nAccept: */*\r\n\r\n",
				m + " / HTTP/1.1\r\nContent-Length: 5\r\n\r\nhello",
			} {
				result := parse(tc)
				require.Equal(t, Error, result.Outcome, "%s #%d", m, i)
				require.ErrorIs(t, result.Err, status.ErrMissingOrInvalidHost, "%s #%d", m, i)
				require.Equal(t, status.BadRequest, result.Code(), "%s #%d", m, i)
			}
		}
	})

	t.Run("content length", func(t *testing.T) {
		for i, tc := range []string{"abc", "-1", "1 2", "5, 6", "12345678901234567890"} {
			result := parse("POST / HTTP/1.1\r\nHost: localhost\r\nContent-Length: " + tc + "\r\n\r\n")
			require.Equal(t, Error, result.Outcome, i)
			require.ErrorIs(t, result.Err, status.ErrInvalidContentLength, i)
		}

		result := parse("POST / HTTP/1.1\r\nHost: localhost\r\nContent-Length: 5, 5\r\n\r\nhello")
		require.Equal(t, Done, result.Outcome)
	})

	t.Run("unsupported transfer coding", func(t *testing.T) {
		result := parse("POST / HTTP/1.1\r\nHost: localhost\r\nTransfer-Encoding: gzip, chunked\r\n\r\n")
		require.ErrorIs(t, result.Err, status.ErrUnsupportedEncoding)
		require.Equal(t, status.NotImplemented, result.Code())
	})

	t.Run("limits", func(t *testing.T) {
		limited := config.Default()
		limited.Headers.MaxCount = 2
		limited.Headers.MaxLineSize = 64
		limited.URI.MaxRequestLineSize = 32

		parser, _ := getParser(limited)
		result := parser.Parse([]byte("GET /" + strings.Repeat("a", 64) + " HTTP/1.1\r\n"))
		require.ErrorIs(t, result.Err, status.ErrURITooLong)

		parser, _ = getParser(limited)
		result = parser.Parse([]byte("GET / HTTP/1.1\r\n" + strings.Repeat("a", 100)))
		require.ErrorIs(t, result.Err, status.ErrHeaderFieldsTooLarge)
		require.Equal(t, status.RequestHeaderFieldsTooLarge, result.Code())

		parser, _ = getParser(limited)
		result = parser.Parse([]byte("GET / HTTP/1.1\r\nHost: a\r\nA: b\r\nC: d\r\n\r\n"))
		require.ErrorIs(t, result.Err, status.ErrTooManyHeaders)
	})

	t.Run("body limit", func(t *testing.T) {
		parser, _ := getParser(cfg)
		var called int
		parser.SetBodyLimit(func(request *http.Request) int64 {
			called++
			require.Equal(t, "localhost", request.Headers.Value("host"))
			return 4
		})

		result := parser.Parse([]byte("PUT / HTTP/1.1\r\nHost: localhost\r\nContent-Length: 5\r\n\r\n"))
		require.ErrorIs(t, result.Err, status.ErrBodyTooLarge)
		require.Equal(t, status.RequestEntityTooLarge, result.Code())
		require.Equal(t, 1, called)

		parser.Reset()
		result = parser.Parse([]byte("PUT / HTTP/1.1\r\nHost: localhost\r\nTransfer-Encoding: chunked\r\n\r\n3\r\nabc\r\n2\r\nde\r\n"))
		require.ErrorIs(t, result.Err, status.ErrBodyTooLarge)
	})

	t.Run("premature end of stream", func(t *testing.T) {
		parser, _ := getParser(cfg)
		require.Equal(t, Pending, parser.Finish().Outcome)

		require.Equal(t, Pending, parser.Parse([]byte("PUT / HTTP/1.1\r\nHost: localhost\r\nContent-Length: 10\r\n\r\nhello")).Outcome)
		result := parser.Finish()
		require.ErrorIs(t, result.Err, status.ErrBodyLengthMismatch)

		parser, _ = getParser(cfg)
		require.Equal(t, Pending, parser.Parse([]byte("GET / HTTP/1.1\r\nHost: local")).Outcome)
		require.ErrorIs(t, parser.Finish().Err, status.ErrMalformedHeader)
	})
}

func TestParseAll(t *testing.T) {
	request, result := ParseAll([]byte("DELETE /files/a.txt HTTP/1.1\r\nHost: localhost\r\n\r\n"))
	require.Equal(t, Done, result.Outcome)
	require.Equal(t, "DELETE", request.Method)
	require.Equal(t, "/files/a.txt", request.URI.Path)

	_, result = ParseAll([]byte("PUT / HTTP/1.1\r\nHost: localhost\r\nContent-Length: 3\r\n\r\na"))
	require.ErrorIs(t, result.Err, status.ErrBodyLengthMismatch)
}

func generateRequest(headers []string) string {
	return "GET /" + uniuri.New() + " HTTP/1.1\r\nHost: localhost\r\n" + strings.Join(headers, "\r\n") + "\r\n\r\n"
}

func genHeaders(n int) (out []string) {
	for i := 0; i < n; i++ {
		out = append(out, genHeader())
	}

	return out
}

func genHeader() string {
	return fmt.Sprintf("%[1]s: %[1]s", uniuri.NewLen(16))
}
