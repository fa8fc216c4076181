package http1

import (
	"strings"

	"github.com/indigo-web/utils/uf"
	"github.com/indigo-web/webserv/http/status"
	"github.com/indigo-web/webserv/internal/strutil"
)

const (
	// maxChunkLengthDigits sets the implicit limit of a single chunk length to 4GiB, which
	// is supposedly should be enough.
	maxChunkLengthDigits = 8
	// maxContentLengthDigits keeps the declared length within int64.
	maxContentLengthDigits = 18
)

// parseChunkLength parses the chunk-size line. Chunk extensions are ignored.
func parseChunkLength(line []byte) (uint64, error) {
	raw, _, _ := strings.Cut(uf.B2S(line), ";")
	raw = strutil.StripWS(raw)
	if len(raw) == 0 || len(raw) > maxChunkLengthDigits {
		return 0, status.ErrChunkFormat
	}

	var length uint64
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		if !strutil.IsHex(c) {
			return 0, status.ErrChunkFormat
		}

		length = length<<4 | uint64(hexValue(c))
	}

	return length, nil
}

func hexValue(c byte) byte {
	switch {
	case c >= '0' && c <= '9':
		return c - '0'
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10
	default:
		return c - 'A' + 10
	}
}

// trailerForbidden lists the fields a trailer must not carry: they control message framing,
// routing or the interpretation of the content, which are settled before the body.
var trailerForbidden = []string{
	"host", "content-length", "transfer-encoding", "connection", "trailer", "te",
	"content-type", "content-encoding", "content-range", "expect", "authorization",
}

func isForbiddenTrailer(name string) bool {
	for _, forbidden := range trailerForbidden {
		if strings.EqualFold(name, forbidden) {
			return true
		}
	}

	return false
}

// chunkedOnly reports whether chunked is the only transfer coding applied. Any other
// coding would require decompression, which isn't supported.
func chunkedOnly(values []string) bool {
	var chunked int

	for _, value := range values {
		for coding := range strutil.Split(value) {
			if !strings.EqualFold(coding, "chunked") {
				return false
			}

			chunked++
		}
	}

	return chunked == 1
}

// parseContentLength accepts either a single value or repeated identical values, as
// RFC 9110, 8.6 permits.
func parseContentLength(values []string) (length int, ok bool) {
	length = -1

	for _, value := range values {
		for elem := range strutil.Split(value) {
			n, valid := parseDigits(elem)
			if !valid || (length != -1 && n != length) {
				return 0, false
			}

			length = n
		}
	}

	return length, length != -1
}

func parseDigits(str string) (n int, ok bool) {
	if len(str) == 0 || len(str) > maxContentLengthDigits {
		return 0, false
	}

	for i := 0; i < len(str); i++ {
		c := str[i]
		if c < '0' || c > '9' {
			return 0, false
		}

		n = n*10 + int(c-'0')
	}

	return n, true
}
