package mime

import (
	"strconv"
	"strings"

	"github.com/indigo-web/webserv/internal/strutil"
)

type Charset = string

const (
	UTF8   Charset = "UTF-8"
	UTF16  Charset = "UTF-16"
	ASCII  Charset = "US-ASCII"
	Latin1 Charset = "ISO-8859-1"
	CP1251 Charset = "windows-1251"
	CP1252 Charset = "windows-1252"
)

// Weighted is a single element of a quality-valued header, like Accept-Charset.
type Weighted struct {
	Value   string
	Quality float64
}

// ParseQuality parses a quality-valued list. Malformed q-values are treated as 1, values
// outside [0; 1] are clamped.
func ParseQuality(header string) (list []Weighted) {
	for elem := range strutil.Split(header) {
		value, params := strutil.CutHeader(elem)
		quality := 1.0

		for k, v := range strutil.Params(params) {
			if k != "q" && k != "Q" {
				continue
			}

			if q, err := strconv.ParseFloat(v, 64); err == nil {
				quality = min(max(q, 0), 1)
			}
		}

		list = append(list, Weighted{Value: value, Quality: quality})
	}

	return list
}

// NegotiateCharset picks the supported charset with the highest quality from the
// Accept-Charset header value. Ties are resolved by the order of the header. Wildcard
// matches the first supported charset not listed in the header explicitly. If nothing
// is acceptable, the fallback is returned.
func NegotiateCharset(acceptCharset string, supported []Charset, fallback Charset) Charset {
	var (
		best    Charset
		quality float64
	)

	accepted := ParseQuality(acceptCharset)
	for _, elem := range accepted {
		if elem.Quality <= quality {
			continue
		}

		if elem.Value == "*" {
			if charset, ok := unlisted(accepted, supported); ok {
				best, quality = charset, elem.Quality
			}

			continue
		}

		for _, charset := range supported {
			if strings.EqualFold(charset, elem.Value) {
				best, quality = charset, elem.Quality
				break
			}
		}
	}

	if len(best) == 0 {
		return fallback
	}

	return best
}

// unlisted returns the first supported charset, which isn't mentioned in the list.
func unlisted(list []Weighted, supported []Charset) (Charset, bool) {
	for _, charset := range supported {
		listed := false
		for _, elem := range list {
			if strings.EqualFold(charset, elem.Value) {
				listed = true
				break
			}
		}

		if !listed {
			return charset, true
		}
	}

	return "", false
}
