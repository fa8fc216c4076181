// Package formdata extracts parts of multipart/form-data bodies.
package formdata

import (
	"iter"

	"github.com/indigo-web/utils/uf"
	"github.com/indigo-web/webserv/http/status"
	"github.com/indigo-web/webserv/internal/strutil"
)

// Part is a single entry of the form. Value references the parsed body.
type Part struct {
	Name, Filename, ContentType string
	Value                       []byte
}

type header struct {
	Name, File, ContentType string
}

// ParseMultipart splits the body into parts by the boundary, taken from the Content-Type
// parameter. Preamble and epilogue are ignored.
func ParseMultipart(data []byte, boundary string) ([]Part, error) {
	if len(boundary) == 0 {
		return nil, status.ErrMalformedMultipart
	}

	delimiter := "--" + boundary
	s := newStream(uf.B2S(data))

	if !skipPreamble(&s, delimiter) {
		return nil, status.ErrMalformedMultipart
	}

	if s.Consume("--") {
		// the body consists of the closing delimiter only
		return nil, nil
	}

	if !s.Consume("\r\n") && !s.Consume("\n") {
		return nil, status.ErrMalformedMultipart
	}

	var parts []Part

	for hdr, value := range formParts(&s, delimiter) {
		if len(hdr.Name) == 0 {
			return nil, status.ErrMalformedMultipart
		}

		parts = append(parts, Part{
			Name:        hdr.Name,
			Filename:    hdr.File,
			ContentType: hdr.ContentType,
			Value:       uf.S2B(value),
		})
	}

	return parts, nil
}

// FirstFile returns the first part which carries a filename.
func FirstFile(parts []Part) (Part, bool) {
	for _, part := range parts {
		if len(part.Filename) > 0 {
			return part, true
		}
	}

	return Part{}, false
}

func skipPreamble(s *stream, delimiter string) bool {
	b := s.FindSubstr(delimiter)
	if b == -1 {
		return false
	}

	s.Advance(b + len(delimiter))
	return true
}

// formParts yields the parts one by one. A part with the empty name signals malformed
// input and is always the last one.
func formParts(s *stream, delimiter string) iter.Seq2[header, string] {
	return func(yield func(header, string) bool) {
		for {
			hdr, ok := parseHeaders(s)
			if !ok {
				yield(header{}, "")
				return
			}

			next := s.FindSubstr("\n" + delimiter)
			if next == -1 {
				yield(header{}, "")
				return
			}

			if !yield(hdr, rstripCR(s.Advance(next))) {
				return
			}

			s.Advance(len("\n") + len(delimiter))

			if s.Consume("--") {
				return
			}

			s.SkipWhitespaces()
			if !s.Consume("\r\n") && !s.Consume("\n") {
				yield(header{}, "")
				return
			}
		}
	}
}

func parseHeaders(s *stream) (hdr header, ok bool) {
	for {
		if s.Consume("\r\n") || s.Consume("\n") {
			return hdr, len(hdr.Name) > 0
		}

		if hdr, ok = parseHeader(s, hdr); !ok {
			return header{}, false
		}
	}
}

func parseHeader(s *stream, origin header) (modified header, ok bool) {
	switch {
	case s.ConsumeFold("Content-Disposition:"):
		s.SkipWhitespaces()
		line, ok := s.AdvanceLine()
		if !ok {
			return origin, false
		}

		disposition, params := strutil.CutHeader(line)
		if disposition != "form-data" {
			return origin, false
		}

		return parseContentDispositionParams(params, origin)
	case s.ConsumeFold("Content-Type:"):
		s.SkipWhitespaces()
		origin.ContentType, ok = s.AdvanceLine()
		origin.ContentType = strutil.StripWS(origin.ContentType)

		return origin, ok
	default:
		// unknown part headers are ignored
		_, ok = s.AdvanceLine()
		return origin, ok
	}
}

func parseContentDispositionParams(params string, origin header) (modified header, ok bool) {
	for key, value := range strutil.Params(params) {
		switch key {
		case "name":
			origin.Name = value
		case "filename":
			origin.File = value
		}
	}

	return origin, true
}

func rstripCR(str string) string {
	if len(str) > 0 && str[len(str)-1] == '\r' {
		return str[:len(str)-1]
	}

	return str
}
