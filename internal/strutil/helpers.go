package strutil

import (
	"iter"
	"strings"
)

func LStripWS(str string) string {
	for i, c := range str {
		switch c {
		case ' ', '\t':
		default:
			return str[i:]
		}
	}

	return ""
}

func RStripWS(str string) string {
	for i := len(str); i > 0; i-- {
		switch str[i-1] {
		case ' ', '\t':
		default:
			return str[:i]
		}
	}

	return ""
}

// StripWS strips spaces and horizontal tabs from both sides.
func StripWS(str string) string {
	return RStripWS(LStripWS(str))
}

// CutHeader separates the header value from its parameters. Whitespaces around
// both of them are stripped.
func CutHeader(header string) (value, params string) {
	sep := strings.IndexByte(header, ';')
	if sep == -1 {
		return StripWS(header), ""
	}

	return StripWS(header[:sep]), StripWS(header[sep+1:])
}

func Unquote(str string) string {
	if len(str) > 1 && str[0] == '"' && str[len(str)-1] == '"' {
		return str[1 : len(str)-1]
	}

	return str
}

// Params walks over semicolon-separated key=value pairs. Values are unquoted, keys without
// values are yielded with an empty value.
func Params(params string) iter.Seq2[string, string] {
	return func(yield func(string, string) bool) {
		for len(params) > 0 {
			var param string
			param, params, _ = strings.Cut(params, ";")
			param = StripWS(param)
			if len(param) == 0 {
				continue
			}

			key, value, _ := strings.Cut(param, "=")
			if !yield(RStripWS(key), Unquote(LStripWS(value))) {
				return
			}
		}
	}
}

// Param returns the value of the named parameter of the header, e.g. the boundary of
// multipart/form-data content type.
func Param(header, key string) (string, bool) {
	_, params := CutHeader(header)
	for k, v := range Params(params) {
		if strings.EqualFold(k, key) {
			return v, true
		}
	}

	return "", false
}

// Split walks over comma-separated list elements, stripped of whitespaces. Empty elements
// are skipped.
func Split(list string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for len(list) > 0 {
			var elem string
			elem, list, _ = strings.Cut(list, ",")
			if elem = StripWS(elem); len(elem) > 0 && !yield(elem) {
				return
			}
		}
	}
}
