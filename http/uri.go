package http

import (
	"strings"

	"github.com/indigo-web/webserv/http/status"
	"github.com/indigo-web/webserv/internal/strutil"
)

// URI is a decomposed request target. Only Path is urldecoded; Query and Fragment are kept
// as they were received.
type URI struct {
	Scheme    string
	Authority string
	Path      string
	Query     string
	Fragment  string
}

type charClass uint8

const (
	classPath charClass = 1 << iota
	classQuery
	classAuthority
	classScheme
)

var uriChars = func() (table [256]charClass) {
	const (
		alpha      = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ"
		digit      = "0123456789"
		unreserved = alpha + digit + "-._~"
		subDelims  = "!$&'()*+,;="
	)

	for _, c := range unreserved + subDelims + ":@%/" {
		table[c] |= classPath | classQuery
	}

	table['?'] |= classQuery

	for _, c := range unreserved + subDelims + ":@%[]" {
		table[c] |= classAuthority
	}

	for _, c := range alpha + digit + "+-." {
		table[c] |= classScheme
	}

	return table
}()

func conforms(str string, class charClass) bool {
	for i := 0; i < len(str); i++ {
		if uriChars[str[i]]&class == 0 {
			return false
		}
	}

	return true
}

// ParseURI decomposes and validates the request target. Origin-form and absolute-form are
// accepted for any method, the asterisk-form only for OPTIONS. Authority-form isn't supported,
// as CONNECT tunnels are out of scope.
func ParseURI(target, method string) (uri URI, err error) {
	if len(target) == 0 {
		return uri, status.ErrBadRequestTarget
	}

	if target == "*" {
		if method != "OPTIONS" {
			return uri, status.ErrBadRequestTarget
		}

		uri.Path = target
		return uri, nil
	}

	rest := target
	if target[0] != '/' {
		scheme, afterScheme, found := strings.Cut(target, "://")
		if !found || len(scheme) == 0 || !isAlpha(scheme[0]) || !conforms(scheme, classScheme) {
			return uri, status.ErrBadRequestTarget
		}

		authorityEnd := strings.IndexAny(afterScheme, "/?#")
		if authorityEnd == -1 {
			authorityEnd = len(afterScheme)
		}

		authority := afterScheme[:authorityEnd]
		if len(authority) == 0 || !conforms(authority, classAuthority) {
			return uri, status.ErrBadRequestTarget
		}

		uri.Scheme = strings.ToLower(scheme)
		uri.Authority = authority
		rest = afterScheme[authorityEnd:]
	}

	if fragmentStart := strings.IndexByte(rest, '#'); fragmentStart != -1 {
		uri.Fragment = rest[fragmentStart+1:]
		rest = rest[:fragmentStart]

		if !conforms(uri.Fragment, classQuery) {
			return uri, status.ErrBadRequestTarget
		}
	}

	path, query, _ := strings.Cut(rest, "?")
	if !conforms(path, classPath) || !conforms(query, classQuery) {
		return uri, status.ErrBadRequestTarget
	}

	if len(path) == 0 {
		path = "/"
	} else if path[0] != '/' {
		return uri, status.ErrBadRequestTarget
	}

	decoded, ok := strutil.URLDecode(path)
	if !ok {
		return uri, status.ErrURLDecoding
	}

	uri.Path = decoded
	uri.Query = query

	return uri, nil
}

func isAlpha(c byte) bool {
	return (c|0x20) >= 'a' && (c|0x20) <= 'z'
}
