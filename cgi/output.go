package cgi

import (
	"bytes"
	"strconv"
	"strings"

	"github.com/indigo-web/webserv/http/method"
	"github.com/indigo-web/webserv/http/status"
	"github.com/indigo-web/webserv/internal/strutil"
	"github.com/indigo-web/webserv/kv"
)

// Response is the script output split into the CGI header block and the document.
type Response struct {
	Code    status.Code
	Headers *kv.Storage
	Body    []byte
}

// ParseResponse splits the output into the header block and the body. Output which doesn't
// start with a well-formed header block is entirely the body. The Status field defines the
// response code and isn't forwarded, a Location field without it makes a redirect.
func ParseResponse(output []byte) Response {
	response := Response{
		Code:    status.OK,
		Headers: kv.New(),
		Body:    output,
	}

	rest := output
	for {
		lf := bytes.IndexByte(rest, '\n')
		if lf == -1 {
			// unterminated block means the script doesn't speak CGI headers at all
			return Response{Code: status.OK, Headers: kv.New(), Body: output}
		}

		line := bytes.TrimSuffix(rest[:lf], []byte("\r"))
		rest = rest[lf+1:]

		if len(line) == 0 {
			break
		}

		key, value, ok := strings.Cut(string(line), ":")
		if !ok || !method.IsToken(key) {
			return Response{Code: status.OK, Headers: kv.New(), Body: output}
		}

		response.Headers.Add(key, strutil.StripWS(value))
	}

	response.Body = rest

	if value, found := response.Headers.Get("status"); found {
		response.Headers.Delete("status")
		code, _, _ := strings.Cut(value, " ")
		if parsed, err := strconv.Atoi(code); err == nil && parsed >= 100 && parsed <= 599 {
			response.Code = status.Code(parsed)
		}
	} else if response.Headers.Has("location") {
		response.Code = status.Found
	}

	return response
}
