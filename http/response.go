package http

import (
	"fmt"
	"html"

	"github.com/indigo-web/utils/uf"
	"github.com/indigo-web/webserv/http/mime"
	"github.com/indigo-web/webserv/http/status"
	"github.com/indigo-web/webserv/kv"
)

const preallocRespHeaders = 7

// Fields are the plain response values, which are consumed by the serializer.
type Fields struct {
	Code    status.Code
	Headers *kv.Storage
	Body    []byte
	// Sent is the number of bytes of the serialized response, already transmitted.
	Sent int
	// Disconnect forces the connection to be closed after the response is transmitted.
	Disconnect bool
}

type Response struct {
	fields *Fields
}

// NewResponse returns a new instance of the Response object with status code set to 200 OK
// and pre-allocated space for response headers.
func NewResponse() *Response {
	return &Response{
		fields: &Fields{
			Code:    status.OK,
			Headers: kv.NewPrealloc(preallocRespHeaders),
		},
	}
}

// Code sets the response code.
func (r *Response) Code(code status.Code) *Response {
	r.fields.Code = code
	return r
}

// Header adds the header pair. Values of the same key accumulate.
func (r *Response) Header(key, value string) *Response {
	r.fields.Headers.Add(key, value)
	return r
}

// SetHeader replaces all the values of the key by a single one.
func (r *Response) SetHeader(key, value string) *Response {
	r.fields.Headers.Set(key, value)
	return r
}

// ContentType sets the Content-Type header. Charset is appended as a parameter when it's
// non-empty.
func (r *Response) ContentType(value mime.MIME, charset ...mime.Charset) *Response {
	if len(charset) > 0 && len(charset[0]) > 0 {
		value += "; charset=" + charset[0]
	}

	return r.SetHeader("Content-Type", value)
}

// String sets the response's body to the passed string
func (r *Response) String(body string) *Response {
	return r.Bytes(uf.S2B(body))
}

// Bytes sets the response's body to passed slice WITHOUT COPYING. Changing
// the passed slice later will affect the response by itself
func (r *Response) Bytes(body []byte) *Response {
	r.fields.Body = body
	return r
}

// Disconnect marks the connection to be closed after the response is written.
func (r *Response) Disconnect() *Response {
	r.fields.Disconnect = true
	return r
}

// Error sets the code of the error, if it's an HTTP error, and a minimal HTML body
// describing it. Any other error results in 500 Internal Server Error.
func (r *Response) Error(err error) *Response {
	code := status.CodeOf(err)

	return r.
		Code(code).
		ContentType(mime.HTML, mime.UTF8).
		String(ErrorPage(code))
}

// Expose gives access to the underlying fields.
func (r *Response) Expose() *Fields {
	return r.fields
}

// Clear resets the response, so it can be reused for the next request.
func (r *Response) Clear() *Response {
	r.fields.Code = status.OK
	r.fields.Headers.Clear()
	r.fields.Body = nil
	r.fields.Sent = 0
	r.fields.Disconnect = false
	return r
}

// ErrorPage renders the default HTML body for the status code.
func ErrorPage(code status.Code) string {
	text := html.EscapeString(string(status.Text(code)))

	return fmt.Sprintf(
		"<html><head><title>%d %s</title></head><body><h1>%d %s</h1></body></html>",
		code, text, code, text,
	)
}
