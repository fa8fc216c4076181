package status

import "errors"

type HTTPError struct {
	Message string
	Code    Code
}

func NewError(code Code, message string) error {
	return HTTPError{
		Code:    code,
		Message: message,
	}
}

func (h HTTPError) Error() string {
	return h.Message
}

// CodeOf extracts the status code from the error chain, if it holds an HTTPError. Any
// other error is considered internal.
func CodeOf(err error) Code {
	var httpErr HTTPError
	if errors.As(err, &httpErr) {
		return httpErr.Code
	}

	return InternalServerError
}

var (
	ErrMalformedRequestLine    = NewError(BadRequest, "malformed request line")
	ErrInvalidMethodToken      = NewError(BadRequest, "invalid method token")
	ErrBadRequestTarget        = NewError(BadRequest, "invalid request target")
	ErrURLDecoding             = NewError(BadRequest, "invalid urlencoded sequence")
	ErrMalformedHeader         = NewError(BadRequest, "malformed header line")
	ErrMissingOrInvalidHost    = NewError(BadRequest, "missing or invalid Host header")
	ErrInvalidContentLength    = NewError(BadRequest, "invalid Content-Length")
	ErrChunkFormat             = NewError(BadRequest, "malformed chunk-encoded data")
	ErrTrailerFormat           = NewError(BadRequest, "malformed trailer section")
	ErrBodyLengthMismatch      = NewError(BadRequest, "body is shorter than declared")
	ErrMalformedMultipart      = NewError(BadRequest, "malformed multipart body")
	ErrForbidden               = NewError(Forbidden, "forbidden")
	ErrNotFound                = NewError(NotFound, "not found")
	ErrMethodNotAllowed        = NewError(MethodNotAllowed, "method not allowed")
	ErrLengthRequired          = NewError(LengthRequired, "length required")
	ErrBodyTooLarge            = NewError(RequestEntityTooLarge, "request body is too large")
	ErrURITooLong              = NewError(RequestURITooLong, "request URI too long")
	ErrUnsupportedMediaType    = NewError(UnsupportedMediaType, "unsupported media type")
	ErrHeaderFieldsTooLarge    = NewError(RequestHeaderFieldsTooLarge, "too large headers section")
	ErrTooManyHeaders          = NewError(RequestHeaderFieldsTooLarge, "too many headers")
	ErrInternalServerError     = NewError(InternalServerError, "internal server error")
	ErrUnsupportedEncoding     = NewError(NotImplemented, "transfer encoding is not supported")
	ErrHTTPVersionNotSupported = NewError(HTTPVersionNotSupported, "HTTP version not supported")
)
