package render

import (
	"io"
	"strconv"
	"time"

	"github.com/indigo-web/utils/strcomp"
	"github.com/indigo-web/webserv/http"
	"github.com/indigo-web/webserv/http/status"
	"github.com/indigo-web/webserv/kv"
)

const (
	crlf       = "\r\n"
	colonsp    = ": "
	protocol   = "HTTP/1.1 "
	dateLayout = "Mon, 02 Jan 2006 15:04:05 GMT"
)

// Engine renders responses into its buffer and writes them at once. It isn't safe for
// concurrent use, so there must be one instance per connection.
type Engine struct {
	buff           []byte
	defaultHeaders *kv.Storage
	now            func() time.Time
}

// NewEngine returns an engine writing the default headers into every response, unless
// the response sets them itself.
func NewEngine(buff []byte, defaultHeaders *kv.Storage) *Engine {
	if defaultHeaders == nil {
		defaultHeaders = kv.New()
	}

	return &Engine{
		buff:           buff[:0],
		defaultHeaders: defaultHeaders,
		now:            time.Now,
	}
}

// Write renders and transmits the response. The request is nil when the message failed
// to parse, such responses always close the connection. The returned keepAlive tells
// whether the connection may serve the next message.
func (e *Engine) Write(request *http.Request, response *http.Response, w io.Writer) (keepAlive bool, err error) {
	fields := response.Expose()
	keepAlive = request != nil && !fields.Disconnect && request.KeepAlive()

	e.Render(fields, keepAlive)
	_, err = w.Write(e.buff)
	fields.Sent = len(e.buff)
	e.buff = e.buff[:0]

	return keepAlive && err == nil, err
}

// Render writes the serialized response into the internal buffer and returns it. The
// buffer is valid until the next call.
func (e *Engine) Render(fields *http.Fields, keepAlive bool) []byte {
	e.buff = e.buff[:0]
	e.renderStatusLine(fields.Code)

	for key, value := range fields.Headers.Iter() {
		if isFramingHeader(key) {
			continue
		}

		e.renderHeader(key, value)
	}

	for key, value := range e.defaultHeaders.Iter() {
		if !fields.Headers.Has(key) {
			e.renderHeader(key, value)
		}
	}

	if !fields.Headers.Has("date") {
		e.renderHeader("Date", e.now().UTC().Format(dateLayout))
	}

	if keepAlive {
		e.renderHeader("Connection", "keep-alive")
	} else {
		e.renderHeader("Connection", "close")
	}

	e.buff = append(e.buff, "Content-Length: "...)
	e.buff = strconv.AppendInt(e.buff, int64(len(fields.Body)), 10)
	e.buff = append(e.buff, crlf+crlf...)
	e.buff = append(e.buff, fields.Body...)

	return e.buff
}

func (e *Engine) renderStatusLine(code status.Code) {
	e.buff = append(e.buff, protocol...)
	e.buff = strconv.AppendUint(e.buff, uint64(code), 10)
	e.buff = append(e.buff, ' ')
	e.buff = append(e.buff, status.Text(code)...)
	e.buff = append(e.buff, crlf...)
}

// renderHeader into the buffer. Appends CRLF in the end
func (e *Engine) renderHeader(key, value string) {
	e.buff = append(e.buff, key...)
	e.buff = append(e.buff, colonsp...)
	e.buff = append(e.buff, value...)
	e.buff = append(e.buff, crlf...)
}

// isFramingHeader reports headers, which are always computed by the engine itself.
func isFramingHeader(key string) bool {
	return strcomp.EqualFold(key, "content-length") ||
		strcomp.EqualFold(key, "connection") ||
		strcomp.EqualFold(key, "transfer-encoding")
}
