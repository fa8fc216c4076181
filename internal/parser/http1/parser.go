package http1

import (
	"bytes"
	"strings"

	"github.com/indigo-web/utils/uf"
	"github.com/indigo-web/webserv/config"
	"github.com/indigo-web/webserv/http"
	"github.com/indigo-web/webserv/http/method"
	"github.com/indigo-web/webserv/http/proto"
	"github.com/indigo-web/webserv/http/status"
	"github.com/indigo-web/webserv/internal/strutil"
)

// BodyLimiter returns the maximal body size allowed for the request. It's called exactly
// once per message, as soon as the headers are complete and the Host header is validated.
// Negative values are ignored.
type BodyLimiter func(*http.Request) int64

// Parser is an incremental HTTP/1.x request parser. It tolerates the data being split at
// arbitrary offsets: unterminated lines and incomplete body segments are buffered until
// the next call completes them.
//
// Stored request values never reference the passed data, so the caller is free to reuse
// its read buffer.
type Parser struct {
	cfg         *config.Config
	request     *http.Request
	limiter     BodyLimiter
	state       parserState
	result      Result
	buff        []byte
	offset      int
	body        []byte
	chunkLength int
	headers     int
	limit       int64
}

func NewParser(cfg *config.Config, request *http.Request) *Parser {
	return &Parser{
		cfg:     cfg,
		request: request,
		state:   eRequestLine,
	}
}

// SetBodyLimit installs the callback deciding on the maximal body size. Without one, the
// global config.Body.MaxSize is applied.
func (p *Parser) SetBodyLimit(limiter BodyLimiter) {
	p.limiter = limiter
}

// Parse feeds the data into the parser. Once Done, NoBody or Error is returned, every
// subsequent call returns the same result until Reset is called. Bytes following a complete
// message are retained and can be obtained via Extra.
func (p *Parser) Parse(data []byte) Result {
	if p.state == eDone || p.state == eError {
		return p.result
	}

	if p.offset > 0 {
		p.buff = p.buff[:copy(p.buff, p.buff[p.offset:])]
		p.offset = 0
	}

	p.buff = append(p.buff, data...)
	p.result = p.advance()

	if p.result.Outcome == Error {
		p.state = eError
	}

	return p.result
}

// Finish signals that no more data will arrive. A message which was started, but not
// completed, becomes an error. If nothing was started, Pending is returned.
func (p *Parser) Finish() Result {
	switch p.state {
	case eDone, eError:
		return p.result
	case eRequestLine:
		if len(p.buff) == p.offset {
			return pending()
		}

		p.result = fail(status.ErrMalformedRequestLine)
	case eHeaders:
		p.result = fail(status.ErrMalformedHeader)
	default:
		p.result = fail(status.ErrBodyLengthMismatch)
	}

	p.state = eError

	return p.result
}

// Extra returns bytes, which were received after the complete message. They belong to
// the next message of the connection.
func (p *Parser) Extra() []byte {
	return p.buff[p.offset:]
}

// Reset prepares the parser and the request for the next message. Bytes which arrived
// after the previous message are kept, so the caller must call Parse(nil) in order to
// process them.
func (p *Parser) Reset() {
	p.buff = p.buff[:copy(p.buff, p.buff[p.offset:])]
	p.offset = 0
	p.state = eRequestLine
	p.result = Result{}
	p.body = nil
	p.chunkLength = 0
	p.headers = 0
	p.limit = 0
	p.request.Reset()
}

func (p *Parser) advance() Result {
	for {
		switch p.state {
		case eRequestLine:
			line, ok, err := p.line(p.cfg.URI.MaxRequestLineSize, status.ErrURITooLong)
			switch {
			case err != nil:
				return fail(err)
			case !ok:
				return pending()
			case len(line) == 0:
				// empty lines preceding the request line are ignored
				continue
			}

			if err = p.parseRequestLine(string(line)); err != nil {
				return fail(err)
			}

			p.state = eHeaders
		case eHeaders:
			line, ok, err := p.line(p.cfg.Headers.MaxLineSize, status.ErrHeaderFieldsTooLarge)
			switch {
			case err != nil:
				return fail(err)
			case !ok:
				return pending()
			case len(line) == 0:
				if result, final := p.preBody(); final {
					return result
				}

				continue
			}

			if err = p.parseHeader(line); err != nil {
				return fail(err)
			}
		case eBody:
			length := p.request.ContentLength
			if len(p.buff)-p.offset < length {
				return pending()
			}

			p.request.Body = bytes.Clone(p.buff[p.offset : p.offset+length])
			p.offset += length
			p.state = eDone

			return Result{Outcome: Done}
		case eChunkLength:
			line, ok, err := p.line(p.cfg.Headers.MaxLineSize, status.ErrChunkFormat)
			switch {
			case err != nil:
				return fail(err)
			case !ok:
				return pending()
			}

			length, err := parseChunkLength(line)
			if err != nil {
				return fail(err)
			}

			if length == 0 {
				p.state = eTrailer
				continue
			}

			if uint64(len(p.body))+length > uint64(p.limit) {
				return fail(status.ErrBodyTooLarge)
			}

			p.chunkLength = int(length)
			p.state = eChunkData
		case eChunkData:
			rest := p.buff[p.offset:]
			if len(rest) <= p.chunkLength {
				return pending()
			}

			var skip int
			switch rest[p.chunkLength] {
			case '\n':
				skip = 1
			case '\r':
				if len(rest) < p.chunkLength+2 {
					return pending()
				}

				if rest[p.chunkLength+1] != '\n' {
					return fail(status.ErrChunkFormat)
				}

				skip = 2
			default:
				return fail(status.ErrChunkFormat)
			}

			p.body = append(p.body, rest[:p.chunkLength]...)
			p.offset += p.chunkLength + skip
			p.state = eChunkLength
		case eTrailer:
			line, ok, err := p.line(p.cfg.Headers.MaxLineSize, status.ErrHeaderFieldsTooLarge)
			switch {
			case err != nil:
				return fail(err)
			case !ok:
				return pending()
			case len(line) == 0:
				if p.body == nil {
					p.body = []byte{}
				}

				p.request.Body = p.body
				p.state = eDone

				return Result{Outcome: Done}
			}

			name, value, ok := splitField(line)
			if !ok || isForbiddenTrailer(name) {
				return fail(status.ErrTrailerFormat)
			}

			if p.headers++; p.headers > p.cfg.Headers.MaxCount {
				return fail(status.ErrTooManyHeaders)
			}

			p.request.Headers.Set(name, value)
		default:
			return p.result
		}
	}
}

// line returns the next LF-terminated line without its terminator. The CR preceding
// the LF is stripped, if presented.
func (p *Parser) line(limit int, overflow error) (line []byte, ok bool, err error) {
	rest := p.buff[p.offset:]
	lf := bytes.IndexByte(rest, '\n')
	if lf == -1 {
		if len(rest) > limit+1 {
			return nil, false, overflow
		}

		return nil, false, nil
	}

	line = rest[:lf]
	p.offset += lf + 1

	if len(line) > 0 && line[len(line)-1] == '\r' {
		line = line[:len(line)-1]
	}

	if len(line) > limit {
		return nil, false, overflow
	}

	return line, true, nil
}

func (p *Parser) parseRequestLine(line string) error {
	tokens := strings.Split(line, " ")
	if len(tokens) != 3 {
		return status.ErrMalformedRequestLine
	}

	methodToken, target, protocol := tokens[0], tokens[1], tokens[2]
	if !method.IsToken(methodToken) {
		return status.ErrInvalidMethodToken
	}

	if len(target) == 0 {
		return status.ErrMalformedRequestLine
	}

	version := proto.FromString(protocol)
	if version == proto.Unknown {
		if isHTTPVersion(protocol) {
			return status.ErrHTTPVersionNotSupported
		}

		return status.ErrMalformedRequestLine
	}

	uri, err := http.ParseURI(target, methodToken)
	if err != nil {
		return err
	}

	p.request.Method = methodToken
	p.request.Target = target
	p.request.URI = uri
	p.request.Protocol = version

	return nil
}

func (p *Parser) parseHeader(line []byte) error {
	if line[0] == ' ' || line[0] == '\t' {
		// obsolete line folding continues the value of the previous field
		pairs := p.request.Headers.Expose()
		if len(pairs) == 0 {
			return status.ErrMalformedHeader
		}

		if folded := strutil.StripWS(string(line)); len(folded) > 0 {
			last := &pairs[len(pairs)-1]
			last.Value += " " + folded
		}

		return nil
	}

	name, value, ok := splitField(line)
	if !ok {
		return status.ErrMalformedHeader
	}

	if p.headers++; p.headers > p.cfg.Headers.MaxCount {
		return status.ErrTooManyHeaders
	}

	p.request.Headers.Add(name, value)

	return nil
}

// preBody decides on the message framing, once the headers are complete. The returned
// bool reports whether the result is final for the message.
func (p *Parser) preBody() (Result, bool) {
	request := p.request

	hosts := request.Headers.Values("host")
	if len(hosts) != 1 || len(hosts[0]) == 0 || strings.IndexByte(hosts[0], '@') != -1 {
		return fail(status.ErrMissingOrInvalidHost), true
	}

	p.limit = p.cfg.Body.MaxSize
	if p.limiter != nil {
		if limit := p.limiter(request); limit >= 0 && limit < p.limit {
			p.limit = limit
		}
	}

	if codings := request.Headers.Values("transfer-encoding"); len(codings) > 0 {
		// Transfer-Encoding overrides Content-Length, as RFC 9112, 6.3 demands.
		if !chunkedOnly(codings) {
			return fail(status.ErrUnsupportedEncoding), true
		}

		request.Chunked = true
		p.body = make([]byte, 0, min(int64(p.cfg.Body.ChunkedPrealloc), p.limit))
		p.state = eChunkLength

		return Result{}, false
	}

	if values := request.Headers.Values("content-length"); len(values) > 0 {
		length, ok := parseContentLength(values)
		if !ok {
			return fail(status.ErrInvalidContentLength), true
		}

		if int64(length) > p.limit {
			return fail(status.ErrBodyTooLarge), true
		}

		request.ContentLength = length
		if length == 0 {
			request.Body = []byte{}
			p.state = eDone
			return Result{Outcome: Done}, true
		}

		p.state = eBody

		return Result{}, false
	}

	p.state = eDone

	if method.RequiresBody(request.Method) {
		request.BodyMissing = true
		return Result{Outcome: NoBody}, true
	}

	return Result{Outcome: Done}, true
}

func splitField(line []byte) (name, value string, ok bool) {
	colon := bytes.IndexByte(line, ':')
	if colon <= 0 || !method.IsToken(uf.B2S(line[:colon])) {
		return "", "", false
	}

	value = strutil.StripWS(string(line[colon+1:]))
	if len(value) == 0 {
		return "", "", false
	}

	return string(line[:colon]), value, true
}

func isHTTPVersion(protocol string) bool {
	return len(protocol) == len("HTTP/x.x") &&
		strings.HasPrefix(protocol, "HTTP/") &&
		isDigit(protocol[5]) && protocol[6] == '.' && isDigit(protocol[7])
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
