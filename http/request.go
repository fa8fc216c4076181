package http

import (
	"net"

	"github.com/indigo-web/webserv/http/proto"
	"github.com/indigo-web/webserv/kv"
)

type (
	Headers = *kv.Storage
	Header  = kv.Pair
)

// Environment holds connection-level values, which aren't part of the message itself.
type Environment struct {
	// Remote is the peer address.
	Remote net.Addr
	// Local is the address the connection was accepted on.
	Local net.Addr
}

// Request represents a single HTTP/1.x request message. It's populated incrementally by the
// parser and must not be modified once the parser has reported its completion.
type Request struct {
	// Method is the raw method token. Well-known methods can be recognized via method.Parse,
	// however unknown ones are legal as long as they are valid tokens.
	Method string
	// Target is the request target exactly as it was received.
	Target string
	// URI is the decomposed Target, with the path being urldecoded.
	URI URI
	// Protocol is the protocol version of the message.
	Protocol proto.Proto
	// Headers holds non-normalized header pairs in order of their appearance, even though
	// lookup is case-insensitive. Trailer fields of chunked messages are merged here, too.
	Headers Headers
	// Body is the whole message body, already decoded from the transfer coding.
	Body []byte
	// Chunked tells whether the body was transmitted using chunked transfer coding.
	Chunked bool
	// ContentLength is the declared body length, or -1 when none was declared.
	ContentLength int
	// BodyMissing is set when the method expects a body, however the message carries
	// neither Content-Length nor Transfer-Encoding.
	BodyMissing bool
	// Env contains connection-level values.
	Env Environment
}

func NewRequest(headers Headers) *Request {
	return &Request{
		Protocol:      proto.HTTP11,
		Headers:       headers,
		ContentLength: -1,
	}
}

// Reset prepares the request to be reused for the next message of the connection.
// Env survives, as it's shared across the whole connection.
func (r *Request) Reset() {
	r.Method = ""
	r.Target = ""
	r.URI = URI{}
	r.Protocol = proto.HTTP11
	r.Headers.Clear()
	r.Body = nil
	r.Chunked = false
	r.ContentLength = -1
	r.BodyMissing = false
}

// KeepAlive tells whether the connection may persist after responding to the request.
func (r *Request) KeepAlive() bool {
	return proto.KeepAlive(r.Protocol, r.Headers.Value("connection"))
}
