package proto

import "strings"

type Proto uint8

const (
	Unknown Proto = 0
	HTTP10  Proto = 1 << iota
	HTTP11

	HTTP1 = HTTP10 | HTTP11
)

func (p Proto) String() string {
	switch p {
	case HTTP10:
		return "HTTP/1.0"
	case HTTP11:
		return "HTTP/1.1"
	default:
		return ""
	}
}

const (
	protoTokenLength   = len("HTTP/x.x")
	majorVersionOffset = len("HTTP/x") - 1
	minorVersionOffset = len("HTTP/x.x") - 1
	httpScheme         = "HTTP/"
)

// FromString recognizes HTTP/1.0 and HTTP/1.1. Anything else, including well-formed
// newer versions, is Unknown.
func FromString(raw string) Proto {
	if len(raw) != protoTokenLength || raw[:majorVersionOffset] != httpScheme || raw[majorVersionOffset+1] != '.' {
		return Unknown
	}

	return Parse(raw[majorVersionOffset]-'0', raw[minorVersionOffset]-'0')
}

func Parse(major, minor uint8) Proto {
	if major != 1 {
		return Unknown
	}

	switch minor {
	case 0:
		return HTTP10
	case 1:
		return HTTP11
	default:
		return Unknown
	}
}

// KeepAlive decides whether the connection persists after the message, judging by the
// protocol default and the Connection header value.
func KeepAlive(p Proto, connection string) bool {
	for _, token := range strings.Split(connection, ",") {
		switch strings.ToLower(strings.TrimSpace(token)) {
		case "close":
			return false
		case "keep-alive":
			return true
		}
	}

	return p == HTTP11
}
