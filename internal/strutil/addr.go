package strutil

import "strings"

const defaultAddress = "0.0.0.0"

// NormalizeAddress turns a listen directive value into a dialable address. A bare port
// and a port with an empty host both bind all the interfaces.
func NormalizeAddress(addr string) string {
	if len(addr) == 0 {
		return addr
	}

	if strings.IndexByte(addr, ':') == -1 {
		return defaultAddress + ":" + addr
	}

	if addr[0] == ':' {
		addr = defaultAddress + addr
	}

	return addr
}

// Port returns the port part of the address. The address is considered a port itself
// when no colon is presented.
func Port(addr string) string {
	if colon := strings.LastIndexByte(addr, ':'); colon != -1 {
		return addr[colon+1:]
	}

	return addr
}

// StripPort removes the port from a Host header value, respecting bracketed IPv6 literals.
func StripPort(host string) string {
	if strings.HasPrefix(host, "[") {
		if end := strings.IndexByte(host, ']'); end != -1 {
			return host[:end+1]
		}

		return host
	}

	if colon := strings.IndexByte(host, ':'); colon != -1 {
		return host[:colon]
	}

	return host
}
