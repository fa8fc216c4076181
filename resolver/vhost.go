package resolver

import (
	"slices"
	"strings"

	"github.com/indigo-web/webserv/confdb"
	"github.com/indigo-web/webserv/internal/strutil"
)

const defaultListen = "80"

// Listen returns listen addresses of the server, normalized into dialable form.
func Listen(store *confdb.Store, server int) (addrs []string) {
	values := FilterByDirective(store.Server(server), "listen", "")
	if len(values) == 0 {
		values = []string{defaultListen}
	}

	for _, value := range values {
		addrs = append(addrs, strutil.NormalizeAddress(value))
	}

	return addrs
}

// Listeners groups servers by their listen addresses.
func Listeners(store *confdb.Store) map[string][]int {
	listeners := make(map[string][]int)

	for _, index := range store.Indices() {
		for _, addr := range Listen(store, index) {
			if !slices.Contains(listeners[addr], index) {
				listeners[addr] = append(listeners[addr], index)
			}
		}
	}

	return listeners
}

// SelectServer chooses the virtual server for the request. Servers listening on the port
// are the candidates; the one whose server_name matches the host wins, otherwise the first
// candidate does. If no server listens on the port, the lowest index is returned. -1 is
// returned only if there are no servers at all.
func SelectServer(store *confdb.Store, host, port string) int {
	indices := store.Indices()
	if len(indices) == 0 {
		return -1
	}

	host = strings.ToLower(strutil.StripPort(host))
	candidate := -1

	for _, index := range indices {
		if !listensOn(store, index, port) {
			continue
		}

		if candidate == -1 {
			candidate = index
		}

		for _, name := range FilterByDirective(store.Server(index), "server_name", "") {
			if matchServerName(strings.ToLower(name), host) {
				return index
			}
		}
	}

	if candidate == -1 {
		return indices[0]
	}

	return candidate
}

func listensOn(store *confdb.Store, server int, port string) bool {
	if len(port) == 0 {
		return true
	}

	for _, addr := range Listen(store, server) {
		if strutil.Port(addr) == port {
			return true
		}
	}

	return false
}

// matchServerName supports exact names, leading wildcards (*.example.com), the special
// form .example.com matching the domain itself and its subdomains, and trailing
// wildcards (www.example.*).
func matchServerName(pattern, host string) bool {
	switch {
	case pattern == host:
		return true
	case strings.HasPrefix(pattern, "*."):
		return strings.HasSuffix(host, pattern[1:])
	case strings.HasPrefix(pattern, "."):
		return host == pattern[1:] || strings.HasSuffix(host, pattern)
	case strings.HasSuffix(pattern, ".*"):
		return strings.HasPrefix(host, pattern[:len(pattern)-1])
	default:
		return false
	}
}
