package cgi

import (
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/indigo-web/webserv/http"
	"github.com/indigo-web/webserv/http/method"
)

const GatewayInterface = "CGI/1.1"

// Meta carries the values the request itself doesn't know.
type Meta struct {
	// ScriptName is the URL path of the script.
	ScriptName string
	// ScriptFilename is the filesystem path of the script.
	ScriptFilename string
	// PathInfo is the part of the URL path following the script name.
	PathInfo string
	// ServerName is the name of the virtual server, usually its Host.
	ServerName string
	// ServerPort is the port the request was accepted on.
	ServerPort string
	// ServerSoftware identifies the server.
	ServerSoftware string
}

// BuildEnv returns the meta-variables of the request. Header fields are exposed as
// HTTP_* variables, except those already mapped to their own meta-variables. The Proxy
// header is never exposed, as HTTP_PROXY is consumed by HTTP clients of the script.
func BuildEnv(request *http.Request, meta Meta) []EnvVar {
	remoteAddr, remotePort := splitAddr(request.Env.Remote)

	env := []EnvVar{
		{"GATEWAY_INTERFACE", GatewayInterface},
		{"SERVER_SOFTWARE", meta.ServerSoftware},
		{"SERVER_NAME", meta.ServerName},
		{"SERVER_PORT", meta.ServerPort},
		{"SERVER_PROTOCOL", request.Protocol.String()},
		{"REQUEST_METHOD", request.Method},
		{"REQUEST_URI", request.Target},
		{"QUERY_STRING", request.URI.Query},
		{"SCRIPT_NAME", meta.ScriptName},
		{"SCRIPT_FILENAME", meta.ScriptFilename},
		{"PATH_INFO", meta.PathInfo},
		{"REMOTE_ADDR", remoteAddr},
		{"REMOTE_PORT", remotePort},
		{"REDIRECT_STATUS", "200"},
		{"PATH", os.Getenv("PATH")},
	}

	if request.Method == method.POST.String() || len(request.Body) > 0 {
		env = append(env,
			EnvVar{"CONTENT_TYPE", request.Headers.Value("content-type")},
			EnvVar{"CONTENT_LENGTH", strconv.Itoa(len(request.Body))},
		)
	}

	for key, value := range request.Headers.Iter() {
		if isExcludedHeader(key) {
			continue
		}

		env = appendHeader(env, headerVariable(key), value)
	}

	return env
}

// appendHeader joins repeated header fields with a comma, as RFC 3875 requires.
func appendHeader(env []EnvVar, key, value string) []EnvVar {
	for i := range env {
		if env[i].Key == key {
			env[i].Value += ", " + value
			return env
		}
	}

	return append(env, EnvVar{Key: key, Value: value})
}

func isExcludedHeader(key string) bool {
	return strings.EqualFold(key, "content-type") ||
		strings.EqualFold(key, "content-length") ||
		strings.EqualFold(key, "proxy")
}

func headerVariable(key string) string {
	return "HTTP_" + strings.ToUpper(strings.ReplaceAll(key, "-", "_"))
}

func splitAddr(addr net.Addr) (host, port string) {
	if addr == nil {
		return "", ""
	}

	host, port, err := net.SplitHostPort(addr.String())
	if err != nil {
		return addr.String(), ""
	}

	return host, port
}

// Lookup returns the value of the variable.
func Lookup(env []EnvVar, key string) (string, bool) {
	for _, variable := range env {
		if variable.Key == key {
			return variable.Value, true
		}
	}

	return "", false
}
