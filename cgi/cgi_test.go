package cgi

import (
	"context"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/indigo-web/webserv/http"
	"github.com/indigo-web/webserv/http/status"
	"github.com/indigo-web/webserv/kv"
	"github.com/stretchr/testify/require"
)

func writeScript(t *testing.T, content string) string {
	t.Helper()

	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh is not available")
	}

	path := filepath.Join(t.TempDir(), "script.sh")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))

	return path
}

func TestSpawn(t *testing.T) {
	t.Run("echo stdin", func(t *testing.T) {
		script := writeScript(t, "cat\n")
		body := []byte(strings.Repeat("Wikipedia", 16*1024))

		result, err := Spawn(context.Background(), Command{
			Interpreter: "sh",
			Script:      script,
			Env:         []EnvVar{{"PATH", os.Getenv("PATH")}},
			Body:        body,
		})
		require.NoError(t, err)
		require.Zero(t, result.ExitStatus)
		require.Equal(t, body, result.Output)
	})

	t.Run("environment", func(t *testing.T) {
		script := writeScript(t, `printf '%s|%s' "$REQUEST_METHOD" "$QUERY_STRING"`)

		result, err := Spawn(context.Background(), Command{
			Interpreter: "sh",
			Script:      script,
			Env: []EnvVar{
				{"REQUEST_METHOD", "GET"},
				{"QUERY_STRING", "a=b"},
			},
		})
		require.NoError(t, err)
		require.Equal(t, "GET|a=b", string(result.Output))
	})

	t.Run("non-zero exit", func(t *testing.T) {
		script := writeScript(t, "echo oops >&2\nexit 3\n")

		result, err := Spawn(context.Background(), Command{Interpreter: "sh", Script: script})
		require.NoError(t, err)
		require.Equal(t, 3, result.ExitStatus)
		require.Equal(t, "oops\n", string(result.Stderr))
	})

	t.Run("unread body", func(t *testing.T) {
		script := writeScript(t, "echo done\n")

		result, err := Spawn(context.Background(), Command{
			Interpreter: "sh",
			Script:      script,
			Body:        make([]byte, 1024*1024),
		})
		require.NoError(t, err)
		require.Equal(t, "done\n", string(result.Output))
	})

	t.Run("missing interpreter", func(t *testing.T) {
		_, err := Spawn(context.Background(), Command{Interpreter: "definitely-not-an-interpreter", Script: "x"})
		require.Error(t, err)
	})

	t.Run("timeout", func(t *testing.T) {
		script := writeScript(t, "exec sleep 5\n")

		runner := NewExecRunner(100 * time.Millisecond)
		_, err := runner.Run(context.Background(), Command{
			Interpreter: "sh",
			Script:      script,
			Env:         []EnvVar{{"PATH", os.Getenv("PATH")}},
		})
		require.Error(t, err)
	})
}

func TestBuildEnv(t *testing.T) {
	request := http.NewRequest(kv.New())
	request.Method = "POST"
	request.Target = "/cgi-bin/form.py/extra?name=value"
	request.URI = http.URI{Path: "/cgi-bin/form.py/extra", Query: "name=value"}
	request.Headers.
		Add("Host", "localhost").
		Add("Content-Type", "text/plain").
		Add("X-Forwarded-For", "10.0.0.1").
		Add("x-forwarded-for", "10.0.0.2").
		Add("Proxy", "http://attacker.example:3128")
	request.Body = []byte("hello")
	request.Env.Remote = &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1), Port: 52000}

	env := BuildEnv(request, Meta{
		ScriptName:     "/cgi-bin/form.py",
		ScriptFilename: "html/cgi-bin/form.py",
		PathInfo:       "/extra",
		ServerName:     "localhost",
		ServerPort:     "8080",
		ServerSoftware: "webserv/1.0",
	})

	for key, value := range map[string]string{
		"GATEWAY_INTERFACE":    "CGI/1.1",
		"REQUEST_METHOD":       "POST",
		"SERVER_PROTOCOL":      "HTTP/1.1",
		"QUERY_STRING":         "name=value",
		"REQUEST_URI":          "/cgi-bin/form.py/extra?name=value",
		"SCRIPT_NAME":          "/cgi-bin/form.py",
		"SCRIPT_FILENAME":      "html/cgi-bin/form.py",
		"PATH_INFO":            "/extra",
		"SERVER_NAME":          "localhost",
		"SERVER_PORT":          "8080",
		"REMOTE_ADDR":          "127.0.0.1",
		"REMOTE_PORT":          "52000",
		"REDIRECT_STATUS":      "200",
		"CONTENT_TYPE":         "text/plain",
		"CONTENT_LENGTH":       "5",
		"HTTP_HOST":            "localhost",
		"HTTP_X_FORWARDED_FOR": "10.0.0.1, 10.0.0.2",
	} {
		actual, found := Lookup(env, key)
		require.True(t, found, key)
		require.Equal(t, value, actual, key)
	}

	_, found := Lookup(env, "HTTP_CONTENT_TYPE")
	require.False(t, found)
	_, found = Lookup(env, "HTTP_PROXY")
	require.False(t, found)

	t.Run("GET without body", func(t *testing.T) {
		request.Method = "GET"
		request.Body = nil
		env := BuildEnv(request, Meta{})
		_, found := Lookup(env, "CONTENT_LENGTH")
		require.False(t, found)
	})
}

func TestParseResponse(t *testing.T) {
	t.Run("header block", func(t *testing.T) {
		response := ParseResponse([]byte("Content-Type: text/plain\r\nX-Custom: 1\r\n\r\nhello"))
		require.Equal(t, status.OK, response.Code)
		require.Equal(t, "text/plain", response.Headers.Value("content-type"))
		require.Equal(t, "1", response.Headers.Value("x-custom"))
		require.Equal(t, "hello", string(response.Body))
	})

	t.Run("status", func(t *testing.T) {
		response := ParseResponse([]byte("Status: 404 Not Found\nContent-Type: text/html\n\n<h1>no</h1>"))
		require.Equal(t, status.NotFound, response.Code)
		require.False(t, response.Headers.Has("status"))
		require.Equal(t, "<h1>no</h1>", string(response.Body))
	})

	t.Run("location", func(t *testing.T) {
		response := ParseResponse([]byte("Location: /elsewhere\n\n"))
		require.Equal(t, status.Found, response.Code)
		require.Empty(t, response.Body)
	})

	t.Run("plain output", func(t *testing.T) {
		for _, output := range []string{"just some text", "hello world\nsecond line\n\n", ""} {
			response := ParseResponse([]byte(output))
			require.Equal(t, status.OK, response.Code)
			require.True(t, response.Headers.Empty())
			require.Equal(t, output, string(response.Body))
		}
	})
}
