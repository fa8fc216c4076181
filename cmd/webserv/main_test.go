package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	json "github.com/json-iterator/go"
	"github.com/stretchr/testify/require"
)

const database = `root:
  - {directive: root, values: [www]}

servers:
  0:
    - {location: "", directive: listen, values: ["8080"]}
    - {location: "/upload", directive: client_max_body_size, values: ["1k"]}
    - {location: "/upload", directive: allow_methods, values: [POST, DELETE]}
    - {location: "=_/exact", directive: autoindex, values: ["on"]}
  1:
    - {location: "", directive: listen, values: ["127.0.0.1:8081"]}
`

func writeDatabase(t *testing.T, content string) string {
	path := filepath.Join(t.TempDir(), "webserv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func run(args ...string) (string, error) {
	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()

	return out.String(), err
}

func TestCheck(t *testing.T) {
	t.Run("valid database", func(t *testing.T) {
		out, err := run("check", "--config", writeDatabase(t, database))
		require.NoError(t, err)
		require.Contains(t, out, "http:\n  root www\n")
		require.Contains(t, out, "server 0 (listen 0.0.0.0:8080):")
		require.Contains(t, out, "  /upload: allow_methods POST DELETE\n")
		require.Contains(t, out, "server 1 (listen 127.0.0.1:8081):")
	})

	t.Run("no servers", func(t *testing.T) {
		_, err := run("check", "--config", writeDatabase(t, "root: []\n"))
		require.Error(t, err)
	})

	t.Run("invalid flag override", func(t *testing.T) {
		_, err := run("check", "--config", writeDatabase(t, database), "--locking", "none")
		require.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := run("check", "--config", filepath.Join(t.TempDir(), "absent.yaml"))
		require.Error(t, err)
	})
}

func TestResolve(t *testing.T) {
	path := writeDatabase(t, database)

	t.Run("literal location", func(t *testing.T) {
		out, err := run("resolve", "--config", path, "--json", "/upload")
		require.NoError(t, err)

		var view effectiveView
		require.NoError(t, json.Unmarshal([]byte(out), &view))
		require.Equal(t, "/upload", view.Location)
		require.Equal(t, "www", view.Root)
		require.Equal(t, int64(1024), view.ClientMaxBodySize)
		require.Equal(t, []string{"POST", "DELETE"}, view.AllowMethods)
		require.False(t, view.AutoIndex)
	})

	t.Run("defaults", func(t *testing.T) {
		out, err := run("resolve", "--config", path, "--server", "1", "--json", "/anything")
		require.NoError(t, err)

		var view effectiveView
		require.NoError(t, json.Unmarshal([]byte(out), &view))
		require.Equal(t, 1, view.Server)
		require.Equal(t, "www", view.Root)
		require.Equal(t, int64(20971520), view.ClientMaxBodySize)
	})

	t.Run("nginx matching", func(t *testing.T) {
		out, err := run("resolve", "--config", path, "--match", "nginx", "/exact")
		require.NoError(t, err)
		require.Contains(t, out, "location:             =_/exact\n")
		require.Contains(t, out, "modifier:             exact\n")
		require.Contains(t, out, "autoindex:            true\n")
	})

	t.Run("unknown server", func(t *testing.T) {
		_, err := run("resolve", "--config", path, "--server", "7", "/")
		require.Error(t, err)
	})

	t.Run("target is required", func(t *testing.T) {
		_, err := run("resolve", "--config", path)
		require.Error(t, err)
	})
}
