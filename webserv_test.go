package webserv

import (
	"context"
	"io"
	stdhttp "net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/indigo-web/webserv/confdb"
	"github.com/indigo-web/webserv/config"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestApp(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("<h1>webserv</h1>"), 0o644))

	store := confdb.New().
		Add(0, "", "listen", "127.0.0.1:0").
		Add(0, "", "root", root).
		Add(0, "", "index", "index.html")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	started, stopped := make(chan struct{}), make(chan struct{})
	app := New(config.Default(), store, zap.NewNop()).
		NotifyOnStart(func() { close(started) }).
		NotifyOnStop(func() { close(stopped) })

	errCh := make(chan error, 1)
	go func() {
		errCh <- app.Serve(ctx)
	}()

	select {
	case <-started:
	case err := <-errCh:
		require.FailNow(t, "app has failed to start", err)
	case <-time.After(5 * time.Second):
		require.FailNow(t, "app has failed to start in time")
	}

	addrs := app.Addrs()
	require.Len(t, addrs, 1)
	base := "http://" + addrs[0].String()

	t.Run("get index", func(t *testing.T) {
		resp, err := stdhttp.Get(base + "/")
		require.NoError(t, err)
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		require.Equal(t, 200, resp.StatusCode)
		require.Equal(t, "<h1>webserv</h1>", string(body))
		require.Equal(t, "text/html; charset=UTF-8", resp.Header.Get("Content-Type"))
	})

	t.Run("put and delete", func(t *testing.T) {
		request, err := stdhttp.NewRequest(stdhttp.MethodPut, base+"/uploaded.txt", strings.NewReader("content"))
		require.NoError(t, err)
		resp, err := stdhttp.DefaultClient.Do(request)
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, 201, resp.StatusCode)

		request, err = stdhttp.NewRequest(stdhttp.MethodDelete, base+"/uploaded.txt", nil)
		require.NoError(t, err)
		resp, err = stdhttp.DefaultClient.Do(request)
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, 200, resp.StatusCode)
	})

	t.Run("method not allowed", func(t *testing.T) {
		request, err := stdhttp.NewRequest(stdhttp.MethodPatch, base+"/", nil)
		require.NoError(t, err)
		resp, err := stdhttp.DefaultClient.Do(request)
		require.NoError(t, err)
		_ = resp.Body.Close()
		require.Equal(t, 405, resp.StatusCode)
		require.Equal(t, "GET, POST, PUT, DELETE", resp.Header.Get("Allow"))
	})

	stdhttp.DefaultClient.CloseIdleConnections()
	cancel()
	require.NoError(t, <-errCh)
	<-stopped
}

func TestApp_NoServers(t *testing.T) {
	err := New(config.Default(), confdb.New(), zap.NewNop()).Serve(context.Background())
	require.ErrorIs(t, err, confdb.ErrNoServers)
}
