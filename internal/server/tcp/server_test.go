package tcp

import (
	"context"
	"io"
	"net"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func echo(conn net.Conn) {
	client := NewClient(conn, time.Second, time.Second, make([]byte, 64))
	defer client.Close()

	for {
		data, err := client.Read()
		if err != nil {
			return
		}

		if _, err = client.Write(data); err != nil {
			return
		}
	}
}

// queueListener hands out the queued connections and then fails, as a closed listener does.
type queueListener struct {
	conns []net.Conn
}

func (q *queueListener) Accept() (net.Conn, error) {
	if len(q.conns) == 0 {
		return nil, net.ErrClosed
	}

	conn := q.conns[0]
	q.conns = q.conns[1:]

	return conn, nil
}

func (q *queueListener) Close() error {
	return nil
}

func (q *queueListener) Addr() net.Addr {
	return &net.TCPAddr{IP: net.IPv4(127, 0, 0, 1)}
}

func TestTCP(t *testing.T) {
	t.Run("stop", func(t *testing.T) {
		listener, err := net.Listen("tcp", "localhost:0")
		require.NoError(t, err)

		server := NewServer(listener, echo)
		stopCh := make(chan error)
		go func() {
			stopCh <- server.Start()
		}()

		conn, err := net.Dial("tcp", server.Addr().String())
		require.NoError(t, err)
		_, err = conn.Write([]byte("hello"))
		require.NoError(t, err)

		buff := make([]byte, 5)
		_, err = io.ReadFull(conn, buff)
		require.NoError(t, err)
		require.Equal(t, "hello", string(buff))

		require.NoError(t, server.Stop())
		require.ErrorIs(t, <-stopCh, ErrShutdown)
		_ = conn.Close()
	})

	t.Run("graceful shutdown waits for connections", func(t *testing.T) {
		listener, err := net.Listen("tcp", "localhost:0")
		require.NoError(t, err)

		server := NewServer(listener, echo)
		stopCh := make(chan error)
		go func() {
			stopCh <- server.Start()
		}()

		conn, err := net.Dial("tcp", server.Addr().String())
		require.NoError(t, err)
		_, err = conn.Write([]byte("x"))
		require.NoError(t, err)
		_, err = io.ReadFull(conn, make([]byte, 1))
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		// the connection is idle, so it's closed once the context expires
		require.NoError(t, server.GracefulShutdown(ctx))
		require.ErrorIs(t, <-stopCh, ErrShutdown)

		_, err = io.ReadFull(conn, make([]byte, 1))
		require.Error(t, err)
	})

	t.Run("connection accepted during shutdown", func(t *testing.T) {
		conn, peer := net.Pipe()
		defer peer.Close()

		var served atomic.Bool
		srv := NewServer(&queueListener{conns: []net.Conn{conn}}, func(conn net.Conn) {
			served.Store(true)
			_ = conn.Close()
		})
		require.NoError(t, srv.GracefulShutdown(context.Background()))

		require.ErrorIs(t, srv.Start(), ErrShutdown)
		require.False(t, served.Load())

		_, err := peer.Read(make([]byte, 1))
		require.ErrorIs(t, err, io.EOF)
	})
}
