package tcp

import (
	"context"
	"errors"
	"net"
	"sync"
	"sync/atomic"
)

var ErrShutdown = errors.New("server is shut down")

type OnConnection func(net.Conn)

// Server accepts connections and serves each of them in a separate goroutine.
type Server struct {
	sock     net.Listener
	onConn   OnConnection
	mu       sync.Mutex
	conns    map[net.Conn]struct{}
	wg       sync.WaitGroup
	shutdown atomic.Bool
}

func NewServer(sock net.Listener, onConn OnConnection) *Server {
	return &Server{
		sock:   sock,
		onConn: onConn,
		conns:  map[net.Conn]struct{}{},
	}
}

// Start accepts connections until the listener is closed. Once it's done via Stop or
// GracefulShutdown, ErrShutdown is returned after all the connections are gone.
func (s *Server) Start() error {
	for {
		conn, err := s.sock.Accept()
		if err != nil {
			s.wg.Wait()

			if s.shutdown.Load() {
				return ErrShutdown
			}

			return err
		}

		if !s.track(conn) {
			_ = conn.Close()
			continue
		}

		go s.connHandler(conn)
	}
}

// track registers the connection, unless the server is already shutting down. Registration
// and the shutdown flag share the mutex, so no connection is added after the wait started.
func (s *Server) track(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.shutdown.Load() {
		return false
	}

	s.conns[conn] = struct{}{}
	s.wg.Add(1)

	return true
}

// Addr returns the address the server listens on.
func (s *Server) Addr() net.Addr {
	return s.sock.Addr()
}

func (s *Server) stopListener() error {
	s.mu.Lock()
	s.shutdown.Store(true)
	s.mu.Unlock()

	return s.sock.Close()
}

// Stop shuts listener and ALL the connections down
func (s *Server) Stop() error {
	err := s.stopListener()
	s.closeConns()

	return err
}

// GracefulShutdown stops the listener, leaving all the connections free to end their
// lives peacefully. Connections still alive when the context is done are closed forcibly.
func (s *Server) GracefulShutdown(ctx context.Context) error {
	err := s.stopListener()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		s.closeConns()
	}

	return err
}

func (s *Server) closeConns() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for conn := range s.conns {
		_ = conn.Close()
	}
}

func (s *Server) connHandler(conn net.Conn) {
	defer s.wg.Done()

	s.onConn(conn)

	s.mu.Lock()
	delete(s.conns, conn)
	s.mu.Unlock()
}
