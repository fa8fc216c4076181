// Package webserv assembles the server: it listens on every address declared by the
// directive database and serves the connections.
package webserv

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/indigo-web/webserv/cgi"
	"github.com/indigo-web/webserv/confdb"
	"github.com/indigo-web/webserv/config"
	"github.com/indigo-web/webserv/dispatcher"
	"github.com/indigo-web/webserv/fs"
	"github.com/indigo-web/webserv/internal/server/http"
	"github.com/indigo-web/webserv/internal/server/tcp"
	"github.com/indigo-web/webserv/resolver"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// ShutdownTimeout limits the time connections are given to finish after the App is stopped.
const ShutdownTimeout = 5 * time.Second

type ListenerConstructor func(network, addr string) (net.Listener, error)

// App serves all the virtual servers of the directive database.
type App struct {
	cfg      *config.Config
	store    *confdb.Store
	logger   *zap.Logger
	listen   ListenerConstructor
	files    fs.Store
	runner   cgi.Runner
	hooks    hooks
	mu       sync.Mutex
	addrs    []net.Addr
	shutdown time.Duration
}

func New(cfg *config.Config, store *confdb.Store, logger *zap.Logger) *App {
	return &App{
		cfg:      cfg,
		store:    store,
		logger:   logger,
		listen:   net.Listen,
		files:    fs.NewOSStore(),
		runner:   cgi.NewExecRunner(cfg.CGI.Timeout),
		shutdown: ShutdownTimeout,
	}
}

// NotifyOnStart calls the callback at the moment, when all the listeners are bound.
func (a *App) NotifyOnStart(cb func()) *App {
	a.hooks.OnStart = cb
	return a
}

// NotifyOnStop calls the callback once all the listeners are closed and all the
// connections are gone.
func (a *App) NotifyOnStop(cb func()) *App {
	a.hooks.OnStop = cb
	return a
}

// Listener replaces the constructor of listeners, net.Listen by default.
func (a *App) Listener(constructor ListenerConstructor) *App {
	a.listen = constructor
	return a
}

// Addrs returns the addresses actually bound. It's populated before OnStart is called.
func (a *App) Addrs() []net.Addr {
	a.mu.Lock()
	defer a.mu.Unlock()

	return append([]net.Addr(nil), a.addrs...)
}

// Serve binds all the listen addresses and serves until the context is done or any
// listener fails. Once the context is done, connections are given ShutdownTimeout to end.
func (a *App) Serve(ctx context.Context) error {
	if len(a.store.Indices()) == 0 {
		return confdb.ErrNoServers
	}

	d := dispatcher.New(a.cfg, a.files, a.runner, dispatcher.NewLocker(a.cfg.Dispatch.Locking), a.logger)
	httpServer := http.NewServer(a.cfg, a.store, d, a.logger)

	servers, err := a.bind(ctx, httpServer)
	if err != nil {
		return err
	}

	callIfNotNil(a.hooks.OnStart)
	defer callIfNotNil(a.hooks.OnStop)

	g, gctx := errgroup.WithContext(ctx)
	for _, server := range servers {
		g.Go(func() error {
			if err := server.Start(); !errors.Is(err, tcp.ErrShutdown) {
				return fmt.Errorf("serve %s: %w", server.Addr(), err)
			}

			return nil
		})
	}

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdown)
		defer cancel()

		for _, server := range servers {
			_ = server.GracefulShutdown(shutdownCtx)
		}

		return nil
	})

	return g.Wait()
}

func (a *App) bind(ctx context.Context, httpServer *http.Server) ([]*tcp.Server, error) {
	var servers []*tcp.Server

	for addr, indices := range resolver.Listeners(a.store) {
		sock, err := a.listen("tcp", addr)
		if err != nil {
			for _, server := range servers {
				_ = server.Stop()
			}

			return nil, fmt.Errorf("listen %s: %w", addr, err)
		}

		a.logger.Info("listening",
			zap.String("addr", sock.Addr().String()),
			zap.Ints("servers", indices),
		)

		a.mu.Lock()
		a.addrs = append(a.addrs, sock.Addr())
		a.mu.Unlock()

		servers = append(servers, tcp.NewServer(sock, a.newTCPCallback(ctx, httpServer)))
	}

	return servers, nil
}

func (a *App) newTCPCallback(ctx context.Context, httpServer *http.Server) tcp.OnConnection {
	return func(conn net.Conn) {
		client := tcp.NewClient(
			conn,
			a.cfg.NET.ReadTimeout,
			a.cfg.NET.WriteTimeout,
			make([]byte, a.cfg.NET.ReadBufferSize),
		)

		httpServer.Run(ctx, client)
	}
}

type hooks struct {
	OnStart, OnStop func()
}

func callIfNotNil(f func()) {
	if f != nil {
		f()
	}
}
