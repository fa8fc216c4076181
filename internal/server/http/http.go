package http

import (
	"context"
	"errors"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
	"github.com/indigo-web/webserv/confdb"
	"github.com/indigo-web/webserv/config"
	"github.com/indigo-web/webserv/dispatcher"
	"github.com/indigo-web/webserv/http"
	"github.com/indigo-web/webserv/internal/parser/http1"
	"github.com/indigo-web/webserv/internal/render"
	"github.com/indigo-web/webserv/internal/strutil"
	"github.com/indigo-web/webserv/kv"
	"github.com/indigo-web/webserv/resolver"
	"go.uber.org/zap"
)

// Client is the connection as the server sees it.
type Client interface {
	Read() ([]byte, error)
	Write([]byte) (int, error)
	Remote() net.Addr
	Local() net.Addr
	Close() error
}

// Server drives HTTP/1.x connections: it parses requests, picks the virtual server,
// dispatches and writes the responses back. It's safe for concurrent use by many
// connections.
type Server struct {
	cfg            *config.Config
	store          *confdb.Store
	resolvers      map[int]*resolver.Resolver
	dispatcher     *dispatcher.Dispatcher
	logger         *zap.Logger
	defaultHeaders *kv.Storage
}

func NewServer(cfg *config.Config, store *confdb.Store, d *dispatcher.Dispatcher, logger *zap.Logger) *Server {
	resolvers := make(map[int]*resolver.Resolver)
	for _, index := range store.Indices() {
		resolvers[index] = resolver.New(store, index, cfg.Resolver.Mode)
	}

	return &Server{
		cfg:            cfg,
		store:          store,
		resolvers:      resolvers,
		dispatcher:     d,
		logger:         logger,
		defaultHeaders: kv.New().Add("Server", cfg.CGI.ServerSoftware),
	}
}

// conn is the per-connection state.
type conn struct {
	client    Client
	request   *http.Request
	parser    *http1.Parser
	engine    *render.Engine
	server    int
	effective *resolver.Effective
}

// Run serves the connection until it's closed by either side, or the context is done.
func (s *Server) Run(ctx context.Context, client Client) {
	request := http.NewRequest(kv.NewPrealloc(s.cfg.Headers.Prealloc))
	request.Env = http.Environment{
		Remote: client.Remote(),
		Local:  client.Local(),
	}

	c := &conn{
		client:  client,
		request: request,
		parser:  http1.NewParser(s.cfg, request),
		engine:  render.NewEngine(make([]byte, 0, s.cfg.NET.ReadBufferSize), s.defaultHeaders),
	}
	c.parser.SetBodyLimit(func(r *http.Request) int64 {
		s.resolve(c, r)
		return c.effective.BodyLimit()
	})

	for ctx.Err() == nil && s.handle(ctx, c) {
	}

	_ = client.Close()
}

// handle serves a single message. It returns false, when the connection must
// be closed.
func (s *Server) handle(ctx context.Context, c *conn) (ok bool) {
	result := c.parser.Parse(nil)

	for result.Outcome == http1.Pending {
		data, err := c.client.Read()
		if len(data) > 0 {
			result = c.parser.Parse(data)
			continue
		}

		if err == nil {
			continue
		}

		if !errors.Is(err, io.EOF) {
			s.logger.Debug("connection read failed", zap.Error(err))
			return false
		}

		if result = c.parser.Finish(); result.Outcome == http1.Pending {
			// the peer has closed the connection between messages
			return false
		}
	}

	start := time.Now()
	requestID := uuid.NewString()

	if result.Outcome == http1.Error {
		response := http.NewResponse().Error(result.Err).Disconnect()
		_, _ = c.engine.Write(nil, response, c.client)
		s.logger.Info("malformed request",
			zap.String("request_id", requestID),
			zap.String("remote", addrString(c.client.Remote())),
			zap.Uint16("code", uint16(response.Expose().Code)),
			zap.Error(result.Err),
		)

		return false
	}

	if c.effective == nil {
		s.resolve(c, c.request)
	}

	response := s.dispatcher.Dispatch(ctx, c.request, c.effective)
	keepAlive, err := c.engine.Write(c.request, response, c.client)

	s.logger.Info("request",
		zap.String("request_id", requestID),
		zap.Int("server", c.server),
		zap.String("method", c.request.Method),
		zap.String("target", c.request.Target),
		zap.Uint16("code", uint16(response.Expose().Code)),
		zap.Int("size", len(response.Expose().Body)),
		zap.Duration("duration", time.Since(start)),
		zap.String("remote", addrString(c.client.Remote())),
	)

	if err != nil {
		s.logger.Debug("response write failed", zap.Error(err))
		return false
	}

	if !keepAlive {
		return false
	}

	c.parser.Reset()
	c.effective = nil

	return true
}

// resolve selects the virtual server by the Host header and the local port and computes
// the effective configuration of the request.
func (s *Server) resolve(c *conn, r *http.Request) {
	var port string
	if r.Env.Local != nil {
		port = strutil.Port(r.Env.Local.String())
	}

	c.server = resolver.SelectServer(s.store, r.Headers.Value("host"), port)
	res, found := s.resolvers[c.server]
	if !found {
		res = resolver.New(s.store, c.server, s.cfg.Resolver.Mode)
	}

	c.effective = res.Resolve(resolver.CleanTarget(r.URI.Path))
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return ""
	}

	return addr.String()
}
