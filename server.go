package connector

import (
	"net"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/indigo-web/connector/config"
	"github.com/indigo-web/connector/http"
	"github.com/indigo-web/connector/http/method"
	"github.com/indigo-web/connector/http/status"
	"github.com/indigo-web/connector/internal/address"
	"github.com/indigo-web/connector/internal/convert"
	"github.com/indigo-web/connector/internal/protocol/http1"
	"github.com/indigo-web/connector/transport"
	"github.com/rs/zerolog"
)

type State uint32

const (
	Stopped State = iota
	Listening
)

func (s State) String() string {
	if s == Listening {
		return "LISTENING"
	}

	return "STOPPED"
}

// Server is the HTTP/1.x stream server connector. Every accepted connection serves
// exactly one exchange and is closed afterwards.
//
// A server is meant to be served once. Stopping it before Serve is called makes Serve
// return immediately.
type Server struct {
	addr    string
	cfg     *config.Config
	logger  zerolog.Logger
	handler http.Handler
	hooks   hooks

	mu         sync.Mutex
	state      atomic.Uint32
	stopped    bool
	supervisor *transport.Supervisor
}

// New returns a new server, which will listen on the address. A missing host means all
// interfaces, e.g. ":8080".
func New(addr string) *Server {
	return &Server{
		addr:    address.Normalize(addr),
		cfg:     config.Default(),
		logger:  zerolog.New(os.Stderr).With().Timestamp().Str("connector", "http").Logger(),
		handler: notFound,
	}
}

// Tune replaces the default config. Nil keeps the current one.
func (s *Server) Tune(cfg *config.Config) *Server {
	if cfg != nil {
		s.cfg = cfg
	}

	return s
}

// Logger replaces the default logger, which writes to stderr.
func (s *Server) Logger(logger zerolog.Logger) *Server {
	s.logger = logger
	return s
}

// Handle sets the handler all the requests are passed to.
func (s *Server) Handle(handler http.Handler) *Server {
	s.handler = handler
	return s
}

// NotifyOnStart calls the callback at the moment, when the server is bound. It's able to
// accept new connections since then.
func (s *Server) NotifyOnStart(cb func()) *Server {
	s.hooks.OnStart = cb
	return s
}

// NotifyOnStop calls the callback at the moment, when the server doesn't accept new
// connections anymore and the connections being served are done or abandoned.
func (s *Server) NotifyOnStop(cb func()) *Server {
	s.hooks.OnStop = cb
	return s
}

func (s *Server) State() State {
	return State(s.state.Load())
}

// Addr returns the address the server is bound to, or nil if it isn't listening.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.supervisor == nil {
		return nil
	}

	return s.supervisor.Addrs()[0]
}

// Serve binds the address and serves the connections until Stop is called or the
// listener fails.
func (s *Server) Serve() error {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil
	}

	supervisor := transport.NewSupervisor(s.logger)
	if err := supervisor.Add(s.addr, transport.NewTCP(), s.serveConn); err != nil {
		s.mu.Unlock()
		return err
	}

	s.supervisor = supervisor
	s.state.Store(uint32(Listening))
	s.mu.Unlock()

	s.logger.Info().Stringer("addr", supervisor.Addrs()[0]).Int("workers", s.cfg.NET.Workers).Msg("listening")
	callIfNotNil(s.hooks.OnStart)

	err := supervisor.Run(s.cfg.NET)
	s.state.Store(uint32(Stopped))

	if err != nil {
		s.logger.Error().Err(err).Msg("listener failed")
	} else {
		s.logger.Info().Msg("stopped")
	}

	callIfNotNil(s.hooks.OnStop)

	return err
}

// Stop stops accepting new connections and waits for those being served, but no longer
// than config.NET.StopTimeout. It's safe to call it multiple times.
func (s *Server) Stop() {
	s.mu.Lock()
	s.stopped = true
	supervisor := s.supervisor
	s.mu.Unlock()

	if supervisor != nil {
		supervisor.Stop()
	}
}

func (s *Server) serveConn(conn net.Conn) {
	logger := s.logger.With().Stringer("remote", conn.RemoteAddr()).Logger()
	client := transport.NewClient(conn, s.cfg.NET.ReadTimeout, make([]byte, s.cfg.NET.ReadBufferSize))
	call := http1.NewServerCall(client, s.cfg)

	conv := convert.NewServerConverter(s.cfg, logger)

	if err := call.ReadRequest(); err != nil {
		logFailure(logger, err, "can't read the request")
		if call.HeadRead() {
			// the head itself is fine, so the client is able to understand the refusal
			if err = conv.Commit(call, http.NewResponse(nil).Error(err)); err != nil {
				logFailure(logger, err, "can't send the response")
			}
		}

		return
	}

	req := conv.ToRequest(call)
	defer req.Entity.Release()

	var resp *http.Response
	if req.Method == method.Unknown {
		logger.Debug().Str("method", call.RawMethod()).Msg("method is not implemented")
		resp = http.NewResponse(req).Error(status.ErrMethodNotImplemented)
	} else {
		resp = s.invoke(logger, req)
	}

	if err := conv.Commit(call, resp); err != nil {
		logFailure(logger, err, "can't send the response")
	}
}

// invoke calls the handler, isolating its panics from the rest of the server.
func (s *Server) invoke(logger zerolog.Logger, req *http.Request) (resp *http.Response) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error().
				Interface("panic", r).
				Bytes("stack", debug.Stack()).
				Str("uri", req.URI).
				Msg("handler panicked")

			resp = http.NewResponse(req).Error(status.ErrInternalServerError)
		}
	}()

	resp = s.handler(req)
	if resp == nil {
		resp = http.NewResponse(req)
	}

	if resp.Request == nil {
		resp.Request = req
	}

	return resp
}

// logFailure logs broken connections at the debug level, as those are a normal part of
// the connection lifecycle.
func logFailure(logger zerolog.Logger, err error, msg string) {
	event := logger.Warn()
	if http1.IsConnectionBroken(err) {
		event = logger.Debug()
	}

	event.Err(err).Msg(msg)
}

func notFound(req *http.Request) *http.Response {
	return http.NewResponse(req).Error(status.ErrNotFound)
}

type hooks struct {
	OnStart, OnStop func()
}

func callIfNotNil(f func()) {
	if f != nil {
		f()
	}
}
