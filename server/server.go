package server

import (
	"context"
	"net"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/sy19870112/libhttp-go/conn"
	"github.com/sy19870112/libhttp-go/decode"
	"github.com/sy19870112/libhttp-go/message"
	"github.com/sy19870112/libhttp-go/reactor"
	"github.com/sy19870112/libhttp-go/route"
)

// Server owns a route.Base, a connections table keyed by
// conn.Connection.ID, and the accept loop feeding new sockets into a
// reactor.Reactor. It never does its own TLS, logging, or CLI parsing -
// those stay out of scope per spec.md ยง1.
type Server struct {
	cfg      Config
	routes   *route.Base
	decoders *decode.Registry
	reactor  reactor.Reactor
	limiter  *rate.Limiter

	mu          sync.Mutex
	connections map[uint64]*conn.Connection
	listener    net.Listener
	cancelSweep func()
}

// NewServer validates cfg and returns a Server ready to have routes
// added and Serve called, per spec.md ยง7's "errors surfaced at startup
// as return codes" - never panics on bad configuration.
func NewServer(cfg Config) (*Server, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Hooks == nil {
		cfg.Hooks = &conn.Hooks{}
	}
	s := &Server{
		cfg:         cfg,
		routes:      route.New(),
		decoders:    decode.NewRegistry(),
		connections: map[uint64]*conn.Connection{},
	}
	if cfg.AcceptRateLimit > 0 {
		s.limiter = rate.NewLimiter(rate.Limit(cfg.AcceptRateLimit), cfg.AcceptBurst)
	}
	return s, nil
}

// AddRoute registers a handler for method+template, per spec.md ยง4.2.
func (s *Server) AddRoute(method message.Method, template string, handler route.Handler, opts route.Options) error {
	return s.routes.Add(method, template, handler, opts)
}

// RegisterDecoder installs or replaces the decoder for a media type,
// per spec.md ยง4.3's pluggable content-decoder registry.
func (s *Server) RegisterDecoder(mediaType string, d decode.Decoder) {
	s.decoders.Register(mediaType, d)
}

// Serve starts accepting connections on l, registering each with r.
// Accept itself runs its own goroutine (a net.Listener has no
// non-blocking Accept primitive in the standard library), but every
// connection it hands off is driven exclusively through r from then
// on, preserving the single-threaded core spec.md ยง5 requires once a
// socket is registered.
func (s *Server) Serve(ctx context.Context, r reactor.Reactor, l net.Listener) error {
	s.mu.Lock()
	s.reactor = r
	s.listener = l
	s.mu.Unlock()

	s.armSweep()

	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()

	for {
		nc, err := l.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}
		if s.limiter != nil && !s.limiter.Allow() {
			_ = nc.Close()
			continue
		}
		s.registerConnection(nc)
	}
}

func (s *Server) registerConnection(nc net.Conn) {
	c := conn.New(nc, s.reactor, conn.Options{
		Role:                     conn.RoleServer,
		Limits:                   s.cfg.Limits,
		ReadTimeout:              s.cfg.ReadTimeout,
		WriteTimeout:             s.cfg.WriteTimeout,
		IdleTimeout:              s.cfg.IdleTimeout,
		MaxRequestsPerConnection: s.cfg.MaxRequestsPerConnection,
		DefaultHeaders:           s.cfg.DefaultHeaders,
		Hooks:                    s.cfg.Hooks,
		Routes:                   s.routes,
		Decoders:                 s.decoders,
	})

	s.mu.Lock()
	s.connections[c.ID()] = c
	s.mu.Unlock()

	c.Setup()
}

// unregisterConnection drops a connection from the table once it has
// closed; conn.Connection has no hook back into Server today, so
// Server's timeout sweep itself reaps closed entries instead of relying
// on a callback.
func (s *Server) unregisterConnection(id uint64) {
	s.mu.Lock()
	delete(s.connections, id)
	s.mu.Unlock()
}

// armSweep schedules the recurring timeout sweep spec.md §4.3 names
// ("a periodic timer ... iterates all connections; any connection with
// now - last_activity > connection_timeout receives send_error(408)
// and shutdown()"), independent of each connection's own idle timer so
// a connection whose reactor registration was lost is still reaped.
func (s *Server) armSweep() {
	const sweepInterval = 5 * time.Second
	s.cancelSweep = s.reactor.ScheduleTimer(sweepInterval, s.sweep)
}

func (s *Server) sweep() {
	s.mu.Lock()
	ids := make([]uint64, 0, len(s.connections))
	for id := range s.connections {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.mu.Lock()
		c, ok := s.connections[id]
		s.mu.Unlock()
		if !ok {
			continue
		}
		if c.Closed() {
			s.unregisterConnection(id)
			continue
		}
		c.CheckIdleTimeout()
	}

	s.mu.Lock()
	r := s.reactor
	s.mu.Unlock()
	if r != nil {
		s.cancelSweep = r.ScheduleTimer(5*time.Second, s.sweep)
	}
}

// Shutdown stops accepting new connections and gracefully shuts down
// every tracked connection, per spec.md ยง4.4's "shutdown" operation
// lifted to the server level.
func (s *Server) Shutdown() error {
	s.mu.Lock()
	if s.cancelSweep != nil {
		s.cancelSweep()
	}
	l := s.listener
	conns := make([]*conn.Connection, 0, len(s.connections))
	for _, c := range s.connections {
		conns = append(conns, c)
	}
	s.mu.Unlock()

	var closeErr error
	if l != nil {
		closeErr = l.Close()
	}
	for _, c := range conns {
		c.Shutdown()
	}
	return closeErr
}

// ConnectionCount reports how many connections are currently tracked,
// for diagnostics and tests.
func (s *Server) ConnectionCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.connections)
}
