// Package libhttp is the embeddable HTTP/1.0+1.1 core: an incremental
// message parser, a path-template route matcher, a per-connection state
// machine, and a minimal server/reactor pairing to drive them, built
// around a single-threaded, non-blocking event loop rather than Go's
// usual goroutine-per-connection model.
//
// This file re-exports the handful of types an embedder touches most
// often, the way WhileEndless-go-rawhttp/rawhttp.go flattens its own
// pkg/* subpackages into one top-level surface.
package libhttp

import (
	"context"
	"net"
	"time"

	"github.com/sy19870112/libhttp-go/conn"
	"github.com/sy19870112/libhttp-go/decode"
	"github.com/sy19870112/libhttp-go/ehterr"
	"github.com/sy19870112/libhttp-go/message"
	"github.com/sy19870112/libhttp-go/reactor"
	"github.com/sy19870112/libhttp-go/route"
	"github.com/sy19870112/libhttp-go/server"
)

// Version identifies this module, a nod to the C original it distills.
const Version = "1.0.0"

// Re-exported types, so a typical embedder only imports this package.
type (
	// Message is the single discriminated request/response type every
	// component of the core produces and consumes.
	Message = message.Message
	// Method is one of the six methods the parser recognizes.
	Method = message.Method
	// Config is the Server's configuration surface.
	Config = server.Config
	// Server owns the route base, the connections table, and the
	// accept loop feeding a Reactor.
	Server = server.Server
	// Connection is one accepted or dialed socket's state machine.
	Connection = conn.Connection
	// Hooks are the embedder-supplied observability callbacks.
	Hooks = conn.Hooks
	// Handler processes a matched request.
	Handler = route.Handler
	// RouteOptions carries per-route knobs such as default headers.
	RouteOptions = route.Options
	// Reactor is the non-blocking I/O and timer multiplexer a Server
	// drives connections through.
	Reactor = reactor.Reactor
	// Error is the structured error value the core returns instead of
	// a thread-local error buffer.
	Error = ehterr.Error
	// Decoder turns a buffered message body into a structured value.
	Decoder = decode.Decoder
	// ClientOptions configures a dialed, client-role Connection.
	ClientOptions = conn.Options
	// ProxyDialer is the dial hook a client Connection can be routed
	// through, satisfied by golang.org/x/net/proxy.Dialer (including
	// proxy.FromURL's SOCKS5 dialer).
	ProxyDialer = conn.Dialer
)

const (
	GET     = message.GET
	POST    = message.POST
	HEAD    = message.HEAD
	PUT     = message.PUT
	DELETE  = message.DELETE
	OPTIONS = message.OPTIONS
)

// DefaultConfig returns the documented defaults for every Config field.
func DefaultConfig() Config { return server.DefaultConfig() }

// NewServer validates cfg and returns a ready-to-configure Server.
func NewServer(cfg Config) (*Server, error) { return server.NewServer(cfg) }

// NewLoop returns the reference Reactor implementation, suitable for
// running the core standalone without an embedder supplying its own
// event loop.
func NewLoop() *reactor.Loop { return reactor.NewLoop(0) }

// DialClient opens a client-role Connection to addr, optionally through
// a proxy.Dialer, driven by r. A nil dialer dials addr directly.
func DialClient(addr string, dialer ProxyDialer, r Reactor, opts ClientOptions) (*Connection, error) {
	return conn.Dial(addr, dialer, r, opts)
}

// DialClientTimeout is DialClient bounded by a connect timeout.
func DialClientTimeout(addr string, dialer ProxyDialer, r Reactor, opts ClientOptions, timeout time.Duration) (*Connection, error) {
	return conn.DialTimeout(addr, dialer, r, opts, timeout)
}

// ListenAndServe is a convenience wiring Listen, NewLoop, and
// Server.Serve together for the common case of running the core
// against a plain TCP listener.
func ListenAndServe(ctx context.Context, addr string, cfg Config, configure func(*Server) error) error {
	srv, err := NewServer(cfg)
	if err != nil {
		return err
	}
	if configure != nil {
		if err := configure(srv); err != nil {
			return err
		}
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	loop := NewLoop()
	defer loop.Close()
	return srv.Serve(ctx, loop, l)
}
