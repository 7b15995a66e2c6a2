// Package server implements the Server subsystem of spec.md ยง4.4's
// surrounding §7 operations: configuration, route-base ownership, the
// connections table, and the timeout sweep, wiring a reactor.Reactor
// and a net.Listener together into a runnable HTTP core.
//
// Grounded on badu-http's types_server.go (Config/defaults shape),
// server_event_emitter.go (Hooks, generalized from its channel-based
// event dispatcher to conn.Hooks's typed callback fields), and
// tcp_keep_alive_listener.go (accept-loop socket tuning).
package server

import (
	"time"

	"github.com/sy19870112/libhttp-go/conn"
	"github.com/sy19870112/libhttp-go/ehterr"
	"github.com/sy19870112/libhttp-go/hdr"
	"github.com/sy19870112/libhttp-go/message"
)

// Config carries the enumerated fields of spec.md ยง6's configuration
// surface. Every field has a default populated by DefaultConfig;
// Validate is run once by NewServer.
type Config struct {
	Limits                   message.Limits
	ReadTimeout              time.Duration
	WriteTimeout             time.Duration
	IdleTimeout              time.Duration
	MaxRequestsPerConnection int
	MaxConnections           int

	// AcceptRateLimit caps how many newly accepted sockets per second
	// are registered with the reactor; 0 disables the limiter. This is
	// connection-admission shaping, not TCP listener setup (which
	// spec.md ยง1 excludes), so it stays in scope.
	AcceptRateLimit float64
	AcceptBurst     int

	// DefaultHeaders is spec.md ยง6's `default_headers`: the least
	// specific layer of send_response's merged header set, applied to
	// every response before a route's own Options.DefaultHeaders and
	// the handler's own headers are layered on top.
	DefaultHeaders hdr.Header

	Hooks *conn.Hooks
}

// DefaultConfig returns the defaults spec.md ยง6 enumerates, carried
// from the original's http_cfg_set_defaults (see
// _examples/original_source/libhttp/cfg.c).
func DefaultConfig() Config {
	return Config{
		Limits:                   message.DefaultLimits(),
		ReadTimeout:              30 * time.Second,
		WriteTimeout:             30 * time.Second,
		IdleTimeout:              60 * time.Second,
		MaxRequestsPerConnection: 1000,
		MaxConnections:           0,
		AcceptRateLimit:          0,
		AcceptBurst:              1,
		DefaultHeaders:           hdr.Header{},
		Hooks:                    &conn.Hooks{},
	}
}

// Validate reports a configuration error as a *ehterr.Error (kind
// Protocol) rather than panicking, per spec.md ยง7: "Configuration and
// route errors are surfaced at startup as return codes."
func (c Config) Validate() error {
	switch {
	case c.Limits.MaxHeaderNameLength <= 0:
		return ehterr.New(ehterr.Protocol, "config", 0, "MaxHeaderNameLength must be positive", nil, time.Now())
	case c.Limits.MaxHeaderValueLength <= 0:
		return ehterr.New(ehterr.Protocol, "config", 0, "MaxHeaderValueLength must be positive", nil, time.Now())
	case c.Limits.MaxContentLength <= 0:
		return ehterr.New(ehterr.Protocol, "config", 0, "MaxContentLength must be positive", nil, time.Now())
	case c.Limits.MaxChunkLength <= 0:
		return ehterr.New(ehterr.Protocol, "config", 0, "MaxChunkLength must be positive", nil, time.Now())
	case c.MaxRequestsPerConnection < 0:
		return ehterr.New(ehterr.Protocol, "config", 0, "MaxRequestsPerConnection must not be negative", nil, time.Now())
	case c.AcceptRateLimit < 0:
		return ehterr.New(ehterr.Protocol, "config", 0, "AcceptRateLimit must not be negative", nil, time.Now())
	}
	return nil
}
