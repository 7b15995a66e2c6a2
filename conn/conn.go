// Package conn implements the Connection subsystem of spec.md ยง4.4: the
// per-socket state machine driving one Message Parser, a read buffer, a
// write buffer, and the keep-alive/timeout/pipelining bookkeeping a
// reactor calls into on readability, writability, and timer events.
//
// Grounded on badu-http/conn.go (the conn type's buffered-reader/writer
// pairing and per-request bookkeeping) and badu-http/timeout_handler.go
// (deadline-driven request lifecycle), generalized from blocking
// goroutine-per-connection I/O to the non-blocking, externally-driven
// model spec.md ยง2/ยง5 requires.
package conn

import (
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sy19870112/libhttp-go/buf"
	"github.com/sy19870112/libhttp-go/decode"
	"github.com/sy19870112/libhttp-go/hdr"
	"github.com/sy19870112/libhttp-go/message"
	"github.com/sy19870112/libhttp-go/reactor"
	"github.com/sy19870112/libhttp-go/route"
)

// Role distinguishes a server-accepted connection from a client-dialed
// one, per spec.md ยง3's "Connection is role-aware {server, client}".
type Role int

const (
	RoleServer Role = iota
	RoleClient
)

// Options configures a Connection. Server and client construction sites
// build this from their own Config type; conn itself stays ignorant of
// Config to avoid an import cycle with the server package.
type Options struct {
	Role                     Role
	Limits                   message.Limits
	ReadTimeout              time.Duration
	WriteTimeout             time.Duration
	IdleTimeout              time.Duration
	MaxRequestsPerConnection int // 0 means unlimited
	DefaultHeaders           hdr.Header // server.Config's least-specific header layer
	Hooks                    *Hooks
	Routes                   *route.Base     // server role only
	Decoders                 *decode.Registry // optional; nil disables body decoding
}

var nextConnID uint64

// Connection is one accepted or dialed socket driving request/response
// traffic through a single message.Parser, per spec.md ยง4.4.
type Connection struct {
	id      uint64
	opts    Options
	netConn net.Conn
	reactor reactor.Reactor

	mu       sync.Mutex
	readBuf  *buf.Buffer
	writeBuf *buf.Buffer
	parser   *message.Parser

	pending      []*RequestInfo
	requestCount uint64

	headerWritten bool
	closing       bool
	closed        bool
	keepAlive     bool
	chunkedOut    bool
	suppressBody  bool
	currentReq    *message.Message
	routeHeaders  hdr.Header // matched route's Options.DefaultHeaders, valid only while dispatching

	lastActivity time.Time
	cancelIdle   func()
}

// New wires a Connection around an already-accepted or already-dialed
// net.Conn and primes its parser; Setup then registers it for read
// events. The caller (server or client dial path) owns deciding when
// to call New versus pooling the socket for reuse.
func New(netConn net.Conn, r reactor.Reactor, opts Options) *Connection {
	c := &Connection{
		id:           atomic.AddUint64(&nextConnID, 1),
		opts:         opts,
		netConn:      netConn,
		reactor:      r,
		readBuf:      buf.New(4096),
		writeBuf:     buf.New(0),
		lastActivity: time.Now(),
	}
	kind := message.KindRequest
	if opts.Role == RoleClient {
		kind = message.KindResponse
	}
	c.parser = message.NewParser(opts.Limits)
	c.parser.Reset(kind, false)
	return c
}

// ID is the connection's process-lifetime-unique identifier, used by
// Server to key its connections table.
func (c *Connection) ID() uint64 { return c.id }

// Closed reports whether the connection has already torn its socket
// down, used by Server's timeout sweep to reap stale table entries.
func (c *Connection) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}

// Requests reports how many messages this connection has completed,
// the original C library's per-connection request counter
// (connection.c), carried here read-only for diagnostics/TraceHook
// consumers.
func (c *Connection) Requests() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.requestCount
}

// Setup arms the connection for its first read and schedules its idle
// timeout, per spec.md ยง4.4's "setup" operation.
func (c *Connection) Setup() {
	c.reactor.RegisterRead(c.netConn, c.onReadable)
	c.armIdleTimer()
	c.opts.Hooks.fireTrace(c, "connection established")
}

func (c *Connection) armIdleTimer() {
	if c.cancelIdle != nil {
		c.cancelIdle()
		c.cancelIdle = nil
	}
	if c.opts.IdleTimeout <= 0 {
		return
	}
	c.cancelIdle = c.reactor.ScheduleTimer(c.opts.IdleTimeout, c.onIdleTimeout)
}

func (c *Connection) touch() {
	c.mu.Lock()
	c.lastActivity = time.Now()
	c.mu.Unlock()
	c.armIdleTimer()
}

// CheckIdleTimeout applies spec.md §4.3's timeout sweep action to this
// connection if it has gone quiet for longer than its configured idle
// timeout. Safe to call repeatedly — from the connection's own idle
// timer and from Server's periodic sweep alike: once the 408/shutdown
// has fired, the connection is closing (and later closed), so later
// calls are no-ops. A zero IdleTimeout disables the check.
func (c *Connection) CheckIdleTimeout() {
	c.onIdleTimeout()
}

// onIdleTimeout is spec.md §4.3's timeout sweep action applied to a
// single connection: a 408 response, then a graceful shutdown rather
// than an abrupt close, so the response has a chance to reach the peer.
func (c *Connection) onIdleTimeout() {
	c.mu.Lock()
	idle := time.Since(c.lastActivity)
	closed := c.closed
	closing := c.closing
	c.mu.Unlock()
	if closed || closing || c.opts.IdleTimeout <= 0 || idle < c.opts.IdleTimeout {
		return
	}
	c.opts.Hooks.fireTrace(c, "idle timeout")
	c.mu.Lock()
	c.keepAlive = false
	c.mu.Unlock()
	c.SendError(408, "connection idle for %s", idle)
}

// Shutdown requests a graceful close: finish writing whatever is
// queued, then close, without accepting further reads. This is
// spec.md ยง4.4's "shutdown" operation (distinct from the abrupt
// "close").
func (c *Connection) Shutdown() {
	c.mu.Lock()
	c.closing = true
	drained := c.writeBuf.Len() == 0
	c.mu.Unlock()
	c.reactor.Disarm(c.netConn, true, false)
	if drained {
		c.Close()
	}
}

// Close tears the connection down immediately: cancels its timer,
// unregisters it from the reactor, and closes the socket. Safe to call
// more than once.
func (c *Connection) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	if c.cancelIdle != nil {
		c.cancelIdle()
		c.cancelIdle = nil
	}
	c.mu.Unlock()

	c.reactor.Disarm(c.netConn, true, true)
	_ = c.netConn.Close()
	c.opts.Hooks.fireTrace(c, "connection closed")
}

// Write implements route.ResponseWriter and io.Writer: it appends raw
// bytes to the outgoing buffer and arms write interest. Callers must
// have already started a response via SendResponse before streaming a
// body through Write, matching badu-http's header-then-body ordering.
func (c *Connection) Write(p []byte) (int, error) {
	c.mu.Lock()
	if !c.headerWritten {
		c.mu.Unlock()
		return 0, &writeBeforeHeaderError{}
	}
	c.writeBodyLocked(p)
	c.mu.Unlock()
	c.reactor.RegisterWrite(c.netConn, c.onWritable)
	return len(p), nil
}

type writeBeforeHeaderError struct{}

func (*writeBeforeHeaderError) Error() string {
	return "conn: Write called before SendResponse started a response"
}

// Headers is a convenience constructor for callers composing a
// response map without importing hdr directly.
func Headers() hdr.Header { return hdr.Header{} }
