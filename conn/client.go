package conn

import (
	"net"
	"time"

	"golang.org/x/net/proxy"

	"github.com/sy19870112/libhttp-go/ehterr"
	"github.com/sy19870112/libhttp-go/reactor"
)

// Dialer is the subset of proxy.Dialer a client-role connection needs;
// proxy.Dialer itself and proxy.FromURL both satisfy it, so callers can
// plug in a SOCKS5 proxy the same way badu-http's transport package
// dials through an injectable net.Dialer.
type Dialer interface {
	Dial(network, addr string) (net.Conn, error)
}

// Dial opens a client-role Connection to addr, optionally through
// dialer (nil means proxy.Direct, a plain net.Dial). This is the one
// client-only feature carried over from badu-http's transport layer;
// the server role never dials out to an upstream.
func Dial(addr string, dialer Dialer, r reactor.Reactor, opts Options) (*Connection, error) {
	if dialer == nil {
		dialer = proxy.Direct
	}
	nc, err := dialer.Dial("tcp", addr)
	if err != nil {
		return nil, ehterr.IOErrorf("dial", err, time.Now())
	}
	opts.Role = RoleClient
	c := New(nc, r, opts)
	c.Setup()
	return c, nil
}

// DialTimeout bounds the connect phase, since proxy.Dialer has no
// per-call timeout parameter of its own.
func DialTimeout(addr string, dialer Dialer, r reactor.Reactor, opts Options, timeout time.Duration) (*Connection, error) {
	type dialResult struct {
		c   *Connection
		err error
	}
	ch := make(chan dialResult, 1)
	go func() {
		c, err := Dial(addr, dialer, r, opts)
		ch <- dialResult{c, err}
	}()
	select {
	case res := <-ch:
		return res.c, res.err
	case <-time.After(timeout):
		return nil, ehterr.New(ehterr.Timeout, "dial", 0, "dial timed out", nil, time.Now())
	}
}
