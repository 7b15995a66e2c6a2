package conn

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/sy19870112/libhttp-go/message"
	"github.com/sy19870112/libhttp-go/route"
)

// TestIdleTimeoutSends408ThenShutsDown is spec.md's Testable Property 8:
// a connection quiet past its configured idle timeout gets a 408
// response, not a silent close.
func TestIdleTimeoutSends408ThenShutsDown(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	r := newStubReactor()
	c := New(server, r, Options{
		Role:        RoleServer,
		Limits:      message.DefaultLimits(),
		IdleTimeout: time.Millisecond,
		Routes:      route.New(),
		Hooks:       &Hooks{},
	})
	c.Setup()

	c.mu.Lock()
	c.lastActivity = time.Now().Add(-time.Hour)
	c.mu.Unlock()

	if r.lastTimer == nil {
		t.Fatal("want an idle timer scheduled by Setup")
	}

	r.lastTimer()
	got := pumpUntil(t, r, server, client, 2*time.Second)

	if !strings.HasPrefix(got, "HTTP/1.1 408") {
		t.Fatalf("want a 408 status line, got %q", got)
	}
	if !c.Closed() {
		t.Fatal("want the connection closed once the 408 has drained")
	}
}

// TestCheckIdleTimeoutIsNoopWhenRecentlyActive confirms the sweep-driven
// path leaves an active connection alone.
func TestCheckIdleTimeoutIsNoopWhenRecentlyActive(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	r := newStubReactor()
	c := New(server, r, Options{
		Role:        RoleServer,
		Limits:      message.DefaultLimits(),
		IdleTimeout: time.Hour,
		Routes:      route.New(),
		Hooks:       &Hooks{},
	})
	c.Setup()

	c.CheckIdleTimeout()

	if c.Closed() {
		t.Fatal("want a recently active connection to stay open")
	}
}
