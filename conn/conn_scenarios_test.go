package conn

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/sy19870112/libhttp-go/hdr"
	"github.com/sy19870112/libhttp-go/message"
	"github.com/sy19870112/libhttp-go/route"
)

// pumpUntil drives the stub reactor's registered callbacks for server
// until either got produces a non-empty read or the deadline passes,
// returning whatever bytes client received.
func pumpUntil(t *testing.T, r *stubReactor, server net.Conn, client net.Conn, deadline time.Duration) string {
	t.Helper()
	out := make(chan string, 1)
	go func() {
		buf := make([]byte, 8192)
		n, _ := client.Read(buf)
		out <- string(buf[:n])
	}()

	stop := time.After(deadline)
	for {
		select {
		case got := <-out:
			return got
		case <-stop:
			t.Fatal("no response observed before deadline")
			return ""
		default:
			if cb, ok := r.readCb[server]; ok {
				cb()
			}
			if cb, ok := r.writeCb[server]; ok {
				cb()
			}
			time.Sleep(time.Millisecond)
		}
	}
}

func newScenarioConn(t *testing.T, routes *route.Base, limits message.Limits) (*Connection, *stubReactor, net.Conn, net.Conn) {
	t.Helper()
	server, client := net.Pipe()
	r := newStubReactor()
	c := New(server, r, Options{
		Role:   RoleServer,
		Limits: limits,
		Routes: routes,
		Hooks:  &Hooks{},
	})
	c.Setup()
	return c, r, server, client
}

// TestScenarioSimpleGet is spec.md's S1.
func TestScenarioSimpleGet(t *testing.T) {
	routes := route.New()
	var gotMethod message.Method
	var gotPath string
	_ = routes.Add(message.GET, "/x", func(w route.ResponseWriter, req *message.Message) {
		gotMethod, gotPath = req.Method, req.URI.Path
		_ = w.SendResponse(200, nil)
		w.(*Connection).FinishResponse()
	}, route.Options{})

	c, r, server, client := newScenarioConn(t, routes, message.DefaultLimits())
	defer client.Close()

	go client.Write([]byte("GET /x HTTP/1.1\r\nHost: h\r\n\r\n"))
	got := pumpUntil(t, r, server, client, 2*time.Second)

	if gotMethod != message.GET || gotPath != "/x" {
		t.Fatalf("want GET /x, got %v %q", gotMethod, gotPath)
	}
	if !strings.HasPrefix(got, "HTTP/1.1 200") {
		t.Fatalf("want 200 status line, got %q", got)
	}
	if c.Closed() {
		t.Fatal("want connection to stay open after a keep-alive response")
	}
}

// TestScenarioBodyDelivered is spec.md's S2.
func TestScenarioBodyDelivered(t *testing.T) {
	routes := route.New()
	var gotBody string
	_ = routes.Add(message.POST, "/y", func(w route.ResponseWriter, req *message.Message) {
		gotBody = string(req.Body.Data)
		_ = w.SendResponse(200, nil)
		w.(*Connection).FinishResponse()
	}, route.Options{})

	_, r, server, client := newScenarioConn(t, routes, message.DefaultLimits())
	defer client.Close()

	go client.Write([]byte("POST /y HTTP/1.1\r\nHost: h\r\nContent-Length: 5\r\n\r\nhello"))
	pumpUntil(t, r, server, client, 2*time.Second)

	if gotBody != "hello" {
		t.Fatalf("want body %q, got %q", "hello", gotBody)
	}
}

// TestScenarioContentLengthOverLimit is spec.md's S3.
func TestScenarioContentLengthOverLimit(t *testing.T) {
	limits := message.DefaultLimits()
	limits.MaxContentLength = 16_000_000

	routes := route.New()
	_ = routes.Add(message.GET, "/z", func(w route.ResponseWriter, req *message.Message) {
		t.Fatal("handler should never run when Content-Length exceeds the limit")
	}, route.Options{})

	c, r, server, client := newScenarioConn(t, routes, limits)
	defer client.Close()

	go client.Write([]byte("GET /z HTTP/1.1\r\nHost: h\r\nContent-Length: 999999999\r\n\r\n"))
	got := pumpUntil(t, r, server, client, 2*time.Second)

	if !strings.HasPrefix(got, "HTTP/1.1 413") {
		t.Fatalf("want 413 status line, got %q", got)
	}

	deadline := time.After(2 * time.Second)
	for !c.Closed() {
		select {
		case <-deadline:
			t.Fatal("want connection to shut down after a 413")
		default:
			if cb, ok := r.writeCb[server]; ok {
				cb()
			}
			time.Sleep(time.Millisecond)
		}
	}
}

// TestScenarioNamedParameter is spec.md's S4.
func TestScenarioNamedParameter(t *testing.T) {
	routes := route.New()
	var gotID string
	_ = routes.Add(message.GET, "/users/:id", func(w route.ResponseWriter, req *message.Message) {
		gotID = req.NamedParameters["id"]
		_ = w.SendResponse(200, nil)
		w.(*Connection).FinishResponse()
	}, route.Options{})

	_, r, server, client := newScenarioConn(t, routes, message.DefaultLimits())
	defer client.Close()

	go client.Write([]byte("GET /users/42 HTTP/1.1\r\nHost: h\r\n\r\n"))
	pumpUntil(t, r, server, client, 2*time.Second)

	if gotID != "42" {
		t.Fatalf("want named param id=42, got %q", gotID)
	}
}

// TestScenarioWrongMethodReportsAllow is spec.md's S5.
func TestScenarioWrongMethodReportsAllow(t *testing.T) {
	routes := route.New()
	_ = routes.Add(message.GET, "/a", func(w route.ResponseWriter, req *message.Message) {}, route.Options{})
	_ = routes.Add(message.POST, "/a", func(w route.ResponseWriter, req *message.Message) {}, route.Options{})

	_, r, server, client := newScenarioConn(t, routes, message.DefaultLimits())
	defer client.Close()

	go client.Write([]byte("PUT /a HTTP/1.1\r\nHost: h\r\n\r\n"))
	got := pumpUntil(t, r, server, client, 2*time.Second)

	if !strings.HasPrefix(got, "HTTP/1.1 405") {
		t.Fatalf("want 405 status line, got %q", got)
	}
	if !strings.Contains(got, "Allow: GET, POST") && !strings.Contains(got, "Allow: POST, GET") {
		t.Fatalf("want an Allow header listing GET and POST, got %q", got)
	}
}

// TestScenarioChunkedBody is spec.md's S6.
func TestScenarioChunkedBody(t *testing.T) {
	routes := route.New()
	var gotBody string
	var gotLen int
	_ = routes.Add(message.GET, "/", func(w route.ResponseWriter, req *message.Message) {
		gotBody = string(req.Body.Data)
		gotLen = int(req.Body.Length)
		_ = w.SendResponse(200, hdr.Header{})
		w.(*Connection).FinishResponse()
	}, route.Options{})

	_, r, server, client := newScenarioConn(t, routes, message.DefaultLimits())
	defer client.Close()

	go client.Write([]byte("GET / HTTP/1.1\r\nHost: h\r\nTransfer-Encoding: chunked\r\n\r\n5\r\nhello\r\n0\r\n\r\n"))
	pumpUntil(t, r, server, client, 2*time.Second)

	if gotBody != "hello" || gotLen != 5 {
		t.Fatalf("want body hello (len 5), got %q (len %d)", gotBody, gotLen)
	}
}

// TestScenarioAsteriskTargetRejectedRegardlessOfMethod is spec.md ยง4.3's
// asterisk-form rule: any method against "*" gets 400 and the connection
// closes, not just OPTIONS.
func TestScenarioAsteriskTargetRejectedRegardlessOfMethod(t *testing.T) {
	routes := route.New()
	_, r, server, client := newScenarioConn(t, routes, message.DefaultLimits())
	defer client.Close()

	go client.Write([]byte("GET * HTTP/1.1\r\nHost: h\r\n\r\n"))
	got := pumpUntil(t, r, server, client, 2*time.Second)

	if !strings.HasPrefix(got, "HTTP/1.1 400") {
		t.Fatalf("want 400 status line for GET *, got %q", got)
	}
	if !strings.Contains(strings.ToLower(got), "connection: close") {
		t.Fatalf("want the response to carry Connection: close, got %q", got)
	}
}

// TestScenarioDefaultHeadersMergeMostSpecificWins exercises spec.md
// ยง4.3's "merged header set (defaults from config + route + caller)":
// a header set only by config should appear, one set by both route and
// config should take the route's value, and one set by the handler
// itself should win over both.
func TestScenarioDefaultHeadersMergeMostSpecificWins(t *testing.T) {
	routes := route.New()
	_ = routes.Add(message.GET, "/", func(w route.ResponseWriter, req *message.Message) {
		headers := hdr.Header{}
		headers.Set("X-App", "handler")
		_ = w.SendResponse(200, headers)
		w.(*Connection).FinishResponse()
	}, route.Options{DefaultHeaders: hdr.Header{
		"X-App":   {"route"},
		"X-Route": {"route-only"},
	}})

	server, client := net.Pipe()
	defer client.Close()

	r := newStubReactor()
	c := New(server, r, Options{
		Role:   RoleServer,
		Limits: message.DefaultLimits(),
		Routes: routes,
		Hooks:  &Hooks{},
		DefaultHeaders: hdr.Header{
			"X-App":    {"config"},
			"X-Route":  {"config-only"},
			"X-Config": {"config-only"},
		},
	})
	c.Setup()

	go client.Write([]byte("GET / HTTP/1.1\r\nHost: h\r\n\r\n"))
	got := pumpUntil(t, r, server, client, 2*time.Second)

	if !strings.Contains(got, "X-App: handler") {
		t.Fatalf("want the handler's own header to win, got %q", got)
	}
	if !strings.Contains(got, "X-Route: route-only") {
		t.Fatalf("want the route default to win over the config default, got %q", got)
	}
	if !strings.Contains(got, "X-Config: config-only") {
		t.Fatalf("want an unshadowed config default to pass through, got %q", got)
	}
}
