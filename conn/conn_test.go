package conn

import (
	"net"
	"testing"
	"time"

	"github.com/sy19870112/libhttp-go/message"
	"github.com/sy19870112/libhttp-go/route"
)

// stubReactor is a synchronous, no-op Reactor sufficient for driving a
// Connection's callbacks directly from a test instead of through a
// real event loop.
type stubReactor struct {
	readCb, writeCb map[net.Conn]func()
	lastTimer       func()
}

func newStubReactor() *stubReactor {
	return &stubReactor{readCb: map[net.Conn]func(){}, writeCb: map[net.Conn]func(){}}
}

func (r *stubReactor) RegisterRead(c net.Conn, cb func())  { r.readCb[c] = cb }
func (r *stubReactor) RegisterWrite(c net.Conn, cb func()) { r.writeCb[c] = cb }
func (r *stubReactor) Disarm(c net.Conn, read, write bool) {
	if read {
		delete(r.readCb, c)
	}
	if write {
		delete(r.writeCb, c)
	}
}
func (r *stubReactor) ScheduleTimer(d time.Duration, cb func()) (cancel func()) {
	r.lastTimer = cb
	return func() { r.lastTimer = nil }
}
func (r *stubReactor) Close() error { return nil }

func TestConnectionDispatchesToRoute(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()

	routes := route.New()
	handled := make(chan struct{}, 1)
	_ = routes.Add(message.GET, "/hello/:name", func(w route.ResponseWriter, req *message.Message) {
		if req.NamedParameters["name"] != "world" {
			t.Errorf("want name=world, got %v", req.NamedParameters)
		}
		_ = w.SendResponse(200, nil)
		handled <- struct{}{}
	}, route.Options{})

	r := newStubReactor()
	c := New(server, r, Options{
		Role:   RoleServer,
		Limits: message.DefaultLimits(),
		Routes: routes,
		Hooks:  &Hooks{},
	})
	c.Setup()

	go func() {
		client.Write([]byte("GET /hello/world HTTP/1.1\r\nHost: h\r\n\r\n"))
	}()

	// Drive the read callback until the handler fires.
	deadline := time.After(2 * time.Second)
	for {
		select {
		case <-handled:
			return
		case <-deadline:
			t.Fatal("handler never ran")
		default:
			if cb, ok := r.readCb[server]; ok {
				cb()
			}
			time.Sleep(time.Millisecond)
		}
	}
}

func TestConnectionSendsNotFound(t *testing.T) {
	server, client := net.Pipe()
	defer client.Close()
	defer server.Close()

	r := newStubReactor()
	c := New(server, r, Options{
		Role:   RoleServer,
		Limits: message.DefaultLimits(),
		Routes: route.New(),
		Hooks:  &Hooks{},
	})
	c.Setup()

	go func() {
		client.Write([]byte("GET /missing HTTP/1.1\r\nHost: h\r\n\r\n"))
	}()

	readDone := make(chan []byte, 1)
	go func() {
		buf := make([]byte, 4096)
		n, _ := client.Read(buf)
		readDone <- buf[:n]
	}()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-readDone:
			if len(got) == 0 {
				t.Fatal("want a response")
			}
			if string(got[:15]) != "HTTP/1.1 404 No" {
				t.Fatalf("want 404 response, got %q", got)
			}
			return
		case <-deadline:
			t.Fatal("no response received")
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

func TestDecideKeepAlive(t *testing.T) {
	req := message.NewRequest()
	req.Version = message.Version11
	if !decideKeepAlive(req, Options{}, 1) {
		t.Fatal("want keep-alive by default on HTTP/1.1")
	}

	req.ConnectionOptions = message.ConnClose
	if decideKeepAlive(req, Options{}, 1) {
		t.Fatal("want close honored on HTTP/1.1")
	}

	req10 := message.NewRequest()
	req10.Version = message.Version10
	if decideKeepAlive(req10, Options{}, 1) {
		t.Fatal("want close by default on HTTP/1.0")
	}
	req10.ConnectionOptions = message.ConnKeepAlive
	if !decideKeepAlive(req10, Options{}, 1) {
		t.Fatal("want keep-alive honored on HTTP/1.0")
	}

	req.ConnectionOptions = message.ConnNone
	if decideKeepAlive(req, Options{MaxRequestsPerConnection: 1}, 1) {
		t.Fatal("want close once the per-connection request cap is reached")
	}
}
