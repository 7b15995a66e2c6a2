package conn

import (
	"net"
	"strings"
	"testing"
	"time"

	"github.com/sy19870112/libhttp-go/hdr"
	"github.com/sy19870112/libhttp-go/message"
)

func TestSendRequestWithBodyComposesWireFormat(t *testing.T) {
	server, client := net.Pipe()
	defer server.Close()
	defer client.Close()

	r := newStubReactor()
	c := New(client, r, Options{
		Role:   RoleClient,
		Limits: message.DefaultLimits(),
		Hooks:  &Hooks{},
	})

	headers := hdr.Header{}
	headers.Set(hdr.Host, "example.test")

	readDone := make(chan string, 1)
	go func() {
		buf := make([]byte, 4096)
		n, _ := server.Read(buf)
		readDone <- string(buf[:n])
	}()

	if err := c.SendRequestWithBody(message.POST, "/submit", headers, []byte("hello")); err != nil {
		t.Fatalf("SendRequestWithBody: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case got := <-readDone:
			if !strings.HasPrefix(got, "POST /submit HTTP/1.1\r\n") {
				t.Fatalf("want a POST request line, got %q", got)
			}
			if !strings.Contains(got, "Content-Length: 5") {
				t.Fatalf("want Content-Length: 5, got %q", got)
			}
			if !strings.HasSuffix(got, "hello") {
				t.Fatalf("want body hello, got %q", got)
			}
			return
		case <-deadline:
			t.Fatal("server side never received the request")
		default:
			if cb, ok := r.writeCb[client]; ok {
				cb()
			}
			time.Sleep(time.Millisecond)
		}
	}
}
