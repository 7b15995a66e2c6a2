package message

import (
	"testing"

	"github.com/sy19870112/libhttp-go/buf"
)

func parseAll(t *testing.T, raw string) (*Parser, Result) {
	t.Helper()
	p := NewParser(DefaultLimits())
	b := buf.New(len(raw))
	b.Append([]byte(raw))
	return p, Parse(b, p)
}

func TestParseSimpleGET(t *testing.T) {
	p, res := parseAll(t, "GET /foo/bar?x=1 HTTP/1.1\r\nHost: example.com\r\n\r\n")
	if res != ResultDone {
		t.Fatalf("want ResultDone, got %v (status %d %q)", res, p.StatusCode, p.ErrMsg)
	}
	if p.Msg.Method != GET {
		t.Fatalf("want GET, got %v", p.Msg.Method)
	}
	if p.Msg.URI.Path != "/foo/bar" {
		t.Fatalf("want /foo/bar, got %q", p.Msg.URI.Path)
	}
	if p.Msg.Headers.Get("Host") != "example.com" {
		t.Fatalf("want Host header, got %q", p.Msg.Headers.Get("Host"))
	}
	if !p.Msg.IsComplete {
		t.Fatal("want IsComplete")
	}
}

func TestParseUnknownMethodIs501(t *testing.T) {
	p, res := parseAll(t, "FROB / HTTP/1.1\r\n\r\n")
	if res != ResultError || p.StatusCode != 501 {
		t.Fatalf("want 501 ResultError, got %v status=%d", res, p.StatusCode)
	}
}

func TestParseBadVersionIs505(t *testing.T) {
	p, res := parseAll(t, "GET / HTTP/2.0\r\n\r\n")
	if res != ResultError || p.StatusCode != 505 {
		t.Fatalf("want 505 ResultError, got %v status=%d", res, p.StatusCode)
	}
}

func TestParseIdentityBodyWithContentLength(t *testing.T) {
	raw := "POST /submit HTTP/1.1\r\nHost: h\r\nContent-Length: 5\r\n\r\nhello"
	p, res := parseAll(t, raw)
	if res != ResultDone {
		t.Fatalf("want ResultDone, got %v (%d %q)", res, p.StatusCode, p.ErrMsg)
	}
	if string(p.Msg.Body.Data) != "hello" {
		t.Fatalf("want body %q, got %q", "hello", p.Msg.Body.Data)
	}
	if p.Msg.Body.Length != 5 || p.Msg.Body.TotalLength != 5 {
		t.Fatalf("want lengths 5/5, got %d/%d", p.Msg.Body.Length, p.Msg.Body.TotalLength)
	}
}

func TestParseChunkedBody(t *testing.T) {
	raw := "POST /submit HTTP/1.1\r\nHost: h\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n"
	p, res := parseAll(t, raw)
	if res != ResultDone {
		t.Fatalf("want ResultDone, got %v (%d %q)", res, p.StatusCode, p.ErrMsg)
	}
	if string(p.Msg.Body.Data) != "Wikipedia" {
		t.Fatalf("want Wikipedia, got %q", p.Msg.Body.Data)
	}
	if !p.Msg.IsBodyChunked {
		t.Fatal("want IsBodyChunked")
	}
}

func TestParseChunkedBodyWithTrailer(t *testing.T) {
	raw := "POST /submit HTTP/1.1\r\nHost: h\r\nTransfer-Encoding: chunked\r\n\r\n" +
		"3\r\nfoo\r\n0\r\nX-Trailer: yes\r\n\r\n"
	p, res := parseAll(t, raw)
	if res != ResultDone {
		t.Fatalf("want ResultDone, got %v (%d %q)", res, p.StatusCode, p.ErrMsg)
	}
	if p.Msg.Trailers.Get("X-Trailer") != "yes" {
		t.Fatalf("want trailer value, got %q", p.Msg.Trailers.Get("X-Trailer"))
	}
	if p.Msg.Headers.Get("X-Trailer") != "yes" {
		t.Fatal("want trailer appended to main header list too")
	}
}

// TestParseByteByByte exercises Testable Property 4: feeding the same
// bytes one at a time must produce the same completed message as
// feeding them all at once.
func TestParseByteByByte(t *testing.T) {
	raw := "POST /x HTTP/1.1\r\nHost: h\r\nContent-Length: 3\r\n\r\nabc"
	p := NewParser(DefaultLimits())
	b := buf.New(0)
	var res Result
	for i := 0; i < len(raw); i++ {
		b.Append([]byte{raw[i]})
		res = Parse(b, p)
		if res == ResultError {
			t.Fatalf("unexpected error at byte %d: %d %q", i, p.StatusCode, p.ErrMsg)
		}
	}
	if res != ResultDone {
		t.Fatalf("want ResultDone after full stream, got %v", res)
	}
	if string(p.Msg.Body.Data) != "abc" {
		t.Fatalf("want abc, got %q", p.Msg.Body.Data)
	}
}

func TestParseIncompleteThenComplete(t *testing.T) {
	p := NewParser(DefaultLimits())
	b := buf.New(0)
	b.Append([]byte("GET / HTTP/1.1\r\nHost: h\r\n"))
	if res := Parse(b, p); res != Incomplete {
		t.Fatalf("want Incomplete, got %v", res)
	}
	b.Append([]byte("\r\n"))
	if res := Parse(b, p); res != ResultDone {
		t.Fatalf("want ResultDone, got %v (%d %q)", res, p.StatusCode, p.ErrMsg)
	}
}

func TestContentLengthExceedsLimitIs413(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxContentLength = 10
	p := NewParser(limits)
	b := buf.New(0)
	b.Append([]byte("POST / HTTP/1.1\r\nHost: h\r\nContent-Length: 11\r\n\r\n"))
	res := Parse(b, p)
	if res != ResultError || p.StatusCode != 413 {
		t.Fatalf("want 413 ResultError, got %v status=%d", res, p.StatusCode)
	}
}

func TestHeaderNameExceedsLimitIs431(t *testing.T) {
	limits := DefaultLimits()
	limits.MaxHeaderNameLength = 4
	p := NewParser(limits)
	b := buf.New(0)
	b.Append([]byte("GET / HTTP/1.1\r\nVeryLongHeaderName: v\r\n\r\n"))
	res := Parse(b, p)
	if res != ResultError || p.StatusCode != 431 {
		t.Fatalf("want 431 ResultError, got %v status=%d", res, p.StatusCode)
	}
}

func TestResponseUnknownLengthReadsUntilEOF(t *testing.T) {
	p := NewParser(DefaultLimits())
	p.Reset(KindResponse, false)
	b := buf.New(0)
	b.Append([]byte("HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\n\r\nhello world"))
	if res := Parse(b, p); res != Incomplete {
		t.Fatalf("want Incomplete pending EOF, got %v", res)
	}
	if res := p.EOF(); res != ResultDone {
		t.Fatalf("want ResultDone on EOF, got %v", res)
	}
	if string(p.Msg.Body.Data) != "hello world" {
		t.Fatalf("want full body, got %q", p.Msg.Body.Data)
	}
}

func TestHeadResponseForcesNoBody(t *testing.T) {
	p := NewParser(DefaultLimits())
	p.Reset(KindResponse, true)
	b := buf.New(0)
	b.Append([]byte("HTTP/1.1 200 OK\r\nContent-Length: 5\r\n\r\n"))
	res := Parse(b, p)
	if res != ResultDone {
		t.Fatalf("want ResultDone, got %v (%d %q)", res, p.StatusCode, p.ErrMsg)
	}
	if len(p.Msg.Body.Data) != 0 {
		t.Fatalf("want empty body for HEAD response, got %q", p.Msg.Body.Data)
	}
}

func TestMediaTypeParsing(t *testing.T) {
	mt := ParseMediaType(`text/html; charset=UTF-8; boundary="xyz"`)
	if mt.Base() != "text/html" {
		t.Fatalf("want text/html, got %q", mt.Base())
	}
	if mt.Params["charset"] != "UTF-8" {
		t.Fatalf("want UTF-8, got %q", mt.Params["charset"])
	}
	if mt.Params["boundary"] != "xyz" {
		t.Fatalf("want xyz, got %q", mt.Params["boundary"])
	}
}

func TestWriteRoundTrip(t *testing.T) {
	resp := NewResponse()
	resp.Version = Version11
	resp.StatusCode = 200
	resp.ReasonPhrase = "OK"
	resp.Headers.Set("Content-Type", "text/plain")
	resp.Body.Data = []byte("hi")

	out := buf.New(0)
	resp.Write(out)

	want := "HTTP/1.1 200 OK\r\nContent-Type: text/plain\r\n\r\nhi"
	if string(out.Unread()) != want {
		t.Fatalf("want %q, got %q", want, out.Unread())
	}
}
