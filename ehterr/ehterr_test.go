package ehterr

import (
	"errors"
	"testing"
	"time"
)

func TestErrorMessageComposition(t *testing.T) {
	cause := errors.New("boom")
	e := New(IO, "write", 0, "socket write failed", cause, time.Unix(0, 0))
	want := "[io] write: socket write failed: boom"
	if got := e.Error(); got != want {
		t.Fatalf("want %q, got %q", want, got)
	}
}

func TestUnwrapExposesCause(t *testing.T) {
	cause := errors.New("boom")
	e := New(Timeout, "op", 0, "msg", cause, time.Now())
	if !errors.Is(e, cause) {
		t.Fatal("want errors.Is to find the wrapped cause")
	}
}

func TestIsComparesByKind(t *testing.T) {
	a := New(Timeout, "a", 0, "", nil, time.Now())
	b := New(Timeout, "b", 0, "different message", nil, time.Now())
	c := New(IO, "c", 0, "", nil, time.Now())

	if !errors.Is(a, b) {
		t.Fatal("want two Timeout errors to be Is-equal regardless of message")
	}
	if errors.Is(a, c) {
		t.Fatal("want a Timeout error not to be Is-equal to an IO error")
	}
}

func TestProtocolfCarriesStatus(t *testing.T) {
	e := Protocolf(400, time.Now(), "bad %s", "request")
	if e.Status != 400 {
		t.Fatalf("want status 400, got %d", e.Status)
	}
	if e.Kind != Protocol {
		t.Fatalf("want Protocol kind, got %v", e.Kind)
	}
	if e.Message != "bad request" {
		t.Fatalf("want formatted message, got %q", e.Message)
	}
}
