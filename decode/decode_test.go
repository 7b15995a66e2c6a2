package decode

import (
	"testing"

	"github.com/sy19870112/libhttp-go/message"
	"github.com/sy19870112/libhttp-go/uri"
)

func TestDecodeFormURLEncoded(t *testing.T) {
	msg := message.NewRequest()
	msg.HasContentType = true
	msg.ContentType = message.ParseMediaType("application/x-www-form-urlencoded")
	msg.Body.Data = []byte("name=Jane+Doe&tag=a&tag=b")

	r := NewRegistry()
	decoded, err := r.Decode(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !decoded {
		t.Fatal("want decoded == true")
	}
	values, ok := msg.Content.(uri.Values)
	if !ok {
		t.Fatalf("want uri.Values, got %T", msg.Content)
	}
	if got := values.Get("name"); got != "Jane Doe" {
		t.Fatalf("want %q, got %q", "Jane Doe", got)
	}
	if len(values["tag"]) != 2 {
		t.Fatalf("want 2 tag values, got %v", values["tag"])
	}
}

func TestDecodeNoopWithoutRegisteredType(t *testing.T) {
	msg := message.NewRequest()
	msg.HasContentType = true
	msg.ContentType = message.ParseMediaType("application/json")
	msg.Body.Data = []byte(`{"a":1}`)

	r := NewRegistry()
	decoded, err := r.Decode(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded {
		t.Fatal("want decoded == false for an unregistered media type")
	}
	if msg.Content != nil {
		t.Fatal("want Content left untouched")
	}
}

func TestDecodeSkippedWithoutContentType(t *testing.T) {
	msg := message.NewRequest()
	msg.Body.Data = []byte("a=1")

	r := NewRegistry()
	decoded, err := r.Decode(msg)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded {
		t.Fatal("want decoded == false without a Content-Type")
	}
}
