// Package decode implements the Content Decoder subsystem of spec.md
// ยง4.3: a registry mapping a media type to a Decoder that turns a
// fully-bufferized message body into a structured Content value.
//
// Grounded on badu-http's mime package's extension/type lookup-table
// shape, generalized to a decoder registry since spec.md asks for
// pluggable body decoding rather than fixed MIME sniffing.
package decode

import (
	"fmt"

	"github.com/sy19870112/libhttp-go/message"
)

// Decoder turns a message's buffered body into a structured value. A
// Decoder must not mutate msg; it is handed the message read-only so
// concurrent decoders (if ever run speculatively) cannot race.
type Decoder interface {
	Decode(msg *message.Message) (any, error)
}

// DecoderFunc adapts a plain function to a Decoder.
type DecoderFunc func(msg *message.Message) (any, error)

func (f DecoderFunc) Decode(msg *message.Message) (any, error) { return f(msg) }

// Registry maps a base media type ("type/subtype") to the Decoder
// responsible for it.
type Registry struct {
	decoders map[string]Decoder
}

// NewRegistry returns a Registry pre-populated with the one decoder
// spec.md ยง4.3 requires out of the box.
func NewRegistry() *Registry {
	r := &Registry{decoders: map[string]Decoder{}}
	r.Register("application/x-www-form-urlencoded", DecoderFunc(decodeFormURLEncoded))
	return r
}

// Register installs or replaces the Decoder for a base media type.
func (r *Registry) Register(mediaType string, d Decoder) {
	r.decoders[mediaType] = d
}

// Decode looks up msg's Content-Type in the registry and, if found, runs
// the decoder and stores the result in msg.Content. It is a no-op
// (returns false, nil) when no decoder is registered for the type, so
// callers can tell "not decoded" apart from "decoded with a nil value."
func (r *Registry) Decode(msg *message.Message) (bool, error) {
	if !msg.HasContentType {
		return false, nil
	}
	d, ok := r.decoders[msg.ContentType.Base()]
	if !ok {
		return false, nil
	}
	content, err := d.Decode(msg)
	if err != nil {
		return false, fmt.Errorf("decode %s: %w", msg.ContentType.Base(), err)
	}
	msg.Content = content
	return true, nil
}

// decodeFormURLEncoded implements spec.md ยง4.3's required built-in:
// application/x-www-form-urlencoded bodies decode to a name->values
// mapping with repeatable keys and percent-decoded values, the same
// semantics as a query string.
func decodeFormURLEncoded(msg *message.Message) (any, error) {
	return parseFormBody(string(msg.Body.Data))
}
