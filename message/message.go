// Package message implements the Message Parser subsystem of spec.md
// ยง4.1: an incremental state machine that consumes bytes from a buf.Buffer
// and produces a Message, never blocking and never doing its own I/O.
//
// It is grounded on badu-http's request.go/response.go/types_transfer.go
// (header post-processing order, chunked-coding state shape,
// bufferization-by-config idea) generalized into one discriminated
// Message type per spec.md ยง3, since spec.md models requests and
// responses as one Message rather than badu-http's separate *Request /
// *Response types.
package message

import (
	"time"

	"github.com/sy19870112/libhttp-go/hdr"
	"github.com/sy19870112/libhttp-go/uri"
)

// Kind discriminates a Message as a request or a response.
type Kind int

const (
	KindRequest Kind = iota
	KindResponse
)

// Method is one of the six methods spec.md ยง3 enumerates; the parser
// recognizes no others (ยง4.1: "unknown -> 501 Not Implemented").
type Method string

const (
	GET     Method = "GET"
	POST    Method = "POST"
	HEAD    Method = "HEAD"
	PUT     Method = "PUT"
	DELETE  Method = "DELETE"
	OPTIONS Method = "OPTIONS"
)

var methods = map[string]Method{
	"GET": GET, "POST": POST, "HEAD": HEAD, "PUT": PUT, "DELETE": DELETE, "OPTIONS": OPTIONS,
}

// Version is the HTTP protocol version, restricted to 1.0 and 1.1 per
// spec.md ยง4.1.
type Version struct {
	Major, Minor int
}

var (
	Version10 = Version{1, 0}
	Version11 = Version{1, 1}
)

func (v Version) String() string {
	if v.Major == 1 && v.Minor == 1 {
		return "HTTP/1.1"
	}
	if v.Major == 1 && v.Minor == 0 {
		return "HTTP/1.0"
	}
	return "HTTP/0.0"
}

func (v Version) AtLeast(other Version) bool {
	if v.Major != other.Major {
		return v.Major > other.Major
	}
	return v.Minor >= other.Minor
}

// ConnectionOptions is the bitset parsed from the Connection header.
type ConnectionOptions uint8

const (
	ConnNone      ConnectionOptions = 0
	ConnKeepAlive ConnectionOptions = 1 << iota
	ConnClose
)

func (c ConnectionOptions) Has(opt ConnectionOptions) bool { return c&opt != 0 }

// MediaType is a parsed Content-Type: base type/subtype plus parameters,
// per spec.md ยง4.1 "Parse Content-Type into a media type with parameters."
type MediaType struct {
	Type, Subtype string
	Params        map[string]string
}

// Base returns "type/subtype" for matching against a content decoder
// registry entry.
func (m MediaType) Base() string {
	if m.Type == "" && m.Subtype == "" {
		return ""
	}
	return m.Type + "/" + m.Subtype
}

// ByteRange is one range parsed out of a Range header.
type ByteRange struct {
	Start, End int64 // End == -1 means "to the end"
	Suffix     bool  // "-N" suffix-length form; Start holds N, End is unused
}

// MessageBody holds whatever of the message body has been received so far.
type MessageBody struct {
	Data        []byte
	Length      int64 // bytes currently held in Data
	TotalLength int64 // cumulative bytes observed, across chunks, even if not retained
}

// Message is spec.md ยง3's discriminated Message: one struct, gated by
// Kind, carrying every field either role ever populates.
type Message struct {
	Kind Kind

	// Common fields.
	Version           Version
	Headers           hdr.Header
	Trailers          hdr.Header
	Body              MessageBody
	IsBufferized      bool
	IsComplete        bool
	Aborted           bool
	IsBodyChunked     bool
	ContentType       MediaType
	HasContentType    bool
	ContentLength     int64
	HasContentLength  bool
	ConnectionOptions ConnectionOptions
	Content           any // decoded body, set by a registered decode.Decoder

	// Request-only fields.
	Method            Method
	URIString         string
	URI               *uri.URI
	NamedParameters   map[string]string
	Expects100Continue bool
	Ranges            []ByteRange

	// Response-only fields.
	StatusCode   int
	ReasonPhrase string

	startedAt time.Time
}

// NewRequest returns a fresh, empty request Message.
func NewRequest() *Message {
	return &Message{Kind: KindRequest, Headers: hdr.Header{}, Trailers: hdr.Header{}, startedAt: now()}
}

// NewResponse returns a fresh, empty response Message.
func NewResponse() *Message {
	return &Message{Kind: KindResponse, Headers: hdr.Header{}, Trailers: hdr.Header{}, startedAt: now()}
}

// StartedAt reports when this Message was allocated by Reset, used for
// RequestInfo bookkeeping and request-duration diagnostics.
func (m *Message) StartedAt() time.Time { return m.startedAt }

// CanHaveBody reports whether this message's start line and headers
// permit a body at all, per spec.md ยง4.1's header post-processing step.
func (m *Message) CanHaveBody() bool {
	if m.Kind == KindRequest {
		switch m.Method {
		case GET, HEAD, DELETE:
			return m.IsBodyChunked || m.HasContentLength
		default:
			return true
		}
	}
	// Response.
	if m.StatusCode >= 100 && m.StatusCode < 200 {
		return false
	}
	switch m.StatusCode {
	case 204, 304:
		return false
	}
	return true
}
