package message

import (
	"github.com/sy19870112/libhttp-go/buf"
)

// WriteStartLine appends the request or status line, per spec.md ยง6's
// wire format.
func (m *Message) WriteStartLine(b *buf.Buffer) {
	if m.Kind == KindRequest {
		target := m.URIString
		if m.URI != nil {
			target = m.URI.RequestURI()
		}
		b.Printf("%s %s %s\r\n", m.Method, target, m.Version)
		return
	}
	reason := m.ReasonPhrase
	if reason == "" {
		reason = StatusText(m.StatusCode)
	}
	b.Printf("%s %d %s\r\n", m.Version, m.StatusCode, reason)
}

// WriteHeaders appends every header field followed by the blank line
// terminating the header section, in the teacher's sorted emit order
// (hdr.Header.WriteSubset).
func (m *Message) WriteHeaders(b *buf.Buffer) {
	m.Headers.Write(b)
	b.AppendString("\r\n")
}

// Write appends start line, headers, and a fully-buffered body (no
// chunked re-encoding) to b. Streaming responses are composed by the
// conn package directly against its write buffer instead.
func (m *Message) Write(b *buf.Buffer) {
	m.WriteStartLine(b)
	m.WriteHeaders(b)
	if len(m.Body.Data) > 0 {
		b.Append(m.Body.Data)
	}
}
