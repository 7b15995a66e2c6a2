package message

import (
	"strconv"
	"strings"

	"github.com/sy19870112/libhttp-go/buf"
	"github.com/sy19870112/libhttp-go/hdr"
)

// parseHeaderField consumes one "name: value" CRLF-terminated line, or
// the blank CRLF terminating the header section, per spec.md ยง4.1.
func (p *Parser) parseHeaderField(b *buf.Buffer) Result {
	// Peek for an immediate CRLF (empty line) without consuming, so a
	// too-short buffer correctly reports Incomplete rather than a false
	// "line read".
	if c0, ok0 := b.PeekAt(0); ok0 && c0 == '\r' {
		if c1, ok1 := b.PeekAt(1); ok1 {
			if c1 == '\n' {
				b.Skip(2)
				return p.endHeaderSection()
			}
			return p.fail(400, "malformed header line terminator")
		}
		return Incomplete
	}

	// Reject obsolete line folding: a continuation line beginning with
	// SP/HTAB. Since each call starts at a line boundary, a leading
	// fold byte here means the previous header's value was improperly
	// continued.
	if c0, ok0 := b.PeekAt(0); ok0 && (c0 == ' ' || c0 == '\t') {
		return p.fail(400, "obsolete line folding is not supported")
	}

	line, ok := nextLine(b)
	if !ok {
		if b.Len() > p.Limits.MaxHeaderNameLength+p.Limits.MaxHeaderValueLength+4 {
			return p.fail(431, "header line exceeds configured limits")
		}
		return Incomplete
	}

	colon := strings.IndexByte(string(line), ':')
	if colon < 0 {
		return p.fail(400, "header line missing colon")
	}
	name := string(line[:colon])
	value := string(line[colon+1:])

	if len(name) > p.Limits.MaxHeaderNameLength {
		return p.fail(431, "header name exceeds %d bytes", p.Limits.MaxHeaderNameLength)
	}
	value = hdr.TrimString(value)
	if len(value) > p.Limits.MaxHeaderValueLength {
		return p.fail(431, "header value exceeds %d bytes", p.Limits.MaxHeaderValueLength)
	}
	if !hdr.ValidHeaderFieldName(name) {
		return p.fail(400, "invalid header field name %q", name)
	}
	if !hdr.ValidHeaderFieldValue(value) {
		return p.fail(400, "invalid header field value")
	}

	p.Msg.Headers.Add(name, value)
	return statusOK
}

// endHeaderSection runs the header post-processing step exactly once
// (spec.md ยง9's resolved open question) and decides the Body/Done
// transition.
func (p *Parser) endHeaderSection() Result {
	if r := p.postProcessHeaders(); r != statusOK {
		return r
	}

	if p.ForceNoBody || !p.Msg.CanHaveBody() {
		p.Msg.IsComplete = true
		p.State = Done
		return statusOK
	}

	if p.Msg.IsBodyChunked {
		p.State = Body
		p.chPhase = chunkPhaseSize
		return statusOK
	}

	if p.Msg.HasContentLength {
		p.bodyRemaining = p.Msg.ContentLength
		p.State = Body
		return statusOK
	}

	// Unknown length. A request with neither Content-Length nor chunked
	// coding has no body; only a response is read until the peer closes
	// (spec.md ยง4.1 Body->Done identity-coding clause).
	if p.Msg.Kind == KindRequest {
		p.Msg.IsComplete = true
		p.State = Done
		return statusOK
	}
	p.unboundedBody = true
	p.State = Body
	return statusOK
}

func (p *Parser) postProcessHeaders() Result {
	h := p.Msg.Headers

	if te := h.Get(hdr.TransferEncoding); te != "" {
		for _, tok := range strings.Split(te, ",") {
			if strings.EqualFold(strings.TrimSpace(tok), "chunked") {
				p.Msg.IsBodyChunked = true
			}
		}
	}

	if !p.Msg.IsBodyChunked {
		if cls := h[hdr.ContentLength]; len(cls) > 0 {
			first := strings.TrimSpace(cls[0])
			for _, v := range cls[1:] {
				if strings.TrimSpace(v) != first {
					return p.fail(400, "conflicting Content-Length values")
				}
			}
			n, err := strconv.ParseUint(first, 10, 63)
			if err != nil {
				return p.fail(400, "malformed Content-Length")
			}
			if int64(n) > p.Limits.MaxContentLength {
				return p.fail(413, "Content-Length %d exceeds limit %d", n, p.Limits.MaxContentLength)
			}
			p.Msg.ContentLength = int64(n)
			p.Msg.HasContentLength = true
		}
	}

	if ct := h.Get(hdr.ContentType); ct != "" {
		p.Msg.ContentType = ParseMediaType(ct)
		p.Msg.HasContentType = true
	}

	p.Msg.ConnectionOptions = ConnNone
	for _, tok := range strings.Split(h.Get(hdr.Connection), ",") {
		switch strings.ToLower(strings.TrimSpace(tok)) {
		case "keep-alive":
			p.Msg.ConnectionOptions |= ConnKeepAlive
		case "close":
			p.Msg.ConnectionOptions |= ConnClose
		}
	}

	if p.Msg.Kind == KindRequest {
		if strings.EqualFold(h.Get(hdr.Expect), "100-continue") {
			p.Msg.Expects100Continue = true
		}
		if rng := h.Get("Range"); rng != "" {
			ranges, err := parseRangeHeader(rng)
			if err != nil {
				return p.fail(400, "malformed Range header: %v", err)
			}
			p.Msg.Ranges = ranges
		}
	}

	p.bufferizeFull = decideBufferization(p.Limits, p.Msg)
	p.Msg.IsBufferized = p.bufferizeFull
	return statusOK
}

// decideBufferization resolves spec.md ยง4.1's Auto/Full/None policy.
// Auto keeps the body in Msg.Body for chunked, unknown-length and
// in-limit Content-Length messages alike; a Content-Length over the
// limit has already failed with 413 in postProcessHeaders.
func decideBufferization(l Limits, m *Message) bool {
	switch l.Bufferization {
	case Full:
		return true
	case None:
		return false
	default: // Auto
		if m.IsBodyChunked {
			return true
		}
		if m.HasContentLength {
			return m.ContentLength <= l.MaxContentLength
		}
		return true
	}
}
