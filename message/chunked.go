package message

import (
	"strconv"
	"strings"

	"github.com/sy19870112/libhttp-go/buf"
)

// parseChunkedBody implements spec.md ยง4.1's Body->Trailer chunked-coding
// transitions: repeatedly "HEX-SIZE [;ext] CRLF DATA CRLF", a zero-sized
// chunk transitioning to Trailer.
func (p *Parser) parseChunkedBody(b *buf.Buffer) Result {
	switch p.chPhase {
	case chunkPhaseSize:
		line, ok := nextLine(b)
		if !ok {
			if b.Len() > 64 {
				return p.fail(400, "malformed chunk size line")
			}
			return Incomplete
		}
		sizeStr := string(line)
		if i := strings.IndexByte(sizeStr, ';'); i >= 0 {
			sizeStr = sizeStr[:i]
		}
		sizeStr = strings.TrimSpace(sizeStr)
		size, err := strconv.ParseInt(sizeStr, 16, 64)
		if err != nil || size < 0 {
			return p.fail(400, "malformed chunk size %q", sizeStr)
		}
		if size > p.Limits.MaxChunkLength {
			return p.fail(413, "chunk size %d exceeds limit %d", size, p.Limits.MaxChunkLength)
		}
		if size == 0 {
			p.State = Trailer
			return statusOK
		}
		p.chunkRemaining = size
		p.chPhase = chunkPhaseData
		return statusOK

	case chunkPhaseData:
		avail := int64(b.Len())
		if avail == 0 {
			return Incomplete
		}
		take := avail
		if take > p.chunkRemaining {
			take = p.chunkRemaining
		}
		p.appendBody(b.Unread()[:take])
		b.Skip(int(take))
		p.chunkRemaining -= take
		if p.chunkRemaining == 0 {
			p.chPhase = chunkPhaseDataCRLF
		}
		return statusOK

	case chunkPhaseDataCRLF:
		if b.Len() < 2 {
			return Incomplete
		}
		c0, _ := b.PeekAt(0)
		c1, _ := b.PeekAt(1)
		if c0 != '\r' || c1 != '\n' {
			return p.fail(400, "malformed chunk terminator")
		}
		b.Skip(2)
		p.chPhase = chunkPhaseSize
		return statusOK

	default:
		return p.fail(400, "invalid chunk parser state")
	}
}

// parseTrailer implements spec.md ยง4.1's Trailer->Done transition:
// optional trailer headers terminated by an empty CRLF, appended to the
// message's header list without re-running post-processing.
func (p *Parser) parseTrailer(b *buf.Buffer) Result {
	if c0, ok0 := b.PeekAt(0); ok0 && c0 == '\r' {
		if c1, ok1 := b.PeekAt(1); ok1 {
			if c1 == '\n' {
				b.Skip(2)
				p.Msg.IsComplete = true
				p.State = Done
				return statusOK
			}
			return p.fail(400, "malformed trailer terminator")
		}
		return Incomplete
	}

	line, ok := nextLine(b)
	if !ok {
		if b.Len() > p.Limits.MaxHeaderNameLength+p.Limits.MaxHeaderValueLength+4 {
			return p.fail(431, "trailer header exceeds configured limits")
		}
		return Incomplete
	}
	colon := strings.IndexByte(string(line), ':')
	if colon < 0 {
		return p.fail(400, "trailer header missing colon")
	}
	name := string(line[:colon])
	value := strings.TrimSpace(string(line[colon+1:]))
	if len(name) > p.Limits.MaxHeaderNameLength || len(value) > p.Limits.MaxHeaderValueLength {
		return p.fail(431, "trailer header exceeds configured limits")
	}
	p.Msg.Trailers.Add(name, value)
	p.Msg.Headers.Add(name, value)
	return statusOK
}
