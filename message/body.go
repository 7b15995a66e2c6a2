package message

import "github.com/sy19870112/libhttp-go/buf"

// parseBody advances identity-coding or chunked-coding body reading,
// per spec.md ยง4.1's Body state.
func (p *Parser) parseBody(b *buf.Buffer) Result {
	if p.Msg.IsBodyChunked {
		return p.parseChunkedBody(b)
	}
	return p.parseIdentityBody(b)
}

func (p *Parser) parseIdentityBody(b *buf.Buffer) Result {
	if p.unboundedBody {
		// Unknown length: consume everything buffered; Done is only
		// reached via EOF (spec.md ยง4.1).
		n := b.Len()
		if n == 0 {
			return Incomplete
		}
		p.appendBody(b.Unread())
		b.Skip(n)
		return Incomplete
	}

	if p.bodyRemaining == 0 {
		p.Msg.IsComplete = true
		p.State = Done
		return statusOK
	}

	avail := int64(b.Len())
	if avail == 0 {
		return Incomplete
	}
	take := avail
	if take > p.bodyRemaining {
		take = p.bodyRemaining
	}
	p.appendBody(b.Unread()[:take])
	b.Skip(int(take))
	p.bodyRemaining -= take

	if p.bodyRemaining == 0 {
		p.Msg.IsComplete = true
		p.State = Done
		return statusOK
	}
	return Incomplete
}

// appendBody records n new body bytes, honoring the bufferization
// decision (spec.md ยง4.1): buffered messages keep the bytes in Msg.Body,
// streamed ones hand them to OnBodyChunk and only track lengths.
func (p *Parser) appendBody(chunk []byte) {
	p.Msg.Body.TotalLength += int64(len(chunk))
	if p.bufferizeFull {
		p.Msg.Body.Data = append(p.Msg.Body.Data, chunk...)
		p.Msg.Body.Length += int64(len(chunk))
		return
	}
	if p.OnBodyChunk != nil && len(chunk) > 0 {
		cp := make([]byte, len(chunk))
		copy(cp, chunk)
		p.OnBodyChunk(cp)
	}
}
