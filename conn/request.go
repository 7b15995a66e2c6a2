package conn

import (
	"strconv"

	"github.com/sy19870112/libhttp-go/hdr"
	"github.com/sy19870112/libhttp-go/message"
	"github.com/sy19870112/libhttp-go/uri"
)

// SendRequest is the client-role counterpart of SendResponse: it
// composes a request line and header block for target (an
// origin-form path, e.g. "/users/42"), and arms write interest so the
// reactor flushes it. The caller streams a body through Write, then
// calls FinishResponse to close the request out and prime the parser
// for the reply - the same two-step shape SendResponse/FinishResponse
// uses on the server side, since both directions drive the identical
// state machine.
func (c *Connection) SendRequest(method message.Method, target string, headers hdr.Header) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendRequestLocked(method, target, headers, -1)
}

func (c *Connection) sendRequestLocked(method message.Method, target string, headers hdr.Header, contentLength int64) error {
	parsed, err := uri.Parse(target)
	if err != nil {
		return err
	}

	req := message.NewRequest()
	req.Method = method
	req.URIString = target
	req.URI = parsed
	req.Version = message.Version11
	if headers != nil {
		req.Headers.CopyFromHeader(headers)
	}

	c.chunkedOut = false
	switch {
	case contentLength >= 0:
		req.Headers.Set(hdr.ContentLength, strconv.FormatInt(contentLength, 10))
	default:
		req.Headers.Set(hdr.TransferEncoding, "chunked")
		c.chunkedOut = true
	}
	if req.Headers.Get(hdr.Host) == "" && parsed.Host != "" {
		req.Headers.Set(hdr.Host, parsed.Host)
	}

	req.WriteStartLine(c.writeBuf)
	req.WriteHeaders(c.writeBuf)
	c.headerWritten = true
	c.reactor.RegisterWrite(c.netConn, c.onWritable)
	return nil
}

// SendRequestWithBody is SendRequest plus a fully-buffered body and the
// trailing FinishResponse step in one call, for a client that already
// has the whole request body in hand.
func (c *Connection) SendRequestWithBody(method message.Method, target string, headers hdr.Header, body []byte) error {
	c.mu.Lock()
	err := c.sendRequestLocked(method, target, headers, int64(len(body)))
	if err == nil {
		c.writeBodyLocked(body)
	}
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.finishOutboundLocked()
	return nil
}

// finishOutboundLocked is FinishResponse's client-role counterpart: it
// emits the terminating chunk if the request went out chunked and
// resets per-message state without touching the keep-alive/pending-
// queue bookkeeping that only applies to the server role driving
// pipelined requests from a peer.
func (c *Connection) finishOutboundLocked() {
	c.mu.Lock()
	if c.chunkedOut {
		c.writeBuf.AppendString("0\r\n\r\n")
	}
	c.headerWritten = false
	c.chunkedOut = false
	c.mu.Unlock()
	c.reactor.RegisterWrite(c.netConn, c.onWritable)
}
