package conn

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/sy19870112/libhttp-go/hdr"
	"github.com/sy19870112/libhttp-go/message"
)

// SendResponse starts a response: status, version, and the given
// headers (plus Date and Connection, which this method always
// controls) are queued, and the caller is free to stream the body
// through successive Write calls followed by FinishResponse. This is
// spec.md ยง4.4's "send_response" operation.
func (c *Connection) SendResponse(status int, headers hdr.Header) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendResponseLocked(status, headers, -1)
}

// sendResponseLocked composes and appends the status line and headers.
// contentLength of -1 means "unknown ahead of time"; the response then
// goes out chunked on HTTP/1.1 or force-closes on HTTP/1.0 (identity
// coding has no other way to signal end-of-body to an HTTP/1.0 peer).
func (c *Connection) sendResponseLocked(status int, headers hdr.Header, contentLength int64) error {
	version := message.Version11
	if c.currentReq != nil {
		version = c.currentReq.Version
	}

	resp := message.NewResponse()
	resp.Version = version
	resp.StatusCode = status
	resp.ReasonPhrase = message.StatusText(status)
	if headers != nil {
		resp.Headers.CopyFromHeader(headers)
	}
	// Merged header set, most specific to least, per spec.md ยง4.3: the
	// caller's own headers (already copied above) win outright; a
	// matched route's Options.DefaultHeaders fills whatever the caller
	// left unset; server.Config's DefaultHeaders fills what's left.
	resp.Headers.MergeDefaults(c.routeHeaders)
	resp.Headers.MergeDefaults(c.opts.DefaultHeaders)
	resp.Headers.Set(hdr.Date, time.Now().UTC().Format(time.RFC1123))

	keepAlive := c.keepAlive
	c.chunkedOut = false
	switch {
	case contentLength >= 0:
		resp.Headers.Set(hdr.ContentLength, strconv.FormatInt(contentLength, 10))
	case version.AtLeast(message.Version11):
		resp.Headers.Set(hdr.TransferEncoding, "chunked")
		c.chunkedOut = true
	default:
		keepAlive = false
	}

	if keepAlive {
		resp.Headers.Set(hdr.Connection, "keep-alive")
	} else {
		resp.Headers.Set(hdr.Connection, "close")
	}
	c.keepAlive = keepAlive

	headNoBody := c.currentReq != nil && c.currentReq.Method == message.HEAD
	c.suppressBody = headNoBody || status == 204 || status == 304 || (status >= 100 && status < 200)

	resp.WriteStartLine(c.writeBuf)
	resp.WriteHeaders(c.writeBuf)
	c.headerWritten = true
	c.reactor.RegisterWrite(c.netConn, c.onWritable)
	return nil
}

// writeBodyLocked appends body bytes, chunk-framing them when the
// response went out with Transfer-Encoding: chunked.
func (c *Connection) writeBodyLocked(p []byte) {
	if c.suppressBody || len(p) == 0 {
		return
	}
	if c.chunkedOut {
		c.writeBuf.AppendString(fmt.Sprintf("%x\r\n", len(p)))
		c.writeBuf.Append(p)
		c.writeBuf.AppendString("\r\n")
		return
	}
	c.writeBuf.Append(p)
}

// FinishResponse closes out the current response (emitting the
// terminating chunk if chunked) and either leaves the connection open
// for its next pipelined request or begins a graceful shutdown, per the
// keep-alive decision SendResponse made. On a client-role connection it
// closes out the outgoing request instead (see finishOutboundLocked).
func (c *Connection) FinishResponse() {
	if c.opts.Role == RoleClient && c.parser.State != message.Error {
		c.finishOutboundLocked()
		return
	}
	c.mu.Lock()
	if c.chunkedOut {
		c.writeBuf.AppendString("0\r\n\r\n")
	}
	keepAlive := c.keepAlive
	c.headerWritten = false
	c.chunkedOut = false
	c.suppressBody = false
	req := c.currentReq
	c.currentReq = nil
	c.routeHeaders = nil
	if len(c.pending) > 0 {
		c.pending = c.pending[1:]
	}
	c.mu.Unlock()

	c.opts.Hooks.fireRequest(c, req, nil)
	c.reactor.RegisterWrite(c.netConn, c.onWritable)

	if !keepAlive {
		c.Shutdown()
	}
}

// SendResponseWithBody is spec.md ยง4.4's "send_response_with_body":
// SendResponse with a known Content-Length, followed by the full body
// and FinishResponse in one call.
func (c *Connection) SendResponseWithBody(status int, headers hdr.Header, body []byte) error {
	c.mu.Lock()
	err := c.sendResponseLocked(status, headers, int64(len(body)))
	if err == nil {
		c.writeBodyLocked(body)
	}
	c.mu.Unlock()
	if err != nil {
		return err
	}
	c.FinishResponse()
	return nil
}

// SendResponseWithFile is spec.md ยง4.4's "send_response_with_file":
// serves path as the body, honoring a single byte range from the
// paired request's Range header (multiple ranges fall back to serving
// the whole file - multipart/byteranges composition is not
// implemented, a deliberate scope trim noted in the design ledger).
func (c *Connection) SendResponseWithFile(status int, headers hdr.Header, path string) error {
	f, err := os.Open(path)
	if err != nil {
		c.SendError(404, "%v", err)
		return err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		c.SendError(500, "%v", err)
		return err
	}
	size := info.Size()

	var ranges []message.ByteRange
	if c.currentReq != nil {
		ranges = c.currentReq.Ranges
	}

	if len(ranges) == 1 {
		start, end, ok := resolveRange(ranges[0], size)
		if !ok {
			if headers == nil {
				headers = hdr.Header{}
			}
			headers.Set("Content-Range", fmt.Sprintf("bytes */%d", size))
			return c.SendResponseWithBody(416, headers, nil)
		}
		buf := make([]byte, end-start+1)
		if _, err := f.ReadAt(buf, start); err != nil {
			c.SendError(500, "%v", err)
			return err
		}
		if headers == nil {
			headers = hdr.Header{}
		}
		headers.Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
		return c.SendResponseWithBody(206, headers, buf)
	}

	data := make([]byte, size)
	if _, err := f.ReadAt(data, 0); err != nil {
		c.SendError(500, "%v", err)
		return err
	}
	return c.SendResponseWithBody(status, headers, data)
}

func resolveRange(r message.ByteRange, size int64) (start, end int64, ok bool) {
	if r.Suffix {
		if r.Start > size {
			r.Start = size
		}
		return size - r.Start, size - 1, r.Start > 0
	}
	start = r.Start
	end = r.End
	if end < 0 || end >= size {
		end = size - 1
	}
	if start < 0 || start > end || start >= size {
		return 0, 0, false
	}
	return start, end, true
}

// SendError composes a minimal text/plain error body and fires
// ErrorHook, per spec.md ยง7. Hooks.ErrorSender, if set, takes over the
// wire-composition step entirely.
func (c *Connection) SendError(status int, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	c.opts.Hooks.fireError(c, fmt.Errorf("%d: %s", status, msg))
	if c.opts.Hooks != nil && c.opts.Hooks.ErrorSender != nil {
		c.opts.Hooks.ErrorSender(c, status, errors.New(msg))
		return
	}
	headers := hdr.Header{}
	headers.Set(hdr.ContentType, "text/plain; charset=utf-8")
	_ = c.SendResponseWithBody(status, headers, []byte(msg+"\n"))
}
