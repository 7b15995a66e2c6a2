package conn

import (
	"errors"
	"io"
	"strings"

	"github.com/sy19870112/libhttp-go/hdr"
	"github.com/sy19870112/libhttp-go/message"
	"github.com/sy19870112/libhttp-go/route"
)

// onReadable is the reactor's read-event callback, per spec.md ยง4.4's
// read-event handler: fill the read buffer from the socket, drive the
// parser as far as the buffered bytes allow, and dispatch every fully
// parsed message before returning control to the reactor.
func (c *Connection) onReadable() {
	c.touch()

	n, readErr := c.readBuf.Fill(c.netConn, 64*1024)
	if n > 0 {
		for {
			result := message.Parse(c.readBuf, c.parser)
			switch result {
			case message.Incomplete:
				c.readBuf.Compact()
				goto checkErr
			case message.ResultDone:
				c.handleMessageDone()
				c.mu.Lock()
				closed := c.closed || c.closing
				c.mu.Unlock()
				if closed {
					return
				}
				continue
			case message.ResultError:
				c.handleParseError()
				return
			}
		}
	}

checkErr:
	if readErr == nil {
		return
	}
	if errors.Is(readErr, io.EOF) {
		result := c.parser.EOF()
		if result == message.ResultDone {
			c.handleMessageDone()
		}
		c.Close()
		return
	}
	c.opts.Hooks.fireError(c, readErr)
	c.Close()
}

// onWritable is the reactor's write-event callback: flush whatever of
// the write buffer the socket accepts, disarm write interest once it's
// empty, and complete a pending graceful shutdown.
func (c *Connection) onWritable() {
	c.mu.Lock()
	unwritten := c.writeBuf.Unread()
	if len(unwritten) == 0 {
		closing := c.closing
		c.mu.Unlock()
		c.reactor.Disarm(c.netConn, false, true)
		if closing {
			c.Close()
		}
		return
	}
	c.mu.Unlock()

	n, err := c.netConn.Write(unwritten)
	c.mu.Lock()
	if n > 0 {
		c.writeBuf.Skip(n)
		c.writeBuf.Compact()
	}
	drained := c.writeBuf.Len() == 0
	closing := c.closing
	c.mu.Unlock()

	if err != nil {
		c.opts.Hooks.fireError(c, err)
		c.Close()
		return
	}
	if drained {
		c.reactor.Disarm(c.netConn, false, true)
		if closing {
			c.Close()
		}
	}
}

// handleMessageDone dispatches a fully parsed message. For the server
// role this means route lookup and handler invocation; the client role
// merely hands the response to whatever is waiting on it (left to the
// embedder via RequestHook, since the core has no client-side future/
// promise type of its own - spec.md scopes that out).
func (c *Connection) handleMessageDone() {
	req := c.parser.Msg
	c.opts.Hooks.fireRequestReceived(c, req)

	if c.opts.Role != RoleServer {
		c.opts.Hooks.fireRequest(c, nil, req)
		c.parser.Reset(message.KindResponse, false)
		return
	}

	c.mu.Lock()
	c.requestCount++
	count := c.requestCount
	c.keepAlive = decideKeepAlive(req, c.opts, count)
	c.currentReq = req
	c.pending = append(c.pending, &RequestInfo{
		ID: count, Method: req.Method, Path: req.URI.Path, StartedAt: req.StartedAt(),
	})
	c.mu.Unlock()

	if c.opts.Decoders != nil {
		_, _ = c.opts.Decoders.Decode(req)
	}

	c.dispatch(req)
	c.parser.Reset(message.KindRequest, false)
}

func (c *Connection) dispatch(req *message.Message) {
	c.mu.Lock()
	c.routeHeaders = nil
	c.mu.Unlock()

	if c.opts.Routes == nil {
		c.SendError(500, "no routes configured")
		return
	}

	if req.URI.Opaque == "*" {
		c.mu.Lock()
		c.keepAlive = false
		c.mu.Unlock()
		c.SendError(400, "asterisk-form request-target is not supported")
		return
	}

	matched, mismatch, ok := c.opts.Routes.Find(req.Method, req.URI.Path)
	if !ok {
		switch mismatch.Reason {
		case route.WrongMethod:
			allow := make([]string, len(mismatch.AllowedMethods))
			for i, m := range mismatch.AllowedMethods {
				allow[i] = string(m)
			}
			headers := hdr.Header{}
			headers.Set("Allow", strings.Join(allow, ", "))
			_ = c.SendResponseWithBody(405, headers, []byte("method not allowed\n"))
		default:
			c.SendError(404, "no route matches %s", req.URI.Path)
		}
		return
	}

	req.NamedParameters = matched.NamedParameters

	c.mu.Lock()
	c.routeHeaders = matched.Options.DefaultHeaders
	c.mu.Unlock()

	matched.Handler(c, req)
}

// handleParseError reports the parser's staged error and sends the
// corresponding response, per spec.md ยง4.1/ยง4.4's error semantics: a
// parse error always ends the connection, it never attempts to reuse
// the stream for a subsequent message.
func (c *Connection) handleParseError() {
	status := c.parser.StatusCode
	if status == 0 {
		status = 400
	}
	c.mu.Lock()
	c.keepAlive = false
	c.mu.Unlock()
	c.SendError(status, "%s", c.parser.ErrMsg)
}
