package conn

import "github.com/sy19870112/libhttp-go/message"

// Hooks are the embedder-supplied callbacks the core invokes instead of
// logging on its own, per spec.md ยง6 and grounded on badu-http's
// server_event_emitter.go: typed fields invoked positionally rather
// than one interface{}-threaded dispatch. Any field left nil is simply
// not called.
type Hooks struct {
	// ErrorHook is invoked whenever a connection-level or protocol-level
	// error occurs, after the connection has decided how to respond (or
	// that it cannot).
	ErrorHook func(c *Connection, err error)
	// TraceHook receives free-form diagnostic strings (state
	// transitions, timeout sweeps), useful for embedders wiring their
	// own structured logger in front of it.
	TraceHook func(c *Connection, msg string)
	// RequestReceivedHook fires once a request has fully parsed,
	// before route dispatch.
	RequestReceivedHook func(c *Connection, req *message.Message)
	// RequestHook fires once per completed exchange, for access-log
	// style embedders. On a server-role connection it fires from
	// FinishResponse with the request and a nil resp; on a client-role
	// connection it fires when a response has parsed, with a nil req
	// and the response as resp.
	RequestHook func(c *Connection, req, resp *message.Message)
	// ErrorSender, if set, replaces the default plain-text error body
	// composed by SendError.
	ErrorSender func(c *Connection, status int, err error)
}

func (h *Hooks) fireError(c *Connection, err error) {
	if h != nil && h.ErrorHook != nil {
		h.ErrorHook(c, err)
	}
}

func (h *Hooks) fireTrace(c *Connection, msg string) {
	if h != nil && h.TraceHook != nil {
		h.TraceHook(c, msg)
	}
}

func (h *Hooks) fireRequestReceived(c *Connection, req *message.Message) {
	if h != nil && h.RequestReceivedHook != nil {
		h.RequestReceivedHook(c, req)
	}
}

func (h *Hooks) fireRequest(c *Connection, req, resp *message.Message) {
	if h != nil && h.RequestHook != nil {
		h.RequestHook(c, req, resp)
	}
}
