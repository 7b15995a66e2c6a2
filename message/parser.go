package message

import (
	"fmt"
	"time"

	"github.com/sy19870112/libhttp-go/buf"
)

// ParserState is spec.md ยง3's ParserState enum.
type ParserState int

const (
	Start ParserState = iota
	Header
	Body
	Trailer
	Error
	Done
)

// Result is the outcome of one Parse call, per spec.md ยง4.1's contract.
type Result int

const (
	Incomplete Result = iota
	ResultDone
	ResultError
)

// Bufferization is the policy governing whether the parser accumulates
// the whole body before reporting Done (spec.md ยง4.1).
type Bufferization int

const (
	Auto Bufferization = iota
	Full
	None
)

// Limits mirrors the size-limit fields of spec.md ยง6's Config that the
// parser itself must enforce.
type Limits struct {
	MaxRequestURILength   int
	MaxReasonPhraseLength int
	MaxHeaderNameLength   int
	MaxHeaderValueLength  int
	MaxContentLength      int64
	MaxChunkLength        int64
	Bufferization         Bufferization
}

// DefaultLimits returns the defaults enumerated in spec.md ยง6.
func DefaultLimits() Limits {
	return Limits{
		MaxRequestURILength:   2048,
		MaxReasonPhraseLength: 4096,
		MaxHeaderNameLength:   128,
		MaxHeaderValueLength:  4096,
		MaxContentLength:      16_000_000,
		MaxChunkLength:        1_000_000,
		Bufferization:         Auto,
	}
}

type chunkPhase int

const (
	chunkPhaseSize chunkPhase = iota
	chunkPhaseData
	chunkPhaseDataCRLF
)

// Parser drives one Message's incremental construction out of a
// buf.Buffer, per spec.md ยง4.1. It holds no reference to any socket or
// connection; Parse never blocks.
type Parser struct {
	Msg    *Message
	State  ParserState
	Limits Limits

	// Staged error outcome, valid only once State == Error.
	StatusCode int
	ErrMsg     string

	// ForceNoBody is set by Reset when the caller (the Connection,
	// which alone knows the paired request) knows this response is to
	// a HEAD request and therefore never carries a body regardless of
	// Content-Length/Transfer-Encoding.
	ForceNoBody bool

	// OnBodyChunk is invoked with each newly received body slice when
	// Bufferization resolves to None, so a streaming handler can drain
	// the body without the parser retaining it in Msg.Body.Data.
	OnBodyChunk func([]byte)

	bodyRemaining  int64
	unboundedBody  bool
	bufferizeFull  bool
	chPhase        chunkPhase
	chunkRemaining int64
}

// NewParser returns a Parser ready to parse a request.
func NewParser(limits Limits) *Parser {
	p := &Parser{Limits: limits}
	p.Reset(KindRequest, false)
	return p
}

// Reset prepares the parser for the next message on the same
// connection, per spec.md ยง4.1: "the caller is expected to process the
// message and then call reset(parser, type) before the next byte is
// parsed." forceNoBody should be true when resetting to parse a
// response to a request whose method was HEAD.
func (p *Parser) Reset(kind Kind, forceNoBody bool) {
	if kind == KindRequest {
		p.Msg = NewRequest()
	} else {
		p.Msg = NewResponse()
	}
	p.State = Start
	p.StatusCode = 0
	p.ErrMsg = ""
	p.ForceNoBody = forceNoBody
	p.bodyRemaining = 0
	p.unboundedBody = false
	p.bufferizeFull = false
	p.chPhase = chunkPhaseSize
	p.chunkRemaining = 0
}

// fail stages an error outcome and transitions to Error.
func (p *Parser) fail(status int, format string, args ...any) Result {
	p.State = Error
	p.StatusCode = status
	p.ErrMsg = fmt.Sprintf(format, args...)
	return ResultError
}

// Parse advances the state machine as far as the buffered bytes allow,
// per spec.md ยง4.1. It never blocks and never panics on malformed input.
func Parse(b *buf.Buffer, p *Parser) Result {
	for {
		switch p.State {
		case Start:
			if r := p.parseStartLine(b); r != Incomplete {
				if r != statusOK {
					return r
				}
				continue
			}
			return Incomplete
		case Header:
			r := p.parseHeaderField(b)
			if r == Incomplete {
				return Incomplete
			}
			if r != statusOK {
				return r
			}
			continue
		case Body:
			r := p.parseBody(b)
			if r == Incomplete {
				return Incomplete
			}
			if r != statusOK {
				return r
			}
			continue
		case Trailer:
			r := p.parseTrailer(b)
			if r == Incomplete {
				return Incomplete
			}
			if r != statusOK {
				return r
			}
			continue
		case Done:
			return ResultDone
		case Error:
			return ResultError
		default:
			return ResultError
		}
	}
}

// statusOK is an internal sentinel distinct from the three public Result
// values, letting the per-state helpers signal "state advanced, keep
// looping" without the caller seeing a fourth Result value.
const statusOK Result = -1

// EOF tells the parser the peer closed the connection, used only to
// terminate a response body read under "unknown length, read until
// close" (spec.md ยง4.1's Body->Done identity-coding clause). For any
// other state this is a protocol error.
func (p *Parser) EOF() Result {
	if p.State == Body && p.unboundedBody {
		p.Msg.IsComplete = true
		p.State = Done
		return ResultDone
	}
	if p.State == Start {
		// A clean close between messages stages no status and leaves
		// State at Start; the result is still ResultError, and the
		// connection closes the socket on either kind of EOF.
		return ResultError
	}
	return p.fail(400, "connection closed mid-message")
}

// now is the parser's sole clock read, isolated so tests can stub it if
// ever needed without touching every call site.
func now() time.Time { return time.Now() }
