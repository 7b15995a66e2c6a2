package message

import (
	"strconv"
	"strings"

	"github.com/sy19870112/libhttp-go/buf"
	"github.com/sy19870112/libhttp-go/uri"
)

var crlf = []byte("\r\n")

// nextLine returns the unread bytes up to (not including) the next CRLF,
// and advances the cursor past it. ok is false when no full line is
// buffered yet (Incomplete).
func nextLine(b *buf.Buffer) (line []byte, ok bool) {
	i := b.Index(crlf)
	if i < 0 {
		return nil, false
	}
	line = append([]byte(nil), b.Unread()[:i]...)
	b.Skip(i + len(crlf))
	return line, true
}

func (p *Parser) parseStartLine(b *buf.Buffer) Result {
	line, ok := nextLine(b)
	if !ok {
		// Guard against an unbounded line with no CRLF ever arriving.
		limit := p.Limits.MaxRequestURILength + 32
		if p.Msg.Kind == KindResponse {
			limit = p.Limits.MaxReasonPhraseLength + 32
		}
		if b.Len() > limit {
			if p.Msg.Kind == KindRequest {
				return p.fail(414, "request-target exceeds %d bytes", p.Limits.MaxRequestURILength)
			}
			return p.fail(400, "start line exceeds limit")
		}
		return Incomplete
	}
	if p.Msg.Kind == KindRequest {
		return p.parseRequestLine(string(line))
	}
	return p.parseStatusLine(string(line))
}

func (p *Parser) parseRequestLine(line string) Result {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return p.fail(400, "malformed request line")
	}
	methodStr, target, proto := parts[0], parts[1], parts[2]

	method, known := methods[methodStr]
	if !known {
		return p.fail(501, "unrecognized method %q", methodStr)
	}

	if len(target) > p.Limits.MaxRequestURILength {
		return p.fail(414, "request-target exceeds %d bytes", p.Limits.MaxRequestURILength)
	}
	parsed, err := uri.Parse(target)
	if err != nil {
		return p.fail(400, "malformed request-target: %v", err)
	}

	version, ok := parseHTTPVersion(proto)
	if !ok {
		return p.fail(505, "unsupported HTTP version %q", proto)
	}

	p.Msg.Method = method
	p.Msg.URIString = target
	p.Msg.URI = parsed
	p.Msg.Version = version
	p.State = Header
	return statusOK
}

func (p *Parser) parseStatusLine(line string) Result {
	parts := strings.SplitN(line, " ", 3)
	if len(parts) < 2 {
		return p.fail(400, "malformed status line")
	}
	version, ok := parseHTTPVersion(parts[0])
	if !ok {
		return p.fail(505, "unsupported HTTP version %q", parts[0])
	}
	if len(parts[1]) != 3 || !isThreeDigits(parts[1]) {
		return p.fail(400, "malformed status code %q", parts[1])
	}
	code, _ := strconv.Atoi(parts[1])

	reason := ""
	if len(parts) == 3 {
		reason = parts[2]
	}
	if len(reason) > p.Limits.MaxReasonPhraseLength {
		return p.fail(400, "reason phrase exceeds %d bytes", p.Limits.MaxReasonPhraseLength)
	}

	p.Msg.Version = version
	p.Msg.StatusCode = code
	p.Msg.ReasonPhrase = reason
	p.State = Header
	return statusOK
}

func isThreeDigits(s string) bool {
	for i := 0; i < 3; i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

func parseHTTPVersion(s string) (Version, bool) {
	switch s {
	case "HTTP/1.1":
		return Version11, true
	case "HTTP/1.0":
		return Version10, true
	default:
		return Version{}, false
	}
}
