package conn

import "github.com/sy19870112/libhttp-go/message"

// decideKeepAlive implements spec.md ยง4.4's persistence rule: HTTP/1.1
// defaults to keep-alive unless the peer (or our own response) asked
// for Connection: close; HTTP/1.0 defaults to close unless the peer
// explicitly asked for Connection: keep-alive. A configured
// MaxRequestsPerConnection caps pipelining regardless of what either
// side asked for.
func decideKeepAlive(req *message.Message, opts Options, requestCount uint64) bool {
	if opts.MaxRequestsPerConnection > 0 && requestCount >= uint64(opts.MaxRequestsPerConnection) {
		return false
	}
	if req.ConnectionOptions.Has(message.ConnClose) {
		return false
	}
	if req.Version.AtLeast(message.Version11) {
		return true
	}
	return req.ConnectionOptions.Has(message.ConnKeepAlive)
}
