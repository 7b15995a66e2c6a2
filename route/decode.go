package route

import "github.com/sy19870112/libhttp-go/uri"

// decodeSegment percent-decodes one path segment before it is compared
// against a String literal or captured as a Named parameter, per
// spec.md ยง4.2.
func decodeSegment(segment string) (string, error) {
	return uri.PathUnescape(segment)
}
