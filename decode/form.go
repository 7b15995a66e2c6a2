package decode

import "github.com/sy19870112/libhttp-go/uri"

// parseFormBody decodes an application/x-www-form-urlencoded body using
// the same "&"/"=" and percent-decoding rules as a URI query string.
func parseFormBody(body string) (uri.Values, error) {
	return uri.ParseQuery(body)
}
