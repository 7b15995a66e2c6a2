package message

import (
	"fmt"
	"strconv"
	"strings"
)

// parseRangeHeader parses a Range header value, "bytes" unit only, per
// spec.md ยง6.
func parseRangeHeader(v string) ([]ByteRange, error) {
	const prefix = "bytes="
	if !strings.HasPrefix(v, prefix) {
		return nil, fmt.Errorf("unsupported range unit in %q", v)
	}
	v = v[len(prefix):]
	var out []ByteRange
	for _, part := range strings.Split(v, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if strings.HasPrefix(part, "-") {
			n, err := strconv.ParseInt(part[1:], 10, 64)
			if err != nil {
				return nil, err
			}
			out = append(out, ByteRange{Start: n, Suffix: true})
			continue
		}
		start, end, hasEnd := cut(part, "-")
		s, err := strconv.ParseInt(start, 10, 64)
		if err != nil {
			return nil, err
		}
		e := int64(-1)
		if hasEnd && end != "" {
			e, err = strconv.ParseInt(end, 10, 64)
			if err != nil {
				return nil, err
			}
		}
		out = append(out, ByteRange{Start: s, End: e})
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no ranges in %q", v)
	}
	return out, nil
}
