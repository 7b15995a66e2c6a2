package message

import "strings"

// ParseMediaType parses a Content-Type value "type/subtype; k=v; k2=v2"
// into a MediaType. Type and subtype are lowercased; parameter names are
// lowercased, values preserved verbatim, per spec.md ยง4.1's numeric/case
// rules. Malformed parameter segments are skipped rather than rejected -
// spec.md treats Content-Type parsing as best-effort selection of a
// decoder, not a hard parse failure.
func ParseMediaType(v string) MediaType {
	parts := strings.Split(v, ";")
	base := strings.TrimSpace(parts[0])
	typ, sub, _ := cut(base, "/")
	mt := MediaType{
		Type:    strings.ToLower(strings.TrimSpace(typ)),
		Subtype: strings.ToLower(strings.TrimSpace(sub)),
		Params:  map[string]string{},
	}
	for _, p := range parts[1:] {
		k, val, ok := cut(p, "=")
		if !ok {
			continue
		}
		k = strings.ToLower(strings.TrimSpace(k))
		val = strings.TrimSpace(val)
		val = strings.Trim(val, `"`)
		if k == "" {
			continue
		}
		mt.Params[k] = val
	}
	return mt
}

func cut(s, sep string) (before, after string, found bool) {
	if i := strings.Index(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}
