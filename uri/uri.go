/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package uri

import "strings"

// IsAbs reports whether u carries a scheme.
func (u *URI) IsAbs() bool { return u.Scheme != "" }

// Query parses RawQuery, silently discarding malformed pairs. Use
// ParseQuery directly to observe the first error.
func (u *URI) Query() Values {
	v, _ := ParseQuery(u.RawQuery)
	return v
}

// EscapedPath returns u.Path re-encoded, preferring RawPath when it is a
// valid encoding of Path.
func (u *URI) EscapedPath() string {
	if u.RawPath != "" {
		if p, err := unescape(u.RawPath, encodePath); err == nil && p == u.Path {
			return u.RawPath
		}
	}
	if u.Path == "*" {
		return "*"
	}
	return escape(u.Path, encodePath)
}

// Authority renders "[userinfo@]host[:port]".
func (u *URI) Authority() string {
	var b strings.Builder
	if u.User != nil {
		b.WriteString(u.User.String())
		b.WriteByte('@')
	}
	b.WriteString(escape(u.Host, encodeHost))
	if u.Port != "" {
		b.WriteByte(':')
		b.WriteString(u.Port)
	}
	return b.String()
}

// RequestURI renders the "path?query" form sent on an HTTP/1.x start line.
func (u *URI) RequestURI() string {
	if u.Opaque == "*" {
		return "*"
	}
	result := u.EscapedPath()
	if result == "" {
		result = "/"
	}
	if u.RawQuery != "" {
		result += "?" + u.RawQuery
	}
	return result
}

// String reassembles u into "scheme://authority/path?query#fragment".
func (u *URI) String() string {
	var b strings.Builder
	if u.Scheme != "" {
		b.WriteString(u.Scheme)
		b.WriteByte(':')
	}
	if u.Opaque == "*" {
		b.WriteByte('*')
		return b.String()
	}
	if u.Host != "" || u.User != nil || u.Scheme != "" {
		b.WriteString("//")
		b.WriteString(u.Authority())
	}
	path := u.EscapedPath()
	if path != "" && !strings.HasPrefix(path, "/") && u.Host != "" {
		b.WriteByte('/')
	}
	b.WriteString(path)
	if u.RawQuery != "" {
		b.WriteByte('?')
		b.WriteString(u.RawQuery)
	}
	if u.Fragment != "" {
		b.WriteByte('#')
		b.WriteString(escape(u.Fragment, encodeFragment))
	}
	return b.String()
}
