/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package uri

import (
	"strconv"
	"strings"

	"golang.org/x/net/idna"
)

// Parse parses a request-target as it can appear on an HTTP/1.x start
// line: "*", an absolute path, or an absolute URI (spec.md ยง4.1). It does
// not handle relative references with a host but no scheme; that form
// never appears on the wire per RFC 7230ยง5.3.
func Parse(raw string) (*URI, error) {
	if raw == "*" {
		return &URI{Opaque: "*"}, nil
	}

	rest, frag, hasFrag := cut(raw, "#")
	u := &URI{}
	if hasFrag {
		f, err := unescape(frag, encodeFragment)
		if err != nil {
			return nil, &Error{"parse", raw, err}
		}
		u.Fragment = f
	}

	rest, query, hasQuery := cut(rest, "?")
	if hasQuery {
		u.RawQuery = query
	}

	if i := strings.Index(rest, "://"); i >= 0 && validScheme(rest[:i]) {
		u.Scheme = strings.ToLower(rest[:i])
		rest = rest[i+3:]
	} else if strings.HasPrefix(rest, "//") {
		rest = rest[2:]
	}

	if u.Scheme != "" || strings.HasPrefix(raw, "//") {
		authority, path, _ := cut(rest, "/")
		if err := u.parseAuthority(authority); err != nil {
			return nil, &Error{"parse", raw, err}
		}
		if path != "" || strings.Contains(rest, "/") {
			rest = "/" + path
		} else {
			rest = ""
		}
	}

	if rest != "" {
		p, err := unescape(rest, encodePath)
		if err != nil {
			return nil, &Error{"parse", raw, err}
		}
		u.Path = p
		u.RawPath = rest
	}
	return u, nil
}

// ParseRequestURI is Parse under another name, with the same semantics.
func ParseRequestURI(raw string) (*URI, error) { return Parse(raw) }

func validScheme(s string) bool {
	if s == "" {
		return false
	}
	if !isAlpha(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !isAlpha(c) && !('0' <= c && c <= '9') && c != '+' && c != '-' && c != '.' {
			return false
		}
	}
	return true
}

func isAlpha(c byte) bool { return 'a' <= c && c <= 'z' || 'A' <= c && c <= 'Z' }

func (u *URI) parseAuthority(authority string) error {
	if i := strings.LastIndex(authority, "@"); i >= 0 {
		userinfo, host := authority[:i], authority[i+1:]
		uname, pass, hasPass := cut(userinfo, ":")
		un, err := unescape(uname, encodeUserPassword)
		if err != nil {
			return err
		}
		if hasPass {
			pw, err := unescape(pass, encodeUserPassword)
			if err != nil {
				return err
			}
			u.User = UserPassword(un, pw)
		} else {
			u.User = User(un)
		}
		authority = host
	}
	host, port, err := splitHostPort(authority)
	if err != nil {
		return err
	}
	host, err = normalizeHost(host)
	if err != nil {
		return err
	}
	u.Host = host
	u.Port = port
	return nil
}

// splitHostPort separates "host:port" or "[v6]:port" into components
// without requiring the port, matching how a Host header may or may not
// carry one.
func splitHostPort(hostport string) (host, port string, err error) {
	host = hostport
	if strings.HasPrefix(host, "[") {
		i := strings.LastIndex(host, "]")
		if i < 0 {
			return "", "", InvalidHostError(hostport)
		}
		rest := host[i+1:]
		host = host[1:i]
		if strings.HasPrefix(rest, ":") {
			port = rest[1:]
		} else if rest != "" {
			return "", "", InvalidHostError(hostport)
		}
		return host, port, validateHostBytes(host, true)
	}
	if i := strings.LastIndex(host, ":"); i >= 0 {
		port = host[i+1:]
		host = host[:i]
	}
	return host, port, validateHostBytes(host, false)
}

func validateHostBytes(host string, v6 bool) error {
	for i := 0; i < len(host); i++ {
		c := host[i]
		if c < 0x80 {
			if !validHostByte[c] && !(v6 && (c == ':')) {
				return InvalidHostError(string(c))
			}
		}
	}
	return nil
}

var validHostByte = [128]bool{}

func init() {
	for c := '0'; c <= '9'; c++ {
		validHostByte[c] = true
	}
	for c := 'a'; c <= 'z'; c++ {
		validHostByte[c] = true
	}
	for c := 'A'; c <= 'Z'; c++ {
		validHostByte[c] = true
	}
	for _, c := range "!$&'()*+,-.;=_~%" {
		validHostByte[c] = true
	}
}

// normalizeHost punycode-encodes a non-ASCII hostname so downstream
// comparisons (virtual-host routing, logging) operate on a canonical
// ASCII form, the same transform badu-http/url applies via
// golang.org/x/net/idna.
func normalizeHost(host string) (string, error) {
	for i := 0; i < len(host); i++ {
		if host[i] >= 0x80 {
			ascii, err := idna.Lookup.ToASCII(host)
			if err != nil {
				return "", &Error{"idna", host, err}
			}
			return ascii, nil
		}
	}
	return host, nil
}

// PortNumber returns the numeric port, or 0 if none was present.
func (u *URI) PortNumber() int {
	if u.Port == "" {
		return 0
	}
	n, _ := strconv.Atoi(u.Port)
	return n
}
