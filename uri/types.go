/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

// Package uri parses the request-target and absolute-URI forms spec.md's
// Message data model names: scheme, userinfo, host, port, path, query
// parameters, fragment. It is trimmed from the general-purpose RFC 3986
// parser badu-http/url carries down to what an HTTP start line and
// Host header ever produce, and additionally splits Host into hostname
// and port and punycode-normalizes non-ASCII hosts via golang.org/x/net/idna,
// matching badu-http's own use of that package.
package uri

import "strconv"

type (
	// Error reports the operation and input that caused a parse failure.
	Error struct {
		Op    string
		Input string
		Err   error
	}

	// EscapeError is returned when a percent-encoded triplet is malformed.
	EscapeError string

	// InvalidHostError is returned when a Host header contains disallowed bytes.
	InvalidHostError string

	// Userinfo is the immutable "user[:pass]" component of an authority.
	Userinfo struct {
		username    string
		password    string
		passwordSet bool
	}

	// Values maps a query key to its (possibly repeated, in-order) values.
	Values map[string][]string

	// URI is a parsed request-target or absolute-URI.
	//
	//	[scheme:][//[userinfo@]host[:port]][/]path[?query][#fragment]
	URI struct {
		Scheme   string
		Opaque   string // set for "*" and other non-path targets
		User     *Userinfo
		Host     string // hostname only, no port
		Port     string // empty if not present
		Path     string // decoded
		RawPath  string // as it appeared on the wire, percent-encoded
		RawQuery string
		Fragment string
	}
)

func (e *Error) Error() string { return e.Op + " " + strconv.Quote(e.Input) + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }

func (e EscapeError) Error() string {
	return "invalid URI escape " + strconv.Quote(string(e))
}

func (e InvalidHostError) Error() string {
	return "invalid character " + strconv.Quote(string(e)) + " in host name"
}
