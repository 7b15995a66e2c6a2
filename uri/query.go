/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package uri

import "strings"

// ParseQuery parses a URL-encoded query string into a Values map; a
// repeated key keeps its values in input order. Malformed pairs are skipped; err reports
// the first one encountered, mirroring badu-http/url's ParseQuery.
func ParseQuery(query string) (Values, error) {
	m := make(Values)
	var firstErr error
	for query != "" {
		var key string
		key, query, _ = cut(query, "&")
		if strings.Contains(key, ";") {
			if firstErr == nil {
				firstErr = &Error{"parse", key, EscapeError(";")}
			}
			continue
		}
		if key == "" {
			continue
		}
		key, value, _ := cut(key, "=")
		key, err1 := QueryUnescape(key)
		if err1 != nil {
			if firstErr == nil {
				firstErr = err1
			}
			continue
		}
		value, err2 := QueryUnescape(value)
		if err2 != nil {
			if firstErr == nil {
				firstErr = err2
			}
			continue
		}
		m[key] = append(m[key], value)
	}
	return m, firstErr
}

func cut(s, sep string) (before, after string, found bool) {
	if i := strings.Index(s, sep); i >= 0 {
		return s[:i], s[i+len(sep):], true
	}
	return s, "", false
}

// Get returns the first value for key, or "".
func (v Values) Get(key string) string {
	vs := v[key]
	if len(vs) == 0 {
		return ""
	}
	return vs[0]
}

// Set replaces key's values with a single value.
func (v Values) Set(key, value string) { v[key] = []string{value} }

// Add appends value to key's value list.
func (v Values) Add(key, value string) { v[key] = append(v[key], value) }

// Del removes key.
func (v Values) Del(key string) { delete(v, key) }

// Encode renders v as a "k=v&k2=v2" query string, sorted by key for
// determinism.
func (v Values) Encode() string {
	if len(v) == 0 {
		return ""
	}
	keys := make([]string, 0, len(v))
	for k := range v {
		keys = append(keys, k)
	}
	sortStrings(keys)
	var buf strings.Builder
	for _, k := range keys {
		ek := QueryEscape(k)
		for _, val := range v[k] {
			if buf.Len() > 0 {
				buf.WriteByte('&')
			}
			buf.WriteString(ek)
			buf.WriteByte('=')
			buf.WriteString(QueryEscape(val))
		}
	}
	return buf.String()
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}
