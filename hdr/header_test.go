/*
 * Copyright (c) 2018 The Go Authors. All rights reserved.
 * Use of this source code is governed by a BSD-style license that can be found in the LICENSE file.
 */

package hdr

import (
	"bytes"
	"testing"
)

func TestHeaderWrite(t *testing.T) {
	tests := []struct {
		h        Header
		exclude  map[string]bool
		expected string
	}{
		{Header{}, nil, ""},
		{
			Header{
				ContentType:   {"text/html; charset=UTF-8"},
				ContentLength: {"0"},
			},
			nil,
			"Content-Length: 0\r\nContent-Type: text/html; charset=UTF-8\r\n",
		},
		{
			Header{ContentLength: {"0", "1", "2"}},
			nil,
			"Content-Length: 0\r\nContent-Length: 1\r\nContent-Length: 2\r\n",
		},
	}

	for i, tt := range tests {
		var buf bytes.Buffer
		if err := tt.h.WriteSubset(&buf, tt.exclude); err != nil {
			t.Fatalf("case %d: %v", i, err)
		}
		if got := buf.String(); got != tt.expected {
			t.Fatalf("case %d: want %q, got %q", i, tt.expected, got)
		}
	}
}

func TestHeaderGetSetAddDel(t *testing.T) {
	h := Header{}
	h.Add("x-custom", "one")
	h.Add("X-Custom", "two")
	if got := h.Get("x-CUSTOM"); got != "one" {
		t.Fatalf("want one, got %q", got)
	}
	h.Set("X-Custom", "reset")
	if len(h["X-Custom"]) != 1 || h["X-Custom"][0] != "reset" {
		t.Fatalf("want single reset value, got %v", h["X-Custom"])
	}
	h.Del("X-Custom")
	if _, ok := h["X-Custom"]; ok {
		t.Fatal("want key removed")
	}
}

func TestHeaderMergeDefaultsFillsOnlyAbsentKeys(t *testing.T) {
	h := Header{}
	h.Set("X-App", "handler")
	h.MergeDefaults(Header{
		"X-App":   {"route"},
		"X-Route": {"route-only"},
	})
	if got := h.Get("X-App"); got != "handler" {
		t.Fatalf("want the existing value to win, got %q", got)
	}
	if got := h.Get("X-Route"); got != "route-only" {
		t.Fatalf("want the absent key filled in, got %q", got)
	}

	h.MergeDefaults(Header{"X-Route": {"config-only"}})
	if got := h.Get("X-Route"); got != "route-only" {
		t.Fatalf("want the first-applied default to keep winning, got %q", got)
	}
}

func TestValidHeaderFieldNameAndValue(t *testing.T) {
	if !ValidHeaderFieldName("Content-Type") {
		t.Fatal("want valid")
	}
	if ValidHeaderFieldName("bad name") {
		t.Fatal("want invalid (space not a token char)")
	}
	if !ValidHeaderFieldValue("plain value") {
		t.Fatal("want valid")
	}
	if ValidHeaderFieldValue("bad\nvalue") {
		t.Fatal("want invalid (embedded newline)")
	}
}

func TestHeaderNewlineToSpace(t *testing.T) {
	got := HeaderNewlineToSpace.Replace("a\r\nb\nc")
	if got != "a  b c" {
		t.Fatalf("want %q, got %q", "a  b c", got)
	}
}
