// Package buf provides the Byte Buffer collaborator named in spec.md
// ยง2.1/ยง4: an append-only growable byte region with an independent read
// cursor. It is the one collaborator every other core component shares,
// so it stays intentionally trivial, grounded on the size/limit shape of
// WhileEndless-go-rawhttp/pkg/buffer but without that package's disk
// spill (out of scope here: spec.md calls the Buffer "trivial, not
// specified here beyond this contract").
package buf

import (
	"fmt"
	"io"
)

// Buffer is a growable byte slice with a read cursor distinct from its
// write end. Appends always go to the end; reads/peeks/skips operate
// relative to the cursor. Not safe for concurrent use - each Connection
// owns its own read and write Buffer on the single owner thread (spec.md
// ยง5).
type Buffer struct {
	data   []byte
	cursor int
}

// New returns an empty Buffer, optionally pre-sized.
func New(capacityHint int) *Buffer {
	return &Buffer{data: make([]byte, 0, capacityHint)}
}

// Append copies p onto the end of the buffer.
func (b *Buffer) Append(p []byte) {
	b.data = append(b.data, p...)
}

// Write implements io.Writer by appending, so hdr.Header.Write can target
// a Buffer directly.
func (b *Buffer) Write(p []byte) (int, error) {
	b.Append(p)
	return len(p), nil
}

// AppendString copies s onto the end of the buffer.
func (b *Buffer) AppendString(s string) {
	b.data = append(b.data, s...)
}

// Printf formats and appends, used for composing status lines and headers
// without an intermediate string allocation at every call site.
func (b *Buffer) Printf(format string, args ...any) {
	b.data = fmt.Appendf(b.data, format, args...)
}

// Fill reads once from r (a non-blocking socket, typically) directly onto
// the end of the buffer, growing it by up to max bytes. It never blocks
// longer than the underlying Read call does; the reactor is responsible
// for only invoking this when the socket is readable.
func (b *Buffer) Fill(r io.Reader, max int) (int, error) {
	start := len(b.data)
	b.data = append(b.data, make([]byte, max)...)
	n, err := r.Read(b.data[start:])
	b.data = b.data[:start+n]
	return n, err
}

// Unread returns the bytes from the cursor to the write end. The slice
// aliases the buffer's storage and is invalidated by the next Append,
// Skip, or Compact call.
func (b *Buffer) Unread() []byte { return b.data[b.cursor:] }

// Len reports how many unread bytes remain.
func (b *Buffer) Len() int { return len(b.data) - b.cursor }

// PeekAt returns the byte at offset i past the cursor, and whether that
// offset is within the unread region.
func (b *Buffer) PeekAt(i int) (byte, bool) {
	pos := b.cursor + i
	if pos < 0 || pos >= len(b.data) {
		return 0, false
	}
	return b.data[pos], true
}

// Skip advances the cursor past n unread bytes. It is the caller's job
// not to skip past Len(); Skip clamps rather than panicking so a parser
// bug degrades to "no more input" instead of a crash.
func (b *Buffer) Skip(n int) {
	b.cursor += n
	if b.cursor > len(b.data) {
		b.cursor = len(b.data)
	}
}

// Index returns the offset (relative to the cursor) of the first
// occurrence of sep in the unread region, or -1.
func (b *Buffer) Index(sep []byte) int {
	return indexBytes(b.data[b.cursor:], sep)
}

// Compact drops already-read bytes, shifting the unread region to the
// front of the underlying array. Call periodically (e.g. after each
// complete message) to bound memory growth on a long-lived connection.
func (b *Buffer) Compact() {
	if b.cursor == 0 {
		return
	}
	n := copy(b.data, b.data[b.cursor:])
	b.data = b.data[:n]
	b.cursor = 0
}

// Reset empties the buffer entirely.
func (b *Buffer) Reset() {
	b.data = b.data[:0]
	b.cursor = 0
}

func indexBytes(haystack, sep []byte) int {
	if len(sep) == 0 {
		return 0
	}
	n := len(haystack) - len(sep)
	for i := 0; i <= n; i++ {
		match := true
		for j := range sep {
			if haystack[i+j] != sep[j] {
				match = false
				break
			}
		}
		if match {
			return i
		}
	}
	return -1
}
