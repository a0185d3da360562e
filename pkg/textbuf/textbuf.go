// Package textbuf implements a length-tracked text buffer that grows by doubling.
package textbuf

import (
	"fmt"
)

const defaultCapacity = 256

// Buffer accumulates text. When an append does not fit, capacity is doubled
// (or raised to the required size if doubling is not enough), so n appended
// bytes cost O(n) copying in total.
type Buffer struct {
	buf  []byte
	n    int
	grow int
}

// New creates a Buffer with the given initial capacity.
func New(capacity int) *Buffer {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	return &Buffer{buf: make([]byte, capacity)}
}

// Len returns the number of bytes written.
func (b *Buffer) Len() int { return b.n }

// Cap returns the current capacity.
func (b *Buffer) Cap() int { return len(b.buf) }

// Grows returns how many times the buffer has been reallocated.
func (b *Buffer) Grows() int { return b.grow }

func (b *Buffer) reserve(extra int) {
	need := b.n + extra
	if need <= len(b.buf) {
		return
	}
	size := len(b.buf) * 2
	if size == 0 {
		size = defaultCapacity
	}
	for size < need {
		size *= 2
	}
	buf := make([]byte, size)
	copy(buf, b.buf[:b.n])
	b.buf = buf
	b.grow++
}

// Write appends p. It never fails.
func (b *Buffer) Write(p []byte) (int, error) {
	b.reserve(len(p))
	b.n += copy(b.buf[b.n:], p)
	return len(p), nil
}

// WriteString appends s.
func (b *Buffer) WriteString(s string) {
	b.reserve(len(s))
	b.n += copy(b.buf[b.n:], s)
}

// WriteByte appends c.
func (b *Buffer) WriteByte(c byte) error {
	b.reserve(1)
	b.buf[b.n] = c
	b.n++
	return nil
}

// Printf appends formatted text.
func (b *Buffer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(b, format, args...)
}

// Bytes returns the written bytes. The slice aliases the buffer.
func (b *Buffer) Bytes() []byte { return b.buf[:b.n] }

// String returns a copy of the written text.
func (b *Buffer) String() string { return string(b.buf[:b.n]) }
