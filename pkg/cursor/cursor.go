// Package cursor provides a bounds-checked read-only view over captured frame bytes.
package cursor

import (
	"encoding/binary"
	"errors"

	pkgerrors "github.com/pkg/errors"
)

// ErrTruncated is returned when a read would go past the captured bytes.
var ErrTruncated = errors.New("truncated")

// Cursor is a read-only window over a byte buffer. Every field read is
// checked against the window length; nothing in the window is ever modified.
type Cursor struct {
	buf []byte
}

// New returns a Cursor over buf.
func New(buf []byte) Cursor {
	return Cursor{buf: buf}
}

// Len returns the number of bytes available through the cursor.
func (c Cursor) Len() int {
	return len(c.buf)
}

// Bytes returns the whole window.
func (c Cursor) Bytes() []byte {
	return c.buf
}

// Has reports whether width bytes are readable at offset.
func (c Cursor) Has(offset, width int) bool {
	return offset >= 0 && width >= 0 && offset <= len(c.buf) && width <= len(c.buf)-offset
}

func (c Cursor) check(offset, width int) error {
	if !c.Has(offset, width) {
		return pkgerrors.Wrapf(ErrTruncated, "need %d bytes at offset %d, have %d", width, offset, len(c.buf))
	}
	return nil
}

// U8 reads one byte at offset.
func (c Cursor) U8(offset int) (uint8, error) {
	if err := c.check(offset, 1); err != nil {
		return 0, err
	}
	return c.buf[offset], nil
}

// U16 reads a big-endian uint16 at offset.
func (c Cursor) U16(offset int) (uint16, error) {
	if err := c.check(offset, 2); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(c.buf[offset : offset+2]), nil
}

// U32 reads a big-endian uint32 at offset.
func (c Cursor) U32(offset int) (uint32, error) {
	if err := c.check(offset, 4); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(c.buf[offset : offset+4]), nil
}

// Slice returns length bytes starting at offset. The result shares memory
// with the underlying buffer and must be treated as read-only.
func (c Cursor) Slice(offset, length int) ([]byte, error) {
	if err := c.check(offset, length); err != nil {
		return nil, err
	}
	return c.buf[offset : offset+length : offset+length], nil
}

// Sub returns a cursor over the bytes from offset to the end of the window.
func (c Cursor) Sub(offset int) (Cursor, error) {
	if err := c.check(offset, 0); err != nil {
		return Cursor{}, err
	}
	return Cursor{buf: c.buf[offset:]}, nil
}

// Require fails with ErrTruncated if fewer than n bytes are available.
func (c Cursor) Require(n int) error {
	return c.check(0, n)
}
