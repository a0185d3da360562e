package cursor

import (
	"errors"
	"testing"
)

var data = []byte{0x01, 0x02, 0x03, 0x04, 0x05, 0x06}

func TestCursorReads(t *testing.T) {
	c := New(data)

	if v, err := c.U8(5); err != nil || v != 0x06 {
		t.Errorf("U8: got %x, %v", v, err)
	}
	if v, err := c.U16(1); err != nil || v != 0x0203 {
		t.Errorf("U16: got %x, %v", v, err)
	}
	if v, err := c.U32(2); err != nil || v != 0x03040506 {
		t.Errorf("U32: got %x, %v", v, err)
	}
	if s, err := c.Slice(4, 2); err != nil || len(s) != 2 || s[0] != 0x05 {
		t.Errorf("Slice: got %v, %v", s, err)
	}
}

func TestCursorTruncated(t *testing.T) {
	c := New(data)

	tests := map[string]func() error{
		"u8-past-end": func() error { _, err := c.U8(6); return err },
		"u16-straddle": func() error { _, err := c.U16(5); return err },
		"u32-straddle": func() error { _, err := c.U32(3); return err },
		"negative":     func() error { _, err := c.U8(-1); return err },
		"slice-long":   func() error { _, err := c.Slice(2, 5); return err },
		"sub-past-end": func() error { _, err := c.Sub(7); return err },
		"require":      func() error { return c.Require(7) },
	}

	for name, f := range tests {
		if err := f(); !errors.Is(err, ErrTruncated) {
			t.Errorf("%s: expected ErrTruncated, got %v", name, err)
		}
	}
}

func TestCursorSub(t *testing.T) {
	c := New(data)

	sub, err := c.Sub(6)
	if err != nil {
		t.Fatalf("Sub at end: %v", err)
	}
	if sub.Len() != 0 {
		t.Errorf("expected empty cursor, got %d bytes", sub.Len())
	}

	sub, err = c.Sub(2)
	if err != nil {
		t.Fatalf("Sub: %v", err)
	}
	if v, err := sub.U8(0); err != nil || v != 0x03 {
		t.Errorf("Sub U8: got %x, %v", v, err)
	}
	if _, err := sub.U8(4); !errors.Is(err, ErrTruncated) {
		t.Errorf("sub cursor must be bounded by its own window")
	}
}

func TestSliceCapacityIsBounded(t *testing.T) {
	s, err := New(data).Slice(0, 2)
	if err != nil {
		t.Fatal(err)
	}
	if cap(s) != 2 {
		t.Errorf("slice capacity leaks the rest of the buffer: %d", cap(s))
	}
}
