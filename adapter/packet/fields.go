package packet

import (
	"net/netip"

	"github.com/forest33/framescope/business/entity"
	"github.com/forest33/framescope/pkg/cursor"
)

// fieldReader reads header fields relative to base and keeps the first error,
// so a header can be read field by field and checked once.
type fieldReader struct {
	c    cursor.Cursor
	base int
	err  error
}

func newFieldReader(c cursor.Cursor, base int) *fieldReader {
	return &fieldReader{c: c, base: base}
}

func (r *fieldReader) u8(off int) uint8 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.U8(r.base + off)
	r.err = err
	return v
}

func (r *fieldReader) u16(off int) uint16 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.U16(r.base + off)
	r.err = err
	return v
}

func (r *fieldReader) u32(off int) uint32 {
	if r.err != nil {
		return 0
	}
	v, err := r.c.U32(r.base + off)
	r.err = err
	return v
}

func (r *fieldReader) mac(off int) (mac entity.MAC) {
	if r.err != nil {
		return mac
	}
	b, err := r.c.Slice(r.base+off, len(mac))
	if r.err = err; err == nil {
		copy(mac[:], b)
	}
	return mac
}

func (r *fieldReader) addr4(off int) netip.Addr {
	if r.err != nil {
		return netip.Addr{}
	}
	b, err := r.c.Slice(r.base+off, 4)
	if r.err = err; err != nil {
		return netip.Addr{}
	}
	return netip.AddrFrom4([4]byte(b))
}

func (r *fieldReader) addr16(off int) netip.Addr {
	if r.err != nil {
		return netip.Addr{}
	}
	b, err := r.c.Slice(r.base+off, 16)
	if r.err = err; err != nil {
		return netip.Addr{}
	}
	return netip.AddrFrom16([16]byte(b))
}
