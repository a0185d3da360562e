package packet

import (
	"github.com/pkg/errors"

	"github.com/forest33/framescope/business/entity"
	"github.com/forest33/framescope/pkg/cursor"
)

const (
	IPv4MinHeaderLength = 20
	IPv6HeaderLength    = 40
)

var (
	errShortVLANTag   = errors.Wrap(entity.ErrTruncated, "802.1Q tag")
	errStackedVLANTag = errors.New("stacked 802.1Q tag is not unwrapped")
)

func decodeNetwork(c cursor.Cursor, link *entity.LinkLayer) entity.NetworkLayer {
	var (
		nl  entity.NetworkLayer
		err error
	)

	switch link.EtherType {
	case entity.EtherTypeIPv4:
		nl, err = decodeIPv4(c, link.PayloadOffset)
	case entity.EtherTypeIPv6:
		nl, err = decodeIPv6(c, link.PayloadOffset)
	case entity.EtherTypeVLAN:
		err = errShortVLANTag
		if link.VLAN != nil {
			err = errStackedVLANTag
		}
	}

	if err != nil || nl == nil {
		return &entity.Unresolved{EtherType: link.EtherType, Reason: err}
	}
	return nl
}

// decodeIPv4 validates the IHL-derived header length against the captured
// bytes before any field behind the fixed part is trusted.
func decodeIPv4(c cursor.Cursor, off int) (*entity.IPv4, error) {
	r := newFieldReader(c, off)

	hl := int(r.u8(0)&0x0f) * 4
	if r.err != nil {
		return nil, errors.Wrap(r.err, "IPv4 header")
	}
	if hl < IPv4MinHeaderLength {
		return nil, errors.Wrapf(entity.ErrMalformedHeader, "IPv4 header length %d", hl)
	}
	if !c.Has(off, hl) {
		return nil, errors.Wrapf(entity.ErrTruncated, "IPv4 header length %d, have %d", hl, c.Len()-off)
	}

	ip := &entity.IPv4{
		Protocol:      entity.IPProtocol(r.u8(9)),
		Source:        r.addr4(12),
		Destination:   r.addr4(16),
		HeaderLength:  hl,
		PayloadOffset: off + hl,
	}
	if r.err != nil {
		return nil, errors.Wrap(r.err, "IPv4 header")
	}

	return ip, nil
}

// decodeIPv6 reads the fixed header only, extension headers are not walked.
func decodeIPv6(c cursor.Cursor, off int) (*entity.IPv6, error) {
	if !c.Has(off, IPv6HeaderLength) {
		return nil, errors.Wrapf(entity.ErrTruncated, "IPv6 header, have %d bytes", max(c.Len()-off, 0))
	}

	r := newFieldReader(c, off)
	ip := &entity.IPv6{
		NextHeader:    entity.IPProtocol(r.u8(6)),
		Source:        r.addr16(8),
		Destination:   r.addr16(24),
		PayloadOffset: off + IPv6HeaderLength,
	}
	if r.err != nil {
		return nil, errors.Wrap(r.err, "IPv6 header")
	}

	return ip, nil
}
