package packet

import (
	"github.com/pkg/errors"

	"github.com/forest33/framescope/business/entity"
	"github.com/forest33/framescope/pkg/cursor"
)

const (
	TCPMinHeaderLength = 20
	UDPHeaderLength    = 8
	ICMPv6HeaderLength = 4

	// neighbor discovery: 4 reserved bytes follow the ICMPv6 header, then the target
	ndTargetOffset = ICMPv6HeaderLength + 4
	ndTargetLength = 16

	tcpFlagsMask = 0x3f
)

// decodeTransport dispatches on the protocol number of the network layer.
// ICMPv6 is recognized only inside IPv6.
func decodeTransport(c cursor.Cursor, proto entity.IPProtocol, off int, ipv6 bool) entity.TransportLayer {
	var (
		tl  entity.TransportLayer
		err error
	)

	switch {
	case proto == entity.IPProtocolTCP:
		tl, err = decodeTCP(c, off)
	case proto == entity.IPProtocolUDP:
		tl, err = decodeUDP(c, off)
	case proto == entity.IPProtocolICMPv6 && ipv6:
		tl, err = decodeICMPv6(c, off)
	}

	if err != nil || tl == nil {
		return &entity.UnknownTransport{Protocol: proto, Reason: err}
	}
	return tl
}

func decodeTCP(c cursor.Cursor, off int) (*entity.TCP, error) {
	if !c.Has(off, TCPMinHeaderLength) {
		return nil, errors.Wrap(entity.ErrTruncated, "TCP header")
	}

	r := newFieldReader(c, off)
	tcp := &entity.TCP{
		SrcPort: r.u16(0),
		DstPort: r.u16(2),
		Seq:     r.u32(4),
		Ack:     r.u32(8),
		Flags:   entity.TCPFlags(r.u8(13) & tcpFlagsMask),
		Window:  r.u16(14),
		Urgent:  r.u16(18),
	}
	if r.err != nil {
		return nil, errors.Wrap(r.err, "TCP header")
	}

	return tcp, nil
}

func decodeUDP(c cursor.Cursor, off int) (*entity.UDP, error) {
	if !c.Has(off, UDPHeaderLength) {
		return nil, errors.Wrap(entity.ErrTruncated, "UDP header")
	}

	r := newFieldReader(c, off)
	udp := &entity.UDP{
		SrcPort:  r.u16(0),
		DstPort:  r.u16(2),
		Length:   r.u16(4),
		Checksum: r.u16(6),
	}
	if r.err != nil {
		return nil, errors.Wrap(r.err, "UDP header")
	}

	return udp, nil
}

// decodeICMPv6 reads type and code. Neighbor solicitations and advertisements
// also get their target address, but only when all of it was captured.
func decodeICMPv6(c cursor.Cursor, off int) (*entity.ICMPv6, error) {
	if !c.Has(off, ICMPv6HeaderLength) {
		return nil, errors.Wrap(entity.ErrTruncated, "ICMPv6 header")
	}

	r := newFieldReader(c, off)
	icmp := &entity.ICMPv6{
		Type: entity.ICMPv6Type(r.u8(0)),
		Code: r.u8(1),
	}
	if r.err != nil {
		return nil, errors.Wrap(r.err, "ICMPv6 header")
	}

	if icmp.Type.IsNeighborDiscovery() && c.Has(off+ndTargetOffset, ndTargetLength) {
		icmp.Target = r.addr16(ndTargetOffset)
	}

	return icmp, nil
}
