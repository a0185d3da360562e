package packet

import (
	"fmt"
	"net/netip"

	"github.com/forest33/framescope/business/entity"
	"github.com/forest33/framescope/pkg/cursor"
	"github.com/forest33/framescope/pkg/hexdump"
	"github.com/forest33/framescope/pkg/textbuf"
)

const detailCapacity = 512

func assemble(c cursor.Cursor, link *entity.LinkLayer, nl entity.NetworkLayer, tl entity.TransportLayer) *entity.Report {
	return &entity.Report{
		Summary: summary(c.Len(), nl, tl),
		Detail:  detail(c, link, nl, tl),
	}
}

func summary(captured int, nl entity.NetworkLayer, tl entity.TransportLayer) string {
	var src, dst netip.Addr
	switch n := nl.(type) {
	case *entity.IPv4:
		src, dst = n.Source, n.Destination
	case *entity.IPv6:
		src, dst = n.Source, n.Destination
	case *entity.Unresolved:
		return fmt.Sprintf("ethertype=%s len=%d", n.EtherType, captured)
	default:
		return fmt.Sprintf("len=%d", captured)
	}

	switch t := tl.(type) {
	case *entity.TCP:
		return endpoints(nl.Name(), t.Name(), src, t.SrcPort, dst, t.DstPort)
	case *entity.UDP:
		return endpoints(nl.Name(), t.Name(), src, t.SrcPort, dst, t.DstPort)
	case *entity.ICMPv6:
		return fmt.Sprintf("%s %s %s %s -> %s", nl.Name(), t.Name(), t.Type, src, dst)
	case *entity.UnknownTransport:
		return fmt.Sprintf("%s proto=%d %s -> %s", nl.Name(), t.Protocol, src, dst)
	default:
		return fmt.Sprintf("%s %s -> %s", nl.Name(), src, dst)
	}
}

func endpoints(network, transport string, src netip.Addr, sport uint16, dst netip.Addr, dport uint16) string {
	return fmt.Sprintf("%s %s %s -> %s", network, transport,
		netip.AddrPortFrom(src, sport), netip.AddrPortFrom(dst, dport))
}

func detail(c cursor.Cursor, link *entity.LinkLayer, nl entity.NetworkLayer, tl entity.TransportLayer) string {
	b := textbuf.New(detailCapacity)

	outer := link.EtherType
	if link.VLAN != nil {
		outer = entity.EtherTypeVLAN
	}
	b.Printf("Ethernet src=%s dst=%s type=%s", link.Source, link.Destination, outer)

	if link.VLAN != nil {
		b.Printf("\n802.1Q vid=%d pcp=%d dei=%d type=%s", link.VLAN.VID, link.VLAN.PCP, link.VLAN.DEI, link.EtherType)
	}

	payloadOffset := link.PayloadOffset

	switch n := nl.(type) {
	case *entity.IPv4:
		b.Printf("\nIPv4 src=%s dst=%s proto=%d hlen=%d", n.Source, n.Destination, n.Protocol, n.HeaderLength)
		payloadOffset = n.PayloadOffset
	case *entity.IPv6:
		b.Printf("\nIPv6 src=%s dst=%s next=%d", n.Source, n.Destination, n.NextHeader)
		payloadOffset = n.PayloadOffset
	case *entity.Unresolved:
		b.Printf("\nUnresolved ethertype=%s", n.EtherType)
		writeReason(b, n.Reason)
	}

	switch t := tl.(type) {
	case *entity.TCP:
		b.Printf("\nTCP src_port=%d dst_port=%d seq=%d ack=%d flags=[%s] window=%d urgent=%d",
			t.SrcPort, t.DstPort, t.Seq, t.Ack, t.Flags, t.Window, t.Urgent)
	case *entity.UDP:
		b.Printf("\nUDP src_port=%d dst_port=%d length=%d checksum=0x%04x", t.SrcPort, t.DstPort, t.Length, t.Checksum)
	case *entity.ICMPv6:
		b.Printf("\nICMPv6 type=%d (%s) code=%d", uint8(t.Type), t.Type, t.Code)
		if t.Target.IsValid() {
			b.Printf(" target=%s", t.Target)
		}
	case *entity.UnknownTransport:
		b.Printf("\nUnknown proto=%d", t.Protocol)
		writeReason(b, t.Reason)
	}

	var payload []byte
	if sub, err := c.Sub(payloadOffset); err == nil {
		payload = sub.Bytes()
	}
	b.Printf("\nPayload %d bytes", len(payload))
	if len(payload) > 0 {
		_ = b.WriteByte('\n')
		hexdump.Append(b, payload)
	}

	return b.String()
}

func writeReason(b *textbuf.Buffer, reason error) {
	if reason != nil {
		b.Printf(" reason=%q", reason.Error())
	}
}
