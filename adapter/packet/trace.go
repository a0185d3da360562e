package packet

import (
	"net/netip"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/rs/zerolog"

	"github.com/forest33/framescope/business/entity"
)

// traceView what gopacket decoded from the same bytes
type traceView struct {
	layers   []string
	mismatch []string
	err      error
}

// trace decodes data a second time with gopacket and logs both views side by side.
func (d *Decoder) trace(data []byte, link *entity.LinkLayer, nl entity.NetworkLayer, tl entity.TransportLayer, report *entity.Report) {
	view := traceLayers(data, link, nl, tl)

	var ev *zerolog.Event
	if len(view.mismatch) > 0 {
		ev = d.log.Warn().Strs("mismatch", view.mismatch)
	} else {
		ev = d.log.Debug()
	}
	if view.err != nil {
		ev = ev.Str("gopacket_error", view.err.Error())
	}
	ev.Strs("gopacket", view.layers).
		Str("summary", report.Summary).
		Int("captured", len(data)).
		Msg("frame trace")
}

func traceLayers(data []byte, link *entity.LinkLayer, nl entity.NetworkLayer, tl entity.TransportLayer) *traceView {
	var (
		eth     layers.Ethernet
		dot1q   layers.Dot1Q
		ip4     layers.IPv4
		ip6     layers.IPv6
		tcp     layers.TCP
		udp     layers.UDP
		icmp6   layers.ICMPv6
		payload gopacket.Payload
	)

	parser := gopacket.NewDecodingLayerParser(layers.LayerTypeEthernet, &eth, &dot1q, &ip4, &ip6, &tcp, &udp, &icmp6, &payload)
	parser.IgnoreUnsupported = true

	decodedLayers := make([]gopacket.LayerType, 0, 6)
	view := &traceView{
		err: parser.DecodeLayers(data, &decodedLayers),
	}

	for _, typ := range decodedLayers {
		view.layers = append(view.layers, typ.String())

		switch typ {
		case layers.LayerTypeDot1Q:
			if link.VLAN == nil || link.VLAN.VID != dot1q.VLANIdentifier {
				view.mismatch = append(view.mismatch, "802.1Q")
			}
		case layers.LayerTypeIPv4:
			n, ok := nl.(*entity.IPv4)
			if !ok || !sameAddr(n.Source, ip4.SrcIP) || !sameAddr(n.Destination, ip4.DstIP) {
				view.mismatch = append(view.mismatch, "IPv4")
			}
		case layers.LayerTypeIPv6:
			n, ok := nl.(*entity.IPv6)
			if !ok || !sameAddr(n.Source, ip6.SrcIP) || !sameAddr(n.Destination, ip6.DstIP) {
				view.mismatch = append(view.mismatch, "IPv6")
			}
		case layers.LayerTypeTCP:
			t, ok := tl.(*entity.TCP)
			if !ok || t.SrcPort != uint16(tcp.SrcPort) || t.DstPort != uint16(tcp.DstPort) || t.Seq != tcp.Seq {
				view.mismatch = append(view.mismatch, "TCP")
			}
		case layers.LayerTypeUDP:
			u, ok := tl.(*entity.UDP)
			if !ok || u.SrcPort != uint16(udp.SrcPort) || u.DstPort != uint16(udp.DstPort) {
				view.mismatch = append(view.mismatch, "UDP")
			}
		case layers.LayerTypeICMPv6:
			i, ok := tl.(*entity.ICMPv6)
			if !ok || uint8(i.Type) != icmp6.TypeCode.Type() || i.Code != icmp6.TypeCode.Code() {
				view.mismatch = append(view.mismatch, "ICMPv6")
			}
		}
	}

	return view
}

func sameAddr(a netip.Addr, ip []byte) bool {
	b, ok := netip.AddrFromSlice(ip)
	return ok && a.Unmap() == b.Unmap()
}
