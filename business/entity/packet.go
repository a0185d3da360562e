package entity

import (
	"fmt"
	"net"
	"net/netip"
	"time"
)

type PacketDecoder interface {
	Decode(frame *Frame) (*Report, error)
}

// Frame captured frame. Data is read-only for every decoder.
type Frame struct {
	Data           []byte
	CapturedLength int
	OriginalLength int
	Timestamp      time.Time
	Device         string
}

// NewFrame creates a frame whose captured and original lengths equal len(data).
func NewFrame(data []byte) *Frame {
	return &Frame{
		Data:           data,
		CapturedLength: len(data),
		OriginalLength: len(data),
	}
}

// Captured returns the bytes actually available for decoding.
func (f *Frame) Captured() []byte {
	if f.CapturedLength >= 0 && f.CapturedLength < len(f.Data) {
		return f.Data[:f.CapturedLength]
	}
	return f.Data
}

type EtherType uint16

const (
	EtherTypeIPv4 EtherType = 0x0800
	EtherTypeARP  EtherType = 0x0806
	EtherTypeVLAN EtherType = 0x8100
	EtherTypeIPv6 EtherType = 0x86dd
	EtherTypeQinQ EtherType = 0x88a8
)

func (t EtherType) String() string {
	return fmt.Sprintf("0x%04x", uint16(t))
}

type MAC [6]byte

func (m MAC) String() string {
	return net.HardwareAddr(m[:]).String()
}

// VLANTag 802.1Q tag control information
type VLANTag struct {
	VID uint16
	PCP uint8
	DEI uint8
}

// ParseVLANTag splits a tag control information field.
func ParseVLANTag(tci uint16) VLANTag {
	return VLANTag{
		VID: tci & 0x0fff,
		PCP: uint8(tci >> 13),
		DEI: uint8(tci>>12) & 0x01,
	}
}

// LinkLayer decoded Ethernet header. EtherType is the resolved type, i.e. the
// inner type when a VLAN tag is present.
type LinkLayer struct {
	Source        MAC
	Destination   MAC
	EtherType     EtherType
	VLAN          *VLANTag
	PayloadOffset int
}

// NetworkLayer is one of *IPv4, *IPv6 or *Unresolved.
type NetworkLayer interface {
	networkLayer()
	Name() string
}

type IPv4 struct {
	Source        netip.Addr
	Destination   netip.Addr
	Protocol      IPProtocol
	HeaderLength  int
	PayloadOffset int
}

type IPv6 struct {
	Source        netip.Addr
	Destination   netip.Addr
	NextHeader    IPProtocol
	PayloadOffset int
}

// Unresolved network layer that was not recognized or could not be read.
type Unresolved struct {
	EtherType EtherType
	Reason    error
}

func (*IPv4) networkLayer()       {}
func (*IPv6) networkLayer()       {}
func (*Unresolved) networkLayer() {}

func (*IPv4) Name() string       { return "IPv4" }
func (*IPv6) Name() string       { return "IPv6" }
func (*Unresolved) Name() string { return "Unresolved" }

// TransportLayer is one of *TCP, *UDP, *ICMPv6 or *UnknownTransport.
type TransportLayer interface {
	transportLayer()
	Name() string
}

type TCP struct {
	SrcPort uint16
	DstPort uint16
	Seq     uint32
	Ack     uint32
	Flags   TCPFlags
	Window  uint16
	Urgent  uint16
}

type UDP struct {
	SrcPort  uint16
	DstPort  uint16
	Length   uint16
	Checksum uint16
}

// ICMPv6 message. Target is valid only for neighbor solicitations and
// advertisements that carry the full target address.
type ICMPv6 struct {
	Type   ICMPv6Type
	Code   uint8
	Target netip.Addr
}

// UnknownTransport protocol that is not decoded, or a header that was cut short.
type UnknownTransport struct {
	Protocol IPProtocol
	Reason   error
}

func (*TCP) transportLayer()              {}
func (*UDP) transportLayer()              {}
func (*ICMPv6) transportLayer()           {}
func (*UnknownTransport) transportLayer() {}

func (*TCP) Name() string              { return "TCP" }
func (*UDP) Name() string              { return "UDP" }
func (*ICMPv6) Name() string           { return "ICMPv6" }
func (*UnknownTransport) Name() string { return "Unknown" }

type TCPFlags uint8

const (
	TCPFlagFIN TCPFlags = 1 << iota
	TCPFlagSYN
	TCPFlagRST
	TCPFlagPSH
	TCPFlagACK
	TCPFlagURG
)

var tcpFlagsOrder = []struct {
	flag TCPFlags
	name string
}{
	{TCPFlagSYN, "SYN"},
	{TCPFlagACK, "ACK"},
	{TCPFlagFIN, "FIN"},
	{TCPFlagRST, "RST"},
	{TCPFlagPSH, "PSH"},
	{TCPFlagURG, "URG"},
}

// String lists the set flags in the order SYN ACK FIN RST PSH URG, each one
// followed by a space. Flags that are not set are skipped.
func (f TCPFlags) String() string {
	buf := make([]byte, 0, len(tcpFlagsOrder)*4)
	for _, fl := range tcpFlagsOrder {
		if f&fl.flag != 0 {
			buf = append(buf, fl.name...)
			buf = append(buf, ' ')
		}
	}
	return string(buf)
}

func (f TCPFlags) Has(flag TCPFlags) bool {
	return f&flag == flag
}

type ICMPv6Type uint8

const (
	ICMPv6TypeEchoRequest           ICMPv6Type = 128
	ICMPv6TypeEchoReply             ICMPv6Type = 129
	ICMPv6TypeMLDQuery              ICMPv6Type = 130
	ICMPv6TypeMLDReport             ICMPv6Type = 131
	ICMPv6TypeMLDDone               ICMPv6Type = 132
	ICMPv6TypeRouterSolicitation    ICMPv6Type = 133
	ICMPv6TypeRouterAdvertisement   ICMPv6Type = 134
	ICMPv6TypeNeighborSolicitation  ICMPv6Type = 135
	ICMPv6TypeNeighborAdvertisement ICMPv6Type = 136
	ICMPv6TypeRedirect              ICMPv6Type = 137
)

var icmpv6TypeNames = map[ICMPv6Type]string{
	ICMPv6TypeEchoRequest:           "Echo_Request",
	ICMPv6TypeEchoReply:             "Echo_Reply",
	ICMPv6TypeMLDQuery:              "MLD_Query",
	ICMPv6TypeMLDReport:             "MLD_Report",
	ICMPv6TypeMLDDone:               "MLD_Done",
	ICMPv6TypeRouterSolicitation:    "Router_Solicit",
	ICMPv6TypeRouterAdvertisement:   "Router_Advert",
	ICMPv6TypeNeighborSolicitation:  "Neighbor_Solicit",
	ICMPv6TypeNeighborAdvertisement: "Neighbor_Advert",
	ICMPv6TypeRedirect:              "Redirect",
}

func (t ICMPv6Type) String() string {
	if name, ok := icmpv6TypeNames[t]; ok {
		return name
	}
	return "ICMPv6"
}

// IsNeighborDiscovery returns true for messages that carry a target address.
func (t ICMPv6Type) IsNeighborDiscovery() bool {
	return t == ICMPv6TypeNeighborSolicitation || t == ICMPv6TypeNeighborAdvertisement
}

type IPProtocol uint8

const (
	IPProtocolIPv6HopByHop    IPProtocol = 0
	IPProtocolICMPv4          IPProtocol = 1
	IPProtocolIGMP            IPProtocol = 2
	IPProtocolIPv4            IPProtocol = 4
	IPProtocolTCP             IPProtocol = 6
	IPProtocolUDP             IPProtocol = 17
	IPProtocolIPv6            IPProtocol = 41
	IPProtocolIPv6Routing     IPProtocol = 43
	IPProtocolIPv6Fragment    IPProtocol = 44
	IPProtocolGRE             IPProtocol = 47
	IPProtocolESP             IPProtocol = 50
	IPProtocolAH              IPProtocol = 51
	IPProtocolICMPv6          IPProtocol = 58
	IPProtocolNoNextHeader    IPProtocol = 59
	IPProtocolIPv6Destination IPProtocol = 60
	IPProtocolSCTP            IPProtocol = 132
)
