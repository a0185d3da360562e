package packet

import (
	"github.com/forest33/framescope/business/entity"
	"github.com/forest33/framescope/pkg/cursor"
)

const (
	EthernetHeaderLength = 14
	VLANTagLength        = 4
)

// decodeLink reads the Ethernet header and unwraps a single 802.1Q tag.
// A stacked tag is left in place: the resolved type is then 0x8100 again.
func decodeLink(c cursor.Cursor) (*entity.LinkLayer, error) {
	if err := c.Require(EthernetHeaderLength); err != nil {
		return nil, err
	}

	r := newFieldReader(c, 0)
	link := &entity.LinkLayer{
		Destination:   r.mac(0),
		Source:        r.mac(6),
		EtherType:     entity.EtherType(r.u16(12)),
		PayloadOffset: EthernetHeaderLength,
	}
	if r.err != nil {
		return nil, r.err
	}

	if link.EtherType != entity.EtherTypeVLAN {
		return link, nil
	}

	tci := r.u16(EthernetHeaderLength)
	inner := r.u16(EthernetHeaderLength + 2)
	if r.err != nil {
		// tag cut short, the frame stays unresolved at the network layer
		return link, nil
	}

	tag := entity.ParseVLANTag(tci)
	link.VLAN = &tag
	link.EtherType = entity.EtherType(inner)
	link.PayloadOffset += VLANTagLength

	return link, nil
}
