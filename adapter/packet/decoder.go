package packet

import (
	"sync/atomic"

	"github.com/pkg/errors"

	"github.com/forest33/framescope/business/entity"
	"github.com/forest33/framescope/pkg/cursor"
	"github.com/forest33/framescope/pkg/logger"
)

// Decoder turns captured Ethernet frames into reports. It keeps no per-frame
// state, so one Decoder may be shared by concurrent callers.
type Decoder struct {
	log     *logger.Logger
	tracing atomic.Bool
}

type Config struct {
	Tracing bool
}

func New(cfg *Config, log *logger.Logger) *Decoder {
	d := &Decoder{
		log: log.Layer("decoder"),
	}
	d.tracing.Store(cfg.Tracing)
	return d
}

// SetTracing enables logging of the gopacket view of every decoded frame.
func (d *Decoder) SetTracing(enabled bool) {
	d.tracing.Store(enabled)
}

// Decode dissects the captured bytes of frame. It fails only when the frame
// is too short for an Ethernet header; every deeper anomaly is rendered as an
// unresolved or unknown layer.
func (d *Decoder) Decode(frame *entity.Frame) (*entity.Report, error) {
	data := frame.Captured()
	c := cursor.New(data)

	link, err := decodeLink(c)
	if err != nil {
		return nil, errors.Wrap(err, "ethernet header")
	}

	network := decodeNetwork(c, link)

	var transport entity.TransportLayer
	switch n := network.(type) {
	case *entity.IPv4:
		transport = decodeTransport(c, n.Protocol, n.PayloadOffset, false)
	case *entity.IPv6:
		transport = decodeTransport(c, n.NextHeader, n.PayloadOffset, true)
	}

	report := assemble(c, link, network, transport)

	if d.tracing.Load() {
		d.trace(data, link, network, transport, report)
	}

	return report, nil
}
