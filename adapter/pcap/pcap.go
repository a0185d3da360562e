// Package pcap captures frames from network devices with libpcap.
package pcap

import (
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
	"github.com/pkg/errors"

	"github.com/forest33/framescope/business/entity"
	"github.com/forest33/framescope/pkg/logger"
	"github.com/forest33/framescope/pkg/structs"
)

type Source struct {
	log *logger.Logger
}

type session struct {
	log       *logger.Logger
	handle    *pcap.Handle
	device    string
	closed    atomic.Bool
	closeOnce sync.Once
}

func New(log *logger.Logger) *Source {
	return &Source{
		log: log.Layer("pcap"),
	}
}

// Open starts a live capture on device. A zero timeout blocks until a frame arrives.
func (s *Source) Open(device string, snapshotLength int, promiscuous bool, timeout time.Duration) (entity.CaptureSession, error) {
	if device == "" {
		return nil, entity.ErrNoCaptureDevice
	}

	handle, err := pcap.OpenLive(device, int32(snapshotLength), promiscuous, structs.If(timeout > 0, timeout, pcap.BlockForever))
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open device %s", device)
	}

	if handle.LinkType() != layers.LinkTypeEthernet {
		handle.Close()
		return nil, errors.Wrapf(entity.ErrUnsupportedLinkType, "%s on %s", handle.LinkType(), device)
	}

	s.log.Info().
		Str("device", device).
		Int("snapshot_length", snapshotLength).
		Bool("promiscuous", promiscuous).
		Dur("timeout", timeout).
		Msg("capture started")

	return &session{
		log:    s.log,
		handle: handle,
		device: device,
	}, nil
}

// ListDevices returns the names of all capture devices in libpcap order.
func (s *Source) ListDevices() ([]string, error) {
	devs, err := pcap.FindAllDevs()
	if err != nil {
		return nil, errors.Wrap(err, "failed to list devices")
	}
	return structs.Map(devs, func(d pcap.Interface) string { return d.Name }), nil
}

func (s *session) Next() (*entity.Frame, error) {
	if s.closed.Load() {
		return nil, entity.ErrSessionClosed
	}

	data, ci, err := s.handle.ReadPacketData()
	if err != nil {
		return nil, readError(err)
	}

	return &entity.Frame{
		Data:           data,
		CapturedLength: min(ci.CaptureLength, len(data)),
		OriginalLength: ci.Length,
		Timestamp:      ci.Timestamp,
		Device:         s.device,
	}, nil
}

func (s *session) Close() {
	s.closeOnce.Do(func() {
		s.closed.Store(true)
		if stats, err := s.handle.Stats(); err == nil {
			s.log.Info().
				Str("device", s.device).
				Int("received", stats.PacketsReceived).
				Int("dropped", stats.PacketsDropped).
				Int("if_dropped", stats.PacketsIfDropped).
				Msg("capture stopped")
		}
		s.handle.Close()
	})
}

func readError(err error) error {
	switch {
	case errors.Is(err, pcap.NextErrorTimeoutExpired):
		return entity.ErrCaptureTimeout
	case errors.Is(err, io.EOF), errors.Is(err, pcap.NextErrorNoMorePackets):
		return entity.NewFatalCaptureError(io.EOF)
	default:
		return entity.NewRecoverableCaptureError(err)
	}
}
