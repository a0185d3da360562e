// Package pcapfile reads frames from pcap and pcapng capture files.
package pcapfile

import (
	"bufio"
	"io"
	"os"
	"sync"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/pkg/errors"

	"github.com/forest33/framescope/business/entity"
	"github.com/forest33/framescope/pkg/logger"
)

type Config struct {
	Path string
}

// Source opens capture files. The device name passed to Open is the file path.
type Source struct {
	log *logger.Logger
	cfg *Config
}

type packetReader interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
	LinkType() layers.LinkType
}

type session struct {
	log            *logger.Logger
	file           *os.File
	reader         packetReader
	path           string
	snapshotLength int
	closed         bool
	closeOnce      sync.Once
}

func New(cfg *Config, log *logger.Logger) *Source {
	return &Source{
		log: log.Layer("pcapfile"),
		cfg: cfg,
	}
}

// Open opens path for reading. Promiscuous mode and the read timeout have
// no meaning for a file and are ignored; frames longer than snapshotLength
// are cut the way a live capture would cut them.
func (s *Source) Open(path string, snapshotLength int, _ bool, _ time.Duration) (entity.CaptureSession, error) {
	if path == "" {
		path = s.cfg.Path
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open capture file %s", path)
	}

	reader, err := newReader(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "failed to read capture file %s", path)
	}

	if reader.LinkType() != layers.LinkTypeEthernet {
		_ = f.Close()
		return nil, errors.Wrapf(entity.ErrUnsupportedLinkType, "%s in %s", reader.LinkType(), path)
	}

	s.log.Info().
		Str("file", path).
		Int("snapshot_length", snapshotLength).
		Msg("capture file opened")

	return &session{
		log:            s.log,
		file:           f,
		reader:         reader,
		path:           path,
		snapshotLength: snapshotLength,
	}, nil
}

// ListDevices returns the configured file path.
func (s *Source) ListDevices() ([]string, error) {
	if s.cfg.Path == "" {
		return nil, entity.ErrNoCaptureDevice
	}
	return []string{s.cfg.Path}, nil
}

// newReader detects the file format: classic pcap first, pcapng otherwise.
func newReader(f *os.File) (packetReader, error) {
	r, err := pcapgo.NewReader(bufio.NewReader(f))
	if err == nil {
		return r, nil
	}

	if _, serr := f.Seek(0, io.SeekStart); serr != nil {
		return nil, serr
	}

	ng, ngErr := pcapgo.NewNgReader(bufio.NewReader(f), pcapgo.DefaultNgReaderOptions)
	if ngErr != nil {
		return nil, errors.Wrapf(ngErr, "neither pcap (%v) nor pcapng", err)
	}

	return ng, nil
}

func (s *session) Next() (*entity.Frame, error) {
	if s.closed {
		return nil, entity.ErrSessionClosed
	}

	data, ci, err := s.reader.ReadPacketData()
	if err != nil {
		// a file cannot recover from a read error, every one ends the session
		if errors.Is(err, io.EOF) {
			return nil, entity.NewFatalCaptureError(io.EOF)
		}
		return nil, entity.NewFatalCaptureError(errors.Wrap(err, s.path))
	}

	captured := min(ci.CaptureLength, len(data))
	if s.snapshotLength > 0 && captured > s.snapshotLength {
		captured = s.snapshotLength
	}

	return &entity.Frame{
		Data:           data[:captured],
		CapturedLength: captured,
		OriginalLength: ci.Length,
		Timestamp:      ci.Timestamp,
		Device:         s.path,
	}, nil
}

func (s *session) Close() {
	s.closeOnce.Do(func() {
		s.closed = true
		if err := s.file.Close(); err != nil {
			s.log.Error().Err(err).Str("file", s.path).Msg("failed to close capture file")
		}
	})
}
