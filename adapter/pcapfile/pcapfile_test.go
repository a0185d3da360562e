package pcapfile

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"

	"github.com/forest33/framescope/business/entity"
	"github.com/forest33/framescope/pkg/logger"
)

var testTime = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func testFrames() [][]byte {
	return [][]byte{
		bytes.Repeat([]byte{0xaa}, 60),
		bytes.Repeat([]byte{0xbb}, 200),
		bytes.Repeat([]byte{0xcc}, 14),
	}
}

func newTestSource(path string) *Source {
	return New(&Config{Path: path}, logger.New(logger.Config{Level: "error", Quiet: true}))
}

func writePcap(t *testing.T, linkType layers.LinkType, frames [][]byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "frames.pcap")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w := pcapgo.NewWriter(f)
	if err := w.WriteFileHeader(65536, linkType); err != nil {
		t.Fatal(err)
	}
	for i, data := range frames {
		ci := gopacket.CaptureInfo{
			Timestamp:     testTime.Add(time.Duration(i) * time.Millisecond),
			CaptureLength: len(data),
			Length:        len(data),
		}
		if err := w.WritePacket(ci, data); err != nil {
			t.Fatal(err)
		}
	}

	return path
}

func writePcapng(t *testing.T, frames [][]byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "frames.pcapng")
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	w, err := pcapgo.NewNgWriter(f, layers.LinkTypeEthernet)
	if err != nil {
		t.Fatal(err)
	}
	for _, data := range frames {
		ci := gopacket.CaptureInfo{Timestamp: testTime, CaptureLength: len(data), Length: len(data)}
		if err := w.WritePacket(ci, data); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatal(err)
	}

	return path
}

func readAll(t *testing.T, sess entity.CaptureSession) ([]*entity.Frame, error) {
	t.Helper()

	frames := make([]*entity.Frame, 0, 3)
	for {
		frame, err := sess.Next()
		if err != nil {
			return frames, err
		}
		frames = append(frames, frame)
	}
}

func TestReadFormats(t *testing.T) {
	tests := map[string]string{
		"pcap":   writePcap(t, layers.LinkTypeEthernet, testFrames()),
		"pcapng": writePcapng(t, testFrames()),
	}

	for name, path := range tests {
		t.Run(name, func(t *testing.T) {
			src := newTestSource(path)
			sess, err := src.Open(path, 1600, true, time.Second)
			if err != nil {
				t.Fatalf("failed to open: %v", err)
			}
			defer sess.Close()

			frames, err := readAll(t, sess)
			if !entity.IsFatalCaptureError(err) {
				t.Fatalf("expected fatal end of file, got %v", err)
			}

			expected := testFrames()
			if len(frames) != len(expected) {
				t.Fatalf("expected %d frames, got %d", len(expected), len(frames))
			}
			for i, frame := range frames {
				if !bytes.Equal(frame.Data, expected[i]) {
					t.Errorf("frame %d: data mismatch", i)
				}
				if frame.CapturedLength != len(expected[i]) || frame.OriginalLength != len(expected[i]) {
					t.Errorf("frame %d: wrong lengths %d/%d", i, frame.CapturedLength, frame.OriginalLength)
				}
				if frame.Device != path {
					t.Errorf("frame %d: wrong device %q", i, frame.Device)
				}
			}
		})
	}
}

func TestSnapshotLength(t *testing.T) {
	path := writePcap(t, layers.LinkTypeEthernet, testFrames())

	sess, err := newTestSource(path).Open("", 100, false, 0)
	if err != nil {
		t.Fatalf("failed to open: %v", err)
	}
	defer sess.Close()

	frames, _ := readAll(t, sess)
	if len(frames) != 3 {
		t.Fatalf("expected 3 frames, got %d", len(frames))
	}

	big := frames[1]
	if big.CapturedLength != 100 || len(big.Data) != 100 || big.OriginalLength != 200 {
		t.Errorf("snapshot length not applied: captured %d, data %d, original %d",
			big.CapturedLength, len(big.Data), big.OriginalLength)
	}
}

func TestUnsupportedLinkType(t *testing.T) {
	path := writePcap(t, layers.LinkTypeRaw, testFrames())

	if _, err := newTestSource(path).Open(path, 1600, true, 0); !errors.Is(err, entity.ErrUnsupportedLinkType) {
		t.Fatalf("expected ErrUnsupportedLinkType, got %v", err)
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	garbage := filepath.Join(dir, "garbage.pcap")
	if err := os.WriteFile(garbage, []byte("definitely not a capture file"), 0o600); err != nil {
		t.Fatal(err)
	}

	for _, path := range []string{filepath.Join(dir, "missing.pcap"), garbage} {
		if _, err := newTestSource(path).Open(path, 1600, true, 0); err == nil {
			t.Errorf("%s: expected error", path)
		}
	}
}

func TestCloseIdempotent(t *testing.T) {
	path := writePcap(t, layers.LinkTypeEthernet, testFrames())

	sess, err := newTestSource(path).Open(path, 1600, true, 0)
	if err != nil {
		t.Fatalf("failed to open: %v", err)
	}

	sess.Close()
	sess.Close()

	if _, err := sess.Next(); !errors.Is(err, entity.ErrSessionClosed) {
		t.Fatalf("expected ErrSessionClosed, got %v", err)
	}
}

func TestListDevices(t *testing.T) {
	devices, err := newTestSource("/tmp/x.pcap").ListDevices()
	if err != nil || len(devices) != 1 || devices[0] != "/tmp/x.pcap" {
		t.Fatalf("unexpected devices %v, error %v", devices, err)
	}

	if _, err := newTestSource("").ListDevices(); !errors.Is(err, entity.ErrNoCaptureDevice) {
		t.Fatalf("expected ErrNoCaptureDevice, got %v", err)
	}
}
