package hexdump

import (
	"strings"
	"testing"
)

func seq(n int) []byte {
	buf := make([]byte, n)
	for i := range buf {
		buf[i] = byte(i)
	}
	return buf
}

func TestDumpSingleLine(t *testing.T) {
	out := Dump(seq(16))

	if strings.Contains(out, "\n") {
		t.Fatalf("expected one line, got %q", out)
	}
	if !strings.HasPrefix(out, "0000  ") {
		t.Errorf("wrong prefix: %q", out)
	}
	expected := "0000  00 01 02 03 04 05 06 07 08 09 0a 0b 0c 0d 0e 0f  |................|"
	if out != expected {
		t.Errorf("wrong line:\n got %q\nwant %q", out, expected)
	}
}

func TestDumpPartialLine(t *testing.T) {
	buf := []byte("ABCDEFGHIJKLMNOPQRST")
	lines := strings.Split(Dump(buf), "\n")

	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	expected := "0010  51 52 53 54 " + strings.Repeat("   ", 12) + " |QRST|"
	if lines[1] != expected {
		t.Errorf("wrong partial line:\n got %q\nwant %q", lines[1], expected)
	}
	if strings.Index(lines[0], "|") != strings.Index(lines[1], "|") {
		t.Errorf("ASCII pane is not aligned")
	}
}

func TestDumpLimit(t *testing.T) {
	lines := strings.Split(Dump(seq(128)), "\n")

	if len(lines) != MaxBytes/BytesPerLine {
		t.Fatalf("expected %d lines, got %d", MaxBytes/BytesPerLine, len(lines))
	}
	if !strings.HasPrefix(lines[3], "0030  30 31") {
		t.Errorf("wrong last line: %q", lines[3])
	}
	if strings.Contains(Dump(seq(128)), "0040") {
		t.Errorf("dump went past %d bytes", MaxBytes)
	}
}

func TestDumpEmpty(t *testing.T) {
	if out := Dump(nil); out != "" {
		t.Errorf("expected empty dump, got %q", out)
	}
}

func TestDumpASCIIPane(t *testing.T) {
	for start := 0; start < 256; start += MaxBytes {
		buf := make([]byte, MaxBytes)
		for i := range buf {
			buf[i] = byte(start + i)
		}

		lines := strings.Split(Dump(buf), "\n")
		for l, line := range lines {
			pane := line[strings.Index(line, "|")+1 : len(line)-1]
			for i := 0; i < len(pane); i++ {
				b := buf[l*BytesPerLine+i]
				want := byte('.')
				if b >= 32 && b <= 126 {
					want = b
				}
				if pane[i] != want {
					t.Errorf("byte 0x%02x rendered as %q, want %q", b, pane[i], want)
				}
			}
		}
	}
}

func BenchmarkDump(b *testing.B) {
	buf := seq(1500)
	for n := 0; n < b.N; n++ {
		_ = Dump(buf)
	}
}
