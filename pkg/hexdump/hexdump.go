// Package hexdump renders the head of a buffer as offset/hex/ASCII lines.
package hexdump

import (
	"github.com/forest33/framescope/pkg/textbuf"
)

const (
	// MaxBytes is the maximum number of bytes a dump ever inspects.
	MaxBytes = 64
	// BytesPerLine is the number of byte cells on a line.
	BytesPerLine = 16

	lineLength = 6 + BytesPerLine*3 + 2 + BytesPerLine + 1
	hexDigits  = "0123456789abcdef"
)

// Dump renders at most MaxBytes of buf. Lines are separated by '\n', the
// last line has no trailing newline. An empty buffer renders as "".
func Dump(buf []byte) string {
	n := min(len(buf), MaxBytes)
	lines := (n + BytesPerLine - 1) / BytesPerLine
	b := textbuf.New(max(lines*(lineLength+1), 1))
	Append(b, buf)
	return b.String()
}

// Append writes the dump of buf into b.
func Append(b *textbuf.Buffer, buf []byte) {
	data := buf[:min(len(buf), MaxBytes)]

	for off := 0; off < len(data); off += BytesPerLine {
		if off > 0 {
			_ = b.WriteByte('\n')
		}
		chunk := data[off:min(off+BytesPerLine, len(data))]
		appendLine(b, off, chunk)
	}
}

func appendLine(b *textbuf.Buffer, off int, chunk []byte) {
	var line [lineLength]byte

	line[0] = hexDigits[(off>>12)&0xf]
	line[1] = hexDigits[(off>>8)&0xf]
	line[2] = hexDigits[(off>>4)&0xf]
	line[3] = hexDigits[off&0xf]
	line[4] = ' '
	line[5] = ' '

	p := 6
	for i := 0; i < BytesPerLine; i++ {
		if i < len(chunk) {
			line[p] = hexDigits[chunk[i]>>4]
			line[p+1] = hexDigits[chunk[i]&0xf]
		} else {
			line[p] = ' '
			line[p+1] = ' '
		}
		line[p+2] = ' '
		p += 3
	}

	line[p] = ' '
	line[p+1] = '|'
	p += 2
	for _, c := range chunk {
		line[p] = Printable(c)
		p++
	}
	line[p] = '|'
	p++

	_, _ = b.Write(line[:p])
}

// Printable returns c when it is printable ASCII, '.' otherwise.
func Printable(c byte) byte {
	if c >= 0x20 && c <= 0x7e {
		return c
	}
	return '.'
}
