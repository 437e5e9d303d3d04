// Package frame reassembles a raw serial byte stream into newline
// terminated lines.
package frame

import "bytes"

// Terminator ends a framed line. It is kept on every drained line.
const Terminator = '\n'

// Framer buffers incoming chunks and hands out complete lines.
//
// A Framer is not safe for concurrent use; the continuous reader is its
// only writer. Bytes without a terminator stay buffered until one arrives,
// with no upper bound on the pending line.
type Framer struct {
	buf []byte
}

// New returns an empty Framer.
func New() *Framer {
	return &Framer{}
}

// Feed appends a chunk to the pending buffer.
func (f *Framer) Feed(chunk []byte) {
	f.buf = append(f.buf, chunk...)
}

// Drain extracts every complete line, terminator included, in arrival
// order. A trailing partial line is left for the next Feed. Empty lines
// are delivered as a lone terminator.
func (f *Framer) Drain() [][]byte {
	var lines [][]byte
	for {
		i := bytes.IndexByte(f.buf, Terminator)
		if i < 0 {
			break
		}
		line := make([]byte, i+1)
		copy(line, f.buf[:i+1])
		lines = append(lines, line)
		f.buf = f.buf[i+1:]
	}
	if len(f.buf) == 0 {
		// release the backing array once everything was consumed
		f.buf = nil
	}
	return lines
}

// Buffered returns the number of bytes waiting for a terminator.
func (f *Framer) Buffered() int {
	return len(f.buf)
}

// Reset discards any pending partial line.
func (f *Framer) Reset() {
	f.buf = nil
}

// IsBlank reports whether a framed line carries no visible content. The
// framer itself delivers blank lines; consumers use this to skip them as
// trigger candidates.
func IsBlank(line []byte) bool {
	return len(bytes.TrimSpace(line)) == 0
}
