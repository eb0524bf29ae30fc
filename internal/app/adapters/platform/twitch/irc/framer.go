package irc

import "bytes"

// DefaultMaxPending bounds the unterminated tail. Twitch lines, tags included, stay far below it.
const DefaultMaxPending = 64 * 1024

var crlf = []byte("\r\n")

// Framer splits a byte stream into CRLF-terminated lines. An unterminated tail is kept
// until the next Feed, so the result does not depend on how the stream was chunked.
//
// A tail longer than MaxPending is dropped together with the rest of its line, and
// OnOverflow is told how many bytes were discarded.
type Framer struct {
	MaxPending int
	OnOverflow func(dropped int)

	buf        []byte
	discarding bool
}

// Feed returns every line completed by chunk, without the terminator.
func (f *Framer) Feed(chunk []byte) []string {
	f.buf = append(f.buf, chunk...)

	var lines []string
	for {
		idx := bytes.Index(f.buf, crlf)
		if idx < 0 {
			break
		}
		if f.discarding {
			// end of an overlong line
			f.discarding = false
		} else {
			lines = append(lines, string(f.buf[:idx]))
		}
		f.buf = f.buf[idx+len(crlf):]
	}

	if len(f.buf) > f.maxPending() {
		f.dropTail()
	}
	if len(f.buf) == 0 {
		f.buf = nil
	}
	return lines
}

// dropTail discards the pending bytes but keeps a trailing CR, which may pair with
// an LF at the start of the next chunk.
func (f *Framer) dropTail() {
	keep := 0
	if f.buf[len(f.buf)-1] == '\r' {
		keep = 1
	}
	dropped := len(f.buf) - keep
	f.buf = append(f.buf[:0], f.buf[len(f.buf)-keep:]...)
	f.discarding = true

	if f.OnOverflow != nil {
		f.OnOverflow(dropped)
	}
}

func (f *Framer) maxPending() int {
	if f.MaxPending > 0 {
		return f.MaxPending
	}
	return DefaultMaxPending
}

// Flush drops a partial line, e.g. one left over from a dead connection.
func (f *Framer) Flush() {
	f.buf = nil
	f.discarding = false
}

// Pending reports the number of buffered bytes not yet forming a line.
func (f *Framer) Pending() int {
	return len(f.buf)
}
