package ioenv

import (
	"bytes"
	"fmt"
)

// Refiller is called whenever a BufferedReader's internal buffer has been
// exhausted and more bytes are needed from the underlying stream. It
// returns the bytes read (zero-length, no error, at end of stream) or an
// error.
type Refiller func() ([]byte, error)

// BufferedReader accumulates bytes pulled from a Refiller and serves them
// out either a line at a time (Gets, for HTTP request lines and headers)
// or a fixed span at a time (GetSpan, for WebSocket payloads and anything
// else of known length). It never discards bytes the caller hasn't
// consumed yet, so a Gets call that only partially fills its line leaves
// the rest available for the next call.
type BufferedReader struct {
	refill Refiller
	buf    []byte
	pos    int
	eof    bool
}

// NewBufferedReader returns a BufferedReader that calls refill whenever it
// needs more data.
func NewBufferedReader(refill Refiller) *BufferedReader {
	return &BufferedReader{refill: refill}
}

// Available returns the number of buffered, not-yet-consumed bytes.
func (r *BufferedReader) Available() int { return len(r.buf) - r.pos }

func (r *BufferedReader) compact() {
	if r.pos == 0 {
		return
	}
	r.buf = r.buf[:copy(r.buf, r.buf[r.pos:])]
	r.pos = 0
}

func (r *BufferedReader) fill() error {
	if r.eof {
		return nil
	}
	chunk, err := r.refill()
	if err != nil {
		return err
	}
	if len(chunk) == 0 {
		r.eof = true
		return nil
	}
	r.compact()
	r.buf = append(r.buf, chunk...)
	return nil
}

// Gets reads and consumes one CRLF- or LF-terminated line, returning it
// without the terminator. It refills as needed and returns io.EOF-style
// behaviour (empty string, nil error, and a subsequent Available() of 0)
// only once the stream is exhausted with no further line available.
func (r *BufferedReader) Gets(maxLen int) (string, error) {
	for {
		if idx := bytes.IndexByte(r.buf[r.pos:], '\n'); idx >= 0 {
			end := r.pos + idx
			line := r.buf[r.pos:end]
			line = bytes.TrimSuffix(line, []byte{'\r'})
			r.pos = end + 1
			return string(line), nil
		}
		if maxLen > 0 && r.Available() >= maxLen {
			return "", fmt.Errorf("ioenv: line exceeds %d bytes", maxLen)
		}
		if r.eof {
			if r.Available() == 0 {
				return "", nil
			}
			line := string(r.buf[r.pos:])
			r.pos = len(r.buf)
			return line, nil
		}
		if err := r.fill(); err != nil {
			return "", err
		}
	}
}

// GetSpan reads and consumes exactly n bytes, refilling as needed. It
// returns an error if the stream ends before n bytes are available.
func (r *BufferedReader) GetSpan(n int) ([]byte, error) {
	for r.Available() < n {
		if r.eof {
			return nil, fmt.Errorf("ioenv: stream ended with %d of %d bytes available", r.Available(), n)
		}
		if err := r.fill(); err != nil {
			return nil, err
		}
	}
	out := make([]byte, n)
	copy(out, r.buf[r.pos:r.pos+n])
	r.pos += n
	return out, nil
}
