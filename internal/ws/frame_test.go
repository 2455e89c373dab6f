package ws

import (
	"bytes"
	"testing"

	"github.com/orbas1/pstore/internal/ioenv"
)

// maskedFrame returns the wire bytes for a masked client-to-server frame
// carrying payload, using a fixed non-zero mask so the test exercises the
// unmask path.
func maskedFrame(op Opcode, fin bool, payload []byte) []byte {
	var b0 byte
	if fin {
		b0 |= 0x80
	}
	b0 |= byte(op)

	length := len(payload)
	var out []byte
	switch {
	case length < 126:
		out = append(out, b0, 0x80|byte(length))
	case length <= 0xFFFF:
		out = append(out, b0, 0x80|126, byte(length>>8), byte(length))
	default:
		ext := make([]byte, 8)
		for i := 0; i < 8; i++ {
			ext[7-i] = byte(length >> (8 * i))
		}
		out = append(out, b0, 0x80|127)
		out = append(out, ext...)
	}

	mask := []byte{0x12, 0x34, 0x56, 0x78}
	out = append(out, mask...)
	masked := make([]byte, length)
	for i, c := range payload {
		masked[i] = c ^ mask[i%4]
	}
	return append(out, masked...)
}

func readerOf(chunks ...[]byte) *ioenv.BufferedReader {
	i := 0
	return ioenv.NewBufferedReader(func() ([]byte, error) {
		if i >= len(chunks) {
			return nil, nil
		}
		c := chunks[i]
		i++
		return c, nil
	})
}

func TestReadFrameSmallPayload(t *testing.T) {
	payload := []byte("hello")
	r := readerOf(maskedFrame(OpText, true, payload))
	f, err := ReadFrame(r, 0)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if f.Op != OpText || !f.Fin || !bytes.Equal(f.Payload, payload) {
		t.Fatalf("got %+v", f)
	}
}

func TestReadFrameExtended16(t *testing.T) {
	payload := bytes.Repeat([]byte{'x'}, 300)
	r := readerOf(maskedFrame(OpBinary, true, payload))
	f, err := ReadFrame(r, 0)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !bytes.Equal(f.Payload, payload) {
		t.Fatalf("payload mismatch, len=%d", len(f.Payload))
	}
}

func TestReadFrameExtended64(t *testing.T) {
	payload := bytes.Repeat([]byte{'y'}, 70000)
	r := readerOf(maskedFrame(OpBinary, true, payload))
	f, err := ReadFrame(r, 0)
	if err != nil {
		t.Fatalf("ReadFrame: %v", err)
	}
	if !bytes.Equal(f.Payload, payload) {
		t.Fatalf("payload mismatch, len=%d", len(f.Payload))
	}
}

func TestReadFrameRejectsUnmasked(t *testing.T) {
	// FIN, text, length 0, no mask bit set.
	r := readerOf([]byte{0x81, 0x00})
	_, err := ReadFrame(r, 0)
	if err == nil {
		t.Fatalf("expected error for unmasked frame")
	}
}

func TestReadFrameRejectsReservedBits(t *testing.T) {
	raw := maskedFrame(OpText, true, []byte("x"))
	raw[0] |= 0x40 // set RSV1
	r := readerOf(raw)
	_, err := ReadFrame(r, 0)
	if err == nil {
		t.Fatalf("expected error for reserved bit set")
	}
}

func TestReadFrameRejectsOverMax(t *testing.T) {
	payload := bytes.Repeat([]byte{'z'}, 200)
	r := readerOf(maskedFrame(OpBinary, true, payload))
	_, err := ReadFrame(r, 100)
	if err == nil {
		t.Fatalf("expected message-too-long error")
	}
}

func TestEncodeFrameRoundTrip(t *testing.T) {
	for _, n := range []int{0, 1, 125, 126, 65535, 65536} {
		payload := bytes.Repeat([]byte{'a'}, n)
		encoded := EncodeFrame(OpText, true, payload)

		// The server never masks its own frames, so reparse by hand: check
		// the header bits and trailing payload bytes directly.
		if encoded[0] != 0x80|byte(OpText) {
			t.Fatalf("n=%d: bad first byte %x", n, encoded[0])
		}
		if encoded[1]&0x80 != 0 {
			t.Fatalf("n=%d: server frame must not set the mask bit", n)
		}
		if !bytes.Equal(encoded[len(encoded)-n:], payload) {
			t.Fatalf("n=%d: payload mismatch", n)
		}
	}
}

func TestEncodeClose(t *testing.T) {
	frame := EncodeClose(CloseNormal, "bye")
	if frame[0] != 0x80|byte(OpClose) {
		t.Fatalf("bad opcode byte: %x", frame[0])
	}
	payloadLen := int(frame[1] & 0x7F)
	if payloadLen != 2+len("bye") {
		t.Fatalf("payload length = %d", payloadLen)
	}
}

func TestCloseCodeIsValid(t *testing.T) {
	cases := map[CloseCode]bool{
		CloseNormal:          true,
		CloseProtocolError:   true,
		CloseNoStatusRcvd:    false,
		CloseAbnormalClosure: false,
		CloseTLSHandshake:    false,
		CloseReserved:        false,
		CloseCode(3000):      true,
		CloseCode(5000):      false,
	}
	for code, want := range cases {
		if got := code.IsValid(); got != want {
			t.Errorf("CloseCode(%d).IsValid() = %v, want %v", code, got, want)
		}
	}
}
