package ws

import "testing"

func TestFeedSingleFrameMessage(t *testing.T) {
	var cmd Command
	outcome, _ := cmd.Feed(Frame{Op: OpText, Fin: true, Payload: []byte("hi")})
	if outcome != OutcomeMessage {
		t.Fatalf("outcome = %v, want OutcomeMessage", outcome)
	}
	if string(cmd.Payload) != "hi" {
		t.Fatalf("payload = %q", cmd.Payload)
	}
}

func TestFeedFragmentedMessage(t *testing.T) {
	var cmd Command
	if outcome, _ := cmd.Feed(Frame{Op: OpText, Fin: false, Payload: []byte("hel")}); outcome != OutcomeContinue {
		t.Fatalf("first fragment outcome = %v", outcome)
	}
	if outcome, _ := cmd.Feed(Frame{Op: OpContinuation, Fin: false, Payload: []byte("lo ")}); outcome != OutcomeContinue {
		t.Fatalf("second fragment outcome = %v", outcome)
	}
	outcome, _ := cmd.Feed(Frame{Op: OpContinuation, Fin: true, Payload: []byte("world")})
	if outcome != OutcomeMessage {
		t.Fatalf("final fragment outcome = %v", outcome)
	}
	if string(cmd.Payload) != "hello world" {
		t.Fatalf("payload = %q", cmd.Payload)
	}
}

func TestFeedContinuationWithoutStart(t *testing.T) {
	var cmd Command
	outcome, code := cmd.Feed(Frame{Op: OpContinuation, Fin: true, Payload: []byte("x")})
	if outcome != OutcomeClose || code != CloseProtocolError {
		t.Fatalf("outcome=%v code=%v, want close/protocol-error", outcome, code)
	}
}

func TestFeedNewDataFrameMidMessage(t *testing.T) {
	var cmd Command
	cmd.Feed(Frame{Op: OpText, Fin: false, Payload: []byte("a")})
	outcome, code := cmd.Feed(Frame{Op: OpBinary, Fin: true, Payload: []byte("b")})
	if outcome != OutcomeClose || code != CloseProtocolError {
		t.Fatalf("outcome=%v code=%v, want close/protocol-error", outcome, code)
	}
}

func TestFeedFragmentedControlFrameRejected(t *testing.T) {
	var cmd Command
	outcome, code := cmd.Feed(Frame{Op: OpPing, Fin: false, Payload: []byte("x")})
	if outcome != OutcomeClose || code != CloseProtocolError {
		t.Fatalf("outcome=%v code=%v, want close/protocol-error", outcome, code)
	}
}

func TestFeedOversizeControlFrameRejected(t *testing.T) {
	var cmd Command
	big := make([]byte, 126)
	outcome, code := cmd.Feed(Frame{Op: OpPing, Fin: true, Payload: big})
	if outcome != OutcomeClose || code != CloseProtocolError {
		t.Fatalf("outcome=%v code=%v, want close/protocol-error", outcome, code)
	}
}

func TestFeedPingPassesThrough(t *testing.T) {
	var cmd Command
	outcome, _ := cmd.Feed(Frame{Op: OpPing, Fin: true, Payload: []byte("ping")})
	if outcome != OutcomeContinue {
		t.Fatalf("outcome = %v, want OutcomeContinue", outcome)
	}
}

func TestFeedInvalidUTF8TextClosesConnection(t *testing.T) {
	var cmd Command
	outcome, code := cmd.Feed(Frame{Op: OpText, Fin: true, Payload: []byte{0xff, 0xfe, 0xfd}})
	if outcome != OutcomeClose || code != CloseInvalidPayload {
		t.Fatalf("outcome=%v code=%v, want close/invalid-payload", outcome, code)
	}
}

func TestFeedCloseFrameReflectsCode(t *testing.T) {
	var cmd Command
	payload := []byte{0x03, 0xE8} // 1000, normal
	outcome, code := cmd.Feed(Frame{Op: OpClose, Fin: true, Payload: payload})
	if outcome != OutcomeClose || code != CloseNormal {
		t.Fatalf("outcome=%v code=%v, want close/normal", outcome, code)
	}
}

func TestFeedCloseFrameEmptyPayload(t *testing.T) {
	var cmd Command
	outcome, code := cmd.Feed(Frame{Op: OpClose, Fin: true})
	if outcome != OutcomeClose || code != CloseNormal {
		t.Fatalf("outcome=%v code=%v, want close/normal", outcome, code)
	}
}

func TestFeedCloseFrameInvalidCode(t *testing.T) {
	var cmd Command
	// 1005 (no_status_rcvd) must never appear on the wire.
	payload := []byte{0x03, 0xED}
	outcome, code := cmd.Feed(Frame{Op: OpClose, Fin: true, Payload: payload})
	if outcome != OutcomeClose || code != CloseProtocolError {
		t.Fatalf("outcome=%v code=%v, want close/protocol-error", outcome, code)
	}
}

func TestReset(t *testing.T) {
	var cmd Command
	cmd.Feed(Frame{Op: OpText, Fin: true, Payload: []byte("done")})
	cmd.Reset()
	if cmd.Op != OpContinuation || len(cmd.Payload) != 0 {
		t.Fatalf("Reset did not clear command: %+v", cmd)
	}
}
