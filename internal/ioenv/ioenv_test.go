package ioenv

import (
	"errors"
	"testing"
)

func TestResultOkAndErr(t *testing.T) {
	ok := Ok(42)
	if !ok.IsOk() {
		t.Fatalf("expected Ok result")
	}
	v, got := ok.Value()
	if !got || v != 42 {
		t.Fatalf("Value() = %d, %v", v, got)
	}

	sentinel := errors.New("boom")
	bad := Err[int](sentinel)
	if bad.IsOk() {
		t.Fatalf("expected error result")
	}
	if bad.Error() != sentinel {
		t.Fatalf("Error() = %v, want %v", bad.Error(), sentinel)
	}
	if _, got := bad.Value(); got {
		t.Fatalf("Value() on error result should report false")
	}
}

func chunkRefiller(chunks [][]byte) Refiller {
	i := 0
	return func() ([]byte, error) {
		if i >= len(chunks) {
			return nil, nil
		}
		c := chunks[i]
		i++
		return c, nil
	}
}

func TestBufferedReaderGetsAcrossRefills(t *testing.T) {
	r := NewBufferedReader(chunkRefiller([][]byte{
		[]byte("GET / HTTP/1"),
		[]byte(".1\r\nHost: x\r\n\r\n"),
	}))

	line, err := r.Gets(0)
	if err != nil || line != "GET / HTTP/1.1" {
		t.Fatalf("line = %q, err = %v", line, err)
	}
	line, err = r.Gets(0)
	if err != nil || line != "Host: x" {
		t.Fatalf("line = %q, err = %v", line, err)
	}
	line, err = r.Gets(0)
	if err != nil || line != "" {
		t.Fatalf("blank terminator line = %q, err = %v", line, err)
	}
}

func TestBufferedReaderGetSpan(t *testing.T) {
	r := NewBufferedReader(chunkRefiller([][]byte{
		{1, 2, 3},
		{4, 5, 6, 7},
	}))
	span, err := r.GetSpan(5)
	if err != nil {
		t.Fatalf("GetSpan: %v", err)
	}
	want := []byte{1, 2, 3, 4, 5}
	for i, b := range want {
		if span[i] != b {
			t.Fatalf("span = %v, want %v", span, want)
		}
	}
	if r.Available() != 2 {
		t.Fatalf("Available() = %d, want 2", r.Available())
	}
}

func TestBufferedReaderGetSpanShortStream(t *testing.T) {
	r := NewBufferedReader(chunkRefiller([][]byte{{1, 2}}))
	if _, err := r.GetSpan(5); err == nil {
		t.Fatalf("expected error for short stream")
	}
}
