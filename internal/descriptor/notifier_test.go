package descriptor

import (
	"testing"
	"time"

	"golang.org/x/sys/unix"
)

func TestNotifyWakesReadSet(t *testing.T) {
	n, err := NewNotifier()
	if err != nil {
		t.Fatalf("NewNotifier: %v", err)
	}
	defer n.Close()

	if err := n.Notify(); err != nil {
		t.Fatalf("Notify: %v", err)
	}

	fd := n.WaitDescriptor().Fd()
	fds := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
	nReady, err := unix.Poll(fds, int(time.Second/time.Millisecond))
	if err != nil {
		t.Fatalf("Poll: %v", err)
	}
	if nReady != 1 {
		t.Fatalf("poll returned %d ready, want 1", nReady)
	}

	if err := n.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}

	nReady, err = unix.Poll(fds, 10)
	if err != nil {
		t.Fatalf("Poll after reset: %v", err)
	}
	if nReady != 0 {
		t.Fatalf("poll returned %d ready after Reset, want 0", nReady)
	}
}

func TestNotifyIdempotentWhenPipeFull(t *testing.T) {
	n, err := NewNotifier()
	if err != nil {
		t.Fatalf("NewNotifier: %v", err)
	}
	defer n.Close()

	for i := 0; i < 4096; i++ {
		if err := n.Notify(); err != nil {
			t.Fatalf("Notify #%d: %v", i, err)
		}
	}
}
