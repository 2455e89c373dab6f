package descriptor

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Notifier is the classic self-pipe: a wakeup mechanism safe to call from
// any goroutine (or, in the original C++, any signal handler) that a
// select-driven event loop can wait on alongside its sockets. notify
// writes a single byte to the pipe; the loop includes the read end in its
// descriptor set and calls reset once it has drained it.
type Notifier struct {
	readFD  Descriptor
	writeFD Descriptor
}

// NewNotifier creates a non-blocking pipe and returns a Notifier wrapping
// it.
func NewNotifier() (*Notifier, error) {
	var fds [2]int
	if err := unix.Pipe2(fds[:], unix.O_CLOEXEC|unix.O_NONBLOCK); err != nil {
		return nil, fmt.Errorf("descriptor: create notifier pipe: %w", err)
	}
	return &Notifier{readFD: FromRaw(fds[0]), writeFD: FromRaw(fds[1])}, nil
}

// WaitDescriptor returns the descriptor the event loop should add to its
// read set.
func (n *Notifier) WaitDescriptor() Descriptor { return n.readFD }

// Notify wakes anything waiting on WaitDescriptor. It is safe to call
// concurrently with Wait/Reset/Close: writing one byte to a pipe is an
// atomic operation, and a full pipe (meaning a notification is already
// pending) is treated as success.
func (n *Notifier) Notify() error {
	_, err := unix.Write(n.writeFD.Fd(), []byte{1})
	if err == unix.EAGAIN {
		return nil // already has a pending wakeup queued
	}
	if err != nil {
		return fmt.Errorf("descriptor: notify: %w", err)
	}
	return nil
}

// Reset drains every pending wakeup byte. Call it after WaitDescriptor
// reports readable, before re-entering the select loop.
func (n *Notifier) Reset() error {
	buf := make([]byte, 64)
	for {
		_, err := unix.Read(n.readFD.Fd(), buf)
		if err == unix.EAGAIN {
			return nil
		}
		if err != nil {
			return fmt.Errorf("descriptor: reset: %w", err)
		}
	}
}

// Wait blocks until Notify has been called (or a notification is already
// pending), then drains every pending wakeup byte as Reset does.
func (n *Notifier) Wait() error {
	fds := []unix.PollFd{{Fd: int32(n.readFD.Fd()), Events: unix.POLLIN}}
	for {
		_, err := unix.Poll(fds, -1)
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return fmt.Errorf("descriptor: wait: %w", err)
		}
		return n.Reset()
	}
}

// Close closes both ends of the pipe.
func (n *Notifier) Close() error {
	err1 := n.readFD.Close()
	err2 := n.writeFD.Close()
	if err1 != nil {
		return err1
	}
	return err2
}
