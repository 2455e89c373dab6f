package ws

import (
	"fmt"
	"time"

	"golang.org/x/sys/unix"
)

// InputTimeout bounds how long blockForInput waits for activity before
// returning with neither flag set.
const InputTimeout = 60 * time.Second

// InputsReady reports which of the watched descriptors had activity.
type InputsReady struct {
	// Socket is true when the connection's socket has data (or EOF/error)
	// waiting to be read.
	Socket bool
	// Notify is true when the channel notifier was signalled, meaning a
	// published message is waiting to be drained from the subscription.
	Notify bool
}

// blockForInput waits for socketFD to become readable, notifyFD (if
// non-negative) to be signalled, or InputTimeout to elapse, whichever comes
// first. notifyFD of -1 means the connection has no subscription to wait
// on.
func blockForInput(socketFD, notifyFD int) (InputsReady, error) {
	fds := make([]unix.PollFd, 1, 2)
	fds[0] = unix.PollFd{Fd: int32(socketFD), Events: unix.POLLIN}
	haveNotify := notifyFD >= 0
	if haveNotify {
		fds = append(fds, unix.PollFd{Fd: int32(notifyFD), Events: unix.POLLIN})
	}

	for {
		n, err := unix.Poll(fds, int(InputTimeout/time.Millisecond))
		if err == unix.EINTR {
			continue
		}
		if err != nil {
			return InputsReady{}, fmt.Errorf("ws: poll: %w", err)
		}
		if n == 0 {
			return InputsReady{}, nil
		}
		ready := InputsReady{Socket: isReady(fds[0])}
		if haveNotify {
			ready.Notify = isReady(fds[1])
		}
		return ready, nil
	}
}

func isReady(pfd unix.PollFd) bool {
	return pfd.Revents&(unix.POLLIN|unix.POLLERR|unix.POLLHUP) != 0
}
