package ws

import (
	"fmt"
	"net"
	"syscall"
)

// socketFD extracts the raw file descriptor backing conn, for use in the
// poll set blockForInput watches alongside a channel's notifier.
func socketFD(conn net.Conn) (int, error) {
	sc, ok := conn.(syscall.Conn)
	if !ok {
		return 0, fmt.Errorf("ws: connection type %T has no raw descriptor", conn)
	}
	raw, err := sc.SyscallConn()
	if err != nil {
		return 0, fmt.Errorf("ws: SyscallConn: %w", err)
	}
	var fd int
	if err := raw.Control(func(rawFD uintptr) {
		fd = int(rawFD)
	}); err != nil {
		return 0, fmt.Errorf("ws: Control: %w", err)
	}
	return fd, nil
}
