// Package descriptor wraps raw POSIX file descriptors as move-only Go
// values, and builds the self-pipe notifier the select-driven server loop
// uses to wake itself outside of socket readiness.
package descriptor

import (
	"golang.org/x/sys/unix"
)

// Descriptor is a move-only wrapper around a raw file descriptor. The zero
// value is not valid; use one of the constructors. Close is idempotent.
type Descriptor struct {
	fd     int
	closed bool
}

// FromRaw wraps an already-open file descriptor.
func FromRaw(fd int) Descriptor { return Descriptor{fd: fd} }

// Fd returns the raw descriptor for use in a select/poll set. It remains
// valid until Close.
func (d Descriptor) Fd() int { return d.fd }

// Valid reports whether the descriptor has not been closed.
func (d Descriptor) Valid() bool { return !d.closed && d.fd >= 0 }

// Close closes the underlying descriptor exactly once.
func (d *Descriptor) Close() error {
	if d.closed || d.fd < 0 {
		return nil
	}
	d.closed = true
	return unix.Close(d.fd)
}
