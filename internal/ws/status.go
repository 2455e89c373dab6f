package ws

import (
	"fmt"
	"net"
	"sync/atomic"
)

// State is one of the accept loop's lifecycle states.
type State int32

const (
	StateInitializing State = iota
	StateListening
	StateClosing
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateListening:
		return "listening"
	case StateClosing:
		return "closing"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Status tracks an accept loop's lifecycle and the port it is bound to, so
// that Quit can tell whether the loop is blocked in Accept and, if so, wake
// it with a loopback connection rather than leaving it to time out.
type Status struct {
	state atomic.Int32
	port  atomic.Int32
}

// NewStatus returns a Status in the initializing state for the given port.
// A port of 0 means "not yet known" (e.g. an ephemeral listen port); set it
// with SetPort once the listener has bound.
func NewStatus(port int) *Status {
	s := &Status{}
	s.state.Store(int32(StateInitializing))
	s.port.Store(int32(port))
	return s
}

// SetPort records the port the listener is actually bound to. Used when the
// caller asked for an ephemeral port (0) and must learn the real one.
func (s *Status) SetPort(port int) { s.port.Store(int32(port)) }

// Port returns the listener's port.
func (s *Status) Port() int { return int(s.port.Load()) }

// Listening transitions from expected to the listening state, returning
// true if the transition happened.
func (s *Status) Listening(expected State) bool {
	return s.state.CompareAndSwap(int32(expected), int32(StateListening))
}

// Shutdown sets the state to closing and returns the previous state.
func (s *Status) Shutdown() State {
	return State(s.state.Swap(int32(StateClosing)))
}

// State returns the current state.
func (s *Status) State() State { return State(s.state.Load()) }

// Quit requests that the accept loop governed by status shut down. If the
// loop was blocked inside Accept, a loopback connection is made to wake it;
// the new connection is accepted and immediately dropped once the loop
// notices the closing state.
func Quit(status *Status) {
	if status == nil {
		return
	}
	if status.Shutdown() != StateListening {
		return
	}
	addr := fmt.Sprintf("127.0.0.1:%d", status.Port())
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return
	}
	conn.Close()
}
