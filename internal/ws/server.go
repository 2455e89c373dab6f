package ws

import (
	"fmt"
	"net"

	"github.com/sirupsen/logrus"

	"github.com/orbas1/pstore/internal/pubsub"
)

// Server owns the listening socket for pstore's status surface. It serves
// one connection at a time: the next Accept is never issued until the
// current connection's Serve call has returned, matching the single
// accept-at-a-time loop the status server is specified to run.
type Server struct {
	listener net.Listener
	status   *Status
	broker   *pubsub.Broker
	static   StaticHandler
	log      *logrus.Entry
}

// Listen binds addr and returns a Server ready for Run.
func Listen(addr string, broker *pubsub.Broker, static StaticHandler, log *logrus.Entry) (*Server, error) {
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("ws: listen %s: %w", addr, err)
	}
	port := 0
	if tcpAddr, ok := l.Addr().(*net.TCPAddr); ok {
		port = tcpAddr.Port
	}
	return &Server{
		listener: l,
		status:   NewStatus(port),
		broker:   broker,
		static:   static,
		log:      log,
	}, nil
}

// Status returns the server's lifecycle tracker. Pass it to Quit to
// request shutdown.
func (s *Server) Status() *Status { return s.status }

// Addr returns the bound local address.
func (s *Server) Addr() net.Addr { return s.listener.Addr() }

// Run accepts and serves connections, one at a time, until Quit transitions
// the server into the closing state.
func (s *Server) Run() error {
	defer s.listener.Close()
	if !s.status.Listening(StateInitializing) {
		return fmt.Errorf("ws: server already running or closed")
	}

	for {
		conn, err := s.listener.Accept()
		if s.status.State() == StateClosing {
			if conn != nil {
				conn.Close()
			}
			return nil
		}
		if err != nil {
			return fmt.Errorf("ws: accept: %w", err)
		}
		s.serveOne(conn)
	}
}

func (s *Server) serveOne(netConn net.Conn) {
	defer netConn.Close()
	entry := s.log.WithField("remote", netConn.RemoteAddr())
	conn, err := NewConnection(netConn, entry)
	if err != nil {
		entry.WithError(err).Warn("could not wrap accepted connection")
		return
	}
	conn.Serve(s.broker, s.static)
}
