package ws

import (
	"errors"
	"io"
	"net"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/orbas1/pstore/internal/descriptor"
	"github.com/orbas1/pstore/internal/httpparse"
	"github.com/orbas1/pstore/internal/ioenv"
	"github.com/orbas1/pstore/internal/pubsub"
)

// maxFramePayload bounds a single WebSocket frame's payload so a hostile
// length field can't force an unbounded allocation.
const maxFramePayload = 16 << 20

// outboxCapacity bounds how many published messages this connection will
// buffer between the subscriber's delivery goroutine and the connection
// loop before that goroutine blocks. The subscriber's own queue is
// unbounded, so a slow client only stalls its own adapter, never the
// broker's Publish call.
const outboxCapacity = 256

// StaticHandler answers a non-upgrade request with the complete HTTP
// response text (status line, headers and body) to write back.
type StaticHandler func(req httpparse.Request) string

// Connection drives one accepted TCP connection, from its first request
// line through either a single HTTP reply or a WebSocket session, entirely
// on the goroutine that accepted it.
type Connection struct {
	conn   net.Conn
	rawFD  int
	reader *ioenv.BufferedReader
	log    *logrus.Entry
}

// NewConnection wraps an accepted connection for Serve.
func NewConnection(conn net.Conn, log *logrus.Entry) (*Connection, error) {
	fd, err := socketFD(conn)
	if err != nil {
		return nil, err
	}
	c := &Connection{conn: conn, rawFD: fd, log: log}
	c.reader = ioenv.NewBufferedReader(c.refill)
	return c, nil
}

func (c *Connection) refill() ([]byte, error) {
	buf := make([]byte, 4096)
	n, err := c.conn.Read(buf)
	if n > 0 {
		return buf[:n], nil
	}
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	return nil, err
}

// Serve parses the connection's request line and either replies once via
// static (for an ordinary HTTP request) or, for a WebSocket upgrade,
// completes the handshake and runs the message loop until the peer closes
// the connection or it times out.
func (c *Connection) Serve(broker *pubsub.Broker, static StaticHandler) {
	req, err := httpparse.ParseRequest(c.reader)
	if err != nil {
		c.write(httpparse.ReportError(err, "parsing request"))
		return
	}

	if !req.IsWebSocketUpgrade() {
		c.write(static(req))
		return
	}

	resp, err := NegotiateUpgrade(req)
	if err != nil {
		if errors.Is(err, errBadVersion) {
			c.write(httpparse.UpgradeRequiredPage(req.Target, Version))
		} else {
			c.write(httpparse.ReportError(err, req.Target))
		}
		return
	}
	if !c.write(resp) {
		return
	}

	channel := strings.TrimPrefix(req.Target, "/")
	if err := c.serveWebSocket(broker, channel); err != nil {
		c.log.WithError(err).Warn("websocket session ended with an error")
	}
}

func (c *Connection) write(s string) bool {
	if _, err := c.conn.Write([]byte(s)); err != nil {
		c.log.WithError(err).Warn("write failed")
		return false
	}
	return true
}

// serveWebSocket is the per-connection message loop: it multiplexes the
// client socket against the channel subscription's wakeups, echoing
// completed client messages and forwarding published messages to the
// client, until a close frame is exchanged or the connection times out.
func (c *Connection) serveWebSocket(broker *pubsub.Broker, channel string) error {
	notifier, err := descriptor.NewNotifier()
	if err != nil {
		return err
	}
	defer notifier.Close()

	notifyFD := -1
	var sub *pubsub.Subscriber
	outbox := make(chan pubsub.Message, outboxCapacity)
	stop := make(chan struct{})

	if channel != "" {
		sub = pubsub.NewSubscriber()
		broker.Subscribe(channel, sub)
		defer broker.Unsubscribe(channel, sub)
		defer sub.Close()
		notifyFD = notifier.WaitDescriptor().Fd()

		go func() {
			for {
				msg, ok := sub.Receive()
				if !ok {
					return
				}
				select {
				case outbox <- msg:
				case <-stop:
					return
				}
				if err := notifier.Notify(); err != nil {
					c.log.WithError(err).Warn("notify failed")
				}
			}
		}()
	}
	defer close(stop)

	var cmd Command
	for {
		if c.reader.Available() == 0 {
			ready, err := blockForInput(c.rawFD, notifyFD)
			if err != nil {
				return err
			}
			if !ready.Socket && !ready.Notify {
				c.log.Info("websocket connection idle, closing")
				c.writeClose(CloseGoingAway, "")
				return nil
			}
			if ready.Notify {
				if err := notifier.Reset(); err != nil {
					c.log.WithError(err).Warn("notifier reset failed")
				}
				c.drainOutbox(outbox)
			}
			if !ready.Socket {
				continue
			}
		}

		closeNow, err := c.socketRead(&cmd)
		if err != nil {
			return err
		}
		if closeNow {
			return nil
		}
	}
}

func (c *Connection) drainOutbox(outbox <-chan pubsub.Message) {
	for {
		select {
		case msg := <-outbox:
			if err := c.sendFrame(OpText, true, msg.Body); err != nil {
				c.log.WithError(err).Warn("publish send failed")
				return
			}
		default:
			return
		}
	}
}

// socketRead reads and processes exactly one frame. It reports whether the
// connection should now close.
func (c *Connection) socketRead(cmd *Command) (bool, error) {
	f, err := ReadFrame(c.reader, maxFramePayload)
	if err != nil {
		code := CloseAbnormalClosure
		if errors.Is(err, ErrUnmaskedFrame) || errors.Is(err, ErrReservedBitSet) {
			code = CloseProtocolError
		}
		c.writeClose(code, "")
		return true, nil
	}

	if f.Op == OpPing {
		if err := c.sendFrame(OpPong, true, f.Payload); err != nil {
			c.log.WithError(err).Warn("pong failed")
		}
	}

	outcome, closeCode := cmd.Feed(f)
	switch outcome {
	case OutcomeClose:
		c.writeClose(closeCode, "")
		return true, nil
	case OutcomeMessage:
		// This is a simple echo server: a completed client message is
		// sent straight back.
		if err := c.sendFrame(cmd.Op, true, cmd.Payload); err != nil {
			c.log.WithError(err).Warn("echo failed")
		}
		cmd.Reset()
	}
	return false, nil
}

func (c *Connection) sendFrame(op Opcode, fin bool, payload []byte) error {
	_, err := c.conn.Write(EncodeFrame(op, fin, payload))
	return err
}

func (c *Connection) writeClose(code CloseCode, reason string) {
	if _, err := c.conn.Write(EncodeClose(code, reason)); err != nil {
		c.log.WithError(err).Warn("close frame write failed")
	}
}
