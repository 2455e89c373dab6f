package ws

import (
	"bufio"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orbas1/pstore/internal/httpparse"
	"github.com/orbas1/pstore/internal/pubsub"
)

func discardLogger() *logrus.Entry {
	log := logrus.New()
	log.SetOutput(logrusDiscard{})
	return logrus.NewEntry(log)
}

type logrusDiscard struct{}

func (logrusDiscard) Write(p []byte) (int, error) { return len(p), nil }

func pipePair(t *testing.T) (server, client net.Conn) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	acceptCh := make(chan net.Conn, 1)
	go func() {
		c, err := ln.Accept()
		if err == nil {
			acceptCh <- c
		}
	}()

	client, err = net.Dial("tcp", ln.Addr().String())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	server = <-acceptCh
	return server, client
}

func TestConnectionServesStaticResponse(t *testing.T) {
	server, client := pipePair(t)
	defer server.Close()
	defer client.Close()

	client.Write([]byte("GET /index.html HTTP/1.1\r\nHost: x\r\n\r\n"))

	conn, err := NewConnection(server, discardLogger())
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	broker := pubsub.NewBroker()
	done := make(chan struct{})
	go func() {
		conn.Serve(broker, func(req httpparse.Request) string {
			if req.Target != "/index.html" {
				t.Errorf("target = %q", req.Target)
			}
			return "HTTP/1.1 200 OK\r\nContent-length: 2\r\n\r\nhi"
		})
		close(done)
	}()

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(client)
	status, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	if !strings.Contains(status, "200") {
		t.Fatalf("status = %q", status)
	}
	<-done
}

func TestConnectionHandshakeUpgrade(t *testing.T) {
	server, client := pipePair(t)
	defer server.Close()
	defer client.Close()

	req := "GET /events HTTP/1.1\r\n" +
		"Host: x\r\n" +
		"Connection: Upgrade\r\n" +
		"Upgrade: websocket\r\n" +
		"Sec-WebSocket-Key: dGhlIHNhbXBsZSBub25jZQ==\r\n" +
		"Sec-WebSocket-Version: 13\r\n\r\n"
	client.Write([]byte(req))

	conn, err := NewConnection(server, discardLogger())
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	broker := pubsub.NewBroker()
	done := make(chan struct{})
	go func() {
		conn.Serve(broker, nil)
		close(done)
	}()

	client.SetReadDeadline(time.Now().Add(2 * time.Second))
	reader := bufio.NewReader(client)
	status, err := reader.ReadString('\n')
	if err != nil {
		t.Fatalf("read status: %v", err)
	}
	if !strings.Contains(status, "101") {
		t.Fatalf("status = %q", status)
	}

	// Drain headers up to the blank line.
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			t.Fatalf("read header: %v", err)
		}
		if line == "\r\n" {
			break
		}
	}

	// Send a masked text frame and expect it echoed back.
	client.Write(maskedFrame(OpText, true, []byte("ping")))
	hdr := make([]byte, 2)
	if _, err := readFull(reader, hdr); err != nil {
		t.Fatalf("read echo header: %v", err)
	}
	if hdr[0] != 0x80|byte(OpText) {
		t.Fatalf("echo opcode byte = %x", hdr[0])
	}
	n := int(hdr[1] & 0x7F)
	payload := make([]byte, n)
	if _, err := readFull(reader, payload); err != nil {
		t.Fatalf("read echo payload: %v", err)
	}
	if string(payload) != "ping" {
		t.Fatalf("echoed payload = %q", payload)
	}

	// Close the connection from the client side and let Serve return.
	client.Write(EncodeClose(CloseNormal, ""))
	client.Close()
	<-done
}

func readFull(r *bufio.Reader, buf []byte) (int, error) {
	total := 0
	for total < len(buf) {
		n, err := r.Read(buf[total:])
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}
