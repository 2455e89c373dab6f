// Package httpparse implements pstore's minimal HTTP/1.x request parser and
// response builder: enough to serve GET requests for static and dynamic
// content and to negotiate a WebSocket upgrade, nothing more.
package httpparse

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/orbas1/pstore/internal/ioenv"
)

// maxLineLength bounds any single request line or header line; a longer
// line is rejected as a malformed request rather than allowed to grow the
// buffer without limit.
const maxLineLength = 8192

// Request is a parsed HTTP request line plus headers. Only GET is
// supported, matching pstore's read-only status server.
type Request struct {
	Method  string
	Target  string
	Version string
	Headers map[string]string // header names folded to lower case
}

// Header returns the value of the named header (case-insensitive), and
// whether it was present.
func (r Request) Header(name string) (string, bool) {
	v, ok := r.Headers[strings.ToLower(name)]
	return v, ok
}

// ParseRequest reads a request line and its headers (up to the blank line
// that terminates them) from r.
func ParseRequest(r *ioenv.BufferedReader) (Request, error) {
	line, err := r.Gets(maxLineLength)
	if err != nil {
		return Request{}, fmt.Errorf("httpparse: request line: %w", err)
	}
	if line == "" {
		return Request{}, fmt.Errorf("httpparse: empty request line")
	}
	parts := strings.SplitN(line, " ", 3)
	if len(parts) != 3 {
		return Request{}, fmt.Errorf("httpparse: malformed request line %q", line)
	}
	if parts[0] != "GET" {
		return Request{}, ErrMethodNotSupported
	}

	req := Request{Method: parts[0], Target: parts[1], Version: parts[2], Headers: map[string]string{}}
	for {
		hline, err := r.Gets(maxLineLength)
		if err != nil {
			return Request{}, fmt.Errorf("httpparse: header line: %w", err)
		}
		if hline == "" {
			break
		}
		colon := strings.IndexByte(hline, ':')
		if colon < 0 {
			return Request{}, fmt.Errorf("httpparse: malformed header %q", hline)
		}
		name := strings.ToLower(strings.TrimSpace(hline[:colon]))
		value := strings.TrimSpace(hline[colon+1:])
		req.Headers[name] = value
	}
	return req, nil
}

// IsWebSocketUpgrade reports whether req asks to upgrade to the WebSocket
// protocol (RFC 6455 §4.1).
func (r Request) IsWebSocketUpgrade() bool {
	conn, _ := r.Header("Connection")
	upgrade, _ := r.Header("Upgrade")
	return strings.Contains(strings.ToLower(conn), "upgrade") && strings.EqualFold(upgrade, "websocket")
}

// ContentLength parses the Content-Length header, if present.
func (r Request) ContentLength() (int, bool) {
	v, ok := r.Header("Content-Length")
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false
	}
	return n, true
}
