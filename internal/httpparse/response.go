package httpparse

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ServerName identifies pstore in the Server header and on generated
// error pages.
const ServerName = "pstore"

const crlf = "\r\n"

// StatusCode mirrors the subset of HTTP status codes pstore's status
// server needs: RFC 7231's full registry is far larger than a read-only
// static/dynamic content server will ever return.
type StatusCode int

const (
	StatusSwitchingProtocols  StatusCode = 101
	StatusOK                  StatusCode = 200
	StatusBadRequest          StatusCode = 400
	StatusNotFound            StatusCode = 404
	StatusUpgradeRequired     StatusCode = 426
	StatusInternalServerError StatusCode = 500
	StatusNotImplemented      StatusCode = 501
)

var statusText = map[StatusCode]string{
	StatusSwitchingProtocols:  "Switching Protocols",
	StatusOK:                  "OK",
	StatusBadRequest:          "Bad Request",
	StatusNotFound:            "Not Found",
	StatusUpgradeRequired:     "Upgrade Required",
	StatusInternalServerError: "Internal Server Error",
	StatusNotImplemented:      "Not Implemented",
}

// Text returns the standard reason phrase for code, or "Unknown" if code
// isn't one pstore generates itself.
func (c StatusCode) Text() string {
	if t, ok := statusText[c]; ok {
		return t
	}
	return "Unknown"
}

// HTTPDate formats t in the IMF-fixdate form RFC 7231 §7.1.1.1 requires for
// Date, Last-Modified and similar headers, e.g. "Tue, 15 Nov 1994
// 08:12:31 GMT".
func HTTPDate(t time.Time) string {
	return t.UTC().Format("Mon, 02 Jan 2006 15:04:05 GMT")
}

// BuildStatusLine renders "HTTP/1.1 <code> <text>\r\n".
func BuildStatusLine(code StatusCode, text string) string {
	if text == "" {
		text = code.Text()
	}
	return fmt.Sprintf("HTTP/1.1 %d %s%s", int(code), text, crlf)
}

// Header is one name/value pair in a response.
type Header struct {
	Name  string
	Value string
}

// BuildHeaders renders each header followed by the Server header and the
// blank line that terminates a header block.
func BuildHeaders(headers []Header) string {
	var b strings.Builder
	for _, h := range headers {
		b.WriteString(h.Name)
		b.WriteString(": ")
		b.WriteString(h.Value)
		b.WriteString(crlf)
	}
	b.WriteString("Server: ")
	b.WriteString(ServerName)
	b.WriteString(crlf)
	b.WriteString(crlf)
	return b.String()
}

// ErrorPage renders a complete HTML error response: status line, headers
// and an HTML body describing cause, shortMsg and longMsg.
func ErrorPage(code StatusCode, cause, shortMsg, longMsg string) string {
	content := fmt.Sprintf(
		"<!DOCTYPE html>\n<html lang=\"en\"><head>\n<meta charset=\"utf-8\">\n<title>%s Error</title>\n</head>\n<body>\n<h1>%s Web Server Error</h1>\n<p>%d: %s</p><p>%s: %s</p>\n<hr>\n<em>The %s Web server</em>\n</body>\n</html>\n",
		ServerName, ServerName, int(code), shortMsg, longMsg, cause, ServerName,
	)
	now := HTTPDate(time.Now())
	headers := BuildHeaders([]Header{
		{"Content-length", fmt.Sprintf("%d", len(content))},
		{"Connection", "close"},
		{"Content-type", "text/html"},
		{"Date", now},
		{"Last-Modified", now},
	})
	return BuildStatusLine(code, "") + headers + content
}

// UpgradeRequiredPage renders the 426 response a WebSocket handshake gets
// when the client asked for a protocol version pstore doesn't speak: the
// status line and body are an ordinary error page, but RFC 6455 §4.2.2
// also requires a Sec-WebSocket-Version header naming the version the
// server does support.
func UpgradeRequiredPage(cause string, serverVersion int) string {
	content := fmt.Sprintf(
		"<!DOCTYPE html>\n<html lang=\"en\"><head>\n<meta charset=\"utf-8\">\n<title>%s Error</title>\n</head>\n<body>\n<h1>%s Web Server Error</h1>\n<p>%d: %s</p><p>%s: unsupported WebSocket version</p>\n<hr>\n<em>The %s Web server</em>\n</body>\n</html>\n",
		ServerName, ServerName, int(StatusUpgradeRequired), StatusUpgradeRequired.Text(), cause, ServerName,
	)
	now := HTTPDate(time.Now())
	headers := BuildHeaders([]Header{
		{"Content-length", fmt.Sprintf("%d", len(content))},
		{"Connection", "close"},
		{"Content-type", "text/html"},
		{"Date", now},
		{"Last-Modified", now},
		{"Sec-WebSocket-Version", fmt.Sprintf("%d", serverVersion)},
	})
	return BuildStatusLine(StatusUpgradeRequired, "") + headers + content
}

// ReportError maps err to the HTTP status code and error page pstore
// should send in response to it.
func ReportError(err error, cause string) string {
	switch {
	case errors.Is(err, ErrMethodNotSupported):
		return ErrorPage(StatusNotImplemented, cause, "Not Implemented", "The request method is not supported")
	case err == nil:
		return ErrorPage(StatusInternalServerError, cause, "Internal Server Error", "report_error called with a nil error")
	default:
		return ErrorPage(StatusInternalServerError, cause, "Internal Server Error", err.Error())
	}
}
