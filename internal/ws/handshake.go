package ws

import (
	"crypto/sha1"
	"encoding/base64"
	"fmt"

	"github.com/orbas1/pstore/internal/httpparse"
)

// guid is the fixed GUID RFC 6455 §1.3 defines for computing
// Sec-WebSocket-Accept from a client's Sec-WebSocket-Key.
const guid = "258EAFA5-E914-47DA-95CA-C5AB0DC85B11"

// AcceptKey computes the Sec-WebSocket-Accept value for clientKey.
func AcceptKey(clientKey string) string {
	h := sha1.New()
	h.Write([]byte(clientKey))
	h.Write([]byte(guid))
	return base64.StdEncoding.EncodeToString(h.Sum(nil))
}

// BuildUpgradeResponse renders the "101 Switching Protocols" response that
// completes a WebSocket handshake for the given client key.
func BuildUpgradeResponse(clientKey string) string {
	status := httpparse.BuildStatusLine(httpparse.StatusSwitchingProtocols, "")
	headers := httpparse.BuildHeaders([]httpparse.Header{
		{Name: "Upgrade", Value: "websocket"},
		{Name: "Connection", Value: "Upgrade"},
		{Name: "Sec-WebSocket-Accept", Value: AcceptKey(clientKey)},
	})
	return status + headers
}

// errMissingKey is returned by NegotiateUpgrade when the request has no
// Sec-WebSocket-Key header.
var errMissingKey = fmt.Errorf("ws: missing Sec-WebSocket-Key header")

// errBadVersion is returned by NegotiateUpgrade when the client asks for a
// WebSocket protocol version other than the one pstore serves. It maps to
// the bad_websocket_version error kind: a 426 response carrying the
// server's supported version.
var errBadVersion = fmt.Errorf("ws: unsupported Sec-WebSocket-Version")

// NegotiateUpgrade validates req as a WebSocket upgrade request and
// returns the response to send back.
func NegotiateUpgrade(req httpparse.Request) (string, error) {
	if !req.IsWebSocketUpgrade() {
		return "", fmt.Errorf("ws: not an upgrade request")
	}
	key, ok := req.Header("Sec-WebSocket-Key")
	if !ok || key == "" {
		return "", errMissingKey
	}
	version, _ := req.Header("Sec-WebSocket-Version")
	if version != "13" {
		return "", errBadVersion
	}
	return BuildUpgradeResponse(key), nil
}
