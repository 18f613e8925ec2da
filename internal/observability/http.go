package observability

import (
	"net"
	"net/http"
	"strings"
)

// ClientMeta identifies the device behind an HTTP request. It is captured
// once at the websocket handshake and attached to every lifecycle event
// published for that connection.
type ClientMeta struct {
	DeviceID  string
	RequestID string
	IP        string
}

// MetaFromRequest extracts client metadata from the handshake request.
// The device and request ids come from proxy-injected headers; absent
// headers leave the fields empty.
func MetaFromRequest(r *http.Request) ClientMeta {
	return ClientMeta{
		DeviceID:  r.Header.Get("X-Device-Id"),
		RequestID: r.Header.Get("X-Request-Id"),
		IP:        clientIP(r),
	}
}

// clientIP prefers the first hop of X-Forwarded-For, falling back to the
// peer address.
func clientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		parts := strings.Split(forwarded, ",")
		if len(parts) > 0 {
			return strings.TrimSpace(parts[0])
		}
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
