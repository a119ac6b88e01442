package middleware

import (
	"net"
	"net/http"
	"net/netip"
)

const unknownClient = "unknown"

// ClientIP identifies the caller for per-client limits. Only the socket peer
// is used; forwarding headers count only once chi's RealIP middleware has
// rewritten RemoteAddr from them, which the router does when proxy headers
// are trusted.
func ClientIP(r *http.Request) string {
	if r == nil || r.RemoteAddr == "" {
		return unknownClient
	}
	host := r.RemoteAddr
	if h, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		host = h
	}
	addr, err := netip.ParseAddr(host)
	if err != nil {
		return r.RemoteAddr
	}
	// IPv4-mapped IPv6 and plain IPv4 peers share one bucket.
	return addr.Unmap().String()
}
