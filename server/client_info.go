package server

import (
	"net"
	"net/http"
	"strings"

	"github.com/jrsteele09/go-session-server/auth"
)

// clientInfo collects the request metadata stored on a session.
func clientInfo(r *http.Request) auth.ClientInfo {
	return auth.ClientInfo{
		UserAgent: r.UserAgent(),
		IP:        clientIP(r),
	}
}

// clientIP takes the first X-Forwarded-For hop, otherwise the peer address.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if first = strings.TrimSpace(first); first != "" {
			return first
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
