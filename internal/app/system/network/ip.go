// Package network provides client-address helpers for the request metadata
// captured on login-activity and audit records.
package network

import (
	"net/http"
	"strings"
)

// GetClientIP extracts the client IP address from the request, the way the
// login-activity recorder and the audit logger stamp their records. Behind a
// reverse proxy the X-Forwarded-For chain wins (first hop is the client),
// then X-Real-IP, then RemoteAddr with the port stripped.
func GetClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		if idx := strings.Index(xff, ","); idx != -1 {
			return strings.TrimSpace(xff[:idx])
		}
		return strings.TrimSpace(xff)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}

	if idx := strings.LastIndex(r.RemoteAddr, ":"); idx != -1 {
		return r.RemoteAddr[:idx]
	}
	return r.RemoteAddr
}
