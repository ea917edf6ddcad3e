package middleware

import (
	"net"
	"net/http"
	"strings"

	"money-manager/internal/event"
)

// Actor records the client address on the request context so that events
// published by anonymous endpoints (login, password reset) still carry it.
func Actor(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := event.WithActor(r.Context(), event.Actor{IP: ClientIP(r)})
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// ClientIP prefers the first X-Forwarded-For hop, then X-Real-IP, then the
// socket address.
func ClientIP(r *http.Request) string {
	forwarded := strings.TrimSpace(r.Header.Get("X-Forwarded-For"))
	if forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(strings.TrimSpace(r.RemoteAddr))
	if err == nil && host != "" {
		return host
	}

	if strings.TrimSpace(r.RemoteAddr) == "" {
		return "unknown"
	}

	return r.RemoteAddr
}
