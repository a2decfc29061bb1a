package middleware

import (
	"net"
	"net/http"
	"strings"
)

// ClientIP resolves the caller's address into the request context. The
// gateway wants the shopper's IP on every transaction; behind the load
// balancer that address lives in X-Forwarded-For.
func ClientIP() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := withClientIP(r.Context(), resolveClientIP(r))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func resolveClientIP(r *http.Request) string {
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		// first hop is the original client
		first := strings.TrimSpace(strings.Split(forwarded, ",")[0])
		if ip := routableIP(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return routableIP(host)
}

// routableIP rejects loopback and private addresses so the checkout falls
// back to the echo service instead of handing the gateway a LAN address.
func routableIP(host string) string {
	ip := net.ParseIP(host)
	if ip == nil || ip.IsLoopback() || ip.IsPrivate() {
		return ""
	}
	return host
}
