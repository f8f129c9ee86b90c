package httputil

import (
	"net"
	"net/http"
)

// NoStoreMiddleware keeps browsers and proxies from caching pages that
// carry session-specific content.
func NoStoreMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "no-store")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}

// ClientKey identifies the caller for rate limiting by the connection's
// address. Forwarded headers are honored only when chi's RealIP middleware
// has been mounted for a trusted proxy.
func ClientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
