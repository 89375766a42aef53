package middleware

import (
	"net"
	"net/http"
	"strconv"

	"github.com/amirhosseinghanipour/scaffold/internal/application/ports"
)

// AdminSecretHeader authenticates /admin/* requests.
const AdminSecretHeader = "X-Scaffold-Admin-Secret"

// RequireAdminSecret returns a middleware that requires AdminSecretHeader to pass secret.
// If secret is nil, all requests are rejected with 401. lock may be nil; when set,
// repeated failures from one client address answer 429 until the cooldown ends.
func RequireAdminSecret(secret ports.SecretVerifier, lock ports.AttemptLockout) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if secret == nil {
				writeErr(w, http.StatusUnauthorized, "unauthorized", "admin API not configured (ADMIN_SECRET)")
				return
			}
			key := remoteHost(r)
			if lock != nil {
				if locked, retry := lock.IsLocked(r.Context(), key); locked {
					w.Header().Set("Retry-After", strconv.Itoa(retry))
					writeErr(w, http.StatusTooManyRequests, "rate_limited", "too many failed attempts")
					return
				}
			}
			if !secret.Verify(r.Header.Get(AdminSecretHeader)) {
				if lock != nil {
					lock.RecordFailure(r.Context(), key)
				}
				writeErr(w, http.StatusUnauthorized, "unauthorized", "invalid or missing admin secret")
				return
			}
			if lock != nil {
				lock.RecordSuccess(r.Context(), key)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// remoteHost is RemoteAddr without the port; chi's RealIP has already applied
// forwarding headers by the time this runs.
func remoteHost(r *http.Request) string {
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
