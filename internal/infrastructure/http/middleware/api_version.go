package middleware

import (
	"net/http"

	chimid "github.com/go-chi/chi/v5/middleware"
)

// APIVersion sets X-API-Version and echoes the request id as X-Request-Id so
// clients can quote it in bug reports.
func APIVersion(version string) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-API-Version", version)
			if id := chimid.GetReqID(r.Context()); id != "" {
				w.Header().Set("X-Request-Id", id)
			}
			next.ServeHTTP(w, r)
		})
	}
}
