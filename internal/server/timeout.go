package server

import (
	"context"
	"net/http"
	"time"
)

// TimeoutMiddleware attaches a deadline to each request context. A probe
// against a slow pipeline can take a while, so the limit is generous;
// handlers cooperate by checking context.Done().
func TimeoutMiddleware(timeout time.Duration) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), timeout)
			defer cancel()
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
