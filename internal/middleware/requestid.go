package middleware

import (
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"
)

// RequestIDHeader echoes the request id assigned by chi's RequestID
// middleware so clients can quote it when reporting a failed job.
func RequestIDHeader(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rid := chimw.GetReqID(r.Context()); rid != "" {
			w.Header().Set(chimw.RequestIDHeader, rid)
		}
		next.ServeHTTP(w, r)
	})
}
