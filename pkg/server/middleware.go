package server

import (
	"crypto/subtle"
	"net/http"
	"time"
)

// AuthHeader carries the shared secret on mutating requests.
const AuthHeader = "X-API-Key"

// gated enforces the shared-secret check before the wrapped handler runs.
// With no secret configured every request passes.
func (s *Server) gated(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.cfg.GateEnabled() {
			presented := r.Header.Get(AuthHeader)
			if subtle.ConstantTimeCompare([]byte(presented), []byte(s.cfg.SharedSecret)) != 1 {
				writeError(w, ErrorCodeUnauthorized, "missing or invalid API key")
				return
			}
		}
		next(w, r)
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logged(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		recorder := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()

		next.ServeHTTP(recorder, r)

		s.logger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", recorder.status).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}
