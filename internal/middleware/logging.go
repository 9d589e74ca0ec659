package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"sheinstock/internal/metrics"
)

// statusWriter captures the response status for logging and metrics.
type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Logging writes one zerolog access line per request and feeds the HTTP
// metrics counters.
func Logging(log zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()

			next.ServeHTTP(sw, r)

			took := time.Since(start)
			status := strconv.Itoa(sw.status)
			metrics.HTTPRequests.WithLabelValues(r.Method, r.URL.Path, status).Inc()
			metrics.HTTPDuration.WithLabelValues(r.Method, r.URL.Path, status).Observe(took.Seconds())

			log.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", sw.status).
				Dur("took", took).
				Str("request_id", GetRequestID(r.Context())).
				Msg("http")
		})
	}
}
