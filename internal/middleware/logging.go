package middleware

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/mertab/minibank/internal/metrics"
)

// statusRecorder captures the status code written by the handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Logging logs every HTTP request with its method, path, status, duration,
// and the authenticated holder when present.
func Logging(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		duration := time.Since(start).Milliseconds()
		holderID := GetHolderID(r.Context()) // zero if pre-auth
		metrics.RequestsTotal.WithLabelValues(r.Method, statusClass(rec.status)).Inc()

		if rec.status >= 500 {
			slog.Error("request failed",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"holder_id", holderID,
				"request_id", GetRequestID(r.Context()),
				"duration_ms", duration,
			)
		} else if rec.status >= 400 {
			slog.Warn("request rejected",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"holder_id", holderID,
				"request_id", GetRequestID(r.Context()),
				"duration_ms", duration,
			)
		} else {
			slog.Info("request ok",
				"method", r.Method,
				"path", r.URL.Path,
				"status", rec.status,
				"holder_id", holderID,
				"request_id", GetRequestID(r.Context()),
				"duration_ms", duration,
			)
		}
	})
}

func statusClass(status int) string {
	return strconv.Itoa(status/100) + "xx"
}
