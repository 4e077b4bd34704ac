package handler

import (
	"area-picker/internal/metrics"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

// AccessMiddleware logs every request and records its duration. Request bodies are not read.
func AccessMiddleware(logger *logrus.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
			start := time.Now()
			next.ServeHTTP(sw, r)
			dur := time.Since(start)

			metrics.HTTPRequestDurationMs.
				WithLabelValues(routeLabel(r.URL.Path), strconv.Itoa(sw.status)).
				Observe(float64(dur.Milliseconds()))

			logger.WithFields(logrus.Fields{
				"method":      r.Method,
				"path":        r.URL.Path,
				"status":      sw.status,
				"bytes":       sw.bytes,
				"duration_ms": dur.Milliseconds(),
				"ip":          r.RemoteAddr,
			}).Debug("http_access")
		})
	}
}

// Routes registers the API on a new mux.
func (h *Handler) Routes() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/areas", h.AreasHandler)
	mux.HandleFunc("/api/v1/areas/", h.AreaByIDHandler)
	mux.HandleFunc("/api/v1/location/check", h.LocationHandler)
	mux.HandleFunc("/api/v1/selection", h.SelectionHandler)
	mux.HandleFunc("/api/v1/system/health", h.HealthHandler)
	mux.Handle("/metrics", metrics.Handler())
	return mux
}

// routeLabel keeps the metric label set bounded.
func routeLabel(path string) string {
	switch {
	case path == "/api/v1/areas",
		path == "/api/v1/location/check",
		path == "/api/v1/selection",
		path == "/api/v1/system/health",
		path == "/metrics":
		return path
	case strings.HasPrefix(path, "/api/v1/areas/"):
		return "/api/v1/areas/{id}"
	default:
		return "other"
	}
}
