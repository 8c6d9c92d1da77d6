package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/wadjakorntonsri/go-shortlink/pkg/adapters/metrics"
)

type Middleware struct {
	metrics *metrics.Metrics
	logger  *slog.Logger
}

func NewMiddleware(m *metrics.Metrics, logger *slog.Logger) *Middleware {
	return &Middleware{metrics: m, logger: logger}
}

// statusRecorder captures the status code written by the wrapped handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *statusRecorder) Unwrap() http.ResponseWriter {
	return r.ResponseWriter
}

// Instrument logs one line per request and observes its latency under the
// registered route pattern so path parameters do not explode label cardinality.
func (m *Middleware) Instrument(route string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		elapsed := time.Since(start)
		m.metrics.RequestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).
			Observe(elapsed.Seconds())
		m.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", elapsed,
		)
	})
}

// Recover turns a handler panic into a 500 JSON response.
func (m *Middleware) Recover(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rv := recover(); rv != nil {
				if rv == http.ErrAbortHandler {
					panic(rv)
				}
				m.logger.Error("panic serving request", "method", r.Method, "path", r.URL.Path, "panic", rv)
				writeError(w, http.StatusInternalServerError, "Internal Server Error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
