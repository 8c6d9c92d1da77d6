package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wadjakorntonsri/go-shortlink/pkg/adapters/metrics"
	"github.com/wadjakorntonsri/go-shortlink/pkg/config"
	"github.com/wadjakorntonsri/go-shortlink/pkg/ports"
)

// NewRouter creates and configures the main application router
func NewRouter(cfg *config.Config, service ports.LinkService, audit ports.AuditLogger, m *metrics.Metrics, gatherer prometheus.Gatherer) http.Handler {
	h := NewHTTPHandler(service, audit, cfg.BaseURL, cfg.TrustProxyHeaders)
	mw := NewMiddleware(m, slog.Default().With("component", "http"))

	mux := http.NewServeMux()
	handle := func(pattern, route string, fn http.HandlerFunc) {
		mux.Handle(pattern, mw.Instrument(route, fn))
	}

	handle("GET /health", "/health", h.Health)
	handle("POST /shorturls", "/shorturls", h.Create)
	handle("GET /shorturls/{short_code}", "/shorturls/{short_code}", h.Analytics)
	handle("POST /log", "/log", h.FrontendLog)
	handle("GET /{short_code}", "/{short_code}", h.Redirect)

	mux.Handle("GET /metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	corsHandler := cors.Handler(cors.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})

	return corsHandler(mw.Recover(mux))
}
