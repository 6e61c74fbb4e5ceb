package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rhuss/tokengate/pkg/auth"
	"github.com/rhuss/tokengate/pkg/observability"
	"github.com/rhuss/tokengate/pkg/transport"
)

// RouterOptions controls the construction of the tokengate router.
type RouterOptions struct {
	Gate   *auth.Gate
	API    http.Handler
	Logger *slog.Logger

	// MetricsPath mounts the Prometheus handler outside the gate. Empty
	// disables the endpoint.
	MetricsPath string

	HealthHandler http.HandlerFunc

	// CORSOptions enables CORS handling. Preflight requests are answered
	// before the gate.
	CORSOptions *cors.Options
}

// NewRouter assembles the middleware chain and mounts the public endpoints
// before the gate. Every other path goes through the gate to opts.API.
func NewRouter(opts RouterOptions) chi.Router {
	r := chi.NewRouter()

	r.Use(transport.RequestID())
	r.Use(transport.Recovery(opts.Logger))
	r.Use(transport.Logging(opts.Logger))
	r.Use(observability.MetricsMiddleware)
	if opts.CORSOptions != nil {
		r.Use(cors.Handler(*opts.CORSOptions))
	}

	health := opts.HealthHandler
	if health == nil {
		health = defaultHealthHandler
	}
	r.Get("/healthz", health)

	if opts.MetricsPath != "" {
		r.Handle(opts.MetricsPath, promhttp.Handler())
	}

	r.Mount("/", opts.Gate.Middleware(opts.API))
	return r
}

func defaultHealthHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

// CORSOptions returns the CORS policy for the given origins. Tokens travel in
// the Authorization header, so credentials (cookies) are not allowed.
func CORSOptions(origins []string, maxAge time.Duration) cors.Options {
	return cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type", transport.RequestIDHeader},
		ExposedHeaders: []string{"Authorization", transport.RequestIDHeader},
		MaxAge:         int(maxAge / time.Second),
	}
}
