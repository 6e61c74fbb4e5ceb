package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/rhuss/tokengate/pkg/api"
	"github.com/rhuss/tokengate/pkg/auth"
	"github.com/rhuss/tokengate/pkg/storage"
	"github.com/rhuss/tokengate/pkg/transport"
)

// healthTimeout bounds a store probe made by /healthz.
const healthTimeout = 2 * time.Second

// resources serves the sample protected endpoints. Requests only reach it
// after the gate attached an identity.
type resources struct {
	storeType string
	tokenTTL  time.Duration
	startedAt time.Time
	now       func() time.Time
}

// newAPIRouter returns the router for the protected endpoints.
func newAPIRouter(res *resources) chi.Router {
	r := chi.NewRouter()
	r.Get("/api/me", res.handleMe)
	r.Get("/api/resource", res.handleResource)
	r.Get("/api/admin/stats", res.handleStats)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		transport.WriteErrorResponse(w, http.StatusNotFound,
			api.NewErrorResponse(api.ReasonNotFound, "no resource at "+r.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		transport.WriteErrorResponse(w, http.StatusMethodNotAllowed,
			api.NewErrorResponse(api.ReasonMethodNotAllowed, "method "+r.Method+" not allowed"))
	})
	return r
}

func (res *resources) handleMe(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	transport.WriteJSON(w, http.StatusOK, &api.IdentityResponse{
		Subject: id.Subject(),
		Roles:   auth.RoleNames(id.Roles()),
	})
}

func (res *resources) handleResource(w http.ResponseWriter, r *http.Request) {
	id := auth.IdentityFromContext(r.Context())
	transport.WriteJSON(w, http.StatusOK, &api.ResourceResponse{
		Message: "access granted",
		Subject: id.Subject(),
	})
}

func (res *resources) handleStats(w http.ResponseWriter, r *http.Request) {
	now := res.now()
	transport.WriteJSON(w, http.StatusOK, &api.StatsResponse{
		Store:           res.storeType,
		TokenTTLSeconds: int64(res.tokenTTL / time.Second),
		StartedAt:       res.startedAt.UTC(),
		UptimeSeconds:   int64(now.Sub(res.startedAt) / time.Second),
	})
}

// storeHealthHandler reports 503 while the user store cannot be reached.
func storeHealthHandler(store storage.UserStore) http.HandlerFunc {
	hc, ok := store.(storage.HealthChecker)
	if !ok {
		return defaultHealthHandler
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		if err := hc.HealthCheck(ctx); err != nil {
			slog.Warn("health check failed", "error", err)
			transport.WriteErrorResponse(w, http.StatusServiceUnavailable,
				api.NewErrorResponse(api.ReasonServiceUnavailable, "user store unavailable"))
			return
		}
		defaultHealthHandler(w, r)
	}
}
