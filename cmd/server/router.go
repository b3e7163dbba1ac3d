package main

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	jwttoken "badgeledger/internal/jwt_token"
	"badgeledger/internal/ledger/handler"
	"badgeledger/internal/platform/config"
	httpmetrics "badgeledger/internal/platform/metrics"
	"badgeledger/internal/policy"
	"badgeledger/internal/ratelimit/middleware"
	ratelimitmodels "badgeledger/internal/ratelimit/models"
	"badgeledger/pkg/platform/httputil"
	"badgeledger/pkg/platform/middleware/admin"
	authmw "badgeledger/pkg/platform/middleware/auth"
	"badgeledger/pkg/platform/middleware/request"
	"badgeledger/pkg/platform/middleware/requesttime"
)

const healthTimeout = 2 * time.Second

type routerDeps struct {
	cfg      config.Config
	log      *slog.Logger
	ledger   handler.Service
	limiter  *middleware.Middleware
	metrics  *httpmetrics.Metrics
	registry *prometheus.Registry
	health   func(context.Context) error
}

func newRouter(d routerDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(request.RequestID)
	r.Use(request.ClientIP)
	r.Use(request.Recovery(d.log))
	r.Use(request.Logger(d.log))
	r.Use(requesttime.Middleware)
	r.Use(d.metrics.Middleware)

	r.Handle("/metrics", promhttp.HandlerFor(d.registry, promhttp.HandlerOpts{}))
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()
		if err := d.health(ctx); err != nil {
			d.log.WarnContext(ctx, "health check failed", "error", err)
			httputil.WriteJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	jwtService := jwttoken.NewJWTService(d.cfg.Auth.JWTSigningKey, d.cfg.Auth.JWTIssuer, d.cfg.Auth.JWTAudience)
	requireAuth := authmw.RequireAuth(jwttoken.NewJWTServiceAdapter(jwtService), d.log)

	r.Route("/v1", func(r chi.Router) {
		handler.New(d.ledger, d.log).Register(r, handler.Guards{
			Auth:       requireAuth,
			Admin:      adminGuard(d.cfg.Server.AdminToken, requireAuth, d.log),
			ReadLimit:  d.limiter.RateLimit(ratelimitmodels.ClassRead),
			WriteLimit: d.limiter.RateLimit(ratelimitmodels.ClassWrite),
		})
	})
	return r
}

// adminGuard accepts the shared operator token when one is configured and
// otherwise requires a bearer token carrying the treasurer role.
func adminGuard(token string, requireAuth func(http.Handler) http.Handler, log *slog.Logger) handler.Middleware {
	if token != "" {
		return admin.RequireAdminToken(token, log)
	}
	requireRole := authmw.RequireRole(policy.RoleTreasurer, log)
	return func(next http.Handler) http.Handler {
		return requireAuth(requireRole(next))
	}
}
