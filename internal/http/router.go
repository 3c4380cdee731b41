// Package httpapi assembles the public router. Module handlers register
// their own routes; this package owns the middleware chain and the shared
// response helpers.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"loomline/internal/identity"
	"loomline/internal/platform/metrics"
	"loomline/internal/platform/middleware"
	platformredis "loomline/internal/platform/redis"
	dErrors "loomline/pkg/domain-errors"
	"loomline/pkg/requestcontext"
)

// Registrar is implemented by each module handler.
type Registrar interface {
	Register(r chi.Router)
}

// RouterConfig carries everything the router needs from main.
type RouterConfig struct {
	Logger             *slog.Logger
	Metrics            *metrics.Metrics
	Validator          middleware.CallerValidator
	Issuer             *identity.TokenIssuer
	Redis              *platformredis.Client
	RateLimitPerMinute int

	Assets  Registrar // asset creation routes under /assets
	Matches Registrar // matching routes under /assets
	Orders  Registrar
	Queries Registrar
}

// NewRouter wires all public endpoints.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Observe(cfg.Metrics))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	// Token bootstrap for deployments where the external credential system
	// is not wired in; signs with the same key the validator checks.
	if cfg.Issuer != nil {
		r.Post("/auth/token", issueToken(cfg.Issuer, cfg.Logger))
	}

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireCaller(cfg.Validator, cfg.Logger))
		if cfg.Redis != nil {
			r.Use(middleware.RateLimit(cfg.Redis.Client, cfg.RateLimitPerMinute, cfg.Logger))
		}

		r.Route("/assets", func(r chi.Router) {
			cfg.Assets.Register(r)
			cfg.Matches.Register(r)
		})
		cfg.Orders.Register(r)
		cfg.Queries.Register(r)
	})

	return r
}

type tokenRequest struct {
	Subject string `json:"subject"`
	Role    string `json:"role"`
}

type tokenResponse struct {
	Token string `json:"token"`
}

func issueToken(issuer *identity.TokenIssuer, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req tokenRequest
		if err := DecodeBody(r, &req); err != nil {
			RespondError(w, r, logger, err)
			return
		}
		caller := identity.Caller{ID: req.Subject, Role: identity.Role(req.Role)}
		if caller.ID == "" || !caller.Role.Valid() {
			RespondError(w, r, logger,
				dErrors.New(dErrors.CodeValidation, "subject and a known role are required"))
			return
		}
		token, err := issuer.Issue(caller, requestcontext.Now(r.Context()))
		if err != nil {
			RespondError(w, r, logger, dErrors.Wrap(err, dErrors.CodeInternal, "issue token"))
			return
		}
		RespondJSON(w, http.StatusOK, tokenResponse{Token: token})
	}
}
