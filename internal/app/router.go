package app

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/noah-isme/backend-propostas/internal/audit"
	"github.com/noah-isme/backend-propostas/internal/auth"
	"github.com/noah-isme/backend-propostas/internal/catalog"
	"github.com/noah-isme/backend-propostas/internal/client"
	"github.com/noah-isme/backend-propostas/internal/common"
	"github.com/noah-isme/backend-propostas/internal/config"
	"github.com/noah-isme/backend-propostas/internal/dashboard"
	"github.com/noah-isme/backend-propostas/internal/health"
	"github.com/noah-isme/backend-propostas/internal/obs"
	"github.com/noah-isme/backend-propostas/internal/proposal"
	"github.com/noah-isme/backend-propostas/internal/ratelimit"
	"github.com/noah-isme/backend-propostas/internal/security"
)

// RouterOptions carries the pieces of the HTTP stack that are not domain services.
type RouterOptions struct {
	Config  *config.Config
	Logger  zerolog.Logger
	Checker health.Checker
	// Metrics enables request metrics and the /metrics endpoint when set.
	Metrics *obs.HTTPMetrics
	Tracing bool
	Idem    common.Idem
}

// NewRouter mounts every HTTP endpoint of the API.
func NewRouter(svc *Services, opts RouterOptions) http.Handler {
	cfg := opts.Config
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(obs.RoutePatternMiddleware)
	if opts.Tracing {
		r.Use(obs.TracingMiddleware)
	}
	r.Use(obs.HTTPObs{Metrics: opts.Metrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: opts.Logger}.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", common.IdempotencyHeader, middleware.RequestIDHeader},
		ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(security.Headers{
		Enable:                true,
		EnableHSTS:            cfg.AppEnv == "production",
		HSTSMaxAge:            int((365 * 24 * time.Hour).Seconds()),
		HSTSIncludeSubdomains: true,
	}.Middleware)
	r.Use(security.BodyLimit{Max: cfg.MaxBodyBytes}.Middleware)

	if opts.Metrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}

	healthHandler := health.Handler{
		Checker:      opts.Checker,
		DBTimeout:    500 * time.Millisecond,
		RedisTimeout: 300 * time.Millisecond,
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	authHandler := &auth.Handler{Service: svc.Auth, MaxBodyBytes: cfg.MaxBodyBytes}
	authMiddleware := auth.Middleware{Service: svc.Auth}
	clientHandler := &client.Handler{Service: svc.Clients, MaxBodyBytes: cfg.MaxBodyBytes}
	catalogHandler := catalog.NewHandler(catalog.HandlerConfig{Service: svc.Catalog, MaxBodyBytes: cfg.MaxBodyBytes})
	proposalHandler := &proposal.Handler{Service: svc.Proposals, Renderer: svc.Renderer, MaxBodyBytes: cfg.MaxBodyBytes}
	dashboardHandler := &dashboard.Handler{Svc: svc.Dashboard}
	auditHandler := audit.Handler{Service: svc.Audit}

	logger := opts.Logger
	auditRecorder := audit.HTTPRecorder{
		Service: svc.Audit,
		OnError: func(err error) { logger.Error().Err(err).Msg("record audit log") },
	}
	shareLimit := ratelimit.Handler{
		Limiter: svc.ShareLimiter,
		Config: ratelimit.Config{
			Key:    ratelimit.ShareKey,
			Window: cfg.ShareRateLimitWindow,
			Max:    cfg.ShareRateLimitMax,
		},
		OnError: func(err error) { logger.Warn().Err(err).Msg("share rate limiter unavailable") },
	}
	idem := opts.Idem

	r.Route("/api/v1", func(v chi.Router) {
		v.Route("/auth", func(a chi.Router) {
			a.Post("/register", authHandler.Register)
			a.With(auth.Throttle(svc.LoginLimiter)).Post("/login", authHandler.Login)
			a.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
		})

		v.Route("/public/proposals/{token}", func(p chi.Router) {
			p.Use(shareLimit.Middleware)
			p.Get("/", proposalHandler.PublicSnapshot)
			p.Get("/pdf", proposalHandler.PublicPDF)
		})

		v.Group(func(authR chi.Router) {
			authR.Use(authMiddleware.RequireAuth)
			authR.Use(security.Headers{Enable: true, NoStore: true}.Middleware)
			authR.Use(auditRecorder.Mutations)

			authR.Get("/dashboard", dashboardHandler.Overview)
			authR.Get("/audit-logs", auditHandler.List)

			authR.Route("/clients", func(c chi.Router) {
				c.Get("/", clientHandler.List)
				c.With(idem.Middleware).Post("/", clientHandler.Create)
				c.Get("/{id}", clientHandler.Get)
				c.Put("/{id}", clientHandler.Update)
				c.Delete("/{id}", clientHandler.Delete)
			})

			authR.Route("/services", func(s chi.Router) {
				s.Get("/", catalogHandler.List)
				s.With(idem.Middleware).Post("/", catalogHandler.Create)
				s.Put("/{id}", catalogHandler.Update)
				s.Delete("/{id}", catalogHandler.Delete)
			})

			authR.Route("/proposals", func(p chi.Router) {
				p.Get("/", proposalHandler.List)
				p.With(idem.Middleware).Post("/", proposalHandler.Create)
				p.Post("/quote", proposalHandler.Quote)
				p.Route("/{id}", func(one chi.Router) {
					one.Get("/", proposalHandler.Get)
					one.Put("/", proposalHandler.Update)
					one.Delete("/", proposalHandler.Delete)
					one.Patch("/status", proposalHandler.UpdateStatus)
					one.With(idem.Middleware).Post("/duplicate", proposalHandler.Duplicate)
					one.Post("/share", proposalHandler.Share)
					one.Get("/snapshot", proposalHandler.Snapshot)
					one.Get("/pdf", proposalHandler.PDF)
				})
			})
		})
	})

	return r
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}
