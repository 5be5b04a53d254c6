package app

import (
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	limiter "github.com/ulule/limiter/v3"

	"github.com/noah-isme/backend-propostas/internal/audit"
	"github.com/noah-isme/backend-propostas/internal/auth"
	"github.com/noah-isme/backend-propostas/internal/cache"
	"github.com/noah-isme/backend-propostas/internal/catalog"
	"github.com/noah-isme/backend-propostas/internal/client"
	"github.com/noah-isme/backend-propostas/internal/config"
	"github.com/noah-isme/backend-propostas/internal/dashboard"
	"github.com/noah-isme/backend-propostas/internal/document"
	"github.com/noah-isme/backend-propostas/internal/events"
	"github.com/noah-isme/backend-propostas/internal/obs"
	"github.com/noah-isme/backend-propostas/internal/proposal"
	"github.com/noah-isme/backend-propostas/internal/queue"
	"github.com/noah-isme/backend-propostas/internal/ratelimit"
)

const (
	renderMaxRetry    = 5
	renderDedupWindow = time.Minute
)

// Dependencies are the process-level resources the services are built from.
type Dependencies struct {
	Config *config.Config
	Pool   *pgxpool.Pool
	Redis  *redis.Client
	// Tasks enqueues background renders. Nil disables render scheduling.
	Tasks  queue.TaskClient
	Logger zerolog.Logger
}

// Services holds every domain service of the application.
type Services struct {
	Auth         *auth.Service
	Clients      *client.Service
	Catalog      *catalog.Service
	Proposals    *proposal.Service
	Dashboard    *dashboard.Service
	Audit        *audit.Service
	Events       *events.Bus
	Renderer     *document.Renderer
	Documents    *document.Store
	LoginLimiter *limiter.Limiter
	ShareLimiter ratelimit.Limiter
}

// NewServices wires the domain services on top of Postgres and Redis.
func NewServices(deps Dependencies) (*Services, error) {
	cfg := deps.Config
	if cfg == nil {
		return nil, errors.New("app: config is required")
	}
	logger := deps.Logger

	authSvc, err := auth.NewService(auth.Config{
		Store:          auth.NewPGStore(deps.Pool),
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
		Issuer:         cfg.JWTIssuer,
		Audience:       cfg.JWTAudience,
		ClockSkew:      30 * time.Second,
	})
	if err != nil {
		return nil, fmt.Errorf("auth service: %w", err)
	}

	catalogSvc, err := catalog.NewService(catalog.ServiceConfig{
		Store:  catalog.NewPGStore(deps.Pool),
		Cache:  cache.New(deps.Redis, cfg.CatalogCacheTTL),
		Logger: obs.Component(logger, "catalog"),
	})
	if err != nil {
		return nil, fmt.Errorf("catalog service: %w", err)
	}

	bus := &events.Bus{Store: events.PGStore{Pool: deps.Pool}}
	if deps.Tasks != nil {
		bus.Notifiers = append(bus.Notifiers, queue.Enqueuer{
			Client:      deps.Tasks,
			MaxRetry:    renderMaxRetry,
			DedupWindow: renderDedupWindow,
		})
	}

	clientSvc := &client.Service{Store: client.NewPGStore(deps.Pool)}
	renderer := &document.Renderer{CurrencyCode: cfg.CurrencyCode}

	var loginLimiter *limiter.Limiter
	if deps.Redis != nil {
		loginLimiter, err = auth.NewLoginLimiter(deps.Redis, cfg.LoginRateLimit)
		if err != nil {
			return nil, err
		}
	}

	proposalSvc := &proposal.Service{
		Store:   proposal.NewPGStore(deps.Pool),
		Clients: clientSvc,
		Events:  bus,
		Cache:   cache.New(deps.Redis, cfg.SnapshotCacheTTL),
		Logger:  obs.Component(logger, "proposal"),
		Options: proposal.SnapshotOptions{
			AssetBaseURL:   cfg.AssetBaseURL,
			DefaultLogoURL: cfg.DefaultLogoURL,
		},
		PublicBaseURL: cfg.PublicBaseURL,
	}
	clientSvc.Snapshots = proposalSvc

	return &Services{
		Auth:      authSvc,
		Clients:   clientSvc,
		Catalog:   catalogSvc,
		Proposals: proposalSvc,
		Dashboard: &dashboard.Service{
			Store:  dashboard.NewPGStore(deps.Pool),
			Cache:  cache.New(deps.Redis, cfg.DashboardCacheTTL),
			Logger: obs.Component(logger, "dashboard"),
		},
		Audit: &audit.Service{
			Store:        audit.PGStore{Pool: deps.Pool},
			Enabled:      cfg.AuditEnabled,
			SamplingRate: cfg.AuditSamplingRate,
		},
		Events:       bus,
		Renderer:     renderer,
		Documents:    &document.Store{Path: cfg.PDFStoragePath, Renderer: renderer},
		LoginLimiter: loginLimiter,
		ShareLimiter: ratelimit.Limiter{Client: deps.Redis, Prefix: "rl:"},
	}, nil
}
