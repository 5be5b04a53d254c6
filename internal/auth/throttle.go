package auth

import (
	"fmt"
	"net/http"

	redis "github.com/redis/go-redis/v9"
	limiter "github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/middleware/stdlib"
	limiterredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/noah-isme/backend-propostas/internal/common"
)

// NewLoginLimiter builds a per-IP limiter for credential endpoints. rate uses the
// limiter's formatted syntax, e.g. "10-M" for ten attempts per minute.
func NewLoginLimiter(rdb *redis.Client, rate string) (*limiter.Limiter, error) {
	parsed, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, fmt.Errorf("parse login rate %q: %w", rate, err)
	}
	store, err := limiterredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: "auth:login"})
	if err != nil {
		return nil, fmt.Errorf("login limiter store: %w", err)
	}
	return limiter.New(store, parsed, limiter.WithTrustForwardHeader(true)), nil
}

// Throttle wraps next so requests over the limiter's rate receive 429.
func Throttle(l *limiter.Limiter) func(http.Handler) http.Handler {
	if l == nil {
		return func(next http.Handler) http.Handler { return next }
	}
	mw := stdlib.NewMiddleware(l, stdlib.WithLimitReachedHandler(func(w http.ResponseWriter, r *http.Request) {
		common.JSONError(w, http.StatusTooManyRequests, "RATE_LIMITED", "too many login attempts", nil)
	}))
	return mw.Handler
}
