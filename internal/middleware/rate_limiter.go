package middleware

import (
	"net/http"

	"github.com/cinsua/masirep-sub002/internal/apierror"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
	"github.com/ulule/limiter/v3"
	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

// NewLimiterStore returns a redis-backed store shared by every instance, or a
// per-process memory store when rdb is nil.
func NewLimiterStore(rdb *redis.Client, prefix string) (limiter.Store, error) {
	if rdb == nil {
		return memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix}), nil
	}
	return sredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: prefix, MaxRetry: 3})
}

// RateLimiter limits requests per client IP. rate uses the ulule format,
// e.g. "1000-M" (1000 per minute) or "10-M" for the login endpoint.
func RateLimiter(store limiter.Store, rate string, mensaje string) (gin.HandlerFunc, error) {
	r, err := limiter.NewRateFromFormatted(rate)
	if err != nil {
		return nil, err
	}
	instance := limiter.New(store, r)
	return mgin.NewMiddleware(instance,
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New(mensaje))
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			// A broken store must not take the API down.
			log.Error().Err(err).Str("request_id", c.GetString(RequestIDKey)).Msg("rate limiter store error")
			c.Next()
		}),
	), nil
}
