package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"khrafet/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	defaultRateLimitPrefix = "khrafet:ratelimit"
	defaultRateLimitWindow = time.Minute
)

// RateLimitResult - итог проверки лимита.
type RateLimitResult struct {
	Allowed    bool
	Remaining  int
	RetryAfter time.Duration
}

// RedisRateLimiter - лимит запросов в фиксированном окне, счётчики в Redis.
// Защищает квоту модели от одного клиента.
type RedisRateLimiter struct {
	client redis.Cmdable
	limit  int
	window time.Duration
	prefix string
	now    func() time.Time
	logger *zap.Logger
}

// NewRedisRateLimiter создаёт лимитер: не более limit запросов за window на ключ.
// Неположительное окно заменяется на минуту.
func NewRedisRateLimiter(client redis.Cmdable, limit int, window time.Duration, logger *zap.Logger) *RedisRateLimiter {
	if logger == nil {
		logger = zap.NewNop()
	}
	if window <= 0 {
		logger.Warn("Invalid rate limit window, using default",
			zap.Duration("window", window),
			zap.Duration("default", defaultRateLimitWindow),
		)
		window = defaultRateLimitWindow
	}
	return &RedisRateLimiter{
		client: client,
		limit:  limit,
		window: window,
		prefix: defaultRateLimitPrefix,
		now:    time.Now,
		logger: logger.Named("ratelimit"),
	}
}

// Allow засчитывает запрос для key и сообщает, укладывается ли он в лимит.
func (l *RedisRateLimiter) Allow(ctx context.Context, key string) (RateLimitResult, error) {
	now := l.now()
	windowIndex := now.UnixNano() / l.window.Nanoseconds()
	redisKey := fmt.Sprintf("%s:%s:%d", l.prefix, key, windowIndex)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return RateLimitResult{}, fmt.Errorf("rate limit counter update failed: %w", err)
	}

	count := int(incr.Val())
	windowEnd := time.Unix(0, (windowIndex+1)*l.window.Nanoseconds())
	result := RateLimitResult{
		Allowed:   count <= l.limit,
		Remaining: max(l.limit-count, 0),
	}
	if !result.Allowed {
		result.RetryAfter = windowEnd.Sub(now)
	}
	return result, nil
}

// Middleware ограничивает запросы по IP клиента. При недоступности Redis запрос пропускается.
func (l *RedisRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		res, err := l.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			l.logger.Warn("Rate limiter unavailable, allowing request", zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(l.limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))
		if !res.Allowed {
			seconds := int(res.RetryAfter.Round(time.Second) / time.Second)
			c.Header("Retry-After", strconv.Itoa(max(seconds, 1)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Code:      models.ErrCodeRateLimited,
				Message:   "Too many generation requests, please slow down",
				Retryable: true,
			})
			return
		}
		c.Next()
	}
}
