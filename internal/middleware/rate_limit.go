package middleware

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/pageza/mealplan-bot/backend/internal/logger"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for Redis keys
	KeyPrefix string
}

// Decision is the outcome of one rate limit check
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	Reset     time.Time
}

// Limiter decides whether a caller identified by key may make another request
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
}

// RedisLimiter is a fixed-window limiter shared by every server instance
type RedisLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
}

// NewRedisLimiter creates a new Redis backed limiter
func NewRedisLimiter(redisClient *redis.Client, config RateLimitConfig) *RedisLimiter {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "rate_limit:webhook"
	}
	return &RedisLimiter{redis: redisClient, config: config}
}

// Allow counts a request for key in the current window
func (rl *RedisLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	windowStart := time.Now().Truncate(rl.config.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix())

	pipe := rl.redis.Pipeline()
	incrCmd := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	count := int(incrCmd.Val())
	return Decision{
		Allowed:   count <= rl.config.Limit,
		Limit:     rl.config.Limit,
		Remaining: max(rl.config.Limit-count, 0),
		Reset:     windowStart.Add(rl.config.Window),
	}, nil
}

// maxLocalKeys bounds the per-key limiters kept in memory before idle ones are dropped
const maxLocalKeys = 10000

type localEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalLimiter is an in-process token bucket per key. Limit tokens refill over Window.
type LocalLimiter struct {
	config RateLimitConfig

	mu      sync.Mutex
	entries map[string]*localEntry
	now     func() time.Time
}

// NewLocalLimiter creates an in-memory limiter for single instance deployments
func NewLocalLimiter(config RateLimitConfig) *LocalLimiter {
	return &LocalLimiter{
		config:  config,
		entries: make(map[string]*localEntry),
		now:     time.Now,
	}
}

// Allow takes a token from key's bucket
func (l *LocalLimiter) Allow(_ context.Context, key string) (Decision, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	entry, ok := l.entries[key]
	if !ok {
		if len(l.entries) >= maxLocalKeys {
			l.evictIdle(now)
		}
		every := l.config.Window / time.Duration(max(l.config.Limit, 1))
		entry = &localEntry{limiter: rate.NewLimiter(rate.Every(every), l.config.Limit)}
		l.entries[key] = entry
	}
	entry.lastSeen = now

	allowed := entry.limiter.AllowN(now, 1)
	tokens := entry.limiter.TokensAt(now)
	missing := float64(l.config.Limit) - tokens
	reset := now
	if missing > 0 {
		reset = now.Add(time.Duration(missing / float64(entry.limiter.Limit()) * float64(time.Second)))
	}

	return Decision{
		Allowed:   allowed,
		Limit:     l.config.Limit,
		Remaining: max(int(math.Floor(tokens)), 0),
		Reset:     reset,
	}, nil
}

// evictIdle drops buckets not used for a full window. Those are back at full capacity.
func (l *LocalLimiter) evictIdle(now time.Time) {
	for key, e := range l.entries {
		if now.Sub(e.lastSeen) >= l.config.Window {
			delete(l.entries, key)
		}
	}
}

// KeyFunc picks the identity a request is limited by
type KeyFunc func(c *gin.Context) string

// SenderOrIP limits by the token's sender id when present, otherwise by client IP
func SenderOrIP(c *gin.Context) string {
	if sender := c.GetString(SenderIDKey); sender != "" {
		return "sender:" + sender
	}
	return "ip:" + c.ClientIP()
}

// RateLimit returns a Gin middleware that enforces rate limiting.
// Limiter failures are logged and the request is let through.
func RateLimit(limiter Limiter, keyFn KeyFunc) gin.HandlerFunc {
	if keyFn == nil {
		keyFn = SenderOrIP
	}
	return func(c *gin.Context) {
		key := keyFn(c)
		d, err := limiter.Allow(c.Request.Context(), key)
		if err != nil {
			logger.Warn("rate limit check failed",
				zap.String("request_id", c.GetString(RequestIDKey)),
				zap.String("key", key),
				zap.Error(err),
			)
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(d.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))

		if !d.Allowed {
			retryAfter := int(math.Ceil(time.Until(d.Reset).Seconds()))
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "rate limit exceeded",
				"message":     fmt.Sprintf("You have exceeded the rate limit of %d requests", d.Limit),
				"retry_after": retryAfter,
			})
			return
		}

		c.Next()
	}
}
