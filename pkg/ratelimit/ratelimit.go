// Package ratelimit throttles requests with a fixed-window counter in Redis.
package ratelimit

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/crewboard/crewboard-backend/pkg/config"
	"github.com/crewboard/crewboard-backend/pkg/errors"
	"github.com/crewboard/crewboard-backend/pkg/httputil"
	"github.com/crewboard/crewboard-backend/pkg/logger"
)

// Counter increments a windowed counter and returns the new value.
type Counter interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
}

// RedisCounter implements Counter with INCR + EXPIRE.
type RedisCounter struct {
	rdb *redis.Client
}

// NewRedisCounter connects to cfg.URL and pings it.
func NewRedisCounter(ctx context.Context, cfg config.RedisConfig) (*RedisCounter, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("redis url is required")
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	if cfg.DB != 0 {
		opts.DB = cfg.DB
	}

	rdb := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &RedisCounter{rdb: rdb}, nil
}

// IncrWithTTL increments key and starts its window on the first hit.
func (c *RedisCounter) IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	count, err := c.rdb.Incr(ctx, key).Result()
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := c.rdb.Expire(ctx, key, ttl).Err(); err != nil {
			return count, err
		}
	}
	return count, nil
}

// Health reports Redis reachability.
func (c *RedisCounter) Health(ctx context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(ctx, time.Second)
	defer cancel()
	if err := c.rdb.Ping(ctx).Err(); err != nil {
		return map[string]string{"status": "down", "error": err.Error()}
	}
	return map[string]string{"status": "up"}
}

// Close closes the Redis client.
func (c *RedisCounter) Close() error {
	return c.rdb.Close()
}

// Limiter allows Limit requests per Window for each client IP.
type Limiter struct {
	counter Counter
	prefix  string
	limit   int64
	window  time.Duration
	logger  *logger.Logger
}

// New returns a limiter. A nil counter disables limiting.
func New(counter Counter, prefix string, limit int, window time.Duration, log *logger.Logger) *Limiter {
	if log == nil {
		log = logger.Nop()
	}
	return &Limiter{counter: counter, prefix: prefix, limit: int64(limit), window: window, logger: log}
}

// Allow reports whether the request keyed by id is within the limit.
// Counter failures allow the request.
func (l *Limiter) Allow(ctx context.Context, id string) bool {
	if l == nil || l.counter == nil || l.limit <= 0 {
		return true
	}
	count, err := l.counter.IncrWithTTL(ctx, "rl:"+l.prefix+":"+id, l.window)
	if err != nil {
		l.logger.Warn().Err(err).Str("limiter", l.prefix).Msg("rate limit counter unavailable")
		return true
	}
	return count <= l.limit
}

// Middleware rejects requests over the limit with 429.
func (l *Limiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(r.Context(), ClientIP(r)) {
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(l.window.Seconds())))
			httputil.Error(w, r, errors.TooManyRequests())
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClientIP returns the first X-Forwarded-For hop, else the remote host.
func ClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
