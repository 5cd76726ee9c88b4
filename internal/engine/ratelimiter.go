package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Priya8975/guildlog/internal/logging"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RateLimiter is a sliding-window limiter shared through Redis. Each admitted
// call is a member of a sorted set scored by its arrival time in milliseconds.
type RateLimiter struct {
	rdb    redis.Cmdable
	log    *slog.Logger
	limit  int
	window time.Duration
	now    func() time.Time
}

// Trims the window, counts what is left and admits the call when under the
// limit. Returns 1 when admitted.
var slidingWindow = redis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call('ZREMRANGEBYSCORE', key, '-inf', now - window)

if redis.call('ZCARD', key) >= limit then
    return 0
end

redis.call('ZADD', key, now, ARGV[4])
redis.call('PEXPIRE', key, window + 1000)
return 1
`)

// NewRateLimiter admits at most limit calls per window for each key. A limit
// of zero or less disables limiting.
func NewRateLimiter(rdb redis.Cmdable, log *slog.Logger, limit int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Second
	}
	return &RateLimiter{
		rdb:    rdb,
		log:    log,
		limit:  limit,
		window: window,
		now:    time.Now,
	}
}

func rlKey(key string) string {
	return fmt.Sprintf("rl:%s", key)
}

// Allow reports whether a call under key fits the window. Redis failures let
// the call through.
func (rl *RateLimiter) Allow(ctx context.Context, key string) bool {
	if rl.limit <= 0 {
		return true
	}

	res, err := slidingWindow.Run(ctx, rl.rdb, []string{rlKey(key)},
		rl.now().UnixMilli(), rl.window.Milliseconds(), rl.limit, uuid.NewString(),
	).Int64()
	if err != nil {
		rl.log.Error("rate limiter script failed", slog.String("key", key), logging.Err(err))
		return true
	}

	if res == 0 {
		rl.log.Debug("rate limited", slog.String("key", key), slog.Int("limit", rl.limit))
		return false
	}
	return true
}
