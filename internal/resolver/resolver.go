// Package resolver turns guild ids into display names, caching the answers in
// Redis. It never fails: when a name cannot be fetched the id is shown.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Priya8975/guildlog/internal/discord"
	"github.com/Priya8975/guildlog/internal/engine"
	"github.com/Priya8975/guildlog/internal/logging"
	"github.com/redis/go-redis/v9"
)

// Upstream is the key the rate limiter and circuit breaker track.
const Upstream = "discord"

const (
	DefaultTTL         = 24 * time.Hour
	DefaultFallbackTTL = 10 * time.Minute
)

// GuildFetcher is satisfied by *discord.Client.
type GuildFetcher interface {
	Guild(ctx context.Context, guildID int64) (*discord.Guild, error)
}

// Limiter is satisfied by *engine.RateLimiter.
type Limiter interface {
	Allow(ctx context.Context, key string) bool
}

// Breaker is satisfied by *engine.CircuitBreaker.
type Breaker interface {
	Allow(ctx context.Context, upstream string) (engine.State, bool)
	Success(ctx context.Context, upstream string)
	Failure(ctx context.Context, upstream string)
}

type Resolver struct {
	fetcher     GuildFetcher
	rdb         redis.Cmdable
	limiter     Limiter
	breaker     Breaker
	log         *slog.Logger
	ttl         time.Duration
	fallbackTTL time.Duration
}

type Option func(*Resolver)

func WithTTL(ttl, fallback time.Duration) Option {
	return func(r *Resolver) {
		if ttl > 0 {
			r.ttl = ttl
		}
		if fallback > 0 {
			r.fallbackTTL = fallback
		}
	}
}

// WithGuard puts lookups behind a rate limiter and a circuit breaker. Either
// may be nil.
func WithGuard(l Limiter, b Breaker) Option {
	return func(r *Resolver) {
		r.limiter = l
		r.breaker = b
	}
}

func New(fetcher GuildFetcher, rdb redis.Cmdable, log *slog.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		fetcher:     fetcher,
		rdb:         rdb,
		log:         log,
		ttl:         DefaultTTL,
		fallbackTTL: DefaultFallbackTTL,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func cacheKey(guildID int64) string {
	return fmt.Sprintf("guild_name:%d", guildID)
}

func fallbackName(guildID int64) string {
	return strconv.FormatInt(guildID, 10)
}

// Resolve returns the guild's name, or its id in decimal when the name is
// unavailable.
func (r *Resolver) Resolve(ctx context.Context, guildID int64) string {
	key := cacheKey(guildID)

	name, err := r.rdb.Get(ctx, key).Result()
	switch {
	case err == nil:
		return name
	case !errors.Is(err, redis.Nil):
		r.log.Warn("name cache read failed", slog.Int64("guild_id", guildID), logging.Err(err))
	}

	if ctx.Err() != nil || !r.admit(ctx, guildID) {
		return fallbackName(guildID)
	}

	name, ttl := r.fetch(ctx, guildID)
	if ctx.Err() != nil {
		// The caller stopped waiting; the next request gets a fresh lookup.
		return name
	}
	if err := r.rdb.Set(ctx, key, name, ttl).Err(); err != nil {
		r.log.Warn("name cache write failed", slog.Int64("guild_id", guildID), logging.Err(err))
	}
	return name
}

func (r *Resolver) admit(ctx context.Context, guildID int64) bool {
	if r.breaker != nil {
		if state, ok := r.breaker.Allow(ctx, Upstream); !ok {
			r.log.Debug("guild lookup skipped",
				slog.Int64("guild_id", guildID),
				slog.String("circuit", string(state)),
			)
			return false
		}
	}
	if r.limiter != nil && !r.limiter.Allow(ctx, Upstream) {
		r.log.Debug("guild lookup rate limited", slog.Int64("guild_id", guildID))
		return false
	}
	return true
}

func (r *Resolver) fetch(ctx context.Context, guildID int64) (string, time.Duration) {
	g, err := r.fetcher.Guild(ctx, guildID)
	if err != nil {
		if r.breaker != nil {
			r.breaker.Failure(context.WithoutCancel(ctx), Upstream)
		}
		r.log.Debug("guild lookup failed", slog.Int64("guild_id", guildID), logging.Err(err))
		return fallbackName(guildID), r.fallbackTTL
	}

	if r.breaker != nil {
		r.breaker.Success(ctx, Upstream)
	}
	return g.Name, r.ttl
}
