package engine

import (
	"context"
	"testing"
	"time"

	"github.com/Priya8975/guildlog/internal/logging"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func setupTestRL(t *testing.T, limit int) (*RateLimiter, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	return NewRateLimiter(client, logging.Discard(), limit, time.Second), mr
}

func TestRateLimiter_AllowsWithinLimit(t *testing.T) {
	rl, _ := setupTestRL(t, 5)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if !rl.Allow(ctx, "discord") {
			t.Errorf("call %d should be allowed (limit=5)", i+1)
		}
	}
}

func TestRateLimiter_BlocksOverLimit(t *testing.T) {
	rl, _ := setupTestRL(t, 3)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		rl.Allow(ctx, "discord")
	}

	if rl.Allow(ctx, "discord") {
		t.Error("call should be blocked when over the limit")
	}
}

func TestRateLimiter_WindowSlides(t *testing.T) {
	rl, _ := setupTestRL(t, 2)
	ctx := context.Background()

	start := time.Now()
	rl.now = func() time.Time { return start }
	rl.Allow(ctx, "discord")
	rl.Allow(ctx, "discord")
	if rl.Allow(ctx, "discord") {
		t.Fatal("third call inside the window should be blocked")
	}

	later := start.Add(1500 * time.Millisecond)
	rl.now = func() time.Time { return later }
	if !rl.Allow(ctx, "discord") {
		t.Error("call after the window should be allowed")
	}
}

func TestRateLimiter_ZeroLimit_AllowsAll(t *testing.T) {
	rl, _ := setupTestRL(t, 0)
	ctx := context.Background()

	for i := 0; i < 100; i++ {
		if !rl.Allow(ctx, "discord") {
			t.Errorf("call %d should be allowed with limit=0", i+1)
		}
	}
}

func TestRateLimiter_IsolationBetweenKeys(t *testing.T) {
	rl, _ := setupTestRL(t, 2)
	ctx := context.Background()

	rl.Allow(ctx, "discord")
	rl.Allow(ctx, "discord")

	if rl.Allow(ctx, "discord") {
		t.Error("discord should be blocked")
	}
	if !rl.Allow(ctx, "other") {
		t.Error("other key should be allowed")
	}
}

func TestRateLimiter_RedisDownFailsOpen(t *testing.T) {
	rl, mr := setupTestRL(t, 1)
	mr.Close()

	if !rl.Allow(context.Background(), "discord") {
		t.Error("calls should be allowed when Redis is unreachable")
	}
}
