package resolver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Priya8975/guildlog/internal/discord"
	"github.com/Priya8975/guildlog/internal/engine"
	"github.com/Priya8975/guildlog/internal/logging"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type upstream struct {
	srv   *httptest.Server
	calls atomic.Int32
}

func newUpstream(t *testing.T, h http.HandlerFunc) *upstream {
	t.Helper()
	u := &upstream{}
	u.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.calls.Add(1)
		h(w, r)
	}))
	t.Cleanup(u.srv.Close)
	return u
}

func setup(t *testing.T, h http.HandlerFunc, opts ...Option) (*Resolver, *upstream, *miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	up := newUpstream(t, h)
	r := New(discord.New(up.srv.URL, "tok"), client, logging.Discard(), opts...)
	return r, up, mr, client
}

func TestResolve_Success(t *testing.T) {
	r, up, mr, _ := setup(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"id":"42","name":"Test Guild"}`))
	})
	ctx := context.Background()

	assert.Equal(t, "Test Guild", r.Resolve(ctx, 42))
	assert.Equal(t, "Test Guild", r.Resolve(ctx, 42))

	assert.Equal(t, int32(1), up.calls.Load(), "second lookup must come from the cache")
	got, err := mr.Get("guild_name:42")
	require.NoError(t, err)
	assert.Equal(t, "Test Guild", got)
	assert.Equal(t, DefaultTTL, mr.TTL("guild_name:42"))
}

func TestResolve_FailureFallsBackAndIsCached(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{"server error", func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}},
		{"malformed json", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`not json`))
		}},
		{"missing name", func(w http.ResponseWriter, _ *http.Request) {
			w.Write([]byte(`{"id":"42"}`))
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, up, mr, _ := setup(t, tt.handler)
			ctx := context.Background()

			assert.Equal(t, "42", r.Resolve(ctx, 42))
			assert.Equal(t, "42", r.Resolve(ctx, 42))

			assert.Equal(t, int32(1), up.calls.Load())
			assert.Equal(t, DefaultFallbackTTL, mr.TTL("guild_name:42"))
		})
	}
}

func TestResolve_NetworkError(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close()

	r := New(discord.New(srv.URL, "tok"), client, logging.Discard())

	assert.Equal(t, "7", r.Resolve(context.Background(), 7))
	assert.True(t, mr.Exists("guild_name:7"))
}

func TestResolve_CustomTTL(t *testing.T) {
	r, _, mr, _ := setup(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"name":"g"}`))
	}, WithTTL(time.Hour, time.Minute))

	r.Resolve(context.Background(), 1)

	assert.Equal(t, time.Hour, mr.TTL("guild_name:1"))
}

func TestResolve_CacheExpires(t *testing.T) {
	r, up, mr, _ := setup(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	ctx := context.Background()

	r.Resolve(ctx, 42)
	mr.FastForward(DefaultFallbackTTL + time.Second)
	r.Resolve(ctx, 42)

	assert.Equal(t, int32(2), up.calls.Load())
}

func TestResolve_RedisDown(t *testing.T) {
	r, up, mr, _ := setup(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"name":"Test Guild"}`))
	})
	mr.Close()

	assert.Equal(t, "Test Guild", r.Resolve(context.Background(), 42))
	assert.Equal(t, int32(1), up.calls.Load())
}

type denyLimiter struct{}

func (denyLimiter) Allow(context.Context, string) bool { return false }

func TestResolve_RateLimitedIsNotCached(t *testing.T) {
	r, up, mr, _ := setup(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"name":"Test Guild"}`))
	}, WithGuard(denyLimiter{}, nil))

	assert.Equal(t, "42", r.Resolve(context.Background(), 42))

	assert.Zero(t, up.calls.Load())
	assert.False(t, mr.Exists("guild_name:42"))
}

func TestResolve_OpenCircuitSkipsUpstream(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	up := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	cb := engine.NewCircuitBreaker(client, logging.Discard(), engine.WithFailureThreshold(2))
	rl := engine.NewRateLimiter(client, logging.Discard(), 0, time.Second)
	r := New(discord.New(up.srv.URL, "tok"), client, logging.Discard(), WithGuard(rl, cb))
	ctx := context.Background()

	// Distinct ids so the cache does not absorb the calls.
	r.Resolve(ctx, 1)
	r.Resolve(ctx, 2)
	require.Equal(t, int32(2), up.calls.Load())

	assert.Equal(t, "3", r.Resolve(ctx, 3))
	assert.Equal(t, int32(2), up.calls.Load(), "open circuit must not reach upstream")
	assert.False(t, mr.Exists("guild_name:3"))
	assert.Equal(t, engine.StateOpen, cb.Snapshot(ctx, Upstream).State)
}

func TestResolve_SuccessClosesCircuit(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	up := newUpstream(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"name":"ok"}`))
	})
	cb := engine.NewCircuitBreaker(client, logging.Discard())
	ctx := context.Background()
	cb.Failure(ctx, Upstream)

	r := New(discord.New(up.srv.URL, "tok"), client, logging.Discard(), WithGuard(nil, cb))
	r.Resolve(ctx, 1)

	assert.Zero(t, cb.Snapshot(ctx, Upstream).Failures)
}

// hangingHandler blocks until the client gives up or the test ends.
func hangingHandler(t *testing.T) http.HandlerFunc {
	release := make(chan struct{})
	t.Cleanup(func() { close(release) })
	return func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	}
}

func TestResolve_DeadlineIsNotCached(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	up := newUpstream(t, hangingHandler(t))
	cb := engine.NewCircuitBreaker(client, logging.Discard())
	r := New(discord.New(up.srv.URL, "tok"), client, logging.Discard(), WithGuard(nil, cb))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	assert.Equal(t, "42", r.Resolve(ctx, 42))
	assert.Less(t, time.Since(start), time.Second)

	assert.False(t, mr.Exists("guild_name:42"), "an abandoned lookup must not be cached")
	assert.Equal(t, 1, cb.Snapshot(context.Background(), Upstream).Failures)
}

func TestResolve_DoneContextSkipsUpstream(t *testing.T) {
	r, up, mr, _ := setup(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"name":"Test Guild"}`))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Equal(t, "42", r.Resolve(ctx, 42))

	assert.Zero(t, up.calls.Load())
	assert.False(t, mr.Exists("guild_name:42"))
}
