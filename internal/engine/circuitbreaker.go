package engine

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/Priya8975/guildlog/internal/logging"
	"github.com/redis/go-redis/v9"
)

// State is the position of an upstream's circuit.
type State string

const (
	StateClosed   State = "closed"
	StateOpen     State = "open"
	StateHalfOpen State = "half-open"
)

const (
	DefaultFailureThreshold = 5
	DefaultCooldown         = 30 * time.Second
)

// CircuitBreaker guards calls to a named upstream. Its state lives in a Redis
// hash so every replica of the dashboard sees the same circuit.
//
// Closed lets calls through and counts failures. Open rejects calls until the
// cooldown since the last failure has passed, then moves to half-open, where
// a single success closes the circuit again and a failure reopens it.
type CircuitBreaker struct {
	rdb       redis.Cmdable
	log       *slog.Logger
	threshold int
	cooldown  time.Duration
	now       func() time.Time
}

// BreakerSnapshot is the externally visible state of one circuit.
type BreakerSnapshot struct {
	State        State  `json:"state"`
	Failures     int    `json:"failures"`
	LastFailedAt string `json:"last_failed_at,omitempty"`
}

type BreakerOption func(*CircuitBreaker)

func WithFailureThreshold(n int) BreakerOption {
	return func(cb *CircuitBreaker) {
		if n > 0 {
			cb.threshold = n
		}
	}
}

func WithCooldown(d time.Duration) BreakerOption {
	return func(cb *CircuitBreaker) {
		if d > 0 {
			cb.cooldown = d
		}
	}
}

func NewCircuitBreaker(rdb redis.Cmdable, log *slog.Logger, opts ...BreakerOption) *CircuitBreaker {
	cb := &CircuitBreaker{
		rdb:       rdb,
		log:       log,
		threshold: DefaultFailureThreshold,
		cooldown:  DefaultCooldown,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(cb)
	}
	return cb
}

func cbKey(upstream string) string {
	return fmt.Sprintf("cb:%s", upstream)
}

func (cb *CircuitBreaker) cooledDown(lastFailedAt int64) bool {
	return cb.now().Unix()-lastFailedAt >= int64(cb.cooldown.Seconds())
}

// Allow reports whether a call to upstream may proceed. A Redis error is
// treated as a closed circuit.
func (cb *CircuitBreaker) Allow(ctx context.Context, upstream string) (State, bool) {
	key := cbKey(upstream)

	data, err := cb.rdb.HGetAll(ctx, key).Result()
	if err != nil || len(data) == 0 {
		return StateClosed, true
	}

	switch State(data["state"]) {
	case StateOpen:
		lastFailedAt, _ := strconv.ParseInt(data["last_failed_at"], 10, 64)
		if !cb.cooledDown(lastFailedAt) {
			return StateOpen, false
		}
		cb.rdb.HSet(ctx, key, "state", string(StateHalfOpen))
		cb.log.Info("circuit half-open", slog.String("upstream", upstream))
		return StateHalfOpen, true
	case StateHalfOpen:
		return StateHalfOpen, true
	default:
		return StateClosed, true
	}
}

// Success closes the circuit and clears the failure count.
func (cb *CircuitBreaker) Success(ctx context.Context, upstream string) {
	key := cbKey(upstream)

	prev, _ := cb.rdb.HGet(ctx, key, "state").Result()
	cb.rdb.HSet(ctx, key, "state", string(StateClosed), "failures", 0)

	if State(prev) == StateHalfOpen {
		cb.log.Info("circuit closed", slog.String("upstream", upstream))
	}
}

// Failure counts a failed call and opens the circuit once the threshold is
// reached, or immediately when the failed call was the half-open trial.
func (cb *CircuitBreaker) Failure(ctx context.Context, upstream string) {
	key := cbKey(upstream)

	failures, err := cb.rdb.HIncrBy(ctx, key, "failures", 1).Result()
	if err != nil {
		cb.log.Error("recording circuit failure", slog.String("upstream", upstream), logging.Err(err))
		return
	}
	cb.rdb.HSet(ctx, key, "last_failed_at", cb.now().Unix())

	prev, _ := cb.rdb.HGet(ctx, key, "state").Result()
	switch {
	case State(prev) == StateHalfOpen:
		cb.rdb.HSet(ctx, key, "state", string(StateOpen))
		cb.log.Warn("circuit reopened", slog.String("upstream", upstream))
	case failures >= int64(cb.threshold):
		cb.rdb.HSet(ctx, key, "state", string(StateOpen))
		if State(prev) != StateOpen {
			cb.log.Warn("circuit opened",
				slog.String("upstream", upstream),
				slog.Int64("failures", failures),
				slog.Int("threshold", cb.threshold),
			)
		}
	case prev == "":
		cb.rdb.HSet(ctx, key, "state", string(StateClosed))
	}
}

// Snapshot returns the current state without changing it. An open circuit
// whose cooldown has passed reports as half-open.
func (cb *CircuitBreaker) Snapshot(ctx context.Context, upstream string) BreakerSnapshot {
	data, err := cb.rdb.HGetAll(ctx, cbKey(upstream)).Result()
	if err != nil || len(data) == 0 {
		return BreakerSnapshot{State: StateClosed}
	}

	snap := BreakerSnapshot{State: State(data["state"])}
	snap.Failures, _ = strconv.Atoi(data["failures"])
	if snap.State == "" {
		snap.State = StateClosed
	}

	lastFailedAt, _ := strconv.ParseInt(data["last_failed_at"], 10, 64)
	if snap.State == StateOpen && cb.cooledDown(lastFailedAt) {
		snap.State = StateHalfOpen
	}
	if lastFailedAt > 0 {
		snap.LastFailedAt = time.Unix(lastFailedAt, 0).UTC().Format(time.RFC3339)
	}
	return snap
}
