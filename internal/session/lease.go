// Package session is the cross-process visibility layer for C8's
// in-process locks: a Redis-backed recorder that mirrors which
// conversations are currently holding the conversation lock, for
// dashboards/ops tooling running outside this process. It never
// participates in lock enforcement itself — per spec §9's "lock state
// must not outlive the scheduler that owns it," the Arbiter's in-process
// map remains the sole source of truth; Redis only gets a best-effort
// mirror with a safety-net TTL so a crashed process doesn't leave a
// stale "busy" entry behind.
package session

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Sourabsb/doctalk/internal/logger"
)

// Recorder mirrors conversation busy-state. Implementations must never
// block or fail a caller's request — errors are logged and swallowed.
type Recorder interface {
	MarkBusy(ctx context.Context, convID int64, ttl time.Duration)
	ClearBusy(ctx context.Context, convID int64)
}

// RedisRecorder is the default Recorder.
type RedisRecorder struct {
	client *redis.Client
}

// NewRedisRecorder dials addr/password/db, the same shape as the
// teacher's Redis-backed caches.
func NewRedisRecorder(addr, password string, db int) *RedisRecorder {
	return &RedisRecorder{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

func leaseKey(convID int64) string {
	return fmt.Sprintf("doctalk:lease:conv:%d", convID)
}

func (r *RedisRecorder) MarkBusy(ctx context.Context, convID int64, ttl time.Duration) {
	if err := r.client.Set(ctx, leaseKey(convID), time.Now().UTC().Format(time.RFC3339), ttl).Err(); err != nil {
		logger.Warn(ctx, "failed to mark conversation lease in redis", "convId", convID, "error", err)
	}
}

func (r *RedisRecorder) ClearBusy(ctx context.Context, convID int64) {
	if err := r.client.Del(ctx, leaseKey(convID)).Err(); err != nil {
		logger.Warn(ctx, "failed to clear conversation lease in redis", "convId", convID, "error", err)
	}
}

// NoopRecorder is used when no Redis address is configured; the Arbiter
// still works correctly without cross-process visibility.
type NoopRecorder struct{}

func (NoopRecorder) MarkBusy(ctx context.Context, convID int64, ttl time.Duration) {}
func (NoopRecorder) ClearBusy(ctx context.Context, convID int64)                   {}
