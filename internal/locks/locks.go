// Package locks serializes work per key across function instances.
package locks

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrLocked is returned when another holder owns the key.
var ErrLocked = errors.New("locks: key is held by another run")

// Locker acquires an exclusive lease on key. The returned release function is safe to
// call once the work is done; it never releases a lease taken over by someone else.
type Locker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// NoopLocker always succeeds. It is used when no Redis address is configured.
type NoopLocker struct{}

func (NoopLocker) Acquire(context.Context, string, time.Duration) (func(), error) {
	return func() {}, nil
}

// releaseScript deletes the key only when it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with SET NX PX and a compare-and-delete release.
type RedisLocker struct {
	client *redis.Client
	prefix string
}

// NewRedisLocker connects to addr. Keys are stored under prefix.
func NewRedisLocker(addr, password string, db int, prefix string) *RedisLocker {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	slog.Info("Redis locker initialized.", "addr", addr, "prefix", prefix)
	return &RedisLocker{client: client, prefix: prefix}
}

func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	fullKey := l.prefix + key
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, fullKey, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock %s: %w", fullKey, err)
	}
	if !ok {
		return nil, fmt.Errorf("%s: %w", fullKey, ErrLocked)
	}

	release := func() {
		// The caller's context may already be done; release on a short fresh one.
		relCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := releaseScript.Run(relCtx, l.client, []string{fullKey}, token).Err(); err != nil {
			slog.Warn("Failed to release lock.", "key", fullKey, "error", err)
		}
	}
	return release, nil
}

// Close closes the Redis connection pool.
func (l *RedisLocker) Close() error {
	return l.client.Close()
}
