// Package locks provides the leader lock that keeps periodic jobs from
// running on more than one instance at a time.
package locks

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so an
// instance whose lock already expired cannot drop a lock taken by another.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// Connect parses a redis:// URL and checks the server is reachable.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	if strings.TrimSpace(url) == "" {
		return nil, fmt.Errorf("redis url is empty")
	}
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

// RedisLocker takes locks with SET NX PX. Each locker has its own token.
type RedisLocker struct {
	rdb   redis.Cmdable
	token string
}

func NewRedisLocker(rdb redis.Cmdable) *RedisLocker {
	return &RedisLocker{rdb: rdb, token: uuid.NewString()}
}

// TryLock reports whether the lock was taken. The lock lapses after ttl.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := l.rdb.SetNX(ctx, key, l.token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return ok, nil
}

// Unlock releases the lock if this locker still holds it.
func (l *RedisLocker) Unlock(ctx context.Context, key string) (bool, error) {
	n, err := releaseScript.Run(ctx, l.rdb, []string{key}, l.token).Int()
	if err != nil {
		return false, fmt.Errorf("redis error: %w", err)
	}
	return n == 1, nil
}

// Local always grants the lock. It is used when no Redis is configured and a
// single instance runs.
type Local struct{}

func (Local) TryLock(context.Context, string, time.Duration) (bool, error) { return true, nil }
func (Local) Unlock(context.Context, string) (bool, error)                { return true, nil }
