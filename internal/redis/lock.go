package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var (
	ErrLockNotAcquired = errors.New("business lock not acquired")
)

// Locker guards the duplicate-check/overlap-check/insert critical section so
// that concurrent proposals for the same business serialize.
type Locker interface {
	WithBusinessLock(ctx context.Context, businessID uuid.UUID, fn func(ctx context.Context) error) error
}

type redisBusinessLocker struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisBusinessLocker creates a locker that uses a per-business Redis key.
func NewRedisBusinessLocker(client *redis.Client, ttl time.Duration) Locker {
	return &redisBusinessLocker{
		client: client,
		ttl:    ttl,
	}
}

func (l *redisBusinessLocker) WithBusinessLock(ctx context.Context, businessID uuid.UUID, fn func(ctx context.Context) error) error {
	key := fmt.Sprintf("lock:business:%s", businessID.String())
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire business lock: %w", err)
	}
	if !ok {
		return ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, key, token)
	}()

	ctxWithTimeout, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(ctxWithTimeout)
}

// Only the holder of the token may delete the key, so an expired lock picked
// up by another proposal is never released out from under it.
var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *redisBusinessLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release business lock: %w", err)
	}
	return nil
}

// NopLocker runs the critical section without any locking. Useful in tests
// and single-node setups where the store's constraints are enough.
type NopLocker struct{}

func (NopLocker) WithBusinessLock(ctx context.Context, _ uuid.UUID, fn func(ctx context.Context) error) error {
	return fn(ctx)
}
