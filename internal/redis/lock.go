package redisclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/clinicdesk/clinic-queue-engine/internal/clinic"
)

// partitionLocker serializes queue writes per (clinic, shift, date)
// partition across reception terminals, using one Redis key per
// partition. The token plus Lua release ensure a terminal only ever
// deletes its own lock, even after a TTL expiry.
type partitionLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPartitionLocker(client *redis.Client, ttl time.Duration) clinic.Locker {
	return &partitionLocker{client: client, ttl: ttl}
}

func (l *partitionLocker) WithPartitionLock(ctx context.Context, key clinic.PartitionKey, fn func(ctx context.Context) error) error {
	lockKey := fmt.Sprintf("lock:queue:%s", key)
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, lockKey, token, l.ttl).Result()
	if err != nil {
		return fmt.Errorf("acquire partition lock: %w", err)
	}
	if !ok {
		return clinic.ErrLockNotAcquired
	}

	defer func() {
		_ = l.release(ctx, lockKey, token)
	}()

	lockCtx, cancel := context.WithTimeout(ctx, l.ttl)
	defer cancel()

	return fn(lockCtx)
}

var unlockScript = redis.NewScript(`
local val = redis.call("GET", KEYS[1])
if val == ARGV[1] then
  return redis.call("DEL", KEYS[1])
else
  return 0
end
`)

func (l *partitionLocker) release(ctx context.Context, key, token string) error {
	_, err := unlockScript.Run(ctx, l.client, []string{key}, token).Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release partition lock: %w", err)
	}
	return nil
}
