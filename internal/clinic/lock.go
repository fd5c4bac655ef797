package clinic

import (
	"context"
	"errors"
	"sync"
)

// ErrLockNotAcquired means another terminal holds the partition and the
// caller should retry shortly.
var ErrLockNotAcquired = errors.New("partition lock not acquired")

// Locker serializes the count-then-insert and select-then-transition
// critical sections per queue partition. Disjoint partitions must not
// block one another.
type Locker interface {
	WithPartitionLock(ctx context.Context, key PartitionKey, fn func(ctx context.Context) error) error
}

// mutexLocker is the single-process Locker: one mutex per partition
// key, created on first use. Multi-terminal deployments use the Redis
// locker instead.
type mutexLocker struct {
	mu    sync.Mutex
	locks map[PartitionKey]*sync.Mutex
}

func NewMutexLocker() Locker {
	return &mutexLocker{locks: make(map[PartitionKey]*sync.Mutex)}
}

func (l *mutexLocker) lockFor(key PartitionKey) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	return m
}

func (l *mutexLocker) WithPartitionLock(ctx context.Context, key PartitionKey, fn func(ctx context.Context) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m := l.lockFor(key)
	m.Lock()
	defer m.Unlock()
	return fn(ctx)
}
