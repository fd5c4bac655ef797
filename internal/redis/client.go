package redisclient

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// The only Redis traffic in this service is short-lived partition lock
// commands (SET NX and the release script), so the pool stays small and
// the per-command timeouts tight. A lock attempt that cannot reach
// Redis within commandTimeout surfaces as ErrPartitionBusy upstream
// rather than stalling a booking.
const (
	commandTimeout = 2 * time.Second
	connectTimeout = 5 * time.Second
	poolSize       = 10
)

// NewRedisClient dials Redis and verifies the connection with a ping
// before handing the client out. A client that cannot ping is closed
// and never returned.
func NewRedisClient(addr, username, password string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		Username:     username,
		Password:     password,
		ReadTimeout:  commandTimeout,
		WriteTimeout: commandTimeout,
		PoolSize:     poolSize,
		MinIdleConns: 1,
	})

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis at %s: %w", addr, err)
	}
	return rdb, nil
}
