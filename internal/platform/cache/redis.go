package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/shiv-accounts/shiv-accounts/internal/shared"
)

const (
	pingTimeout = 5 * time.Second
	dialTimeout = 2 * time.Second
	ioTimeout   = 500 * time.Millisecond
)

// New connects to Redis and pings it.
func New(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  dialTimeout,
		ReadTimeout:  ioTimeout,
		WriteTimeout: ioTimeout,
	})

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("platform/cache: ping %s: %w: %v", addr, shared.ErrUnavailable, err)
	}
	return client, nil
}
