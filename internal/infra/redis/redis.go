package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// The only traffic here is one INCR per bill; a small pool is plenty.
	counterPoolSize = 4
	// A retried INCR risks a gap in the sequence, never a duplicate number,
	// so a couple of retries are safe.
	counterMaxRetries = 2
	connectTimeout    = 5 * time.Second
)

func NewRedis(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis url: %w", err)
	}

	opts.PoolSize = counterPoolSize
	opts.MaxRetries = counterMaxRetries

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	return client, nil
}
