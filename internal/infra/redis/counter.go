package redis

import (
	"context"
	"fmt"
	"strings"

	"github.com/tazehal/batching-engine/internal/domain"
	"github.com/tazehal/batching-engine/internal/repository"
	goredis "github.com/redis/go-redis/v9"
)

const counterKeyPrefix = "counter:"

var _ repository.CounterRepository = (*Counter)(nil)

// Counter issues sequences with Redis INCR. INCR is atomic on the server, so
// concurrent callers for one name never observe the same value.
type Counter struct {
	client *goredis.Client
}

func NewCounter(client *goredis.Client) (*Counter, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client is required")
	}
	return &Counter{client: client}, nil
}

func (c *Counter) NextSequence(ctx context.Context, name string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, fmt.Errorf("%w: counter name is required", domain.ErrValidation)
	}

	value, err := c.client.Incr(ctx, counterKeyPrefix+name).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to increment counter %q: %w", name, err)
	}
	return value, nil
}
