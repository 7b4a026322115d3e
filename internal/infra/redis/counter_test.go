package redis

import (
	"context"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
)

func newTestRedisClient(t *testing.T) *goredis.Client {
	t.Helper()

	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestCounterNextSequenceIncreases(t *testing.T) {
	t.Parallel()

	counter, err := NewCounter(newTestRedisClient(t))
	if err != nil {
		t.Fatalf("NewCounter() error = %v", err)
	}

	var previous int64
	for i := 0; i < 5; i++ {
		value, err := counter.NextSequence(context.Background(), "bill:2603")
		if err != nil {
			t.Fatalf("NextSequence() error = %v", err)
		}
		if value <= previous {
			t.Fatalf("sequence not increasing: got %d after %d", value, previous)
		}
		previous = value
	}
}

func TestCounterSequencesPartitionByName(t *testing.T) {
	t.Parallel()

	counter, err := NewCounter(newTestRedisClient(t))
	if err != nil {
		t.Fatalf("NewCounter() error = %v", err)
	}

	if _, err := counter.NextSequence(context.Background(), "bill:2603"); err != nil {
		t.Fatalf("NextSequence() error = %v", err)
	}
	if _, err := counter.NextSequence(context.Background(), "bill:2603"); err != nil {
		t.Fatalf("NextSequence() error = %v", err)
	}

	value, err := counter.NextSequence(context.Background(), "bill:2604")
	if err != nil {
		t.Fatalf("NextSequence() error = %v", err)
	}
	if value != 1 {
		t.Fatalf("fresh name sequence = %d, want 1", value)
	}
}

func TestCounterNextSequenceConcurrent(t *testing.T) {
	t.Parallel()

	counter, err := NewCounter(newTestRedisClient(t))
	if err != nil {
		t.Fatalf("NewCounter() error = %v", err)
	}

	const callers = 32

	var wg sync.WaitGroup
	values := make(chan int64, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			value, err := counter.NextSequence(context.Background(), "bill:2603")
			if err != nil {
				t.Errorf("NextSequence() error = %v", err)
				return
			}
			values <- value
		}()
	}
	wg.Wait()
	close(values)

	seen := make(map[int64]bool, callers)
	for value := range values {
		if seen[value] {
			t.Fatalf("duplicate sequence value %d", value)
		}
		seen[value] = true
	}
	if len(seen) != callers {
		t.Fatalf("distinct values = %d, want %d", len(seen), callers)
	}
}

func TestCounterRejectsEmptyName(t *testing.T) {
	t.Parallel()

	counter, err := NewCounter(newTestRedisClient(t))
	if err != nil {
		t.Fatalf("NewCounter() error = %v", err)
	}

	if _, err := counter.NextSequence(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty counter name")
	}
}
