package worker

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const idempotencyTTL = 24 * time.Hour

// Deduper remembers which event ids were already handled.
type Deduper interface {
	Seen(ctx context.Context, key string) (bool, error)
	Mark(ctx context.Context, key string) error
}

// NewDeduper uses Redis when a client is given and process memory otherwise.
func NewDeduper(client *redis.Client) Deduper {
	if client == nil {
		return newMemoryDeduper(time.Now)
	}
	return &redisDeduper{client: client}
}

type redisDeduper struct {
	client *redis.Client
}

func (d *redisDeduper) Seen(ctx context.Context, key string) (bool, error) {
	n, err := d.client.Exists(ctx, key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (d *redisDeduper) Mark(ctx context.Context, key string) error {
	return d.client.Set(ctx, key, "1", idempotencyTTL).Err()
}

type memoryDeduper struct {
	mu   sync.Mutex
	now  func() time.Time
	keys map[string]time.Time
}

func newMemoryDeduper(now func() time.Time) *memoryDeduper {
	return &memoryDeduper{now: now, keys: make(map[string]time.Time)}
}

func (d *memoryDeduper) Seen(_ context.Context, key string) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	exp, ok := d.keys[key]
	if !ok {
		return false, nil
	}
	if d.now().After(exp) {
		delete(d.keys, key)
		return false, nil
	}
	return true, nil
}

// Mark records key and drops every key that has already expired.
func (d *memoryDeduper) Mark(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	now := d.now()
	for k, exp := range d.keys {
		if now.After(exp) {
			delete(d.keys, k)
		}
	}
	d.keys[key] = now.Add(idempotencyTTL)
	return nil
}
