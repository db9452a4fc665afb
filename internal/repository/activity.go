package repository

import (
	"context"

	"github.com/flicky/storefront/internal/model"
)

type ActivityRepository interface {
	Append(ctx context.Context, entry model.Activity) error
	// List returns up to limit entries, newest first. limit <= 0 returns all.
	List(ctx context.Context, limit int) ([]model.Activity, error)
}

type memActivityRepo struct{ store *Store }

func NewActivityRepository(store *Store) ActivityRepository {
	return &memActivityRepo{store: store}
}

func (r *memActivityRepo) Append(_ context.Context, entry model.Activity) error {
	r.store.mu.Lock()
	r.store.activity = append(r.store.activity, entry)
	r.store.mu.Unlock()
	return nil
}

func (r *memActivityRepo) List(_ context.Context, limit int) ([]model.Activity, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	n := len(r.store.activity)
	if limit <= 0 || limit > n {
		limit = n
	}
	out := make([]model.Activity, 0, limit)
	for i := n - 1; i >= n-limit; i-- {
		out = append(out, r.store.activity[i])
	}
	return out, nil
}
