package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/storefront/internal/model"
)

type OrderRepository interface {
	// Place stores the order and empties the owner's cart in one step. expectCart
	// is the cart version the order was built from, or AnyVersion.
	Place(ctx context.Context, order *model.Order, expectCart int64) error
	GetByID(ctx context.Context, id string) (*model.Order, error)
	ListByUserID(ctx context.Context, userID string) ([]model.Order, error)
	ListAll(ctx context.Context) ([]model.Order, error)
	// UpdateStatus moves an order from one status to another and fails with
	// ErrStaleStatus when the stored status is no longer from.
	UpdateStatus(ctx context.Context, id string, from, to model.OrderStatus) (*model.Order, error)
}

type memOrderRepo struct{ store *Store }

func NewOrderRepository(store *Store) OrderRepository {
	return &memOrderRepo{store: store}
}

func (r *memOrderRepo) Place(_ context.Context, order *model.Order, expectCart int64) error {
	id, err := uuid.NewV7()
	if err != nil {
		return fmt.Errorf("order id: %w", err)
	}

	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cart := r.store.cartFor(order.UserID)
	if !versionMatches(cart, expectCart) {
		return ErrVersionMismatch
	}

	now := time.Now().UTC()
	order.ID = id.String()
	order.CreatedAt, order.UpdatedAt = now, now

	r.store.orders = append(r.store.orders, snapshotOrder(order))

	cart.Lines = nil
	touch(cart)
	return nil
}

func (r *memOrderRepo) GetByID(_ context.Context, id string) (*model.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, o := range r.store.orders {
		if o.ID == id {
			return snapshotOrder(o), nil
		}
	}
	return nil, nil
}

func (r *memOrderRepo) ListByUserID(_ context.Context, userID string) ([]model.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	orders := []model.Order{}
	for _, o := range r.store.orders {
		if o.UserID == userID {
			orders = append(orders, *snapshotOrder(o))
		}
	}
	return orders, nil
}

func (r *memOrderRepo) ListAll(_ context.Context) ([]model.Order, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	orders := make([]model.Order, 0, len(r.store.orders))
	for _, o := range r.store.orders {
		orders = append(orders, *snapshotOrder(o))
	}
	return orders, nil
}

func (r *memOrderRepo) UpdateStatus(_ context.Context, id string, from, to model.OrderStatus) (*model.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	for _, o := range r.store.orders {
		if o.ID != id {
			continue
		}
		if o.Status != from {
			return nil, ErrStaleStatus
		}
		o.Status = to
		o.UpdatedAt = time.Now().UTC()
		return snapshotOrder(o), nil
	}
	return nil, ErrNoRows
}

func snapshotOrder(o *model.Order) *model.Order {
	cp := *o
	cp.Items = model.CloneLines(o.Items)
	return &cp
}
