package repository

import (
	"context"
	"math"
	"time"

	"github.com/flicky/storefront/internal/model"
)

// CartRepository mutations take the cart version the caller last saw. Pass
// AnyVersion to skip the check; on mismatch ErrVersionMismatch is returned
// and nothing changes.
type CartRepository interface {
	GetOrCreateCart(ctx context.Context, userID string) (*model.Cart, error)
	AddItem(ctx context.Context, userID string, product model.Product, quantity int, expect int64) (*model.Cart, error)
	UpdateItem(ctx context.Context, userID, productID string, quantity int, expect int64) (*model.Cart, error)
	DeleteItem(ctx context.Context, userID, productID string, expect int64) (*model.Cart, error)
	ClearCart(ctx context.Context, userID string, expect int64) (*model.Cart, error)
}

type memCartRepo struct{ store *Store }

func NewCartRepository(store *Store) CartRepository {
	return &memCartRepo{store: store}
}

func (r *memCartRepo) GetOrCreateCart(_ context.Context, userID string) (*model.Cart, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return snapshotCart(r.store.cartFor(userID)), nil
}

func (r *memCartRepo) AddItem(_ context.Context, userID string, product model.Product, quantity int, expect int64) (*model.Cart, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cart := r.store.cartFor(userID)
	if !versionMatches(cart, expect) {
		return nil, ErrVersionMismatch
	}
	if i := lineIndex(cart, product.ID); i >= 0 {
		if quantity > math.MaxInt-cart.Lines[i].Quantity {
			return nil, ErrQuantityOverflow
		}
		cart.Lines[i].Quantity += quantity
	} else {
		cart.Lines = append(cart.Lines, model.CartLine{Product: product, Quantity: quantity})
	}
	touch(cart)
	return snapshotCart(cart), nil
}

// UpdateItem sets a line's quantity; a quantity of zero or less drops the line.
func (r *memCartRepo) UpdateItem(_ context.Context, userID, productID string, quantity int, expect int64) (*model.Cart, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cart := r.store.cartFor(userID)
	if !versionMatches(cart, expect) {
		return nil, ErrVersionMismatch
	}
	i := lineIndex(cart, productID)
	if i < 0 {
		return nil, ErrNoRows
	}
	if quantity <= 0 {
		cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
	} else {
		cart.Lines[i].Quantity = quantity
	}
	touch(cart)
	return snapshotCart(cart), nil
}

func (r *memCartRepo) DeleteItem(_ context.Context, userID, productID string, expect int64) (*model.Cart, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cart := r.store.cartFor(userID)
	if !versionMatches(cart, expect) {
		return nil, ErrVersionMismatch
	}
	if i := lineIndex(cart, productID); i >= 0 {
		cart.Lines = append(cart.Lines[:i], cart.Lines[i+1:]...)
		touch(cart)
	}
	return snapshotCart(cart), nil
}

func (r *memCartRepo) ClearCart(_ context.Context, userID string, expect int64) (*model.Cart, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	cart := r.store.cartFor(userID)
	if !versionMatches(cart, expect) {
		return nil, ErrVersionMismatch
	}
	cart.Lines = nil
	touch(cart)
	return snapshotCart(cart), nil
}

// cartFor expects the caller to hold the write lock.
func (s *Store) cartFor(userID string) *model.Cart {
	cart, ok := s.carts[userID]
	if !ok {
		cart = &model.Cart{UserID: userID, UpdatedAt: time.Now().UTC()}
		s.carts[userID] = cart
	}
	return cart
}

func versionMatches(cart *model.Cart, expect int64) bool {
	return expect == AnyVersion || cart.Version == expect
}

func lineIndex(cart *model.Cart, productID string) int {
	for i, l := range cart.Lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

func touch(cart *model.Cart) {
	cart.Version++
	cart.UpdatedAt = time.Now().UTC()
}

func snapshotCart(cart *model.Cart) *model.Cart {
	cp := *cart
	cp.Lines = model.CloneLines(cart.Lines)
	return &cp
}
