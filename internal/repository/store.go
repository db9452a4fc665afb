package repository

import (
	"errors"
	"sync"

	"github.com/flicky/storefront/internal/model"
)

var (
	// ErrNoRows is returned by mutations that target a missing record.
	ErrNoRows = errors.New("no rows in result set")
	// ErrDuplicate is returned when a unique key is already taken.
	ErrDuplicate = errors.New("duplicate key")
	// ErrVersionMismatch is returned when a cart changed since the caller read it.
	ErrVersionMismatch = errors.New("version mismatch")
	// ErrStaleStatus is returned when an order's status changed under a compare-and-set.
	ErrStaleStatus = errors.New("stale status")
	// ErrQuantityOverflow is returned when a merged line quantity would not fit in an int.
	ErrQuantityOverflow = errors.New("quantity overflow")
)

// AnyVersion disables the cart version precondition.
const AnyVersion int64 = -1

// Store is the in-memory table set shared by all repositories. Build one per
// process (or per test) and hand it to the New*Repository constructors.
type Store struct {
	mu sync.RWMutex

	products     []*model.Product
	users        map[string]*model.User
	usersByEmail map[string]string
	carts        map[string]*model.Cart
	orders       []*model.Order
	activity     []model.Activity
}

func NewStore() *Store {
	return &Store{
		users:        make(map[string]*model.User),
		usersByEmail: make(map[string]string),
		carts:        make(map[string]*model.Cart),
	}
}
