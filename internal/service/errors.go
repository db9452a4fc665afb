package service

import (
	"errors"
	"fmt"
)

// ErrNotFound is wrapped by every "record does not exist" error so callers can
// match the whole family with errors.Is.
var ErrNotFound = errors.New("not found")

var (
	ErrProductNotFound = fmt.Errorf("product %w", ErrNotFound)
	ErrOrderNotFound   = fmt.Errorf("order %w", ErrNotFound)
	ErrLineNotFound    = fmt.Errorf("item %w in cart", ErrNotFound)

	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUserNotFound       = errors.New("user not found")

	ErrInvalidProduct  = errors.New("invalid product")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrVersionConflict = errors.New("cart was modified by another request")

	ErrEmptyCart         = errors.New("cannot create order with empty cart")
	ErrInvalidStatus     = errors.New("invalid order status")
	ErrInvalidTransition = errors.New("invalid order status transition")
	ErrOrderAccessDenied = errors.New("access denied")
)
