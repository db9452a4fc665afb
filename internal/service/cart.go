package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/repository"
)

type cartVersionKey struct{}

// WithCartVersion makes the next cart mutation on ctx fail with
// ErrVersionConflict unless the cart is still at version v.
func WithCartVersion(ctx context.Context, v int64) context.Context {
	return context.WithValue(ctx, cartVersionKey{}, v)
}

func cartVersion(ctx context.Context) int64 {
	if v, ok := ctx.Value(cartVersionKey{}).(int64); ok {
		return v
	}
	return repository.AnyVersion
}

// CartService owns the server-side carts. Every mutation returns the full cart.
type CartService struct {
	cartRepo    repository.CartRepository
	productRepo repository.ProductRepository
}

func NewCartService(cartRepo repository.CartRepository, productRepo repository.ProductRepository) *CartService {
	return &CartService{cartRepo: cartRepo, productRepo: productRepo}
}

func (s *CartService) GetCart(ctx context.Context, userID string) (*model.Cart, error) {
	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get or create cart: %w", err)
	}
	return cart, nil
}

// AddItem adds quantity of the product, merging into an existing line.
func (s *CartService) AddItem(ctx context.Context, userID, productID string, quantity int) (*model.Cart, error) {
	if quantity < 1 {
		return nil, ErrInvalidQuantity
	}
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, fmt.Errorf("get product: %w", err)
	}
	if product == nil {
		return nil, ErrProductNotFound
	}

	cart, err := s.cartRepo.AddItem(ctx, userID, *product, quantity, cartVersion(ctx))
	if err != nil {
		return nil, mapCartErr("add cart item", err)
	}
	return cart, nil
}

// SetQuantity sets a line's quantity. Zero or less removes the line.
func (s *CartService) SetQuantity(ctx context.Context, userID, productID string, quantity int) (*model.Cart, error) {
	cart, err := s.cartRepo.UpdateItem(ctx, userID, productID, quantity, cartVersion(ctx))
	if err != nil {
		return nil, mapCartErr("update cart item", err)
	}
	return cart, nil
}

// RemoveItem drops the product's line; a missing line is not an error.
func (s *CartService) RemoveItem(ctx context.Context, userID, productID string) (*model.Cart, error) {
	cart, err := s.cartRepo.DeleteItem(ctx, userID, productID, cartVersion(ctx))
	if err != nil {
		return nil, mapCartErr("delete cart item", err)
	}
	return cart, nil
}

func (s *CartService) Clear(ctx context.Context, userID string) (*model.Cart, error) {
	cart, err := s.cartRepo.ClearCart(ctx, userID, cartVersion(ctx))
	if err != nil {
		return nil, mapCartErr("clear cart", err)
	}
	return cart, nil
}

func mapCartErr(op string, err error) error {
	switch {
	case errors.Is(err, repository.ErrVersionMismatch):
		return ErrVersionConflict
	case errors.Is(err, repository.ErrNoRows):
		return ErrLineNotFound
	case errors.Is(err, repository.ErrQuantityOverflow):
		return ErrInvalidQuantity
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}
