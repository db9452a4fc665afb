package client

import (
	"context"
	"fmt"
	"time"

	"github.com/flicky/storefront/internal/dto"
	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/service"
)

// API is the backend as seen from a browser session: every call after login
// carries the session token.
type API interface {
	Login(ctx context.Context, email, password string) (*model.Session, error)
	Register(ctx context.Context, email, password, name string) (*model.Session, error)
	CurrentUser(ctx context.Context, token string) (*model.User, error)

	GetCart(ctx context.Context, token string) (*model.Cart, error)
	AddToCart(ctx context.Context, token, productID string, quantity int) (*model.Cart, error)
	UpdateCartItem(ctx context.Context, token, productID string, quantity int) (*model.Cart, error)
	RemoveFromCart(ctx context.Context, token, productID string) (*model.Cart, error)
	ClearCart(ctx context.Context, token string) (*model.Cart, error)

	CreateOrder(ctx context.Context, token string, lines []model.CartLine, addr model.Address) (*model.Order, error)
}

// ServiceAPI serves API straight from the in-process services, waiting
// latency before every call.
type ServiceAPI struct {
	auth    *service.AuthService
	carts   *service.CartService
	orders  *service.OrderService
	latency time.Duration
}

func NewServiceAPI(auth *service.AuthService, carts *service.CartService, orders *service.OrderService, latency time.Duration) *ServiceAPI {
	return &ServiceAPI{auth: auth, carts: carts, orders: orders, latency: latency}
}

func (a *ServiceAPI) wait(ctx context.Context) error {
	if a.latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(a.latency)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (a *ServiceAPI) user(ctx context.Context, token string) (*model.User, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	return a.auth.Resolve(ctx, token)
}

// public drops the password hash before a user leaves the backend.
func public(u model.User) *model.User {
	u.Password = ""
	return &u
}

func publicSession(s *model.Session, err error) (*model.Session, error) {
	if err != nil {
		return nil, err
	}
	return &model.Session{Token: s.Token, User: *public(s.User)}, nil
}

func (a *ServiceAPI) Login(ctx context.Context, email, password string) (*model.Session, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	return publicSession(a.auth.Login(ctx, dto.LoginRequest{Email: email, Password: password}))
}

func (a *ServiceAPI) Register(ctx context.Context, email, password, name string) (*model.Session, error) {
	if err := a.wait(ctx); err != nil {
		return nil, err
	}
	return publicSession(a.auth.Register(ctx, dto.RegisterRequest{Email: email, Password: password, Name: name}))
}

func (a *ServiceAPI) CurrentUser(ctx context.Context, token string) (*model.User, error) {
	u, err := a.user(ctx, token)
	if err != nil {
		return nil, err
	}
	return public(*u), nil
}

func (a *ServiceAPI) GetCart(ctx context.Context, token string) (*model.Cart, error) {
	u, err := a.user(ctx, token)
	if err != nil {
		return nil, err
	}
	return a.carts.GetCart(ctx, u.ID)
}

func (a *ServiceAPI) AddToCart(ctx context.Context, token, productID string, quantity int) (*model.Cart, error) {
	u, err := a.user(ctx, token)
	if err != nil {
		return nil, err
	}
	return a.carts.AddItem(ctx, u.ID, productID, quantity)
}

func (a *ServiceAPI) UpdateCartItem(ctx context.Context, token, productID string, quantity int) (*model.Cart, error) {
	u, err := a.user(ctx, token)
	if err != nil {
		return nil, err
	}
	return a.carts.SetQuantity(ctx, u.ID, productID, quantity)
}

func (a *ServiceAPI) RemoveFromCart(ctx context.Context, token, productID string) (*model.Cart, error) {
	u, err := a.user(ctx, token)
	if err != nil {
		return nil, err
	}
	return a.carts.RemoveItem(ctx, u.ID, productID)
}

func (a *ServiceAPI) ClearCart(ctx context.Context, token string) (*model.Cart, error) {
	u, err := a.user(ctx, token)
	if err != nil {
		return nil, err
	}
	return a.carts.Clear(ctx, u.ID)
}

func (a *ServiceAPI) CreateOrder(ctx context.Context, token string, lines []model.CartLine, addr model.Address) (*model.Order, error) {
	u, err := a.user(ctx, token)
	if err != nil {
		return nil, err
	}
	order, err := a.orders.CreateOrder(ctx, u.ID, lines, addr)
	if err != nil {
		return nil, fmt.Errorf("create order: %w", err)
	}
	return order, nil
}
