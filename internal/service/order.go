package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/repository"
)

// EventPublisher delivers order lifecycle events to whoever is listening.
type EventPublisher interface {
	Publish(ctx context.Context, msg model.OrderMessage) error
}

type OrderService struct {
	orderRepo repository.OrderRepository
	cartRepo  repository.CartRepository
	publisher EventPublisher
	logger    *slog.Logger
}

// NewOrderService wires the order engine. publisher may be nil, in which case
// no events are emitted.
func NewOrderService(orderRepo repository.OrderRepository, cartRepo repository.CartRepository, publisher EventPublisher, logger *slog.Logger) *OrderService {
	if logger == nil {
		logger = slog.Default()
	}
	return &OrderService{orderRepo: orderRepo, cartRepo: cartRepo, publisher: publisher, logger: logger}
}

// CreateOrder turns lines into a pending order and empties the user's cart.
func (s *OrderService) CreateOrder(ctx context.Context, userID string, lines []model.CartLine, addr model.Address) (*model.Order, error) {
	return s.place(ctx, userID, lines, addr, repository.AnyVersion)
}

// Checkout places an order from the user's current server cart.
func (s *OrderService) Checkout(ctx context.Context, userID string, addr model.Address) (*model.Order, error) {
	cart, err := s.cartRepo.GetOrCreateCart(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get cart: %w", err)
	}
	if want := cartVersion(ctx); want != repository.AnyVersion && want != cart.Version {
		return nil, ErrVersionConflict
	}
	return s.place(ctx, userID, cart.Lines, addr, cart.Version)
}

func (s *OrderService) place(ctx context.Context, userID string, lines []model.CartLine, addr model.Address, expectCart int64) (*model.Order, error) {
	if len(lines) == 0 {
		return nil, ErrEmptyCart
	}
	for _, l := range lines {
		if l.Quantity < 1 {
			return nil, ErrInvalidQuantity
		}
	}

	items := model.CloneLines(lines)
	order := &model.Order{
		UserID:          userID,
		Items:           items,
		Total:           model.Total(items),
		Status:          model.OrderStatusPending,
		ShippingAddress: addr,
	}
	if err := s.orderRepo.Place(ctx, order, expectCart); err != nil {
		if errors.Is(err, repository.ErrVersionMismatch) {
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("create order: %w", err)
	}

	s.logger.Info("order created", "order_id", order.ID, "user_id", userID, "total", order.Total.StringFixed(2))
	s.publish(ctx, model.OrderEventCreated, order)
	return order, nil
}

func (s *OrderService) GetByID(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, fmt.Errorf("get order: %w", err)
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetForUser returns the order only to its owner or an admin.
func (s *OrderService) GetForUser(ctx context.Context, orderID string, user *model.User) (*model.Order, error) {
	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != user.ID && !user.IsAdmin() {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

func (s *OrderService) ListByUserID(ctx context.Context, userID string) ([]model.Order, error) {
	orders, err := s.orderRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

func (s *OrderService) ListAll(ctx context.Context) ([]model.Order, error) {
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	return orders, nil
}

// UpdateStatus advances an order one step along
// pending → processing → shipped → delivered. Repeating the current status is a no-op.
func (s *OrderService) UpdateStatus(ctx context.Context, orderID string, status model.OrderStatus) (*model.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	// Statuses only move forward, so a stale read can repeat at most a few times.
	for {
		order, err := s.GetByID(ctx, orderID)
		if err != nil {
			return nil, err
		}
		if order.Status == status {
			return order, nil
		}
		if !order.Status.CanTransition(status) {
			return nil, ErrInvalidTransition
		}

		updated, err := s.orderRepo.UpdateStatus(ctx, orderID, order.Status, status)
		switch {
		case errors.Is(err, repository.ErrStaleStatus):
			continue
		case errors.Is(err, repository.ErrNoRows):
			return nil, ErrOrderNotFound
		case err != nil:
			return nil, fmt.Errorf("update order status: %w", err)
		}

		s.logger.Info("order status changed", "order_id", orderID, "from", order.Status, "status", status)
		s.publish(ctx, model.OrderEventStatusChanged, updated)
		return updated, nil
	}
}

func (s *OrderService) publish(ctx context.Context, kind model.OrderEventKind, order *model.Order) {
	if s.publisher == nil {
		return
	}
	msg := model.OrderMessage{
		ID:         uuid.NewString(),
		Kind:       kind,
		OrderID:    order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		Total:      order.Total.StringFixed(2),
		OccurredAt: time.Now().UTC(),
	}
	if err := s.publisher.Publish(ctx, msg); err != nil {
		s.logger.Warn("publish order event", "error", err, "order_id", order.ID, "kind", kind)
	}
}
