package service

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/repository"
)

const lowStockThreshold = 10

type DashboardService struct {
	productRepo  repository.ProductRepository
	orderRepo    repository.OrderRepository
	activityRepo repository.ActivityRepository
}

func NewDashboardService(productRepo repository.ProductRepository, orderRepo repository.OrderRepository, activityRepo repository.ActivityRepository) *DashboardService {
	return &DashboardService{productRepo: productRepo, orderRepo: orderRepo, activityRepo: activityRepo}
}

func (s *DashboardService) Summary(ctx context.Context) (*model.DashboardSummary, error) {
	products, _, err := s.productRepo.List(ctx, repository.ProductQuery{})
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	orders, err := s.orderRepo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	summary := &model.DashboardSummary{
		ProductCount: len(products),
		OrderCount:   len(orders),
		Revenue:      decimal.Zero,
	}
	for _, p := range products {
		if p.Stock < lowStockThreshold {
			summary.LowStockCount++
		}
	}
	for _, o := range orders {
		if o.Status == model.OrderStatusPending {
			summary.PendingOrders++
		}
		summary.Revenue = summary.Revenue.Add(o.Total)
	}
	return summary, nil
}

// Activity returns the most recent order events recorded by the worker.
func (s *DashboardService) Activity(ctx context.Context, limit int) ([]model.Activity, error) {
	entries, err := s.activityRepo.List(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("list activity: %w", err)
	}
	return entries, nil
}
