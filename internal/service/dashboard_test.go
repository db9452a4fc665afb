package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flicky/storefront/internal/model"
	"github.com/flicky/storefront/internal/repository"
)

func TestDashboardService_Summary(t *testing.T) {
	f := newFixture(t)
	carts := NewCartService(f.carts, f.products)
	orders := NewOrderService(f.orders, f.carts, nil, discardLogger())
	dash := NewDashboardService(f.products, f.orders, repository.NewActivityRepository(f.store))
	ctx := context.Background()

	_, err := carts.AddItem(ctx, "u1", "1", 2)
	require.NoError(t, err)
	first, err := orders.Checkout(ctx, "u1", testAddress)
	require.NoError(t, err)
	_, err = carts.AddItem(ctx, "u2", "2", 1)
	require.NoError(t, err)
	_, err = orders.Checkout(ctx, "u2", testAddress)
	require.NoError(t, err)
	_, err = orders.UpdateStatus(ctx, first.ID, model.OrderStatusProcessing)
	require.NoError(t, err)

	summary, err := dash.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, summary.ProductCount)
	assert.Equal(t, 1, summary.LowStockCount)
	assert.Equal(t, 2, summary.OrderCount)
	assert.Equal(t, 1, summary.PendingOrders)
	assert.Equal(t, "229.99", summary.Revenue.StringFixed(2))
}

func TestDashboardService_Activity(t *testing.T) {
	store := repository.NewStore()
	activity := repository.NewActivityRepository(store)
	dash := NewDashboardService(repository.NewProductRepository(store), repository.NewOrderRepository(store), activity)
	ctx := context.Background()

	require.NoError(t, activity.Append(ctx, model.Activity{Kind: model.OrderEventCreated, OrderID: "a", RecordedAt: time.Now()}))
	require.NoError(t, activity.Append(ctx, model.Activity{Kind: model.OrderEventStatusChanged, OrderID: "a", RecordedAt: time.Now()}))

	entries, err := dash.Activity(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, model.OrderEventStatusChanged, entries[0].Kind)
}
