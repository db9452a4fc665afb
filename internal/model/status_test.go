package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_CanTransition(t *testing.T) {
	tests := []struct {
		from, to OrderStatus
		want     bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusShipped, OrderStatusProcessing, false},
		{OrderStatusDelivered, OrderStatusPending, false},
		{OrderStatusPending, "cancelled", false},
	}
	for _, tt := range tests {
		t.Run(string(tt.from)+"->"+string(tt.to), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.from.CanTransition(tt.to))
		})
	}
}

func TestTotal(t *testing.T) {
	lines := []CartLine{
		{Product: Product{ID: "1", Price: decimal.NewFromFloat(299.99)}, Quantity: 2},
		{Product: Product{ID: "3", Price: decimal.NewFromFloat(29.99)}, Quantity: 1},
	}
	assert.Equal(t, "629.97", Total(lines).StringFixed(2))
	assert.True(t, Total(nil).IsZero())
}

func TestCloneLines_Independent(t *testing.T) {
	lines := []CartLine{{Product: Product{ID: "1", Name: "A"}, Quantity: 1}}
	clone := CloneLines(lines)
	lines[0].Quantity = 9
	lines[0].Product.Name = "B"
	assert.Equal(t, 1, clone[0].Quantity)
	assert.Equal(t, "A", clone[0].Product.Name)
	assert.NotNil(t, CloneLines(nil))
}
