package models

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_Transitions(t *testing.T) {
	cases := []struct {
		from    OrderStatus
		to      OrderStatus
		allowed bool
	}{
		{OrderStatusPending, OrderStatusProcessing, true},
		{OrderStatusPending, OrderStatusCancelled, true},
		{OrderStatusPending, OrderStatusShipped, false},
		{OrderStatusPending, OrderStatusDelivered, false},
		{OrderStatusProcessing, OrderStatusShipped, true},
		{OrderStatusProcessing, OrderStatusCancelled, true},
		{OrderStatusProcessing, OrderStatusDelivered, false},
		{OrderStatusShipped, OrderStatusDelivered, true},
		{OrderStatusShipped, OrderStatusCancelled, false},
		{OrderStatusDelivered, OrderStatusCancelled, false},
		{OrderStatusCancelled, OrderStatusPending, false},
		{OrderStatusCancelled, OrderStatusProcessing, false},
	}

	for _, tc := range cases {
		got := tc.from.CanTransitionTo(tc.to)
		assert.Equalf(t, tc.allowed, got, "%s -> %s", tc.from, tc.to)
	}
}

func TestOrderStatus_Terminal(t *testing.T) {
	assert.True(t, OrderStatusDelivered.IsTerminal())
	assert.True(t, OrderStatusCancelled.IsTerminal())
	assert.False(t, OrderStatusPending.IsTerminal())
	assert.False(t, OrderStatusProcessing.IsTerminal())
	assert.False(t, OrderStatusShipped.IsTerminal())
}

func TestOrderStatus_IsValid(t *testing.T) {
	assert.True(t, OrderStatusPending.IsValid())
	assert.False(t, OrderStatus("REFUNDED").IsValid())
	assert.False(t, OrderStatus("pending").IsValid())
}

func TestPaymentStatus_IsValid(t *testing.T) {
	assert.True(t, PaymentStatusPaid.IsValid())
	assert.True(t, PaymentStatusFailed.IsValid())
	assert.False(t, PaymentStatus("REFUNDED").IsValid())
}

func TestCart_DerivedTotals(t *testing.T) {
	cart := Cart{
		Items: []CartItem{
			{ProductID: "42", Quantity: 2, UnitPrice: decimal.RequireFromString("9.99")},
			{ProductID: "7", Quantity: 1, UnitPrice: decimal.RequireFromString("19.99")},
		},
	}

	assert.Equal(t, 3, cart.TotalItems())
	assert.True(t, cart.TotalAmount().Equal(decimal.RequireFromString("39.97")),
		"got %s", cart.TotalAmount())
}

func TestCartItem_TotalPrice(t *testing.T) {
	item := CartItem{Quantity: 3, UnitPrice: decimal.RequireFromString("0.10")}
	assert.True(t, item.TotalPrice().Equal(decimal.RequireFromString("0.30")),
		"got %s", item.TotalPrice())
}
