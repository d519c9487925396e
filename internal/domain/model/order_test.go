package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrderStatus_Valid(t *testing.T) {
	assert.True(t, OrderStatusPending.Valid())
	assert.True(t, OrderStatusCancelled.Valid())
	assert.False(t, OrderStatus("Unknown").Valid())
	assert.False(t, OrderStatus("").Valid())
}

func TestCanTransition(t *testing.T) {
	// 前進のみ
	assert.True(t, CanTransition(OrderStatusPending, OrderStatusProcessing))
	assert.True(t, CanTransition(OrderStatusProcessing, OrderStatusShipped))
	assert.True(t, CanTransition(OrderStatusShipped, OrderStatusDelivered))

	// 飛び越し・後退は不可
	assert.False(t, CanTransition(OrderStatusPending, OrderStatusShipped))
	assert.False(t, CanTransition(OrderStatusShipped, OrderStatusPending))
	assert.False(t, CanTransition(OrderStatusPending, OrderStatusPending))

	// キャンセルは終端以外から
	assert.True(t, CanTransition(OrderStatusPending, OrderStatusCancelled))
	assert.True(t, CanTransition(OrderStatusShipped, OrderStatusCancelled))
	assert.False(t, CanTransition(OrderStatusDelivered, OrderStatusCancelled))
	assert.False(t, CanTransition(OrderStatusCancelled, OrderStatusPending))
}
