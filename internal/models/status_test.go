package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCancelOnlyFromPendingPayment(t *testing.T) {
	assert.True(t, StatusPendingPayment.CanTransitionTo(StatusCancelled))

	for _, s := range []OrderStatus{StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled} {
		assert.False(t, s.CanTransitionTo(StatusCancelled), "cancel should be illegal from %s", s)
	}
}

func TestForwardProgression(t *testing.T) {
	assert.True(t, StatusPendingPayment.CanTransitionTo(StatusProcessing))
	assert.True(t, StatusProcessing.CanTransitionTo(StatusShipped))
	assert.True(t, StatusShipped.CanTransitionTo(StatusDelivered))

	// no skipping ahead
	assert.False(t, StatusPendingPayment.CanTransitionTo(StatusShipped))
	assert.False(t, StatusProcessing.CanTransitionTo(StatusDelivered))
}

func TestTerminalStates(t *testing.T) {
	assert.True(t, StatusDelivered.Terminal())
	assert.True(t, StatusCancelled.Terminal())
	assert.False(t, StatusProcessing.Terminal())

	assert.False(t, StatusDelivered.CanTransitionTo(StatusProcessing))
	assert.False(t, StatusCancelled.CanTransitionTo(StatusPendingPayment))
}

func TestValid(t *testing.T) {
	assert.True(t, StatusShipped.Valid())
	assert.False(t, OrderStatus("REFUNDED").Valid())
	assert.False(t, OrderStatus("REFUNDED").Terminal())
}

func TestInitialStatus(t *testing.T) {
	assert.Equal(t, StatusPendingPayment, InitialStatus("cod"))
	assert.Equal(t, StatusPendingPayment, InitialStatus("Cash"))
	assert.Equal(t, StatusPendingPayment, InitialStatus("cash_on_delivery"))
	assert.Equal(t, StatusProcessing, InitialStatus("card"))
	assert.Equal(t, StatusProcessing, InitialStatus("bank_transfer"))
}
