package models

import "strings"

// OrderStatus is the closed set of lifecycle states an order moves through.
type OrderStatus string

const (
	StatusPendingPayment OrderStatus = "PENDING_PAYMENT"
	StatusProcessing     OrderStatus = "PROCESSING"
	StatusShipped        OrderStatus = "SHIPPED"
	StatusDelivered      OrderStatus = "DELIVERED"
	StatusCancelled      OrderStatus = "CANCELLED"
)

// orderTransitions is the full transition table. Cancellation is only legal
// from the earliest pending state; Delivered and Cancelled are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPendingPayment: {StatusProcessing, StatusCancelled},
	StatusProcessing:     {StatusShipped},
	StatusShipped:        {StatusDelivered},
	StatusDelivered:      {},
	StatusCancelled:      {},
}

// Valid reports whether s is a known order status.
func (s OrderStatus) Valid() bool {
	_, ok := orderTransitions[s]
	return ok
}

// Terminal reports whether no further transition is possible from s.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0 && s.Valid()
}

// CanTransitionTo reports whether s -> next is a legal lifecycle move.
func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, t := range orderTransitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// InitialStatus picks the entry state for a new order. Deferred cash-style
// payment methods start pending payment; everything else goes straight to
// processing.
func InitialStatus(paymentMethod string) OrderStatus {
	switch strings.ToLower(paymentMethod) {
	case "cod", "cash", "cash_on_delivery":
		return StatusPendingPayment
	default:
		return StatusProcessing
	}
}
