package checkout

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyCart rejects a checkout with nothing to order.
	ErrEmptyCart = errors.New("cart is empty")
	// ErrInvalidTransition rejects an illegal order lifecycle change.
	ErrInvalidTransition = errors.New("invalid order status transition")
	// ErrForbidden rejects access to an order owned by another user.
	ErrForbidden = errors.New("order belongs to another user")
	// ErrStorage wraps database failures. The transaction has been rolled
	// back and the cart is untouched, so the call is safe to retry.
	ErrStorage = errors.New("storage failure")
)

// ValidationError reports missing or malformed checkout fields.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: missing %s", strings.Join(e.Fields, ", "))
}

// InsufficientStockError aborts a checkout when a requested quantity exceeds
// the stock available at commit time.
type InsufficientStockError struct {
	ProductID int64
	Requested int
	Available int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %d: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

func storageErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStorage, err)
}
