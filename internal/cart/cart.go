// Package cart holds the session-scoped shopping cart: an insertion-ordered
// list of product/quantity pairs that lives only as long as the session.
package cart

import (
	"context"

	"storefront/internal/models"
)

// Store is the session cart persistence backing. A cart belongs to exactly
// one session and is never contended across requests, so implementations
// only need per-session consistency.
type Store interface {
	// Get returns the cart for a session. A session without a cart yields
	// an empty slice, not an error.
	Get(ctx context.Context, sessionID string) ([]models.CartEntry, error)
	// Set replaces the cart for a session.
	Set(ctx context.Context, sessionID string, entries []models.CartEntry) error
	// Clear removes the cart for a session.
	Clear(ctx context.Context, sessionID string) error
}

// Merge adds quantity for a product, summing with any existing entry and
// preserving insertion order. A resulting quantity <= 0 removes the entry.
func Merge(entries []models.CartEntry, productID int64, quantity int) []models.CartEntry {
	for _, e := range entries {
		if e.ProductID == productID {
			return SetQuantity(entries, productID, e.Quantity+quantity)
		}
	}
	if quantity <= 0 {
		return entries
	}
	return append(entries, models.CartEntry{ProductID: productID, Quantity: quantity})
}

// SetQuantity pins a product's quantity. Zero or negative removes the entry
// rather than persisting it.
func SetQuantity(entries []models.CartEntry, productID int64, quantity int) []models.CartEntry {
	if quantity <= 0 {
		return Remove(entries, productID)
	}
	for i, e := range entries {
		if e.ProductID == productID {
			entries[i].Quantity = quantity
			return entries
		}
	}
	return append(entries, models.CartEntry{ProductID: productID, Quantity: quantity})
}

// Remove drops a product from the cart, keeping the order of the rest.
func Remove(entries []models.CartEntry, productID int64) []models.CartEntry {
	out := entries[:0]
	for _, e := range entries {
		if e.ProductID != productID {
			out = append(out, e)
		}
	}
	return out
}
