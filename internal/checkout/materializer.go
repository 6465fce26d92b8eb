// Package checkout implements the cart-to-order pipeline: materializing a
// session cart against the live catalog, the atomic checkout transaction,
// and the order lifecycle after creation.
package checkout

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"storefront/internal/models"
	"storefront/internal/store"
)

// CatalogReader is the read-only view of the catalog the pipeline consumes.
// *store.Store satisfies it.
type CatalogReader interface {
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
}

// Pricing holds the order-level price adjustments applied once per cart.
type Pricing struct {
	TaxRate  decimal.Decimal // fraction of the subtotal, e.g. 0.10
	Shipping decimal.Decimal
}

// NewPricing parses a tax percentage (e.g. "10") and a flat shipping fee
// (e.g. "0.00") into a Pricing.
func NewPricing(taxPercent, shippingFee string) (Pricing, error) {
	tax, err := decimal.NewFromString(taxPercent)
	if err != nil {
		return Pricing{}, fmt.Errorf("invalid tax rate %q: %w", taxPercent, err)
	}
	shipping, err := decimal.NewFromString(shippingFee)
	if err != nil {
		return Pricing{}, fmt.Errorf("invalid shipping fee %q: %w", shippingFee, err)
	}
	return Pricing{
		TaxRate:  tax.Div(decimal.NewFromInt(100)),
		Shipping: shipping,
	}, nil
}

// Tax computes the order-level tax for a subtotal, rounded to cents.
func (p Pricing) Tax(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Mul(p.TaxRate).Round(2)
}

// Total computes subtotal + tax + shipping.
func (p Pricing) Total(subtotal decimal.Decimal) decimal.Decimal {
	return subtotal.Add(p.Tax(subtotal)).Add(p.Shipping)
}

// CartView is a cart resolved against the catalog: priced line items plus
// the display totals. Prices are "as of now"; the checkout transaction
// re-reads them under lock before committing.
type CartView struct {
	Items    []models.LineItem `json:"items"`
	Subtotal decimal.Decimal   `json:"subtotal"`
	Tax      decimal.Decimal   `json:"tax"`
	Shipping decimal.Decimal   `json:"shipping"`
	Total    decimal.Decimal   `json:"total"`
}

// Materializer resolves cart snapshots into priced line items.
type Materializer struct {
	catalog CatalogReader
	pricing Pricing
}

// NewMaterializer creates a materializer over a catalog reader.
func NewMaterializer(catalog CatalogReader, pricing Pricing) *Materializer {
	return &Materializer{catalog: catalog, pricing: pricing}
}

// Materialize resolves entries against the catalog in cart order. Entries
// whose product no longer exists are dropped; quantities above current stock
// are flagged but left for the checkout transaction to enforce.
func (m *Materializer) Materialize(ctx context.Context, entries []models.CartEntry) (*CartView, error) {
	view := &CartView{
		Items:    make([]models.LineItem, 0, len(entries)),
		Subtotal: decimal.Zero,
		Tax:      decimal.Zero,
		Shipping: decimal.Zero,
		Total:    decimal.Zero,
	}

	for _, entry := range entries {
		product, err := m.catalog.GetProduct(ctx, entry.ProductID)
		if errors.Is(err, store.ErrProductNotFound) {
			continue
		}
		if err != nil {
			return nil, storageErr(err)
		}

		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(entry.Quantity)))
		view.Items = append(view.Items, models.LineItem{
			ProductID:      product.ID,
			Name:           product.Name,
			UnitPrice:      product.Price,
			Quantity:       entry.Quantity,
			LineTotal:      lineTotal,
			AvailableStock: product.Stock,
			ExceedsStock:   entry.Quantity > product.Stock,
		})
		view.Subtotal = view.Subtotal.Add(lineTotal)
	}

	// Nothing resolved means nothing to charge: no shipping fee on an
	// empty cart.
	if len(view.Items) == 0 {
		return view, nil
	}

	view.Shipping = m.pricing.Shipping
	view.Tax = m.pricing.Tax(view.Subtotal)
	view.Total = m.pricing.Total(view.Subtotal)
	return view, nil
}
