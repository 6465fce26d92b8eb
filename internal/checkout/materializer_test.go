package checkout

import (
	"context"
	"fmt"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/models"
	"storefront/internal/store"
)

// fakeCatalog is a map-backed CatalogReader for tests.
type fakeCatalog map[int64]*models.Product

func (f fakeCatalog) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	product, ok := f[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", store.ErrProductNotFound, id)
	}
	return product, nil
}

func testPricing(t *testing.T) Pricing {
	t.Helper()
	pricing, err := NewPricing("10", "0.00")
	require.NoError(t, err)
	return pricing
}

func TestMaterializeTotals(t *testing.T) {
	catalog := fakeCatalog{
		1: {ID: 1, Name: "Mug", Price: decimal.RequireFromString("10.00"), Stock: 5},
		2: {ID: 2, Name: "Kettle", Price: decimal.RequireFromString("25.00"), Stock: 3},
	}
	m := NewMaterializer(catalog, testPricing(t))

	view, err := m.Materialize(context.Background(), []models.CartEntry{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	})
	require.NoError(t, err)

	require.Len(t, view.Items, 2)
	assert.Equal(t, "45.00", view.Subtotal.StringFixed(2))
	assert.Equal(t, "4.50", view.Tax.StringFixed(2))
	assert.Equal(t, "0.00", view.Shipping.StringFixed(2))
	assert.Equal(t, "49.50", view.Total.StringFixed(2))

	assert.Equal(t, "20.00", view.Items[0].LineTotal.StringFixed(2))
	assert.Equal(t, "25.00", view.Items[1].LineTotal.StringFixed(2))
}

func TestMaterializeEmptyCart(t *testing.T) {
	m := NewMaterializer(fakeCatalog{}, testPricing(t))

	view, err := m.Materialize(context.Background(), nil)
	require.NoError(t, err)

	assert.Empty(t, view.Items)
	assert.True(t, view.Subtotal.IsZero())
	assert.True(t, view.Tax.IsZero())
	assert.True(t, view.Shipping.IsZero())
	assert.True(t, view.Total.IsZero())
}

func TestMaterializeEmptyCartSkipsShippingFee(t *testing.T) {
	pricing, err := NewPricing("10", "4.99")
	require.NoError(t, err)

	// an empty cart and a cart whose only product vanished both charge
	// nothing, shipping fee included
	m := NewMaterializer(fakeCatalog{}, pricing)

	for _, entries := range [][]models.CartEntry{
		nil,
		{{ProductID: 404, Quantity: 1}},
	} {
		view, err := m.Materialize(context.Background(), entries)
		require.NoError(t, err)
		assert.Empty(t, view.Items)
		assert.True(t, view.Shipping.IsZero())
		assert.True(t, view.Total.IsZero())
	}
}

func TestMaterializeDropsMissingProducts(t *testing.T) {
	catalog := fakeCatalog{
		1: {ID: 1, Name: "Mug", Price: decimal.RequireFromString("10.00"), Stock: 5},
	}
	m := NewMaterializer(catalog, testPricing(t))

	view, err := m.Materialize(context.Background(), []models.CartEntry{
		{ProductID: 99, Quantity: 1},
		{ProductID: 1, Quantity: 1},
	})
	require.NoError(t, err)

	require.Len(t, view.Items, 1)
	assert.Equal(t, int64(1), view.Items[0].ProductID)
	assert.Equal(t, "11.00", view.Total.StringFixed(2))
}

func TestMaterializePreservesCartOrder(t *testing.T) {
	catalog := fakeCatalog{
		1: {ID: 1, Price: decimal.New(1, 0), Stock: 1},
		2: {ID: 2, Price: decimal.New(1, 0), Stock: 1},
		3: {ID: 3, Price: decimal.New(1, 0), Stock: 1},
	}
	m := NewMaterializer(catalog, testPricing(t))

	view, err := m.Materialize(context.Background(), []models.CartEntry{
		{ProductID: 3, Quantity: 1},
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 1},
	})
	require.NoError(t, err)

	ids := make([]int64, 0, len(view.Items))
	for _, item := range view.Items {
		ids = append(ids, item.ProductID)
	}
	assert.Equal(t, []int64{3, 1, 2}, ids)
}

func TestMaterializeFlagsInsufficientStock(t *testing.T) {
	catalog := fakeCatalog{
		1: {ID: 1, Price: decimal.RequireFromString("10.00"), Stock: 1},
	}
	m := NewMaterializer(catalog, testPricing(t))

	view, err := m.Materialize(context.Background(), []models.CartEntry{
		{ProductID: 1, Quantity: 3},
	})
	require.NoError(t, err)

	// flagged, not corrected: the quantity and totals stand
	require.Len(t, view.Items, 1)
	assert.True(t, view.Items[0].ExceedsStock)
	assert.Equal(t, 3, view.Items[0].Quantity)
	assert.Equal(t, "30.00", view.Subtotal.StringFixed(2))
}

func TestPricingShipping(t *testing.T) {
	pricing, err := NewPricing("10", "4.99")
	require.NoError(t, err)

	total := pricing.Total(decimal.RequireFromString("45.00"))
	assert.Equal(t, "54.49", total.StringFixed(2))
}

func TestNewPricingRejectsGarbage(t *testing.T) {
	_, err := NewPricing("ten", "0")
	assert.Error(t, err)

	_, err = NewPricing("10", "free")
	assert.Error(t, err)
}
