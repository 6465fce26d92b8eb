package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Product represents a product in the catalog. The storefront core only
// reads price/stock/name and decrements stock at checkout; everything else
// belongs to the catalog subsystem.
type Product struct {
	ID        int64           `db:"id" json:"id"`
	SKU       string          `db:"sku" json:"sku"`
	Name      string          `db:"name" json:"name"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Stock     int             `db:"stock" json:"stock"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// CartEntry is a single position in a session cart: a product reference and
// the desired quantity. Entries are kept in insertion order.
type CartEntry struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

// LineItem is a cart entry resolved against the live catalog. It is computed
// fresh on every materialization and never persisted; the persisted snapshot
// form is OrderItem.
type LineItem struct {
	ProductID      int64           `json:"product_id"`
	Name           string          `json:"name"`
	UnitPrice      decimal.Decimal `json:"unit_price"`
	Quantity       int             `json:"quantity"`
	LineTotal      decimal.Decimal `json:"line_total"`
	AvailableStock int             `json:"available_stock"`
	// ExceedsStock is a display hint only. Enforcement happens inside the
	// checkout transaction, not here.
	ExceedsStock bool `json:"exceeds_stock"`
}

// CustomerInfo carries the contact and shipping fields captured at checkout.
type CustomerInfo struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
}

// Order represents a placed order. Immutable after creation except for
// Status, which only moves along the transitions defined in status.go.
type Order struct {
	ID              int64           `db:"id" json:"id"`
	OrderNumber     string          `db:"order_number" json:"order_number"`
	UserID          int64           `db:"user_id" json:"user_id"`
	CustomerName    string          `db:"customer_name" json:"customer_name"`
	CustomerEmail   string          `db:"customer_email" json:"customer_email"`
	CustomerPhone   string          `db:"customer_phone" json:"customer_phone"`
	CustomerAddress string          `db:"customer_address" json:"customer_address"`
	CustomerCity    string          `db:"customer_city" json:"customer_city"`
	CustomerCountry string          `db:"customer_country" json:"customer_country"`
	PaymentMethod   string          `db:"payment_method" json:"payment_method"`
	Total           decimal.Decimal `db:"total" json:"total"`
	Status          OrderStatus     `db:"status" json:"status"`
	CreatedAt       time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time       `db:"updated_at" json:"updated_at"`
}

// OrderItem is the persisted price/quantity snapshot for one order line.
// UnitPrice is the price at purchase time and is deliberately decoupled from
// later catalog price changes.
type OrderItem struct {
	ID        int64           `db:"id" json:"id"`
	OrderID   int64           `db:"order_id" json:"order_id"`
	ProductID int64           `db:"product_id" json:"product_id"`
	Quantity  int             `db:"quantity" json:"quantity"`
	UnitPrice decimal.Decimal `db:"unit_price" json:"unit_price"`
}
