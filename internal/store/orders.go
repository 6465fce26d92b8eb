package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"storefront/internal/models"
)

// InsertOrder inserts the order header inside tx and fills in the
// store-assigned id and timestamps.
func (s *Store) InsertOrder(ctx context.Context, tx *sqlx.Tx, order *models.Order) error {
	query := `
		INSERT INTO orders (
			order_number, user_id,
			customer_name, customer_email, customer_phone,
			customer_address, customer_city, customer_country,
			payment_method, total, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at, updated_at`

	return tx.GetContext(ctx, order, query,
		order.OrderNumber, order.UserID,
		order.CustomerName, order.CustomerEmail, order.CustomerPhone,
		order.CustomerAddress, order.CustomerCity, order.CustomerCountry,
		order.PaymentMethod, order.Total, order.Status)
}

// InsertOrderItems inserts the price snapshot rows for an order inside tx.
func (s *Store) InsertOrderItems(ctx context.Context, tx *sqlx.Tx, items []models.OrderItem) error {
	query := `
		INSERT INTO order_items (order_id, product_id, quantity, unit_price)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	for i := range items {
		if err := tx.GetContext(ctx, &items[i].ID, query,
			items[i].OrderID, items[i].ProductID, items[i].Quantity, items[i].UnitPrice); err != nil {
			return fmt.Errorf("failed to insert order item for product %d: %w", items[i].ProductID, err)
		}
	}
	return nil
}

// GetOrderByID retrieves an order by ID
func (s *Store) GetOrderByID(ctx context.Context, id int64) (*models.Order, error) {
	var order models.Order
	err := s.db.GetContext(ctx, &order, "SELECT * FROM orders WHERE id = $1", id)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %d", ErrOrderNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// GetOrdersByUserID retrieves orders for a user
func (s *Store) GetOrdersByUserID(ctx context.Context, userID int64) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.SelectContext(ctx, &orders,
		"SELECT * FROM orders WHERE user_id = $1 ORDER BY created_at DESC", userID)
	return orders, err
}

// GetOrderItems retrieves all items for an order
func (s *Store) GetOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	var items []models.OrderItem
	err := s.db.SelectContext(ctx, &items,
		"SELECT * FROM order_items WHERE order_id = $1 ORDER BY id", orderID)
	return items, err
}

// UpdateOrderStatus moves an order from one status to another. The guard on
// the current status makes concurrent transitions race-safe: it reports
// false when the order was not in the expected state.
func (s *Store) UpdateOrderStatus(ctx context.Context, orderID int64, from, to models.OrderStatus) (bool, error) {
	res, err := s.db.ExecContext(ctx,
		"UPDATE orders SET status = $1, updated_at = NOW() WHERE id = $2 AND status = $3",
		to, orderID, from)
	if err != nil {
		return false, fmt.Errorf("failed to update order status: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected == 1, nil
}
