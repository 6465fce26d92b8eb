package checkout

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"storefront/internal/broker"
	"storefront/internal/cart"
	"storefront/internal/models"
	"storefront/internal/store"
	"storefront/internal/util"
)

// Service wires the cart store, the catalog/order store and the materializer
// into the storefront's checkout pipeline.
type Service struct {
	store   *store.Store
	carts   cart.Store
	events  *broker.EventPublisher // optional
	pricing Pricing
	logger  *zap.Logger
}

// NewService creates a checkout service.
func NewService(st *store.Store, carts cart.Store, events *broker.EventPublisher, pricing Pricing) *Service {
	return &Service{
		store:   st,
		carts:   carts,
		events:  events,
		pricing: pricing,
		logger:  util.GetLogger(),
	}
}

// MaterializeCart resolves the session's cart against the live catalog for
// display. Totals are "as of now" and are recomputed under lock at checkout.
func (s *Service) MaterializeCart(ctx context.Context, sessionID string) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "Checkout.MaterializeCart")
	defer span.End()

	entries, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, storageErr(err)
	}

	return NewMaterializer(s.store, s.pricing).Materialize(ctx, entries)
}

// AddToCart merges quantity for a product into the session cart. The product
// must exist; stock is not enforced here.
func (s *Service) AddToCart(ctx context.Context, sessionID string, productID int64, quantity int) error {
	util.CartOperationsTotal.WithLabelValues("add").Inc()

	if _, err := s.store.GetProduct(ctx, productID); err != nil {
		if errors.Is(err, store.ErrProductNotFound) {
			return err
		}
		return storageErr(err)
	}

	entries, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return storageErr(err)
	}
	return s.carts.Set(ctx, sessionID, cart.Merge(entries, productID, quantity))
}

// UpdateCartItem pins a product's quantity; zero or less removes the entry.
func (s *Service) UpdateCartItem(ctx context.Context, sessionID string, productID int64, quantity int) error {
	util.CartOperationsTotal.WithLabelValues("update").Inc()

	entries, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return storageErr(err)
	}
	return s.carts.Set(ctx, sessionID, cart.SetQuantity(entries, productID, quantity))
}

// RemoveFromCart drops a product from the session cart.
func (s *Service) RemoveFromCart(ctx context.Context, sessionID string, productID int64) error {
	util.CartOperationsTotal.WithLabelValues("remove").Inc()

	entries, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return storageErr(err)
	}
	return s.carts.Set(ctx, sessionID, cart.Remove(entries, productID))
}

// ClearCart empties the session cart.
func (s *Service) ClearCart(ctx context.Context, sessionID string) error {
	util.CartOperationsTotal.WithLabelValues("clear").Inc()
	return s.carts.Clear(ctx, sessionID)
}

// PlaceOrder converts the session cart into a persisted order. The whole
// operation runs in one database transaction: cart entries are re-resolved
// against locked product rows, totals are recomputed from those rows, the
// order header and item snapshots are inserted and stock is decremented.
// Any failure rolls everything back and leaves the cart untouched so the
// customer can correct and resubmit.
func (s *Service) PlaceOrder(ctx context.Context, sessionID string, userID int64, customer models.CustomerInfo, paymentMethod string) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "Checkout.PlaceOrder")
	defer span.End()

	start := time.Now()
	defer func() {
		util.CheckoutDuration.Observe(time.Since(start).Seconds())
	}()

	// An empty cart wins over bad customer fields: there is nothing to
	// order, so there is nothing to validate for.
	entries, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, storageErr(err)
	}
	if len(entries) == 0 {
		util.OrdersRejectedTotal.WithLabelValues("empty_cart").Inc()
		return nil, ErrEmptyCart
	}

	if err := validateCheckout(customer, paymentMethod); err != nil {
		util.OrdersRejectedTotal.WithLabelValues("validation").Inc()
		return nil, err
	}

	tx, err := s.store.Begin(ctx)
	if err != nil {
		return nil, storageErr(err)
	}
	defer tx.Rollback()

	order, items, err := s.placeOrderTx(ctx, tx, userID, customer, paymentMethod, entries)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		util.OrdersRejectedTotal.WithLabelValues("storage").Inc()
		return nil, storageErr(err)
	}

	// Clear the cart only after the commit. A failed clear is logged, not
	// surfaced: the order exists and the stale cart expires with the session.
	if err := s.carts.Clear(ctx, sessionID); err != nil {
		s.logger.Warn("Failed to clear cart after checkout",
			zap.String("session_id", sessionID),
			zap.Int64("order_id", order.ID),
			zap.Error(err))
	}

	util.OrdersPlacedTotal.Inc()
	s.logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Int64("user_id", userID),
		zap.String("total", order.Total.StringFixed(2)),
		zap.String("status", string(order.Status)))

	s.publishOrderPlaced(ctx, order, items)
	return order, nil
}

// placeOrderTx is the body of the checkout transaction.
func (s *Service) placeOrderTx(ctx context.Context, tx *sqlx.Tx, userID int64, customer models.CustomerInfo, paymentMethod string, entries []models.CartEntry) (*models.Order, []models.OrderItem, error) {
	// Lock product rows in ascending id order so concurrent checkouts that
	// share products cannot deadlock.
	locked, err := s.lockProducts(ctx, tx, entries)
	if err != nil {
		return nil, nil, err
	}

	subtotal := decimal.Zero
	items := make([]models.OrderItem, 0, len(entries))
	for _, entry := range entries {
		product, ok := locked[entry.ProductID]
		if !ok {
			// Product vanished since it was added to the cart.
			continue
		}
		if entry.Quantity > product.Stock {
			util.OrdersRejectedTotal.WithLabelValues("insufficient_stock").Inc()
			return nil, nil, &InsufficientStockError{
				ProductID: product.ID,
				Requested: entry.Quantity,
				Available: product.Stock,
			}
		}

		subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(int64(entry.Quantity))))
		items = append(items, models.OrderItem{
			ProductID: entry.ProductID,
			Quantity:  entry.Quantity,
			UnitPrice: product.Price,
		})
	}

	if len(items) == 0 {
		util.OrdersRejectedTotal.WithLabelValues("empty_cart").Inc()
		return nil, nil, ErrEmptyCart
	}

	order := &models.Order{
		OrderNumber:     newOrderNumber(),
		UserID:          userID,
		CustomerName:    customer.Name,
		CustomerEmail:   customer.Email,
		CustomerPhone:   customer.Phone,
		CustomerAddress: customer.Address,
		CustomerCity:    customer.City,
		CustomerCountry: customer.Country,
		PaymentMethod:   paymentMethod,
		Total:           s.pricing.Total(subtotal),
		Status:          models.InitialStatus(paymentMethod),
	}

	if err := s.store.InsertOrder(ctx, tx, order); err != nil {
		util.OrdersRejectedTotal.WithLabelValues("storage").Inc()
		return nil, nil, storageErr(err)
	}

	for i := range items {
		items[i].OrderID = order.ID
	}
	if err := s.store.InsertOrderItems(ctx, tx, items); err != nil {
		util.OrdersRejectedTotal.WithLabelValues("storage").Inc()
		return nil, nil, storageErr(err)
	}

	for _, item := range items {
		ok, err := s.store.DecrementStock(ctx, tx, item.ProductID, item.Quantity)
		if err != nil {
			util.OrdersRejectedTotal.WithLabelValues("storage").Inc()
			return nil, nil, storageErr(err)
		}
		if !ok {
			// Unreachable while the row lock is held, kept as a guard.
			return nil, nil, &InsufficientStockError{ProductID: item.ProductID, Requested: item.Quantity}
		}
	}

	return order, items, nil
}

// lockProducts loads the cart's products under row locks, ascending by id.
// Missing products are dropped, matching materialization.
func (s *Service) lockProducts(ctx context.Context, tx *sqlx.Tx, entries []models.CartEntry) (map[int64]*models.Product, error) {
	ids := make([]int64, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.ProductID)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	locked := make(map[int64]*models.Product, len(ids))
	for _, id := range ids {
		product, err := s.store.GetProductForUpdate(ctx, tx, id)
		if errors.Is(err, store.ErrProductNotFound) {
			continue
		}
		if err != nil {
			util.OrdersRejectedTotal.WithLabelValues("storage").Inc()
			return nil, storageErr(err)
		}
		locked[id] = product
	}
	return locked, nil
}

// GetOrder loads an order with its items, enforcing ownership.
func (s *Service) GetOrder(ctx context.Context, orderID, userID int64) (*models.Order, []models.OrderItem, error) {
	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, nil, err
	}
	if order.UserID != userID {
		return nil, nil, ErrForbidden
	}

	items, err := s.store.GetOrderItems(ctx, orderID)
	if err != nil {
		return nil, nil, storageErr(err)
	}
	return order, items, nil
}

// ListOrders returns a user's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	orders, err := s.store.GetOrdersByUserID(ctx, userID)
	if err != nil {
		return nil, storageErr(err)
	}
	return orders, nil
}

// CancelOrder cancels an order still in its initial pending state. Stock is
// not restocked on cancellation; see DESIGN.md.
func (s *Service) CancelOrder(ctx context.Context, orderID, userID int64) (*models.Order, error) {
	ctx, span := util.StartSpan(ctx, "Checkout.CancelOrder")
	defer span.End()

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrForbidden
	}
	if !order.Status.CanTransitionTo(models.StatusCancelled) {
		return nil, ErrInvalidTransition
	}

	ok, err := s.store.UpdateOrderStatus(ctx, orderID, order.Status, models.StatusCancelled)
	if err != nil {
		return nil, storageErr(err)
	}
	if !ok {
		// Lost the race against another transition.
		return nil, ErrInvalidTransition
	}

	order.Status = models.StatusCancelled
	util.OrdersCancelledTotal.Inc()
	s.logger.Info("Order cancelled",
		zap.Int64("order_id", orderID),
		zap.Int64("user_id", userID))

	s.publishOrderCancelled(ctx, order, "cancelled by customer")
	return order, nil
}

// AdvanceOrder moves an order forward along the lifecycle. This is the
// administrative operation behind Processing -> Shipped -> Delivered, served
// to fulfilment staff through the /admin route group; the transition table
// rejects everything else.
func (s *Service) AdvanceOrder(ctx context.Context, orderID int64, next models.OrderStatus) (*models.Order, error) {
	if !next.Valid() {
		return nil, ErrInvalidTransition
	}

	order, err := s.store.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanTransitionTo(next) {
		return nil, ErrInvalidTransition
	}

	ok, err := s.store.UpdateOrderStatus(ctx, orderID, order.Status, next)
	if err != nil {
		return nil, storageErr(err)
	}
	if !ok {
		return nil, ErrInvalidTransition
	}

	order.Status = next
	return order, nil
}

// ReorderFrom merges an existing order's items back into the session cart,
// additively with whatever is already there. Stock is re-checked at the next
// PlaceOrder, not here.
func (s *Service) ReorderFrom(ctx context.Context, sessionID string, orderID, userID int64) (*CartView, error) {
	ctx, span := util.StartSpan(ctx, "Checkout.ReorderFrom")
	defer span.End()

	_, items, err := s.GetOrder(ctx, orderID, userID)
	if err != nil {
		return nil, err
	}

	entries, err := s.carts.Get(ctx, sessionID)
	if err != nil {
		return nil, storageErr(err)
	}
	entries = mergeOrderItems(entries, items)
	if err := s.carts.Set(ctx, sessionID, entries); err != nil {
		return nil, storageErr(err)
	}

	return NewMaterializer(s.store, s.pricing).Materialize(ctx, entries)
}

// mergeOrderItems folds an order's item snapshot back into cart entries,
// summing quantities with anything already in the cart.
func mergeOrderItems(entries []models.CartEntry, items []models.OrderItem) []models.CartEntry {
	for _, item := range items {
		entries = cart.Merge(entries, item.ProductID, item.Quantity)
	}
	return entries
}

// validateCheckout checks the required customer and payment fields.
func validateCheckout(customer models.CustomerInfo, paymentMethod string) error {
	var missing []string
	for _, f := range []struct{ name, value string }{
		{"name", customer.Name},
		{"email", customer.Email},
		{"phone", customer.Phone},
		{"address", customer.Address},
		{"city", customer.City},
		{"country", customer.Country},
		{"payment_method", paymentMethod},
	} {
		if f.value == "" {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return &ValidationError{Fields: missing}
	}
	return nil
}

func newOrderNumber() string {
	return "ORD-" + uuid.New().String()[:8]
}

func (s *Service) publishOrderPlaced(ctx context.Context, order *models.Order, items []models.OrderItem) {
	if s.events == nil {
		return
	}

	data := make([]models.OrderItemData, 0, len(items))
	for _, item := range items {
		data = append(data, models.OrderItemData{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
			UnitPrice: item.UnitPrice,
		})
	}

	event := &models.OrderPlacedEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderPlaced,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Total:       order.Total,
		Status:      order.Status,
		Items:       data,
	}

	if err := s.events.PublishOrderPlaced(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderPlaced event", zap.Error(err))
	}
}

func (s *Service) publishOrderCancelled(ctx context.Context, order *models.Order, reason string) {
	if s.events == nil {
		return
	}

	event := &models.OrderCancelledEvent{
		BaseEvent: models.BaseEvent{
			EventID:   uuid.New().String(),
			EventType: models.EventTypeOrderCancelled,
			Timestamp: time.Now(),
		},
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID,
		Reason:      reason,
	}

	if err := s.events.PublishOrderCancelled(ctx, event); err != nil {
		s.logger.Error("Failed to publish OrderCancelled event", zap.Error(err))
	}
}
