package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storefront/internal/cart"
	"storefront/internal/checkout"
	"storefront/internal/models"
)

func newTestRouter(t *testing.T) (*gin.Engine, *cart.MemoryStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pricing, err := checkout.NewPricing("10", "0.00")
	require.NoError(t, err)

	carts := cart.NewMemoryStore()
	svc := checkout.NewService(nil, carts, nil, pricing)

	router := gin.New()
	NewHandler(svc).SetupRoutes(router)
	return router, carts
}

const checkoutBody = `{
	"customer": {
		"name": "Ada Lovelace", "email": "ada@example.com", "phone": "555",
		"address": "12 Analytical Way", "city": "London", "country": "UK"
	},
	"payment_method": "card"
}`

func TestGetCartRequiresSession(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetCartEmpty(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set("X-Session-ID", "s1")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var view struct {
		Items    []json.RawMessage `json:"items"`
		Subtotal string            `json:"subtotal"`
		Shipping string            `json:"shipping"`
		Total    string            `json:"total"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	assert.Empty(t, view.Items)
	assert.Equal(t, "0", view.Subtotal)
	assert.Equal(t, "0", view.Shipping)
	assert.Equal(t, "0", view.Total)
}

func TestPlaceOrderRequiresUser(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", nil)
	req.Header.Set("X-Session-ID", "s1")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPlaceOrderEmptyCartRejected(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(checkoutBody))
	req.Header.Set("X-Session-ID", "s1")
	req.Header.Set("X-User-ID", "1")
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "empty")
}

func TestPlaceOrderValidation(t *testing.T) {
	router, carts := newTestRouter(t)
	require.NoError(t, carts.Set(context.Background(), "s1",
		[]models.CartEntry{{ProductID: 1, Quantity: 1}}))

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/checkout", strings.NewReader(`{"payment_method": ""}`))
	req.Header.Set("X-Session-ID", "s1")
	req.Header.Set("X-User-ID", "1")
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "validation failed")
}

func TestAdvanceOrderRejectsUnknownStatus(t *testing.T) {
	router, _ := newTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/admin/orders/1/advance",
		strings.NewReader(`{"status": "REFUNDED"}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)
}
