package controllers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"checkout-service/controllers"
	"checkout-service/models"
	"checkout-service/repository"
	"checkout-service/routes"
	"checkout-service/services"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// fakeStore backs both repositories so checkout can consume the cart and
// create the order under one lock, like the real transaction does.
type fakeStore struct {
	mu     sync.Mutex
	carts  map[string]*models.Cart
	orders map[uuid.UUID]*models.Order
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		carts:  make(map[string]*models.Cart),
		orders: make(map[uuid.UUID]*models.Order),
	}
}

type fakeCartRepo struct{ store *fakeStore }

func (r *fakeCartRepo) GetActiveCart(_ context.Context, userID string) (*models.Cart, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cart, ok := r.store.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	cp := *cart
	cp.Items = append([]models.CartItem(nil), cart.Items...)
	return &cp, nil
}

func (r *fakeCartRepo) AddItem(_ context.Context, userID, productID string, quantity int, unitPrice decimal.Decimal) (*models.Cart, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cart, ok := r.store.carts[userID]
	if !ok {
		cart = &models.Cart{ID: uuid.New(), UserID: userID, IsActive: true}
		r.store.carts[userID] = cart
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items[i].Quantity += quantity
			cart.Items[i].UnitPrice = unitPrice
			return cart, nil
		}
	}
	cart.Items = append(cart.Items, models.CartItem{
		ID: uuid.New(), CartID: cart.ID, ProductID: productID, Quantity: quantity, UnitPrice: unitPrice,
	})
	return cart, nil
}

func (r *fakeCartRepo) UpdateItemQuantity(_ context.Context, userID, productID string, quantity int) (*models.Cart, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cart, ok := r.store.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			if quantity <= 0 {
				cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			} else {
				cart.Items[i].Quantity = quantity
			}
			return cart, nil
		}
	}
	return nil, repository.ErrItemNotFound
}

func (r *fakeCartRepo) RemoveItem(_ context.Context, userID, productID string) (*models.Cart, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cart, ok := r.store.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	for i := range cart.Items {
		if cart.Items[i].ProductID == productID {
			cart.Items = append(cart.Items[:i], cart.Items[i+1:]...)
			return cart, nil
		}
	}
	return nil, repository.ErrItemNotFound
}

func (r *fakeCartRepo) ClearItems(_ context.Context, userID string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cart, ok := r.store.carts[userID]
	if !ok {
		return repository.ErrCartNotFound
	}
	cart.Items = nil
	return nil
}

type fakeOrderRepo struct{ store *fakeStore }

func (r *fakeOrderRepo) PlaceOrder(_ context.Context, userID, shippingAddress, billingAddress string, productNames map[string]string) (*models.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cart, ok := r.store.carts[userID]
	if !ok {
		return nil, repository.ErrCartNotFound
	}
	if len(cart.Items) == 0 {
		return nil, repository.ErrEmptyCart
	}

	total := decimal.Zero
	items := make([]models.OrderItem, 0, len(cart.Items))
	for _, line := range cart.Items {
		name := productNames[line.ProductID]
		if name == "" {
			name = line.ProductID
		}
		linePrice := line.TotalPrice()
		items = append(items, models.OrderItem{
			ID: uuid.New(), ProductID: line.ProductID, ProductName: name,
			Quantity: line.Quantity, UnitPrice: line.UnitPrice, TotalPrice: linePrice,
		})
		total = total.Add(linePrice)
	}

	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     "ORD-TEST-" + uuid.New().String()[:8],
		UserID:          userID,
		Status:          models.OrderStatusPending,
		PaymentStatus:   models.PaymentStatusPending,
		TotalAmount:     total,
		ShippingAddress: shippingAddress,
		BillingAddress:  billingAddress,
		Items:           items,
	}
	cart.Items = nil
	r.store.orders[order.ID] = order
	return order, nil
}

func (r *fakeOrderRepo) FindByIDAndUserID(_ context.Context, orderID uuid.UUID, userID string) (*models.Order, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	order, ok := r.store.orders[orderID]
	if !ok || order.UserID != userID {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (r *fakeOrderRepo) FindByUserID(_ context.Context, userID string, _ repository.OrderFilter, page, limit int) ([]models.Order, int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var matched []models.Order
	for _, order := range r.store.orders {
		if order.UserID == userID {
			matched = append(matched, *order)
		}
	}
	total := int64(len(matched))
	start := (page - 1) * limit
	if start >= len(matched) {
		return []models.Order{}, total, nil
	}
	end := start + limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func (r *fakeOrderRepo) Update(_ context.Context, order *models.Order) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	r.store.orders[order.ID] = order
	return nil
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	store := newFakeStore()
	log := zap.NewNop()

	cartRepo := &fakeCartRepo{store: store}
	orderRepo := &fakeOrderRepo{store: store}

	cartService := services.NewCartService(cartRepo, log)
	checkoutService := services.NewCheckoutService(cartRepo, orderRepo, nil, nil, nil, nil, "", log)
	orderService := services.NewOrderService(orderRepo, log)

	r := gin.New()
	routes.Register(r, controllers.NewCartController(cartService, checkoutService), controllers.NewOrderController(orderService))
	return r
}

func doRequest(r *gin.Engine, method, path, userID, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCartEndpoints_RequireAuth(t *testing.T) {
	r := newTestRouter()

	w := doRequest(r, http.MethodGet, "/cart", "", "")

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCartCheckoutFlow(t *testing.T) {
	r := newTestRouter()

	w := doRequest(r, http.MethodPost, "/cart/items", "user-1",
		`{"product_id":"42","quantity":2,"unit_price":"9.99"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodPost, "/cart/items", "user-1",
		`{"product_id":"7","quantity":1,"unit_price":"19.99"}`)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(r, http.MethodGet, "/cart", "user-1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	var cart services.CartResponse
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &cart))
	assert.Equal(t, 3, cart.TotalItems)
	assert.True(t, cart.TotalAmount.Equal(decimal.RequireFromString("39.97")),
		"got %s", cart.TotalAmount)

	w = doRequest(r, http.MethodPost, "/cart/checkout", "user-1",
		`{"shipping_address":"1 Shipping St","billing_address":"2 Billing Ave"}`)
	assert.Equal(t, http.StatusCreated, w.Code)
	var created struct {
		Order models.Order `json:"order"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, models.OrderStatusPending, created.Order.Status)
	assert.True(t, created.Order.TotalAmount.Equal(decimal.RequireFromString("39.97")))
	assert.Len(t, created.Order.Items, 2)

	// cart is empty after checkout
	w = doRequest(r, http.MethodGet, "/cart", "user-1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &cart))
	assert.Empty(t, cart.Items)

	// a second checkout has nothing to convert
	w = doRequest(r, http.MethodPost, "/cart/checkout", "user-1",
		`{"shipping_address":"1 Shipping St","billing_address":"2 Billing Ave"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), services.CodeEmptyCart)

	// the order is readable afterwards
	w = doRequest(r, http.MethodGet, "/orders/"+created.Order.ID.String(), "user-1", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), created.Order.OrderNumber)
}

func TestCheckout_ValidationError(t *testing.T) {
	r := newTestRouter()

	w := doRequest(r, http.MethodPost, "/cart/checkout", "user-1", `{"shipping_address":"x"}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), services.CodeValidation)
}

func TestOrderEndpoints_InvalidOrderID(t *testing.T) {
	r := newTestRouter()

	w := doRequest(r, http.MethodGet, "/orders/not-a-uuid", "user-1", "")

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), services.CodeValidation)
}
