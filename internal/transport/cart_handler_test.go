package transport

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"fresh-mart/internal/domain"
	"fresh-mart/internal/middleware"
	"fresh-mart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// stubAuth injects a fixed user into the request context, standing in for the
// JWT middleware which has its own tests.
func stubAuth(userID uuid.UUID) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func newCartRouter(t *testing.T) (chi.Router, *mockProductRepository, uuid.UUID) {
	t.Helper()

	products := newMockProductRepository()
	cartService := service.NewCartService(newMockCartStore(), products)
	handler := NewCartHandler(cartService, zap.NewNop())

	userID := uuid.New()
	r := chi.NewRouter()
	handler.RegisterRoutes(r, stubAuth(userID))
	return r, products, userID
}

func seedProduct(products *mockProductRepository, price float64, stock int) *domain.Product {
	product := &domain.Product{
		ID:            uuid.New(),
		Name:          "Product " + uuid.NewString()[:8],
		Price:         price,
		StockQuantity: stock,
		CategoryID:    uuid.New(),
		IsActive:      true,
	}
	products.put(product)
	return product
}

func TestCartEndpoints(t *testing.T) {
	router, products, _ := newCartRouter(t)
	apples := seedProduct(products, 4.0, 10)

	w := doJSON(router, "POST", "/api/cart/items", "", AddToCartRequest{
		ProductID: apples.ID.String(),
		Quantity:  3,
	})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var added AddToCartResponse
	json.Unmarshal(w.Body.Bytes(), &added)
	if added.UnitCount != 3 {
		t.Errorf("expected unit count 3, got %d", added.UnitCount)
	}

	w = doJSON(router, "GET", "/api/cart", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var cart CartResponse
	json.Unmarshal(w.Body.Bytes(), &cart)
	if cart.Cart.Subtotal != 12.0 {
		t.Errorf("expected subtotal 12.0, got %v", cart.Cart.Subtotal)
	}
	if len(cart.Adjustments) != 0 {
		t.Errorf("expected no adjustments, got %v", cart.Adjustments)
	}

	w = doJSON(router, "PUT", "/api/cart/items/"+apples.ID.String(), "", UpdateCartRequest{Quantity: 1})
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(router, "DELETE", "/api/cart/items/"+apples.ID.String(), "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	// Removing it again is a 404
	w = doJSON(router, "DELETE", "/api/cart/items/"+apples.ID.String(), "", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for absent line, got %d", w.Code)
	}
}

func TestCartEndpoints_StockConflicts(t *testing.T) {
	router, products, _ := newCartRouter(t)
	scarce := seedProduct(products, 4.0, 2)
	depleted := seedProduct(products, 4.0, 0)

	w := doJSON(router, "POST", "/api/cart/items", "", AddToCartRequest{
		ProductID: depleted.ID.String(),
		Quantity:  1,
	})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 for out-of-stock product, got %d", w.Code)
	}

	w = doJSON(router, "POST", "/api/cart/items", "", AddToCartRequest{
		ProductID: scarce.ID.String(),
		Quantity:  5,
	})
	if w.Code != http.StatusConflict {
		t.Errorf("expected 409 over stock, got %d", w.Code)
	}

	w = doJSON(router, "POST", "/api/cart/items", "", AddToCartRequest{
		ProductID: uuid.NewString(),
		Quantity:  1,
	})
	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unknown product, got %d", w.Code)
	}

	w = doJSON(router, "POST", "/api/cart/items", "", AddToCartRequest{
		ProductID: scarce.ID.String(),
		Quantity:  0,
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for zero quantity, got %d", w.Code)
	}
}

func TestCartEndpoints_ClearCart(t *testing.T) {
	router, products, _ := newCartRouter(t)
	apples := seedProduct(products, 4.0, 10)

	doJSON(router, "POST", "/api/cart/items", "", AddToCartRequest{
		ProductID: apples.ID.String(),
		Quantity:  2,
	})

	w := doJSON(router, "DELETE", "/api/cart", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = doJSON(router, "GET", "/api/cart", "", nil)
	var cart CartResponse
	json.Unmarshal(w.Body.Bytes(), &cart)
	if cart.Cart.UnitCount != 0 {
		t.Errorf("expected empty cart, got %d units", cart.Cart.UnitCount)
	}
}
