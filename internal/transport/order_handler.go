package transport

import (
	"errors"
	"net/http"

	"fresh-mart/internal/domain"
	"fresh-mart/internal/middleware"
	"fresh-mart/internal/repository"
	"fresh-mart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutRequest represents the order placement payload
type CheckoutRequest struct {
	DeliveryAddress     string `json:"delivery_address" validate:"required,max=500"`
	PhoneNumber         string `json:"phone_number" validate:"required,max=20"`
	SpecialInstructions string `json:"special_instructions" validate:"max=1000"`
	DeliveryType        string `json:"delivery_type" validate:"omitempty,oneof=standard express"`
	PaymentMethod       string `json:"payment_method" validate:"omitempty,max=50"`
	CouponCode          string `json:"coupon_code" validate:"omitempty,max=50"`
}

// ValidateCouponRequest represents the pre-checkout coupon check payload
type ValidateCouponRequest struct {
	Code string `json:"code" validate:"required,max=50"`
}

// OrderListResponse is a paginated order listing
type OrderListResponse struct {
	Orders   interface{} `json:"orders"`
	Total    int         `json:"total"`
	Page     int         `json:"page"`
	PageSize int         `json:"page_size"`
}

// OrderHandler handles HTTP requests for the customer order workflow
type OrderHandler struct {
	orderService  service.OrderService
	couponService service.CouponService
	cartService   service.CartService
	logger        *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(
	orderService service.OrderService,
	couponService service.CouponService,
	cartService service.CartService,
	logger *zap.Logger,
) *OrderHandler {
	return &OrderHandler{
		orderService:  orderService,
		couponService: couponService,
		cartService:   cartService,
		logger:        logger,
	}
}

// RegisterRoutes registers all customer order routes. Every route requires auth.
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/", h.Checkout)
		r.Get("/", h.ListOrders)
		r.Get("/{orderID}", h.GetOrder)
		r.Post("/{orderID}/cancel", h.CancelOrder)
		r.Post("/{orderID}/reorder", h.Reorder)
	})

	r.With(authMiddleware).Post("/api/coupons/validate", h.ValidateCoupon)
}

// Checkout converts the cart into an order
func (h *OrderHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CheckoutRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	order, err := h.orderService.PlaceOrder(r.Context(), userID, service.PlaceOrderInput{
		DeliveryAddress:     req.DeliveryAddress,
		PhoneNumber:         req.PhoneNumber,
		SpecialInstructions: req.SpecialInstructions,
		DeliveryType:        domain.DeliveryType(req.DeliveryType),
		PaymentMethod:       req.PaymentMethod,
		CouponCode:          req.CouponCode,
	})
	if err != nil {
		h.respondOrderError(w, err, "failed to place order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

// ListOrders returns the user's order history
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	q := r.URL.Query()
	status := domain.OrderStatus(q.Get("status"))
	page := parseIntOr(q.Get("page"), 1)
	pageSize := parseIntOr(q.Get("page_size"), 10)

	orders, total, err := h.orderService.ListOrders(r.Context(), userID, status, page, pageSize)
	if err != nil {
		if err == service.ErrInvalidOrderStatus {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid order status")
			return
		}
		h.logger.Error("Failed to list orders", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list orders")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, OrderListResponse{
		Orders:   orders,
		Total:    total,
		Page:     page,
		PageSize: pageSize,
	})
}

// GetOrder returns one of the user's orders with its items
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.orderService.GetOrder(r.Context(), userID, orderID)
	if err != nil {
		h.respondOrderError(w, err, "failed to get order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// CancelOrder cancels a pending or confirmed order and restores its stock
func (h *OrderHandler) CancelOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	if err := h.orderService.Cancel(r.Context(), userID, orderID); err != nil {
		h.respondOrderError(w, err, "failed to cancel order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "order cancelled"})
}

// Reorder adds a past order's items back into the cart, best effort
func (h *OrderHandler) Reorder(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	result, err := h.orderService.Reorder(r.Context(), userID, orderID)
	if err != nil {
		h.respondOrderError(w, err, "failed to reorder")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

// ValidateCoupon previews a coupon against the user's current cart subtotal
// without redeeming it
func (h *OrderHandler) ValidateCoupon(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req ValidateCouponRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	view, _, err := h.cartService.View(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to load cart for coupon check", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to validate coupon")
		return
	}

	preview, err := h.couponService.Preview(r.Context(), req.Code, view.Subtotal)
	if err != nil {
		if err == service.ErrInvalidCoupon {
			middleware.RespondWithError(w, http.StatusUnprocessableEntity, "coupon is not valid for this order")
			return
		}
		h.logger.Error("Failed to validate coupon", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to validate coupon")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, preview)
}

// respondOrderError maps order workflow failures onto HTTP statuses
func (h *OrderHandler) respondOrderError(w http.ResponseWriter, err error, fallback string) {
	var insufficient *service.InsufficientStockError
	var cartChanged *service.CartChangedError

	switch {
	case errors.As(err, &cartChanged):
		middleware.RespondWithErrorDetails(w, http.StatusConflict, cartChanged.Error(), map[string]interface{}{
			"cart_adjustments": cartChanged.Adjustments,
		})
	case err == service.ErrCartEmpty,
		err == service.ErrAddressRequired,
		err == service.ErrPhoneRequired,
		err == service.ErrInvalidPhone:
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
	case err == service.ErrInvalidCoupon:
		middleware.RespondWithError(w, http.StatusUnprocessableEntity, err.Error())
	case err == service.ErrOrderNotCancellable:
		middleware.RespondWithError(w, http.StatusConflict, err.Error())
	case err == service.ErrAccessDenied:
		middleware.RespondWithError(w, http.StatusForbidden, "access denied")
	case err == repository.ErrOrderNotFound:
		middleware.RespondWithError(w, http.StatusNotFound, "order not found")
	case errors.As(err, &insufficient):
		middleware.RespondWithError(w, http.StatusConflict, insufficient.Error())
	default:
		h.logger.Error("Order operation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
