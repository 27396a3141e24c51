package transport

import (
	"errors"
	"net/http"
	"time"

	"fresh-mart/internal/domain"
	"fresh-mart/internal/middleware"
	"fresh-mart/internal/repository"
	"fresh-mart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ProductRequest represents the product create/update payload
type ProductRequest struct {
	Name          string   `json:"name" validate:"required,max=200"`
	Description   string   `json:"description" validate:"max=2000"`
	Price         float64  `json:"price" validate:"required,gt=0"`
	OriginalPrice *float64 `json:"original_price" validate:"omitempty,gt=0"`
	StockQuantity int      `json:"stock_quantity" validate:"gte=0"`
	MinStock      int      `json:"min_stock" validate:"gte=0"`
	Unit          string   `json:"unit" validate:"required,max=20"`
	ImageURL      string   `json:"image_url" validate:"max=500"`
	CategoryID    string   `json:"category_id" validate:"required,uuid"`
	IsFeatured    bool     `json:"is_featured"`
}

// CategoryRequest represents the category create payload
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// CouponRequest represents the coupon create payload
type CouponRequest struct {
	Code           string   `json:"code" validate:"required,max=50"`
	Description    string   `json:"description" validate:"max=500"`
	DiscountType   string   `json:"discount_type" validate:"required,oneof=percentage fixed"`
	DiscountValue  float64  `json:"discount_value" validate:"required,gt=0"`
	MinOrderAmount float64  `json:"min_order_amount" validate:"gte=0"`
	MaxDiscount    *float64 `json:"max_discount" validate:"omitempty,gt=0"`
	UsageLimit     *int     `json:"usage_limit" validate:"omitempty,gt=0"`
	ValidUntil     *string  `json:"valid_until"`
}

// SetStatusRequest represents the order status transition payload
type SetStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=pending confirmed delivered cancelled"`
}

// SetActiveRequest represents the activate/deactivate payload
type SetActiveRequest struct {
	Active bool `json:"active"`
}

// CustomerListResponse is a paginated customer listing
type CustomerListResponse struct {
	Customers []UserProfile `json:"customers"`
	Total     int           `json:"total"`
	Page      int           `json:"page"`
	PageSize  int           `json:"page_size"`
}

// AdminHandler handles the back-office endpoints. Routes are mounted behind
// both auth and the admin check.
type AdminHandler struct {
	catalogService service.CatalogService
	orderService   service.OrderService
	couponService  service.CouponService
	userService    service.UserService
	logger         *zap.Logger
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	catalogService service.CatalogService,
	orderService service.OrderService,
	couponService service.CouponService,
	userService service.UserService,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		catalogService: catalogService,
		orderService:   orderService,
		couponService:  couponService,
		userService:    userService,
		logger:         logger,
	}
}

// RegisterRoutes registers all admin routes behind auth and the admin check
func (h *AdminHandler) RegisterRoutes(r chi.Router, authMiddleware, adminMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/admin", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Use(adminMiddleware)

		r.Route("/products", func(r chi.Router) {
			r.Get("/", h.ListProducts)
			r.Post("/", h.CreateProduct)
			r.Put("/{productID}", h.UpdateProduct)
			r.Delete("/{productID}", h.DeleteProduct)
			r.Patch("/{productID}/active", h.SetProductActive)
		})

		r.Route("/categories", func(r chi.Router) {
			r.Get("/", h.ListCategories)
			r.Post("/", h.CreateCategory)
			r.Patch("/{categoryID}/active", h.SetCategoryActive)
		})

		r.Route("/coupons", func(r chi.Router) {
			r.Get("/", h.ListCoupons)
			r.Post("/", h.CreateCoupon)
			r.Patch("/{couponID}/active", h.SetCouponActive)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Get("/", h.ListOrders)
			r.Get("/{orderID}", h.GetOrder)
			r.Patch("/{orderID}/status", h.SetOrderStatus)
		})

		r.Route("/customers", func(r chi.Router) {
			r.Get("/", h.ListCustomers)
			r.Patch("/{customerID}/active", h.SetCustomerActive)
		})
	})
}

// ListProducts handles inventory listings, including inactive products and
// stock-state filters
func (h *AdminHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repository.ProductFilter{
		Query:      q.Get("q"),
		Stock:      repository.StockFilter(q.Get("stock")),
		ActiveOnly: false,
		Page:       parseIntOr(q.Get("page"), 1),
		PageSize:   parseIntOr(q.Get("page_size"), 20),
		SortBy:     q.Get("sort"),
	}
	if q.Get("order") == "desc" {
		filter.SortOrder = repository.SortOrderDesc
	} else {
		filter.SortOrder = repository.SortOrderAsc
	}
	if raw := q.Get("category_id"); raw != "" {
		categoryID, err := uuid.Parse(raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
			return
		}
		filter.CategoryID = &categoryID
	}

	products, total, err := h.catalogService.ListProducts(r.Context(), filter)
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, ProductListResponse{
		Products: products,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
}

// CreateProduct adds a product to the catalog
func (h *AdminHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	req, input, ok := h.decodeProductInput(w, r)
	if !ok {
		return
	}

	product, err := h.catalogService.CreateProduct(r.Context(), service.CreateProductInput(input))
	if err != nil {
		h.respondCatalogError(w, err, "failed to create product")
		return
	}

	h.logger.Info("Product created by admin",
		zap.String("product_id", product.ID.String()),
		zap.String("name", req.Name),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// UpdateProduct edits a catalog entry
func (h *AdminHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	_, input, ok := h.decodeProductInput(w, r)
	if !ok {
		return
	}

	product, err := h.catalogService.UpdateProduct(r.Context(), productID, service.UpdateProductInput(input))
	if err != nil {
		h.respondCatalogError(w, err, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// DeleteProduct deletes a product; products referenced by orders are rejected
func (h *AdminHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	err = h.catalogService.DeleteProduct(r.Context(), productID)
	if err == repository.ErrProductReferenced {
		middleware.RespondWithError(w, http.StatusConflict, "product has existing orders and cannot be deleted")
		return
	}
	if err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to delete product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product deleted"})
}

// SetProductActive toggles storefront visibility for a product
func (h *AdminHandler) SetProductActive(w http.ResponseWriter, r *http.Request) {
	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	var req SetActiveRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.catalogService.SetProductActive(r.Context(), productID, req.Active); err != nil {
		if err == repository.ErrProductNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to toggle product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "product updated"})
}

// ListCategories handles the back-office category listing, inactive included
func (h *AdminHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalogService.ListCategories(r.Context(), false)
	if err != nil {
		h.logger.Error("Failed to list categories", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list categories")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"categories": categories})
}

// CreateCategory adds a category
func (h *AdminHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	category, err := h.catalogService.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		if err == repository.ErrCategoryAlreadyExists {
			middleware.RespondWithError(w, http.StatusConflict, "category with this name already exists")
			return
		}
		h.logger.Error("Failed to create category", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

// SetCategoryActive toggles a category
func (h *AdminHandler) SetCategoryActive(w http.ResponseWriter, r *http.Request) {
	categoryID, err := uuid.Parse(chi.URLParam(r, "categoryID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return
	}

	var req SetActiveRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.catalogService.SetCategoryActive(r.Context(), categoryID, req.Active); err != nil {
		if err == repository.ErrCategoryNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "category not found")
			return
		}
		h.logger.Error("Failed to toggle category", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update category")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "category updated"})
}

// ListCoupons lists all coupons with usage counts
func (h *AdminHandler) ListCoupons(w http.ResponseWriter, r *http.Request) {
	coupons, err := h.couponService.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list coupons", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list coupons")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"coupons": coupons})
}

// CreateCoupon registers a new discount code
func (h *AdminHandler) CreateCoupon(w http.ResponseWriter, r *http.Request) {
	var req CouponRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	input := service.CreateCouponInput{
		Code:           req.Code,
		Description:    req.Description,
		DiscountType:   domain.DiscountType(req.DiscountType),
		DiscountValue:  req.DiscountValue,
		MinOrderAmount: req.MinOrderAmount,
		MaxDiscount:    req.MaxDiscount,
		UsageLimit:     req.UsageLimit,
	}
	if req.ValidUntil != nil {
		validUntil, err := time.Parse(time.RFC3339, *req.ValidUntil)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "valid_until must be RFC3339")
			return
		}
		input.ValidUntil = &validUntil
	}

	coupon, err := h.couponService.Create(r.Context(), input)
	if err != nil {
		if err == repository.ErrCouponCodeTaken {
			middleware.RespondWithError(w, http.StatusConflict, "coupon code already exists")
			return
		}
		if err == service.ErrInvalidCoupon {
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid coupon definition")
			return
		}
		h.logger.Error("Failed to create coupon", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create coupon")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, coupon)
}

// SetCouponActive toggles a coupon
func (h *AdminHandler) SetCouponActive(w http.ResponseWriter, r *http.Request) {
	couponID, err := uuid.Parse(chi.URLParam(r, "couponID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid coupon ID")
		return
	}

	var req SetActiveRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.couponService.SetActive(r.Context(), couponID, req.Active); err != nil {
		if err == repository.ErrCouponNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "coupon not found")
			return
		}
		h.logger.Error("Failed to toggle coupon", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update coupon")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "coupon updated"})
}

// ListOrders handles the back-office order listing with status, date and
// search filters
func (h *AdminHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	filter := repository.OrderFilter{
		Status:   domain.OrderStatus(q.Get("status")),
		Query:    q.Get("q"),
		Page:     parseIntOr(q.Get("page"), 1),
		PageSize: parseIntOr(q.Get("page_size"), 20),
	}
	if raw := q.Get("date"); raw != "" {
		date, err := time.Parse("2006-01-02", raw)
		if err != nil {
			middleware.RespondWithError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		filter.Date = &date
	}

	orders, total, err := h.orderService.AdminListOrders(r.Context(), filter)
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
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
}

// GetOrder returns any order with its items
func (h *AdminHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	order, err := h.orderService.AdminGetOrder(r.Context(), orderID)
	if err != nil {
		if err == repository.ErrOrderNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
			return
		}
		h.logger.Error("Failed to get order", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to get order")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, order)
}

// SetOrderStatus runs an order status transition, reconciling stock when the
// transition crosses the cancelled boundary
func (h *AdminHandler) SetOrderStatus(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(chi.URLParam(r, "orderID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid order ID")
		return
	}

	var req SetStatusRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err = h.orderService.SetStatus(r.Context(), orderID, domain.OrderStatus(req.Status))
	if err != nil {
		var insufficient *service.InsufficientStockError
		switch {
		case err == repository.ErrOrderNotFound:
			middleware.RespondWithError(w, http.StatusNotFound, "order not found")
		case err == service.ErrInvalidOrderStatus:
			middleware.RespondWithError(w, http.StatusBadRequest, "invalid order status")
		case errors.As(err, &insufficient):
			middleware.RespondWithError(w, http.StatusConflict, insufficient.Error())
		default:
			h.logger.Error("Failed to update order status", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update order status")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "order status updated"})
}

// ListCustomers handles the back-office customer listing
func (h *AdminHandler) ListCustomers(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page := parseIntOr(q.Get("page"), 1)
	pageSize := parseIntOr(q.Get("page_size"), 20)

	customers, total, err := h.userService.ListCustomers(r.Context(), q.Get("q"), page, pageSize)
	if err != nil {
		h.logger.Error("Failed to list customers", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list customers")
		return
	}

	profiles := make([]UserProfile, 0, len(customers))
	for _, customer := range customers {
		profiles = append(profiles, toUserProfile(customer))
	}

	middleware.RespondWithJSON(w, http.StatusOK, CustomerListResponse{
		Customers: profiles,
		Total:     total,
		Page:      page,
		PageSize:  pageSize,
	})
}

// SetCustomerActive enables or disables a customer account
func (h *AdminHandler) SetCustomerActive(w http.ResponseWriter, r *http.Request) {
	customerID, err := uuid.Parse(chi.URLParam(r, "customerID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid customer ID")
		return
	}

	var req SetActiveRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if err := h.userService.SetCustomerActive(r.Context(), customerID, req.Active); err != nil {
		if err == repository.ErrUserNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "customer not found")
			return
		}
		h.logger.Error("Failed to toggle customer", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update customer")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "customer updated"})
}

// productInput is the common shape shared by create and update
type productInput struct {
	Name          string
	Description   string
	Price         float64
	OriginalPrice *float64
	StockQuantity int
	MinStock      int
	Unit          string
	ImageURL      string
	CategoryID    uuid.UUID
	IsFeatured    bool
}

func (h *AdminHandler) decodeProductInput(w http.ResponseWriter, r *http.Request) (*ProductRequest, productInput, bool) {
	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return nil, productInput{}, false
		}
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return nil, productInput{}, false
	}

	categoryID, err := uuid.Parse(req.CategoryID)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid category ID")
		return nil, productInput{}, false
	}

	return &req, productInput{
		Name:          req.Name,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		StockQuantity: req.StockQuantity,
		MinStock:      req.MinStock,
		Unit:          req.Unit,
		ImageURL:      req.ImageURL,
		CategoryID:    categoryID,
		IsFeatured:    req.IsFeatured,
	}, true
}

// respondCatalogError maps catalog mutation failures onto HTTP statuses
func (h *AdminHandler) respondCatalogError(w http.ResponseWriter, err error, fallback string) {
	switch err {
	case repository.ErrProductNotFound:
		middleware.RespondWithError(w, http.StatusNotFound, "product not found")
	case repository.ErrCategoryNotFound:
		middleware.RespondWithError(w, http.StatusBadRequest, "category not found")
	case repository.ErrProductNameTaken:
		middleware.RespondWithError(w, http.StatusConflict, "product with this name already exists")
	default:
		h.logger.Error("Catalog operation failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, fallback)
	}
}
