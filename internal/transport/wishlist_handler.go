package transport

import (
	"errors"
	"net/http"

	"fresh-mart/internal/middleware"
	"fresh-mart/internal/repository"
	"fresh-mart/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// WishlistHandler handles HTTP requests for wishlist operations
type WishlistHandler struct {
	wishlistService service.WishlistService
	logger          *zap.Logger
}

// NewWishlistHandler creates a new WishlistHandler
func NewWishlistHandler(wishlistService service.WishlistService, logger *zap.Logger) *WishlistHandler {
	return &WishlistHandler{
		wishlistService: wishlistService,
		logger:          logger,
	}
}

// RegisterRoutes registers all wishlist routes. Every route requires auth.
func (h *WishlistHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/wishlist", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.List)
		r.Post("/{productID}", h.Add)
		r.Delete("/{productID}", h.Remove)
		r.Post("/{productID}/move-to-cart", h.MoveToCart)
	})
}

// List returns the user's wishlist with current product data
func (h *WishlistHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	items, err := h.wishlistService.List(r.Context(), userID)
	if err != nil {
		h.logger.Error("Failed to list wishlist", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list wishlist")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]interface{}{"items": items})
}

// Add saves a product to the wishlist
func (h *WishlistHandler) Add(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.wishlistService.Add(r.Context(), userID, productID); err != nil {
		if err == repository.ErrProductNotFound || err == service.ErrProductUnavailable {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to add wishlist item", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update wishlist")
		return
	}

	middleware.RespondWithJSON(w, http.StatusCreated, map[string]string{"message": "added to wishlist"})
}

// Remove drops a product from the wishlist
func (h *WishlistHandler) Remove(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.wishlistService.Remove(r.Context(), userID, productID); err != nil {
		if err == repository.ErrWishlistItemNotFound {
			middleware.RespondWithError(w, http.StatusNotFound, "wishlist item not found")
			return
		}
		h.logger.Error("Failed to remove wishlist item", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update wishlist")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "removed from wishlist"})
}

// MoveToCart transfers a wishlist entry into the cart
func (h *WishlistHandler) MoveToCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	productID, err := uuid.Parse(chi.URLParam(r, "productID"))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product ID")
		return
	}

	if err := h.wishlistService.MoveToCart(r.Context(), userID, productID); err != nil {
		var limited *service.LimitedStockError
		switch {
		case err == repository.ErrProductNotFound, err == service.ErrProductUnavailable:
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
		case err == service.ErrProductOutOfStock:
			middleware.RespondWithError(w, http.StatusConflict, "product is out of stock")
		case errors.As(err, &limited):
			middleware.RespondWithError(w, http.StatusConflict, limited.Error())
		default:
			h.logger.Error("Failed to move wishlist item to cart", zap.Error(err))
			middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update wishlist")
		}
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, map[string]string{"message": "moved to cart"})
}
