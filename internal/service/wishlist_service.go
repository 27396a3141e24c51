package service

import (
	"context"
	"time"

	"fresh-mart/internal/domain"
	"fresh-mart/internal/repository"

	"github.com/google/uuid"
)

// WishlistService manages a user's saved-for-later products
type WishlistService interface {
	Add(ctx context.Context, userID, productID uuid.UUID) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	List(ctx context.Context, userID uuid.UUID) ([]*domain.WishlistItem, error)
	// MoveToCart transfers a wishlist entry into the cart and removes it
	MoveToCart(ctx context.Context, userID, productID uuid.UUID) error
}

type wishlistService struct {
	wishlistRepo repository.WishlistRepository
	productRepo  repository.ProductRepository
	cartService  CartService
}

// NewWishlistService creates a new instance of WishlistService
func NewWishlistService(wishlistRepo repository.WishlistRepository, productRepo repository.ProductRepository, cartService CartService) WishlistService {
	return &wishlistService{
		wishlistRepo: wishlistRepo,
		productRepo:  productRepo,
		cartService:  cartService,
	}
}

// Add saves an active product to the wishlist. Adding twice is a no-op for the
// caller; the duplicate error is swallowed.
func (s *wishlistService) Add(ctx context.Context, userID, productID uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return err
	}
	if !product.IsActive {
		return ErrProductUnavailable
	}

	item := &domain.WishlistItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.wishlistRepo.Add(ctx, item); err != nil {
		if err == repository.ErrWishlistDuplicate {
			return nil
		}
		return err
	}
	return nil
}

// Remove drops a product from the wishlist
func (s *wishlistService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	return s.wishlistRepo.Remove(ctx, userID, productID)
}

// List retrieves the user's wishlist with current product data
func (s *wishlistService) List(ctx context.Context, userID uuid.UUID) ([]*domain.WishlistItem, error) {
	return s.wishlistRepo.ListByUser(ctx, userID)
}

// MoveToCart adds one unit to the cart and, on success, removes the wishlist
// entry. Stock errors from the cart surface unchanged so the entry survives.
func (s *wishlistService) MoveToCart(ctx context.Context, userID, productID uuid.UUID) error {
	if _, err := s.cartService.Add(ctx, userID, productID, 1); err != nil {
		return err
	}
	if err := s.wishlistRepo.Remove(ctx, userID, productID); err != nil && err != repository.ErrWishlistItemNotFound {
		return err
	}
	return nil
}
