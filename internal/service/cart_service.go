package service

import (
	"context"
	"fmt"

	"fresh-mart/internal/cart"
	"fresh-mart/internal/domain"
	"fresh-mart/internal/repository"

	"github.com/google/uuid"
)

// CartAdjustment records one change normalization made to a cart, for
// user-facing warnings
type CartAdjustment struct {
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name,omitempty"`
	Removed     bool      `json:"removed"`
	NewQuantity int       `json:"new_quantity"`
	Reason      string    `json:"reason"`
}

// CartLine is one normalized cart entry with its live product
type CartLine struct {
	Product  *domain.Product `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal float64         `json:"subtotal"`
}

// CartView is the cart page payload: normalized lines plus a charge preview
// using the standard delivery fee
type CartView struct {
	Lines       []CartLine `json:"items"`
	UnitCount   int        `json:"unit_count"`
	Subtotal    float64    `json:"subtotal"`
	TaxAmount   float64    `json:"tax_amount"`
	DeliveryFee float64    `json:"delivery_fee"`
	Total       float64    `json:"total"`
}

// CartService owns cart mutations and normalization. Every read path
// normalizes against the live catalog first; stored cart state is never
// trusted for totals or checkout.
type CartService interface {
	Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (int, error)
	UpdateLine(ctx context.Context, userID, productID uuid.UUID, quantity int) error
	Remove(ctx context.Context, userID, productID uuid.UUID) error
	Clear(ctx context.Context, userID uuid.UUID) error
	View(ctx context.Context, userID uuid.UUID) (*CartView, []CartAdjustment, error)
	Normalize(ctx context.Context, c domain.Cart) (domain.Cart, []CartAdjustment, error)
}

type cartService struct {
	store       cart.Store
	productRepo repository.ProductRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(store cart.Store, productRepo repository.ProductRepository) CartService {
	return &cartService{
		store:       store,
		productRepo: productRepo,
	}
}

// Add merges quantity units of a product into the user's cart and returns the
// new total unit count. The combined quantity may not exceed current stock.
func (s *cartService) Add(ctx context.Context, userID, productID uuid.UUID, quantity int) (int, error) {
	if quantity < 1 {
		return 0, ErrInvalidQuantity
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return 0, ErrProductUnavailable
		}
		return 0, fmt.Errorf("failed to load product: %w", err)
	}
	if !product.IsActive {
		return 0, ErrProductUnavailable
	}
	if product.IsOutOfStock() {
		return 0, ErrProductOutOfStock
	}

	c, err := s.store.Get(ctx, userID)
	if err != nil {
		return 0, err
	}

	current := c[productID]
	if current+quantity > product.StockQuantity {
		return 0, &LimitedStockError{
			ProductName: product.Name,
			CanAdd:      product.StockQuantity - current,
		}
	}

	c[productID] = current + quantity
	if err := s.store.Save(ctx, userID, c); err != nil {
		return 0, err
	}

	return c.UnitCount(), nil
}

// UpdateLine sets a line to an exact quantity. Zero or negative removes the
// line; a positive quantity must not exceed current stock.
func (s *cartService) UpdateLine(ctx context.Context, userID, productID uuid.UUID, quantity int) error {
	c, err := s.store.Get(ctx, userID)
	if err != nil {
		return err
	}

	if quantity <= 0 {
		delete(c, productID)
		return s.store.Save(ctx, userID, c)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		if err == repository.ErrProductNotFound {
			return ErrProductUnavailable
		}
		return fmt.Errorf("failed to load product: %w", err)
	}
	if !product.IsActive {
		return ErrProductUnavailable
	}
	if quantity > product.StockQuantity {
		return &InsufficientStockError{
			ProductName: product.Name,
			Available:   product.StockQuantity,
		}
	}

	c[productID] = quantity
	return s.store.Save(ctx, userID, c)
}

// Remove drops a line from the cart
func (s *cartService) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	c, err := s.store.Get(ctx, userID)
	if err != nil {
		return err
	}

	if _, ok := c[productID]; !ok {
		return ErrProductUnavailable
	}

	delete(c, productID)
	return s.store.Save(ctx, userID, c)
}

// Clear empties the cart
func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) error {
	return s.store.Clear(ctx, userID)
}

// View normalizes the stored cart, persists any adjustments, and returns the
// lines with a charge preview (standard delivery fee, flat tax)
func (s *cartService) View(ctx context.Context, userID uuid.UUID) (*CartView, []CartAdjustment, error) {
	stored, err := s.store.Get(ctx, userID)
	if err != nil {
		return nil, nil, err
	}

	normalized, adjustments, products, err := s.normalize(ctx, stored)
	if err != nil {
		return nil, nil, err
	}

	if len(adjustments) > 0 {
		if err := s.store.Save(ctx, userID, normalized); err != nil {
			return nil, nil, err
		}
	}

	view := &CartView{Lines: []CartLine{}, UnitCount: normalized.UnitCount()}
	for productID, quantity := range normalized {
		product := products[productID]
		subtotal := product.Price * float64(quantity)
		view.Lines = append(view.Lines, CartLine{
			Product:  product,
			Quantity: quantity,
			Subtotal: subtotal,
		})
		view.Subtotal += subtotal
	}

	view.TaxAmount = view.Subtotal * domain.TaxRate
	view.DeliveryFee = domain.StandardDeliveryFee
	view.Total = view.Subtotal + view.TaxAmount + view.DeliveryFee

	return view, adjustments, nil
}

// Normalize prunes entries for missing or inactive products and clamps
// quantities to current stock (removing lines when stock is zero). Applying it
// twice yields the same result as once.
func (s *cartService) Normalize(ctx context.Context, c domain.Cart) (domain.Cart, []CartAdjustment, error) {
	normalized, adjustments, _, err := s.normalize(ctx, c)
	return normalized, adjustments, err
}

func (s *cartService) normalize(ctx context.Context, c domain.Cart) (domain.Cart, []CartAdjustment, map[uuid.UUID]*domain.Product, error) {
	normalized := make(domain.Cart, len(c))
	adjustments := []CartAdjustment{}
	products := make(map[uuid.UUID]*domain.Product, len(c))

	for productID, quantity := range c {
		product, err := s.productRepo.FindByID(ctx, productID)
		if err != nil {
			if err == repository.ErrProductNotFound {
				adjustments = append(adjustments, CartAdjustment{
					ProductID: productID,
					Removed:   true,
					Reason:    "product no longer available",
				})
				continue
			}
			return nil, nil, nil, fmt.Errorf("failed to load product: %w", err)
		}

		if !product.IsActive {
			adjustments = append(adjustments, CartAdjustment{
				ProductID:   productID,
				ProductName: product.Name,
				Removed:     true,
				Reason:      "product no longer available",
			})
			continue
		}

		if quantity > product.StockQuantity {
			if product.StockQuantity > 0 {
				normalized[productID] = product.StockQuantity
				products[productID] = product
				adjustments = append(adjustments, CartAdjustment{
					ProductID:   productID,
					ProductName: product.Name,
					NewQuantity: product.StockQuantity,
					Reason:      "quantity reduced to available stock",
				})
			} else {
				adjustments = append(adjustments, CartAdjustment{
					ProductID:   productID,
					ProductName: product.Name,
					Removed:     true,
					Reason:      "out of stock",
				})
			}
			continue
		}

		normalized[productID] = quantity
		products[productID] = product
	}

	return normalized, adjustments, products, nil
}
