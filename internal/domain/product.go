package domain

import (
	"math"
	"time"

	"github.com/google/uuid"
)

// Product represents a product in the catalog. StockQuantity is the single
// source of truth for availability and must never go negative.
type Product struct {
	ID            uuid.UUID `json:"id" db:"id"`
	Name          string    `json:"name" db:"name"`
	Description   string    `json:"description" db:"description"`
	Price         float64   `json:"price" db:"price"`
	OriginalPrice *float64  `json:"original_price,omitempty" db:"original_price"`
	StockQuantity int       `json:"stock_quantity" db:"stock_quantity"`
	MinStock      int       `json:"min_stock" db:"min_stock"`
	Unit          string    `json:"unit" db:"unit"`
	CategoryID    uuid.UUID `json:"category_id" db:"category_id"`
	ImageURL      string    `json:"image_url" db:"image_url"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	IsFeatured    bool      `json:"is_featured" db:"is_featured"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// IsOnSale reports whether the product has a sale price set
func (p *Product) IsOnSale() bool {
	return p.OriginalPrice != nil && *p.OriginalPrice > p.Price
}

// DiscountPercentage returns the rounded discount percentage for a product on
// sale, or 0 otherwise
func (p *Product) DiscountPercentage() int {
	if !p.IsOnSale() {
		return 0
	}
	return int(math.Round((*p.OriginalPrice - p.Price) / *p.OriginalPrice * 100))
}

// IsLowStock reports whether stock has fallen to the alert threshold
func (p *Product) IsLowStock() bool {
	return p.StockQuantity <= p.MinStock
}

// IsOutOfStock reports whether the product cannot currently be ordered
func (p *Product) IsOutOfStock() bool {
	return p.StockQuantity <= 0
}

// Category represents a product category
type Category struct {
	ID          uuid.UUID `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Description string    `json:"description" db:"description"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}
