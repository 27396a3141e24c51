package domain

import (
	"time"

	"github.com/google/uuid"
)

// WishlistItem saves a product for later; one row per (user, product)
type WishlistItem struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
	ProductID uuid.UUID `json:"product_id" db:"product_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	Product   *Product  `json:"product,omitempty" db:"-"`
}
