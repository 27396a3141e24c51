package domain

import (
	"time"

	"github.com/google/uuid"
)

// DiscountType selects how a coupon's discount value is interpreted
type DiscountType string

const (
	DiscountTypePercentage DiscountType = "percentage"
	DiscountTypeFixed      DiscountType = "fixed"
)

// Coupon is an admin-created discount code. UsageLimit nil means unlimited
// redemptions; ValidUntil nil means no expiry.
type Coupon struct {
	ID             uuid.UUID    `json:"id" db:"id"`
	Code           string       `json:"code" db:"code"`
	Description    string       `json:"description" db:"description"`
	DiscountType   DiscountType `json:"discount_type" db:"discount_type"`
	DiscountValue  float64      `json:"discount_value" db:"discount_value"`
	MinOrderAmount float64      `json:"min_order_amount" db:"min_order_amount"`
	MaxDiscount    *float64     `json:"max_discount,omitempty" db:"max_discount"`
	UsageLimit     *int         `json:"usage_limit,omitempty" db:"usage_limit"`
	UsedCount      int          `json:"used_count" db:"used_count"`
	IsActive       bool         `json:"is_active" db:"is_active"`
	ValidFrom      time.Time    `json:"valid_from" db:"valid_from"`
	ValidUntil     *time.Time   `json:"valid_until,omitempty" db:"valid_until"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
}

// IsValid reports whether the coupon can be applied to an order of the given
// amount at the given time
func (c *Coupon) IsValid(now time.Time, orderAmount float64) bool {
	if !c.IsActive {
		return false
	}
	if now.Before(c.ValidFrom) {
		return false
	}
	if c.ValidUntil != nil && now.After(*c.ValidUntil) {
		return false
	}
	if c.UsageLimit != nil && c.UsedCount >= *c.UsageLimit {
		return false
	}
	return orderAmount >= c.MinOrderAmount
}

// CalculateDiscount returns the discount for an order of the given amount.
// Percentage discounts are capped at MaxDiscount when set; the result is always
// capped at the order amount so totals never go negative.
func (c *Coupon) CalculateDiscount(now time.Time, orderAmount float64) float64 {
	if !c.IsValid(now, orderAmount) {
		return 0
	}

	var discount float64
	if c.DiscountType == DiscountTypePercentage {
		discount = orderAmount * (c.DiscountValue / 100)
		if c.MaxDiscount != nil && discount > *c.MaxDiscount {
			discount = *c.MaxDiscount
		}
	} else {
		discount = c.DiscountValue
	}

	if discount > orderAmount {
		discount = orderAmount
	}
	return discount
}
