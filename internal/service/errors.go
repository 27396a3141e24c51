package service

import (
	"errors"
	"fmt"
)

// Validation errors are rejected before any store access
var (
	ErrCartEmpty           = errors.New("cart is empty")
	ErrInvalidQuantity     = errors.New("quantity must be a positive number")
	ErrAddressRequired     = errors.New("delivery address is required")
	ErrPhoneRequired       = errors.New("phone number is required")
	ErrInvalidPhone        = errors.New("please enter a valid mobile number")
	ErrInvalidOrderStatus  = errors.New("invalid order status")
	ErrInvalidCoupon       = errors.New("coupon is not valid for this order")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
	ErrAccessDenied        = errors.New("access denied")
	ErrProductUnavailable  = errors.New("product not found or inactive")
	ErrProductOutOfStock   = errors.New("product is out of stock")
)

// InsufficientStockError reports a stock shortfall for a specific product.
// Available is how many units can still be taken (possibly zero).
type InsufficientStockError struct {
	ProductName string
	Available   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: only %d available", e.ProductName, e.Available)
}

// LimitedStockError rejects a cart addition that would exceed stock, reporting
// how many more units of the product could still be added
type LimitedStockError struct {
	ProductName string
	CanAdd      int
}

func (e *LimitedStockError) Error() string {
	return fmt.Sprintf("cannot add more %s: only %d more available", e.ProductName, e.CanAdd)
}

// CartChangedError aborts a checkout whose cart no longer matches the live
// catalog. Adjustments lists every line that was removed or clamped so the
// customer can review the cart before retrying.
type CartChangedError struct {
	Adjustments []CartAdjustment
}

func (e *CartChangedError) Error() string {
	return fmt.Sprintf("cart changed since it was last viewed: %d item(s) affected", len(e.Adjustments))
}
