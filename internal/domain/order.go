package domain

import (
	"time"

	"github.com/google/uuid"
)

// OrderStatus is the lifecycle state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// IsValid reports whether s is one of the four known statuses
func (s OrderStatus) IsValid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// DeliveryType selects the delivery fee and the estimated delivery window
type DeliveryType string

const (
	DeliveryTypeStandard DeliveryType = "standard"
	DeliveryTypeExpress  DeliveryType = "express"
)

// Pricing constants. The tax rate is a flat 5% GST; delivery fees depend only
// on the delivery type.
const (
	TaxRate             = 0.05
	StandardDeliveryFee = 5.0
	ExpressDeliveryFee  = 25.0
)

// Order is an immutable purchase record. It is created once at checkout and
// only its status (and delivery_date) change afterwards; it is never re-priced.
type Order struct {
	ID                  uuid.UUID    `json:"id" db:"id"`
	UserID              uuid.UUID    `json:"user_id" db:"user_id"`
	Status              OrderStatus  `json:"status" db:"status"`
	PaymentMethod       string       `json:"payment_method" db:"payment_method"`
	DeliveryType        DeliveryType `json:"delivery_type" db:"delivery_type"`
	DeliveryAddress     string       `json:"delivery_address" db:"delivery_address"`
	PhoneNumber         string       `json:"phone_number" db:"phone_number"`
	SpecialInstructions string       `json:"special_instructions" db:"special_instructions"`
	Subtotal            float64      `json:"subtotal" db:"subtotal"`
	TaxAmount           float64      `json:"tax_amount" db:"tax_amount"`
	DeliveryFee         float64      `json:"delivery_fee" db:"delivery_fee"`
	DiscountAmount      float64      `json:"discount_amount" db:"discount_amount"`
	TotalAmount         float64      `json:"total_amount" db:"total_amount"`
	OrderDate           time.Time    `json:"order_date" db:"order_date"`
	EstimatedDelivery   *time.Time   `json:"estimated_delivery,omitempty" db:"estimated_delivery"`
	DeliveryDate        *time.Time   `json:"delivery_date,omitempty" db:"delivery_date"`
	Items               []*OrderItem `json:"items,omitempty" db:"-"`
}

// CalculateTotals derives subtotal, tax, delivery fee and total from the order
// items and the already-set discount. It reads only snapshotted item prices, so
// re-running it against stored rows always reproduces the persisted amounts.
func (o *Order) CalculateTotals() {
	o.Subtotal = 0
	for _, item := range o.Items {
		o.Subtotal += item.Price * float64(item.Quantity)
	}
	o.TaxAmount = o.Subtotal * TaxRate

	if o.DeliveryType == DeliveryTypeExpress {
		o.DeliveryFee = ExpressDeliveryFee
	} else {
		o.DeliveryFee = StandardDeliveryFee
	}

	o.TotalAmount = o.Subtotal + o.TaxAmount + o.DeliveryFee - o.DiscountAmount
}

// CanBeCancelled reports whether a customer may still cancel the order
func (o *Order) CanBeCancelled() bool {
	return o.Status == OrderStatusPending || o.Status == OrderStatusConfirmed
}

// OrderItem snapshots one cart line at checkout time. Price and OriginalPrice
// are the product's prices at order time; later catalog changes never touch
// these rows.
type OrderItem struct {
	ID            uuid.UUID `json:"id" db:"id"`
	OrderID       uuid.UUID `json:"order_id" db:"order_id"`
	ProductID     uuid.UUID `json:"product_id" db:"product_id"`
	ProductName   string    `json:"product_name" db:"-"`
	Quantity      int       `json:"quantity" db:"quantity"`
	Price         float64   `json:"price" db:"price"`
	OriginalPrice *float64  `json:"original_price,omitempty" db:"original_price"`
}

// Subtotal returns the line total at the snapshotted price
func (i *OrderItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// WasDiscounted reports whether the item was on sale when it was ordered
func (i *OrderItem) WasDiscounted() bool {
	return i.OriginalPrice != nil && *i.OriginalPrice > i.Price
}
