package service

import (
	"context"
	"database/sql"
	"fmt"
	"regexp"
	"strings"
	"time"

	"fresh-mart/internal/cart"
	"fresh-mart/internal/domain"
	"fresh-mart/internal/notify"
	"fresh-mart/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Domestic mobile format: exactly ten digits, starting 6-9
var phonePattern = regexp.MustCompile(`^[6-9][0-9]{9}$`)

const (
	expressDeliveryWindow  = 1 * time.Hour
	standardDeliveryWindow = 3 * time.Hour
)

// PlaceOrderInput carries the checkout submission
type PlaceOrderInput struct {
	DeliveryAddress     string
	PhoneNumber         string
	SpecialInstructions string
	DeliveryType        domain.DeliveryType
	PaymentMethod       string
	CouponCode          string
}

// ReorderResult reports how a best-effort reorder went
type ReorderResult struct {
	Added       int `json:"added"`
	Unavailable int `json:"unavailable"`
}

// OrderService is the order workflow engine. Every status mutation goes
// through SetStatus or Cancel so the stock-reconciliation invariant always
// fires; nothing else writes the status column.
type OrderService interface {
	PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, userID uuid.UUID, orderID uuid.UUID) (*domain.Order, error)
	ListOrders(ctx context.Context, userID uuid.UUID, status domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error)
	Cancel(ctx context.Context, userID uuid.UUID, orderID uuid.UUID) error
	Reorder(ctx context.Context, userID uuid.UUID, orderID uuid.UUID) (*ReorderResult, error)

	// Admin surface
	SetStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) error
	AdminGetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error)
	AdminListOrders(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int, error)
}

type orderService struct {
	db          *sql.DB
	runTx       func(ctx context.Context, fn func(tx *sql.Tx) error) error
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	couponRepo  repository.CouponRepository
	userRepo    repository.UserRepository
	cartStore   cart.Store
	cartService CartService
	sender      notify.Sender
	logger      *zap.Logger
}

// NewOrderService creates a new instance of OrderService
func NewOrderService(
	db *sql.DB,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	couponRepo repository.CouponRepository,
	userRepo repository.UserRepository,
	cartStore cart.Store,
	cartService CartService,
	sender notify.Sender,
	logger *zap.Logger,
) OrderService {
	return &orderService{
		db: db,
		runTx: func(ctx context.Context, fn func(tx *sql.Tx) error) error {
			return repository.WithTx(ctx, db, fn)
		},
		orderRepo:   orderRepo,
		productRepo: productRepo,
		couponRepo:  couponRepo,
		userRepo:    userRepo,
		cartStore:   cartStore,
		cartService: cartService,
		sender:      sender,
		logger:      logger,
	}
}

// normalizePhone strips everything but digits
func normalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// PlaceOrder converts the user's cart into an immutable order. Stock is
// re-validated and decremented inside one transaction together with the order
// insert and any coupon redemption; either everything persists or nothing
// does. The cart is cleared only after a successful commit.
func (s *orderService) PlaceOrder(ctx context.Context, userID uuid.UUID, input PlaceOrderInput) (*domain.Order, error) {
	// Input validation happens before any store access
	if strings.TrimSpace(input.DeliveryAddress) == "" {
		return nil, ErrAddressRequired
	}
	if strings.TrimSpace(input.PhoneNumber) == "" {
		return nil, ErrPhoneRequired
	}
	phone := normalizePhone(input.PhoneNumber)
	if !phonePattern.MatchString(phone) {
		return nil, ErrInvalidPhone
	}

	deliveryType := input.DeliveryType
	if deliveryType != domain.DeliveryTypeExpress {
		deliveryType = domain.DeliveryTypeStandard
	}
	paymentMethod := input.PaymentMethod
	if paymentMethod == "" {
		paymentMethod = "cod"
	}

	stored, err := s.cartStore.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	lines, adjustments, err := s.cartService.Normalize(ctx, stored)
	if err != nil {
		return nil, err
	}
	// A cart that no longer matches the catalog never checks out silently.
	// Persist the corrected cart and send the customer back to review it.
	if len(adjustments) > 0 {
		if err := s.cartStore.Save(ctx, userID, lines); err != nil {
			return nil, err
		}
		return nil, &CartChangedError{Adjustments: adjustments}
	}
	if lines.IsEmpty() {
		return nil, ErrCartEmpty
	}

	now := time.Now().UTC()
	estimated := now.Add(standardDeliveryWindow)
	if deliveryType == domain.DeliveryTypeExpress {
		estimated = now.Add(expressDeliveryWindow)
	}

	order := &domain.Order{
		ID:                  uuid.New(),
		UserID:              userID,
		Status:              domain.OrderStatusPending,
		PaymentMethod:       paymentMethod,
		DeliveryType:        deliveryType,
		DeliveryAddress:     strings.TrimSpace(input.DeliveryAddress),
		PhoneNumber:         phone,
		SpecialInstructions: strings.TrimSpace(input.SpecialInstructions),
		OrderDate:           now,
		EstimatedDelivery:   &estimated,
	}

	err = s.runTx(ctx, func(tx *sql.Tx) error {
		// Second stock check, inside the transaction: time has passed since
		// normalization and another checkout may have taken the same units.
		for productID, quantity := range lines {
			product, err := s.productRepo.FindByIDTx(ctx, tx, productID)
			if err != nil {
				if err == repository.ErrProductNotFound {
					return &InsufficientStockError{ProductName: "unknown product"}
				}
				return err
			}

			if err := s.productRepo.DecrementStock(ctx, tx, productID, quantity); err != nil {
				if err == repository.ErrInsufficientStock {
					return &InsufficientStockError{
						ProductName: product.Name,
						Available:   product.StockQuantity,
					}
				}
				return err
			}

			item := &domain.OrderItem{
				ID:          uuid.New(),
				OrderID:     order.ID,
				ProductID:   productID,
				ProductName: product.Name,
				Quantity:    quantity,
				Price:       product.Price,
			}
			if product.IsOnSale() {
				item.OriginalPrice = product.OriginalPrice
			}
			order.Items = append(order.Items, item)
		}

		subtotal := 0.0
		for _, item := range order.Items {
			subtotal += item.Subtotal()
		}

		if code := strings.ToUpper(strings.TrimSpace(input.CouponCode)); code != "" {
			coupon, err := s.couponRepo.FindByCode(ctx, code)
			if err != nil {
				if err == repository.ErrCouponNotFound {
					return ErrInvalidCoupon
				}
				return err
			}
			if !coupon.IsValid(now, subtotal) {
				return ErrInvalidCoupon
			}
			if err := s.couponRepo.IncrementUsage(ctx, tx, coupon.ID); err != nil {
				if err == repository.ErrCouponExhausted {
					return ErrInvalidCoupon
				}
				return err
			}
			order.DiscountAmount = coupon.CalculateDiscount(now, subtotal)
		}

		order.CalculateTotals()

		return s.orderRepo.Create(ctx, tx, order)
	})
	if err != nil {
		return nil, err
	}

	if err := s.cartStore.Clear(ctx, userID); err != nil {
		// The order is committed; a stale cart self-corrects on the next read
		s.logger.Warn("Failed to clear cart after checkout",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
	}

	s.sendConfirmation(ctx, order)

	s.logger.Info("Order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("user_id", userID.String()),
		zap.Float64("total", order.TotalAmount),
	)

	return order, nil
}

// sendConfirmation notifies the customer. Failures are logged, never surfaced:
// the order is already committed.
func (s *orderService) sendConfirmation(ctx context.Context, order *domain.Order) {
	user, err := s.userRepo.FindByID(ctx, order.UserID)
	if err != nil {
		s.logger.Warn("Failed to load user for order confirmation",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
		return
	}

	subject := fmt.Sprintf("Order Confirmation - #%s", order.ID)
	body := fmt.Sprintf(
		"Thank you for your order!\n\nOrder ID: %s\nTotal Amount: %.2f\nEstimated Delivery: %s\n",
		order.ID,
		order.TotalAmount,
		order.EstimatedDelivery.Format("02 January, 2006 at 03:04 PM"),
	)

	if err := s.sender.Send(ctx, user.Email, subject, body, ""); err != nil {
		s.logger.Warn("Failed to send order confirmation",
			zap.String("order_id", order.ID.String()),
			zap.Error(err),
		)
	}
}

// GetOrder retrieves an order for its owner. Non-owners get ErrAccessDenied
// regardless of whether the order exists.
func (s *orderService) GetOrder(ctx context.Context, userID uuid.UUID, orderID uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrAccessDenied
	}
	return order, nil
}

// ListOrders retrieves the user's order history, newest first
func (s *orderService) ListOrders(ctx context.Context, userID uuid.UUID, status domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error) {
	if status != "" && !status.IsValid() {
		return nil, 0, ErrInvalidOrderStatus
	}
	return s.orderRepo.ListByUser(ctx, userID, status, page, pageSize)
}

// Cancel is the customer-driven cancellation, allowed only while the order is
// pending or confirmed. It restores the exact quantities deducted at order
// time, in one transaction with the status change.
func (s *orderService) Cancel(ctx context.Context, userID uuid.UUID, orderID uuid.UUID) error {
	return s.runTx(ctx, func(tx *sql.Tx) error {
		order, err := s.orderRepo.FindByIDTx(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if order.UserID != userID {
			return ErrAccessDenied
		}
		if !order.CanBeCancelled() {
			return ErrOrderNotCancellable
		}

		for _, item := range order.Items {
			if err := s.productRepo.RestoreStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
				return err
			}
		}

		if err := s.orderRepo.UpdateStatus(ctx, tx, orderID, domain.OrderStatusCancelled, nil); err != nil {
			return err
		}

		s.logger.Info("Order cancelled",
			zap.String("order_id", orderID.String()),
			zap.String("user_id", userID.String()),
		)
		return nil
	})
}

// Reorder adds a past order's items back into the cart at their original
// quantities, best effort: items whose product is inactive or lacks stock are
// skipped and counted, everything else is merged in.
func (s *orderService) Reorder(ctx context.Context, userID uuid.UUID, orderID uuid.UUID) (*ReorderResult, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, ErrAccessDenied
	}

	c, err := s.cartStore.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	result := &ReorderResult{}
	for _, item := range order.Items {
		product, err := s.productRepo.FindByID(ctx, item.ProductID)
		if err != nil {
			if err == repository.ErrProductNotFound {
				result.Unavailable++
				continue
			}
			return nil, err
		}

		if !product.IsActive || product.StockQuantity < item.Quantity {
			result.Unavailable++
			continue
		}

		c[item.ProductID] += item.Quantity
		result.Added++
	}

	if result.Added > 0 {
		if err := s.cartStore.Save(ctx, userID, c); err != nil {
			return nil, err
		}
	}

	return result, nil
}

// SetStatus is the single admin transition function. Moving into cancelled
// restores every item's stock; moving out of cancelled re-validates and
// re-decrements stock for every item, rejecting the whole transition on any
// shortfall; reaching delivered stamps the delivery date. All of it commits
// atomically with the status change.
func (s *orderService) SetStatus(ctx context.Context, orderID uuid.UUID, status domain.OrderStatus) error {
	if !status.IsValid() {
		return ErrInvalidOrderStatus
	}

	return s.runTx(ctx, func(tx *sql.Tx) error {
		order, err := s.orderRepo.FindByIDTx(ctx, tx, orderID)
		if err != nil {
			return err
		}

		oldStatus := order.Status

		switch {
		case status == domain.OrderStatusCancelled && oldStatus != domain.OrderStatusCancelled:
			for _, item := range order.Items {
				if err := s.productRepo.RestoreStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
					return err
				}
			}

		case oldStatus == domain.OrderStatusCancelled && status != domain.OrderStatusCancelled:
			for _, item := range order.Items {
				if err := s.productRepo.DecrementStock(ctx, tx, item.ProductID, item.Quantity); err != nil {
					if err == repository.ErrInsufficientStock {
						product, pErr := s.productRepo.FindByIDTx(ctx, tx, item.ProductID)
						available := 0
						name := item.ProductName
						if pErr == nil {
							available = product.StockQuantity
							name = product.Name
						}
						return &InsufficientStockError{ProductName: name, Available: available}
					}
					return err
				}
			}
		}

		var deliveryDate *time.Time
		if status == domain.OrderStatusDelivered {
			now := time.Now().UTC()
			deliveryDate = &now
		}

		if err := s.orderRepo.UpdateStatus(ctx, tx, orderID, status, deliveryDate); err != nil {
			return err
		}

		s.logger.Info("Order status changed",
			zap.String("order_id", orderID.String()),
			zap.String("from", string(oldStatus)),
			zap.String("to", string(status)),
		)
		return nil
	})
}

// AdminGetOrder retrieves any order with its items
func (s *orderService) AdminGetOrder(ctx context.Context, orderID uuid.UUID) (*domain.Order, error) {
	return s.orderRepo.FindByID(ctx, orderID)
}

// AdminListOrders retrieves orders for the back office
func (s *orderService) AdminListOrders(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, 0, ErrInvalidOrderStatus
	}
	return s.orderRepo.List(ctx, filter)
}
