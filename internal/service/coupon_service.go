package service

import (
	"context"
	"strings"
	"time"

	"fresh-mart/internal/domain"
	"fresh-mart/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateCouponInput carries a new discount code
type CreateCouponInput struct {
	Code           string
	Description    string
	DiscountType   domain.DiscountType
	DiscountValue  float64
	MinOrderAmount float64
	MaxDiscount    *float64
	UsageLimit     *int
	ValidFrom      time.Time
	ValidUntil     *time.Time
}

// CouponPreview is the result of checking a code against a cart subtotal
// before checkout
type CouponPreview struct {
	Code     string  `json:"code"`
	Discount float64 `json:"discount"`
}

// CouponService covers admin coupon management plus the customer-facing
// pre-checkout validation
type CouponService interface {
	Create(ctx context.Context, input CreateCouponInput) (*domain.Coupon, error)
	List(ctx context.Context) ([]*domain.Coupon, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error

	// Preview evaluates a code against an order amount without redeeming it
	Preview(ctx context.Context, code string, orderAmount float64) (*CouponPreview, error)
}

type couponService struct {
	couponRepo repository.CouponRepository
	logger     *zap.Logger
}

// NewCouponService creates a new instance of CouponService
func NewCouponService(couponRepo repository.CouponRepository, logger *zap.Logger) CouponService {
	return &couponService{couponRepo: couponRepo, logger: logger}
}

// Create registers a new coupon. Codes are stored uppercase so lookups are
// case-insensitive.
func (s *couponService) Create(ctx context.Context, input CreateCouponInput) (*domain.Coupon, error) {
	code := strings.ToUpper(strings.TrimSpace(input.Code))
	if code == "" {
		return nil, ErrInvalidCoupon
	}
	if input.DiscountType != domain.DiscountTypePercentage && input.DiscountType != domain.DiscountTypeFixed {
		return nil, ErrInvalidCoupon
	}
	if input.DiscountValue <= 0 {
		return nil, ErrInvalidCoupon
	}

	validFrom := input.ValidFrom
	if validFrom.IsZero() {
		validFrom = time.Now().UTC()
	}

	coupon := &domain.Coupon{
		ID:             uuid.New(),
		Code:           code,
		Description:    strings.TrimSpace(input.Description),
		DiscountType:   input.DiscountType,
		DiscountValue:  input.DiscountValue,
		MinOrderAmount: input.MinOrderAmount,
		MaxDiscount:    input.MaxDiscount,
		UsageLimit:     input.UsageLimit,
		IsActive:       true,
		ValidFrom:      validFrom,
		ValidUntil:     input.ValidUntil,
	}

	if err := s.couponRepo.Create(ctx, coupon); err != nil {
		return nil, err
	}

	s.logger.Info("Coupon created",
		zap.String("coupon_id", coupon.ID.String()),
		zap.String("code", coupon.Code),
	)
	return coupon, nil
}

// List retrieves all coupons for the back office
func (s *couponService) List(ctx context.Context) ([]*domain.Coupon, error) {
	return s.couponRepo.List(ctx)
}

// SetActive toggles a coupon without losing its usage history
func (s *couponService) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.couponRepo.SetActive(ctx, id, active)
}

// Preview checks a code against an order amount. It never increments usage;
// redemption happens inside the checkout transaction.
func (s *couponService) Preview(ctx context.Context, code string, orderAmount float64) (*CouponPreview, error) {
	coupon, err := s.couponRepo.FindByCode(ctx, strings.ToUpper(strings.TrimSpace(code)))
	if err != nil {
		if err == repository.ErrCouponNotFound {
			return nil, ErrInvalidCoupon
		}
		return nil, err
	}

	now := time.Now().UTC()
	if !coupon.IsValid(now, orderAmount) {
		return nil, ErrInvalidCoupon
	}

	return &CouponPreview{
		Code:     coupon.Code,
		Discount: coupon.CalculateDiscount(now, orderAmount),
	}, nil
}
