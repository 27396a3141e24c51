package service

import (
	"context"
	"strings"

	"fresh-mart/internal/domain"
	"fresh-mart/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CreateProductInput carries a new catalog entry
type CreateProductInput struct {
	Name          string
	Description   string
	Price         float64
	OriginalPrice *float64
	StockQuantity int
	MinStock      int
	Unit          string
	ImageURL      string
	CategoryID    uuid.UUID
	IsFeatured    bool
}

// UpdateProductInput mirrors CreateProductInput for edits
type UpdateProductInput struct {
	Name          string
	Description   string
	Price         float64
	OriginalPrice *float64
	StockQuantity int
	MinStock      int
	Unit          string
	ImageURL      string
	CategoryID    uuid.UUID
	IsFeatured    bool
}

// CatalogService covers product browsing for customers and product/category
// management for the back office
type CatalogService interface {
	ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	FeaturedProducts(ctx context.Context, limit int) ([]*domain.Product, error)
	RelatedProducts(ctx context.Context, productID uuid.UUID, limit int) ([]*domain.Product, error)
	ListCategories(ctx context.Context, activeOnly bool) ([]*domain.Category, error)

	CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error)
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	SetProductActive(ctx context.Context, id uuid.UUID, active bool) error

	CreateCategory(ctx context.Context, name, description string) (*domain.Category, error)
	SetCategoryActive(ctx context.Context, id uuid.UUID, active bool) error
}

type catalogService struct {
	productRepo  repository.ProductRepository
	categoryRepo repository.CategoryRepository
	logger       *zap.Logger
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(productRepo repository.ProductRepository, categoryRepo repository.CategoryRepository, logger *zap.Logger) CatalogService {
	return &catalogService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		logger:       logger,
	}
}

// ListProducts retrieves a filtered, paginated product page
func (s *catalogService) ListProducts(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PageSize < 1 || filter.PageSize > 100 {
		filter.PageSize = 12
	}
	return s.productRepo.List(ctx, filter)
}

// GetProduct retrieves a single product
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	return s.productRepo.FindByID(ctx, id)
}

// FeaturedProducts retrieves the storefront's featured selection
func (s *catalogService) FeaturedProducts(ctx context.Context, limit int) ([]*domain.Product, error) {
	if limit < 1 || limit > 50 {
		limit = 8
	}
	return s.productRepo.Featured(ctx, limit)
}

// RelatedProducts retrieves other active products from the same category
func (s *catalogService) RelatedProducts(ctx context.Context, productID uuid.UUID, limit int) ([]*domain.Product, error) {
	if limit < 1 || limit > 50 {
		limit = 4
	}
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	return s.productRepo.Related(ctx, product.CategoryID, product.ID, limit)
}

// ListCategories retrieves categories; customers see only active ones
func (s *catalogService) ListCategories(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx, activeOnly)
}

// CreateProduct adds a product to the catalog. Names are unique across the
// whole catalog, active or not.
func (s *catalogService) CreateProduct(ctx context.Context, input CreateProductInput) (*domain.Product, error) {
	name := strings.TrimSpace(input.Name)
	if _, err := s.categoryRepo.FindByID(ctx, input.CategoryID); err != nil {
		return nil, err
	}
	if _, err := s.productRepo.FindByName(ctx, name); err == nil {
		return nil, repository.ErrProductNameTaken
	} else if err != repository.ErrProductNotFound {
		return nil, err
	}

	product := &domain.Product{
		ID:            uuid.New(),
		Name:          name,
		Description:   strings.TrimSpace(input.Description),
		Price:         input.Price,
		OriginalPrice: input.OriginalPrice,
		StockQuantity: input.StockQuantity,
		MinStock:      input.MinStock,
		Unit:          input.Unit,
		ImageURL:      input.ImageURL,
		CategoryID:    input.CategoryID,
		IsActive:      true,
		IsFeatured:    input.IsFeatured,
	}

	if err := s.productRepo.Create(ctx, product); err != nil {
		return nil, err
	}

	s.logger.Info("Product created",
		zap.String("product_id", product.ID.String()),
		zap.String("name", product.Name),
	)
	return product, nil
}

// UpdateProduct edits a catalog entry. Price changes never touch past orders;
// those carry their own snapshots.
func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, input UpdateProductInput) (*domain.Product, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	name := strings.TrimSpace(input.Name)
	if name != product.Name {
		if existing, err := s.productRepo.FindByName(ctx, name); err == nil && existing.ID != id {
			return nil, repository.ErrProductNameTaken
		} else if err != nil && err != repository.ErrProductNotFound {
			return nil, err
		}
	}
	if input.CategoryID != product.CategoryID {
		if _, err := s.categoryRepo.FindByID(ctx, input.CategoryID); err != nil {
			return nil, err
		}
	}

	product.Name = name
	product.Description = strings.TrimSpace(input.Description)
	product.Price = input.Price
	product.OriginalPrice = input.OriginalPrice
	product.StockQuantity = input.StockQuantity
	product.MinStock = input.MinStock
	product.Unit = input.Unit
	product.ImageURL = input.ImageURL
	product.CategoryID = input.CategoryID
	product.IsFeatured = input.IsFeatured

	if err := s.productRepo.Update(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct removes a product unless an order references it. Referenced
// products are left untouched so historical orders keep resolving; the admin
// can deactivate them separately.
func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	referenced, err := s.productRepo.HasOrderReferences(ctx, id)
	if err != nil {
		return err
	}
	if referenced {
		return repository.ErrProductReferenced
	}
	return s.productRepo.Delete(ctx, id)
}

// SetProductActive toggles storefront visibility
func (s *catalogService) SetProductActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.productRepo.SetActive(ctx, id, active)
}

// CreateCategory adds a category
func (s *catalogService) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	category := &domain.Category{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
		IsActive:    true,
	}
	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}
	return category, nil
}

// SetCategoryActive toggles a category; its products keep their own flags
func (s *catalogService) SetCategoryActive(ctx context.Context, id uuid.UUID, active bool) error {
	return s.categoryRepo.SetActive(ctx, id, active)
}
