package service

import (
	"context"
	"sync"
	"time"

	"fresh-mart/internal/domain"
	"fresh-mart/internal/repository"

	"github.com/google/uuid"
)

// Mock repositories for testing

type mockProductRepository struct {
	mu         sync.Mutex
	products   map[uuid.UUID]*domain.Product
	referenced map[uuid.UUID]bool
	lastFilter repository.ProductFilter
}

func newMockProductRepository() *mockProductRepository {
	return &mockProductRepository{
		products:   make(map[uuid.UUID]*domain.Product),
		referenced: make(map[uuid.UUID]bool),
	}
}

func (m *mockProductRepository) put(p *domain.Product) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[p.ID] = p
}

func (m *mockProductRepository) Create(ctx context.Context, product *domain.Product) error {
	m.put(product)
	return nil
}

func (m *mockProductRepository) Update(ctx context.Context, product *domain.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[product.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.products[product.ID] = product
	return nil
}

func (m *mockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	copied := *product
	return &copied, nil
}

func (m *mockProductRepository) FindByIDTx(ctx context.Context, q repository.DBTX, id uuid.UUID) (*domain.Product, error) {
	return m.FindByID(ctx, id)
}

func (m *mockProductRepository) FindByName(ctx context.Context, name string) (*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, product := range m.products {
		if product.Name == name {
			copied := *product
			return &copied, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) List(ctx context.Context, filter repository.ProductFilter) ([]*domain.Product, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastFilter = filter
	result := []*domain.Product{}
	for _, product := range m.products {
		if filter.ActiveOnly && !product.IsActive {
			continue
		}
		copied := *product
		result = append(result, &copied)
	}
	return result, len(result), nil
}

func (m *mockProductRepository) Featured(ctx context.Context, limit int) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*domain.Product{}
	for _, product := range m.products {
		if product.IsFeatured && product.IsActive {
			copied := *product
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *mockProductRepository) Related(ctx context.Context, categoryID, exclude uuid.UUID, limit int) ([]*domain.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*domain.Product{}
	for _, product := range m.products {
		if product.CategoryID == categoryID && product.ID != exclude && product.IsActive {
			copied := *product
			result = append(result, &copied)
		}
	}
	return result, nil
}

func (m *mockProductRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	product.IsActive = active
	return nil
}

func (m *mockProductRepository) HasOrderReferences(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.referenced[id], nil
}

func (m *mockProductRepository) DecrementStock(ctx context.Context, q repository.DBTX, id uuid.UUID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[id]
	if !ok || product.StockQuantity < quantity {
		return repository.ErrInsufficientStock
	}
	product.StockQuantity -= quantity
	return nil
}

func (m *mockProductRepository) RestoreStock(ctx context.Context, q repository.DBTX, id uuid.UUID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	product, ok := m.products[id]
	if !ok {
		return repository.ErrProductNotFound
	}
	product.StockQuantity += quantity
	return nil
}

type mockOrderRepository struct {
	mu     sync.Mutex
	orders map[uuid.UUID]*domain.Order
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[uuid.UUID]*domain.Order)}
}

func (m *mockOrderRepository) Create(ctx context.Context, q repository.DBTX, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[order.ID] = order
	return nil
}

func (m *mockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	return order, nil
}

func (m *mockOrderRepository) FindByIDTx(ctx context.Context, q repository.DBTX, id uuid.UUID) (*domain.Order, error) {
	return m.FindByID(ctx, id)
}

func (m *mockOrderRepository) ListByUser(ctx context.Context, userID uuid.UUID, status domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*domain.Order{}
	for _, order := range m.orders {
		if order.UserID != userID {
			continue
		}
		if status != "" && order.Status != status {
			continue
		}
		result = append(result, order)
	}
	return result, len(result), nil
}

func (m *mockOrderRepository) List(ctx context.Context, filter repository.OrderFilter) ([]*domain.Order, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*domain.Order{}
	for _, order := range m.orders {
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		result = append(result, order)
	}
	return result, len(result), nil
}

func (m *mockOrderRepository) UpdateStatus(ctx context.Context, q repository.DBTX, id uuid.UUID, status domain.OrderStatus, deliveryDate *time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	order.Status = status
	if deliveryDate != nil {
		order.DeliveryDate = deliveryDate
	}
	return nil
}

type mockCouponRepository struct {
	mu      sync.Mutex
	coupons map[string]*domain.Coupon
}

func newMockCouponRepository() *mockCouponRepository {
	return &mockCouponRepository{coupons: make(map[string]*domain.Coupon)}
}

func (m *mockCouponRepository) Create(ctx context.Context, coupon *domain.Coupon) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.coupons[coupon.Code]; exists {
		return repository.ErrCouponCodeTaken
	}
	m.coupons[coupon.Code] = coupon
	return nil
}

func (m *mockCouponRepository) FindByCode(ctx context.Context, code string) (*domain.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	coupon, ok := m.coupons[code]
	if !ok {
		return nil, repository.ErrCouponNotFound
	}
	return coupon, nil
}

func (m *mockCouponRepository) List(ctx context.Context) ([]*domain.Coupon, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*domain.Coupon{}
	for _, coupon := range m.coupons {
		result = append(result, coupon)
	}
	return result, nil
}

func (m *mockCouponRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, coupon := range m.coupons {
		if coupon.ID == id {
			coupon.IsActive = active
			return nil
		}
	}
	return repository.ErrCouponNotFound
}

func (m *mockCouponRepository) IncrementUsage(ctx context.Context, q repository.DBTX, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, coupon := range m.coupons {
		if coupon.ID == id {
			if coupon.UsageLimit != nil && coupon.UsedCount >= *coupon.UsageLimit {
				return repository.ErrCouponExhausted
			}
			coupon.UsedCount++
			return nil
		}
	}
	return repository.ErrCouponNotFound
}

type mockUserRepository struct {
	mu    sync.Mutex
	users map[uuid.UUID]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[uuid.UUID]*domain.User)}
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email || existing.Username == user.Username {
			return repository.ErrUserAlreadyExists
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.ID]; !ok {
		return repository.ErrUserNotFound
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	user.LastLogin = &at
	return nil
}

func (m *mockUserRepository) ListCustomers(ctx context.Context, query string, page, pageSize int) ([]*domain.User, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*domain.User{}
	for _, user := range m.users {
		if !user.IsAdmin {
			result = append(result, user)
		}
	}
	return result, len(result), nil
}

func (m *mockUserRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok || user.IsAdmin {
		return repository.ErrUserNotFound
	}
	user.IsActive = active
	return nil
}

type mockRefreshTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{tokens: make(map[string]*domain.RefreshToken)}
}

func (m *mockRefreshTokenRepository) Create(ctx context.Context, token *domain.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(ctx context.Context, token string) (*domain.RefreshToken, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	refreshToken, exists := m.tokens[token]
	if !exists {
		return nil, repository.ErrRefreshTokenNotFound
	}
	if refreshToken.Revoked {
		return nil, repository.ErrRefreshTokenRevoked
	}
	return refreshToken, nil
}

func (m *mockRefreshTokenRepository) Revoke(ctx context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, refreshToken := range m.tokens {
		if refreshToken.UserID == userID {
			refreshToken.Revoked = true
		}
	}
	return nil
}

// mockCartStore is an in-memory cart.Store
type mockCartStore struct {
	mu    sync.Mutex
	carts map[uuid.UUID]domain.Cart
}

func newMockCartStore() *mockCartStore {
	return &mockCartStore{carts: make(map[uuid.UUID]domain.Cart)}
}

func (m *mockCartStore) Get(ctx context.Context, userID uuid.UUID) (domain.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[userID]
	if !ok {
		return domain.Cart{}, nil
	}
	return c.Clone(), nil
}

func (m *mockCartStore) Save(ctx context.Context, userID uuid.UUID, c domain.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.carts[userID] = c.Clone()
	return nil
}

func (m *mockCartStore) Clear(ctx context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.carts, userID)
	return nil
}

// mockSender records notifications
type mockSender struct {
	mu   sync.Mutex
	sent []string
}

func (m *mockSender) Send(ctx context.Context, recipient, subject, body, htmlBody string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, recipient)
	return nil
}

type mockCategoryRepository struct {
	mu         sync.Mutex
	categories map[uuid.UUID]*domain.Category
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[uuid.UUID]*domain.Category)}
}

func (m *mockCategoryRepository) Create(ctx context.Context, category *domain.Category) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.categories[category.ID] = category
	return nil
}

func (m *mockCategoryRepository) List(ctx context.Context, activeOnly bool) ([]*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*domain.Category{}
	for _, category := range m.categories {
		if activeOnly && !category.IsActive {
			continue
		}
		result = append(result, category)
	}
	return result, nil
}

func (m *mockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	category, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return category, nil
}

func (m *mockCategoryRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	category, ok := m.categories[id]
	if !ok {
		return repository.ErrCategoryNotFound
	}
	category.IsActive = active
	return nil
}

type mockWishlistRepository struct {
	mu    sync.Mutex
	items map[uuid.UUID]map[uuid.UUID]*domain.WishlistItem
}

func newMockWishlistRepository() *mockWishlistRepository {
	return &mockWishlistRepository{items: make(map[uuid.UUID]map[uuid.UUID]*domain.WishlistItem)}
}

func (m *mockWishlistRepository) Add(ctx context.Context, item *domain.WishlistItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byUser, ok := m.items[item.UserID]
	if !ok {
		byUser = make(map[uuid.UUID]*domain.WishlistItem)
		m.items[item.UserID] = byUser
	}
	if _, exists := byUser[item.ProductID]; exists {
		return repository.ErrWishlistDuplicate
	}
	byUser[item.ProductID] = item
	return nil
}

func (m *mockWishlistRepository) Remove(ctx context.Context, userID, productID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	byUser := m.items[userID]
	if _, exists := byUser[productID]; !exists {
		return repository.ErrWishlistItemNotFound
	}
	delete(byUser, productID)
	return nil
}

func (m *mockWishlistRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.WishlistItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := []*domain.WishlistItem{}
	for _, item := range m.items[userID] {
		result = append(result, item)
	}
	return result, nil
}
