package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"fresh-mart/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrOrderNotFound = errors.New("order not found")
)

// OrderFilter describes an administrative order listing query
type OrderFilter struct {
	Status   domain.OrderStatus
	Date     *time.Time
	Query    string
	Page     int
	PageSize int
}

// OrderRepository defines the interface for order data access. Order rows and
// their items are written exactly once, inside the caller's transaction; only
// the status and delivery_date columns mutate afterwards.
type OrderRepository interface {
	Create(ctx context.Context, q DBTX, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	FindByIDTx(ctx context.Context, q DBTX, id uuid.UUID) (*domain.Order, error)
	ListByUser(ctx context.Context, userID uuid.UUID, status domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error)
	List(ctx context.Context, filter OrderFilter) ([]*domain.Order, int, error)
	UpdateStatus(ctx context.Context, q DBTX, id uuid.UUID, status domain.OrderStatus, deliveryDate *time.Time) error
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, user_id, status, payment_method, delivery_type, delivery_address, phone_number,
		special_instructions, subtotal, tax_amount, delivery_fee, discount_amount, total_amount,
		order_date, estimated_delivery, delivery_date`

func scanOrder(row interface{ Scan(...interface{}) error }) (*domain.Order, error) {
	order := &domain.Order{}
	err := row.Scan(
		&order.ID,
		&order.UserID,
		&order.Status,
		&order.PaymentMethod,
		&order.DeliveryType,
		&order.DeliveryAddress,
		&order.PhoneNumber,
		&order.SpecialInstructions,
		&order.Subtotal,
		&order.TaxAmount,
		&order.DeliveryFee,
		&order.DiscountAmount,
		&order.TotalAmount,
		&order.OrderDate,
		&order.EstimatedDelivery,
		&order.DeliveryDate,
	)
	if err != nil {
		return nil, err
	}
	return order, nil
}

// Create inserts the order row and all of its item snapshots through the given
// handle. Callers run it inside the same transaction as the stock decrements so
// the order and the stock change persist or fail as one unit.
func (r *orderRepository) Create(ctx context.Context, q DBTX, order *domain.Order) error {
	query := `
		INSERT INTO orders (id, user_id, status, payment_method, delivery_type, delivery_address,
			phone_number, special_instructions, subtotal, tax_amount, delivery_fee, discount_amount,
			total_amount, order_date, estimated_delivery, delivery_date)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := q.ExecContext(
		ctx,
		query,
		order.ID,
		order.UserID,
		order.Status,
		order.PaymentMethod,
		order.DeliveryType,
		order.DeliveryAddress,
		order.PhoneNumber,
		order.SpecialInstructions,
		order.Subtotal,
		order.TaxAmount,
		order.DeliveryFee,
		order.DiscountAmount,
		order.TotalAmount,
		order.OrderDate,
		order.EstimatedDelivery,
		order.DeliveryDate,
	)
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}

	itemQuery := `
		INSERT INTO order_items (id, order_id, product_id, quantity, price, original_price)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	for _, item := range order.Items {
		_, err := q.ExecContext(
			ctx,
			itemQuery,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Quantity,
			item.Price,
			item.OriginalPrice,
		)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}

	return nil
}

// FindByID retrieves an order with its items
func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	return r.FindByIDTx(ctx, r.db, id)
}

// FindByIDTx retrieves an order with its items through the given handle
func (r *orderRepository) FindByIDTx(ctx context.Context, q DBTX, id uuid.UUID) (*domain.Order, error) {
	query := fmt.Sprintf(`SELECT %s FROM orders WHERE id = $1`, orderColumns)

	order, err := scanOrder(q.QueryRowContext(ctx, query, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	items, err := r.itemsForOrder(ctx, q, id)
	if err != nil {
		return nil, err
	}
	order.Items = items

	return order, nil
}

func (r *orderRepository) itemsForOrder(ctx context.Context, q DBTX, orderID uuid.UUID) ([]*domain.OrderItem, error) {
	query := `
		SELECT oi.id, oi.order_id, oi.product_id, p.name, oi.quantity, oi.price, oi.original_price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1
		ORDER BY p.name ASC
	`

	rows, err := q.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("failed to list order items: %w", err)
	}
	defer rows.Close()

	items := []*domain.OrderItem{}
	for rows.Next() {
		item := &domain.OrderItem{}
		err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.Price,
			&item.OriginalPrice,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order item: %w", err)
		}
		items = append(items, item)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating order items: %w", err)
	}

	return items, nil
}

// ListByUser retrieves a customer's orders, newest first, with an optional
// status filter
func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID, status domain.OrderStatus, page, pageSize int) ([]*domain.Order, int, error) {
	conditions := []string{"user_id = $1"}
	args := []interface{}{userID}
	argIndex := 2

	if status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, status)
		argIndex++
	}

	return r.listOrders(ctx, conditions, args, argIndex, page, pageSize)
}

// List retrieves orders for the admin back office with status, date and search
// filters
func (r *orderRepository) List(ctx context.Context, filter OrderFilter) ([]*domain.Order, int, error) {
	conditions := []string{}
	args := []interface{}{}
	argIndex := 1

	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIndex))
		args = append(args, filter.Status)
		argIndex++
	}

	if filter.Date != nil {
		dayStart := time.Date(filter.Date.Year(), filter.Date.Month(), filter.Date.Day(), 0, 0, 0, 0, time.UTC)
		conditions = append(conditions, fmt.Sprintf("order_date >= $%d AND order_date < $%d", argIndex, argIndex+1))
		args = append(args, dayStart, dayStart.Add(24*time.Hour))
		argIndex += 2
	}

	if q := strings.TrimSpace(filter.Query); q != "" {
		conditions = append(conditions, fmt.Sprintf(
			`(phone_number ILIKE $%d OR user_id IN (SELECT id FROM users WHERE username ILIKE $%d OR email ILIKE $%d))`,
			argIndex, argIndex, argIndex))
		args = append(args, "%"+q+"%")
		argIndex++
	}

	return r.listOrders(ctx, conditions, args, argIndex, filter.Page, filter.PageSize)
}

func (r *orderRepository) listOrders(ctx context.Context, conditions []string, args []interface{}, argIndex, page, pageSize int) ([]*domain.Order, int, error) {
	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM orders %s", whereClause)
	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	offset := (page - 1) * pageSize

	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		%s
		ORDER BY order_date DESC
		LIMIT $%d OFFSET $%d
	`, orderColumns, whereClause, argIndex, argIndex+1)

	args = append(args, pageSize, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating orders: %w", err)
	}

	for _, order := range orders {
		items, err := r.itemsForOrder(ctx, r.db, order.ID)
		if err != nil {
			return nil, 0, err
		}
		order.Items = items
	}

	return orders, total, nil
}

// UpdateStatus sets a new status (and delivery date, when provided) through the
// given handle so it can ride the stock-reconciliation transaction
func (r *orderRepository) UpdateStatus(ctx context.Context, q DBTX, id uuid.UUID, status domain.OrderStatus, deliveryDate *time.Time) error {
	query := `UPDATE orders SET status = $2, delivery_date = COALESCE($3, delivery_date) WHERE id = $1`

	result, err := q.ExecContext(ctx, query, id, status, deliveryDate)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}
