package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"wishyoulucky/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderNumberTaken = errors.New("order number already taken")
)

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id int64) (*domain.Order, error)
	FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error)
	List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	Search(ctx context.Context, term string, limit int) ([]*domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus, confirmedAt *time.Time) error
	UpdateTracking(ctx context.Context, id int64, trackingNumber, adminNotes string) error
	UpdatePricing(ctx context.Context, order *domain.Order) error
	AttachPaymentSlip(ctx context.Context, id int64, slipURL, method string, paidAmount decimal.Decimal) error
	MarkRead(ctx context.Context, id int64) error
	CountUnread(ctx context.Context) (int, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `
	o.id, o.order_number, o.user_id,
	o.customer_name, o.customer_phone, o.customer_address, o.customer_email, o.customer_note,
	o.items, o.subtotal, o.shipping_cost, o.discount, o.deposit, o.paid_amount, o.total_price,
	o.status, o.payment_method, o.payment_slip_url, o.tracking_number, o.admin_notes,
	o.admin_read, o.payment_confirmed_at, o.created_at, o.updated_at
`

// itemSKUMatch matches orders where any line item SKU contains the pattern in $n.
const itemSKUMatch = `EXISTS (SELECT 1 FROM jsonb_array_elements(o.items) item WHERE item->>'sku' ILIKE %s)`

func scanOrder(row rowScanner) (*domain.Order, error) {
	order := &domain.Order{}
	var (
		userID      uuid.NullUUID
		items       []byte
		confirmedAt sql.NullTime
	)

	err := row.Scan(
		&order.ID,
		&order.OrderNumber,
		&userID,
		&order.Customer.Name,
		&order.Customer.Phone,
		&order.Customer.Address,
		&order.Customer.Email,
		&order.Customer.Note,
		&items,
		&order.Subtotal,
		&order.ShippingCost,
		&order.Discount,
		&order.Deposit,
		&order.PaidAmount,
		&order.TotalPrice,
		&order.Status,
		&order.PaymentMethod,
		&order.PaymentSlipURL,
		&order.TrackingNumber,
		&order.AdminNotes,
		&order.AdminRead,
		&confirmedAt,
		&order.CreatedAt,
		&order.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if userID.Valid {
		id := userID.UUID
		order.UserID = &id
	}
	if confirmedAt.Valid {
		t := confirmedAt.Time
		order.PaymentConfirmedAt = &t
	}
	order.Items = []domain.OrderItem{}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &order.Items); err != nil {
			return nil, fmt.Errorf("failed to decode order items: %w", err)
		}
	}

	return order, nil
}

func collectOrders(rows *sql.Rows) ([]*domain.Order, error) {
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

// Create inserts a new order. A clash on order_number yields ErrOrderNumberTaken so the
// caller can retry with a fresh number.
func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	items, err := json.Marshal(order.Items)
	if err != nil {
		return fmt.Errorf("failed to encode order items: %w", err)
	}

	var userID interface{}
	if order.UserID != nil {
		userID = *order.UserID
	}

	query := `
		INSERT INTO orders (
			order_number, user_id,
			customer_name, customer_phone, customer_address, customer_email, customer_note,
			items, subtotal, shipping_cost, discount, deposit, paid_amount, total_price,
			status, payment_method
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
		RETURNING id, admin_read, created_at, updated_at
	`

	err = r.db.QueryRowContext(ctx, query,
		order.OrderNumber,
		userID,
		order.Customer.Name,
		order.Customer.Phone,
		order.Customer.Address,
		order.Customer.Email,
		order.Customer.Note,
		string(items),
		order.Subtotal,
		order.ShippingCost,
		order.Discount,
		order.Deposit,
		order.PaidAmount,
		order.TotalPrice,
		order.Status,
		order.PaymentMethod,
	).Scan(&order.ID, &order.AdminRead, &order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "orders_order_number_key") {
			return ErrOrderNumberTaken
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id int64) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.id = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	return order, nil
}

func (r *orderRepository) FindByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.order_number = $1`

	order, err := scanOrder(r.db.QueryRowContext(ctx, query, strings.ToUpper(strings.TrimSpace(orderNumber))))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by number: %w", err)
	}

	return order, nil
}

// List returns one page of orders, newest first, and the total match count.
func (r *orderRepository) List(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int, error) {
	filter.Normalize()

	var (
		conditions []string
		args       []interface{}
	)
	next := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if filter.Status != "" {
		conditions = append(conditions, "o.status = "+next(string(filter.Status)))
	}
	if filter.Query != "" {
		p := next(likePattern(filter.Query))
		conditions = append(conditions, "(o.customer_name ILIKE "+p+" OR o.order_number ILIKE "+p+
			" OR "+fmt.Sprintf(itemSKUMatch, p)+")")
	}
	if filter.UserID != nil {
		conditions = append(conditions, "o.user_id = "+next(*filter.UserID))
	}
	if filter.Unread {
		conditions = append(conditions, "o.admin_read = FALSE")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = "WHERE " + strings.Join(conditions, " AND ")
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders o `+whereClause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count orders: %w", err)
	}

	query := fmt.Sprintf(`SELECT %s FROM orders o %s ORDER BY o.created_at DESC, o.id DESC LIMIT $%d OFFSET $%d`,
		orderColumns, whereClause, len(args)+1, len(args)+2)
	args = append(args, filter.PageSize, (filter.Page-1)*filter.PageSize)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list orders: %w", err)
	}

	orders, err := collectOrders(rows)
	if err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

func (r *orderRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o WHERE o.user_id = $1 ORDER BY o.created_at DESC, o.id DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list user orders: %w", err)
	}

	return collectOrders(rows)
}

// Search matches orders by customer name or line item SKU.
func (r *orderRepository) Search(ctx context.Context, term string, limit int) ([]*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders o
		WHERE o.customer_name ILIKE $1 OR ` + fmt.Sprintf(itemSKUMatch, "$1") + `
		ORDER BY o.created_at DESC, o.id DESC
		LIMIT $2`

	rows, err := r.db.QueryContext(ctx, query, likePattern(strings.TrimSpace(term)), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to search orders: %w", err)
	}

	return collectOrders(rows)
}

// UpdateStatus sets the status; a non-nil confirmedAt also stamps payment_confirmed_at.
func (r *orderRepository) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus, confirmedAt *time.Time) error {
	query := `
		UPDATE orders
		SET status = $2, payment_confirmed_at = COALESCE($3, payment_confirmed_at)
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, status, confirmedAt)
	if err != nil {
		return fmt.Errorf("failed to update order status: %w", err)
	}

	return expectOneRow(result, ErrOrderNotFound)
}

func (r *orderRepository) UpdateTracking(ctx context.Context, id int64, trackingNumber, adminNotes string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE orders SET tracking_number = $2, admin_notes = $3 WHERE id = $1`,
		id, trackingNumber, adminNotes)
	if err != nil {
		return fmt.Errorf("failed to update order tracking: %w", err)
	}

	return expectOneRow(result, ErrOrderNotFound)
}

// UpdatePricing persists the recalculated money fields of order.
func (r *orderRepository) UpdatePricing(ctx context.Context, order *domain.Order) error {
	query := `
		UPDATE orders
		SET subtotal = $2, shipping_cost = $3, discount = $4, deposit = $5, total_price = $6
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		order.ID, order.Subtotal, order.ShippingCost, order.Discount, order.Deposit, order.TotalPrice)
	if err != nil {
		return fmt.Errorf("failed to update order pricing: %w", err)
	}

	return expectOneRow(result, ErrOrderNotFound)
}

// AttachPaymentSlip records a customer payment and moves the order to payment review.
func (r *orderRepository) AttachPaymentSlip(ctx context.Context, id int64, slipURL, method string, paidAmount decimal.Decimal) error {
	query := `
		UPDATE orders
		SET payment_slip_url = $2, payment_method = $3, paid_amount = $4, status = $5, admin_read = FALSE
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query, id, slipURL, method, paidAmount, domain.OrderStatusPaymentReview)
	if err != nil {
		return fmt.Errorf("failed to attach payment slip: %w", err)
	}

	return expectOneRow(result, ErrOrderNotFound)
}

func (r *orderRepository) MarkRead(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, `UPDATE orders SET admin_read = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to mark order read: %w", err)
	}

	return expectOneRow(result, ErrOrderNotFound)
}

func (r *orderRepository) CountUnread(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM orders WHERE admin_read = FALSE`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread orders: %w", err)
	}
	return count, nil
}
