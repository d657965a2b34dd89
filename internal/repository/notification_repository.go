package repository

import (
	"context"
	"database/sql"
	"fmt"

	"wishyoulucky/internal/domain"
)

const defaultNotificationLimit = 20

// NotificationRepository logs customer emails and finds who ordered a SKU.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	ListByType(ctx context.Context, notificationType string, limit int) ([]*domain.Notification, error)
	RecipientsForSKU(ctx context.Context, sku string) ([]string, error)
}

type notificationRepository struct {
	db *sql.DB
}

func NewNotificationRepository(db *sql.DB) NotificationRepository {
	return &notificationRepository{db: db}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func (r *notificationRepository) Create(ctx context.Context, n *domain.Notification) error {
	query := `
		INSERT INTO notifications
			(type, recipient_email, subject, message, product_sku, order_id, status, provider_message_id, error, sent_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id, created_at
	`

	err := r.db.QueryRowContext(ctx, query,
		n.Type,
		n.RecipientEmail,
		n.Subject,
		n.Message,
		nullString(n.ProductSKU),
		n.OrderID,
		n.Status,
		n.ProviderMessageID,
		n.Error,
		n.SentAt,
	).Scan(&n.ID, &n.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}

	return nil
}

// ListByType returns the newest notifications of one type first.
func (r *notificationRepository) ListByType(ctx context.Context, notificationType string, limit int) ([]*domain.Notification, error) {
	if limit <= 0 {
		limit = defaultNotificationLimit
	}

	query := `
		SELECT id, type, recipient_email, subject, message, product_sku, order_id,
			status, provider_message_id, error, sent_at, created_at
		FROM notifications
		WHERE type = $1
		ORDER BY sent_at DESC NULLS LAST, id DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, notificationType, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	notifications := []*domain.Notification{}
	for rows.Next() {
		n := &domain.Notification{}
		var sku sql.NullString
		if err := rows.Scan(
			&n.ID,
			&n.Type,
			&n.RecipientEmail,
			&n.Subject,
			&n.Message,
			&sku,
			&n.OrderID,
			&n.Status,
			&n.ProviderMessageID,
			&n.Error,
			&n.SentAt,
			&n.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		n.ProductSKU = sku.String
		notifications = append(notifications, n)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}

// RecipientsForSKU returns the distinct, lower-cased customer emails of every
// order with a line item of exactly this SKU.
func (r *notificationRepository) RecipientsForSKU(ctx context.Context, sku string) ([]string, error) {
	query := `
		SELECT DISTINCT lower(customer_email)
		FROM orders
		WHERE customer_email <> ''
			AND items @> jsonb_build_array(jsonb_build_object('sku', $1::text))
		ORDER BY 1
	`

	rows, err := r.db.QueryContext(ctx, query, sku)
	if err != nil {
		return nil, fmt.Errorf("failed to find customers for sku: %w", err)
	}
	defer rows.Close()

	var emails []string
	for rows.Next() {
		var email string
		if err := rows.Scan(&email); err != nil {
			return nil, fmt.Errorf("failed to scan customer email: %w", err)
		}
		emails = append(emails, email)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating customer emails: %w", err)
	}

	return emails, nil
}
