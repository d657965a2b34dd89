package domain

import "time"

// NotificationTypeProduct marks a message sent to everyone who ordered one SKU.
const NotificationTypeProduct = "product_specific"

// Delivery outcomes recorded per notification.
const (
	NotificationSent   = "sent"
	NotificationFailed = "failed"
)

// Notification is the log entry of one email sent to one customer.
type Notification struct {
	ID                int64      `json:"id"`
	Type              string     `json:"type"`
	RecipientEmail    string     `json:"recipient_email"`
	Subject           string     `json:"subject"`
	Message           string     `json:"message"`
	ProductSKU        string     `json:"product_sku,omitempty"`
	OrderID           *int64     `json:"order_id,omitempty"`
	Status            string     `json:"status"`
	ProviderMessageID string     `json:"provider_message_id,omitempty"`
	Error             string     `json:"error,omitempty"`
	SentAt            *time.Time `json:"sent_at,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
}
