package domain

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order.
type OrderStatus string

const (
	OrderStatusPendingPayment OrderStatus = "pending_payment"
	OrderStatusPaymentReview  OrderStatus = "payment_review"
	OrderStatusPaid           OrderStatus = "paid"
	OrderStatusShipping       OrderStatus = "shipping"
	OrderStatusShipped        OrderStatus = "shipped"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

var orderStatusLabels = map[OrderStatus]string{
	OrderStatusPendingPayment: "รอชำระเงิน",
	OrderStatusPaymentReview:  "รอตรวจสอบการชำระเงิน",
	OrderStatusPaid:           "ชำระเงินแล้ว",
	OrderStatusShipping:       "กำลังจัดส่ง",
	OrderStatusShipped:        "จัดส่งแล้ว",
	OrderStatusCancelled:      "ยกเลิก",
}

// OrderStatuses lists every status in workflow order.
func OrderStatuses() []OrderStatus {
	return []OrderStatus{
		OrderStatusPendingPayment,
		OrderStatusPaymentReview,
		OrderStatusPaid,
		OrderStatusShipping,
		OrderStatusShipped,
		OrderStatusCancelled,
	}
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusLabels[s]
	return ok
}

// Label is the Thai text shown to customers and admins.
func (s OrderStatus) Label() string {
	if label, ok := orderStatusLabels[s]; ok {
		return label
	}
	return string(s)
}

// Payment channels accepted by the shop.
const (
	PaymentMethodKShop     = "kshop"
	PaymentMethodTrueMoney = "truemoney"
)

// Customer is the contact and delivery information captured at checkout.
type Customer struct {
	Name    string `json:"customer_name"`
	Phone   string `json:"customer_phone"`
	Address string `json:"customer_address"`
	Email   string `json:"customer_email"`
	Note    string `json:"customer_note,omitempty"`
}

// OrderItem is a line item snapshot taken at checkout.
type OrderItem struct {
	ProductID   int64           `json:"product_id"`
	SKU         string          `json:"sku"`
	Name        string          `json:"name"`
	Image       string          `json:"image"`
	Quantity    int             `json:"quantity"`
	Price       decimal.Decimal `json:"selling_price"`
	ProductType string          `json:"product_type"`
	Variant     string          `json:"variant,omitempty"`
}

// LineTotal is price times quantity.
func (i OrderItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Order represents a placed order
type Order struct {
	ID                 int64           `json:"id"`
	OrderNumber        string          `json:"order_number"`
	UserID             *uuid.UUID      `json:"user_id,omitempty"`
	Customer           Customer        `json:"customer"`
	Items              []OrderItem     `json:"items"`
	Subtotal           decimal.Decimal `json:"subtotal"`
	ShippingCost       decimal.Decimal `json:"shipping_cost"`
	Discount           decimal.Decimal `json:"discount"`
	Deposit            decimal.Decimal `json:"deposit"`
	PaidAmount         decimal.Decimal `json:"paid_amount"`
	TotalPrice         decimal.Decimal `json:"total_price"`
	Status             OrderStatus     `json:"status"`
	PaymentMethod      string          `json:"payment_method,omitempty"`
	PaymentSlipURL     string          `json:"payment_slip_url,omitempty"`
	TrackingNumber     string          `json:"tracking_number,omitempty"`
	AdminNotes         string          `json:"admin_notes,omitempty"`
	AdminRead          bool            `json:"admin_read"`
	PaymentConfirmedAt *time.Time      `json:"payment_confirmed_at,omitempty"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

// Recalculate derives subtotal and total from the items, shipping and discount.
// The total never drops below zero.
func (o *Order) Recalculate() {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.LineTotal())
	}
	o.Subtotal = subtotal

	total := subtotal.Add(o.ShippingCost).Sub(o.Discount)
	if total.IsNegative() {
		total = decimal.Zero
	}
	o.TotalPrice = total
}

// Balance is what the customer still owes.
func (o *Order) Balance() decimal.Decimal {
	balance := o.TotalPrice.Sub(o.PaidAmount)
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

// EmailMatches compares the customer email case-insensitively.
func (o *Order) EmailMatches(email string) bool {
	return email != "" && strings.EqualFold(strings.TrimSpace(o.Customer.Email), strings.TrimSpace(email))
}

// Summary is the redacted projection returned by public order search.
func (o *Order) Summary() OrderSummary {
	names := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		names = append(names, item.Name)
	}
	return OrderSummary{
		OrderNumber:  o.OrderNumber,
		Status:       o.Status,
		StatusLabel:  o.Status.Label(),
		CustomerName: MaskName(o.Customer.Name),
		ItemNames:    names,
		CreatedAt:    o.CreatedAt,
	}
}

type OrderSummary struct {
	OrderNumber  string      `json:"order_number"`
	Status       OrderStatus `json:"status"`
	StatusLabel  string      `json:"status_label"`
	CustomerName string      `json:"customer_name"`
	ItemNames    []string    `json:"items"`
	CreatedAt    time.Time   `json:"created_at"`
}

// MaskName keeps the first two runes of each word and stars out the rest.
func MaskName(name string) string {
	words := strings.Fields(name)
	for i, w := range words {
		n := utf8.RuneCountInString(w)
		if n <= 2 {
			continue
		}
		runes := []rune(w)
		words[i] = string(runes[:2]) + strings.Repeat("*", n-2)
	}
	return strings.Join(words, " ")
}

// OrderFilter narrows the admin order list.
type OrderFilter struct {
	Status   OrderStatus
	Query    string
	UserID   *uuid.UUID
	Unread   bool
	Page     int
	PageSize int
}

func (f *OrderFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 {
		f.PageSize = 50
	}
	if f.PageSize > MaxPageSize {
		f.PageSize = MaxPageSize
	}
	f.Query = strings.TrimSpace(f.Query)
}

// OrderEventType names a row-level change on the orders table.
type OrderEventType string

const (
	OrderEventInsert OrderEventType = "INSERT"
	OrderEventUpdate OrderEventType = "UPDATE"
	OrderEventDelete OrderEventType = "DELETE"
	// OrderEventRefetch tells subscribers their view may be stale and must be reloaded.
	OrderEventRefetch OrderEventType = "REFETCH"
)

// OrderEvent is a change notification for one order.
type OrderEvent struct {
	Type        OrderEventType `json:"type"`
	OrderID     int64          `json:"order_id,omitempty"`
	OrderNumber string         `json:"order_number,omitempty"`
	Status      OrderStatus    `json:"status,omitempty"`
	OccurredAt  time.Time      `json:"occurred_at"`
}
