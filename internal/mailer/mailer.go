// Package mailer renders and sends transactional customer emails.
package mailer

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"wishyoulucky/internal/domain"

	"github.com/resend/resend-go/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const OrderReceivedSubject = "Wishyoulucky's Shop Order Received (สรุปคำสั่งซื้อ) 🍀"

const (
	PaymentKindDeposit = "มัดจำ"
	PaymentKindFull    = "โอนเต็ม"

	ChannelTrueMoney = "TrueMoney Wallet"
	ChannelBank      = "โอนผ่านธนาคาร (K SHOP QR)"
)

var (
	ErrMissingFields = errors.New("missing required fields: to, order_number")
	ErrSendFailed    = errors.New("failed to send email")
)

// Message is a rendered email ready for delivery.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
	Text    string
}

// Sender delivers a message through an email provider.
type Sender interface {
	Send(ctx context.Context, msg Message) (string, error)
}

type resendSender struct {
	client *resend.Client
}

func NewResendSender(apiKey string) Sender {
	return &resendSender{client: resend.NewClient(apiKey)}
}

func (s *resendSender) Send(ctx context.Context, msg Message) (string, error) {
	sent, err := s.client.Emails.SendWithContext(ctx, &resend.SendEmailRequest{
		From:    msg.From,
		To:      []string{msg.To},
		Subject: msg.Subject,
		Html:    msg.HTML,
		Text:    msg.Text,
	})
	if err != nil {
		return "", err
	}
	return sent.Id, nil
}

// OrderCustomer is the delivery contact shown in the email.
type OrderCustomer struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Note    string `json:"note,omitempty"`
}

type OrderLine struct {
	Name     string          `json:"name"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	SKU      string          `json:"sku,omitempty"`
	Image    string          `json:"image,omitempty"`
	ImageURL string          `json:"image_url,omitempty"`
}

// Picture prefers image and falls back to image_url.
func (l OrderLine) Picture() string {
	if l.Image != "" {
		return l.Image
	}
	return l.ImageURL
}

// LineTotal prices a missing quantity as one unit. It is zero for unpriced
// lines; templates print "-" for those.
func (l OrderLine) LineTotal() decimal.Decimal {
	qty := l.Quantity
	if qty <= 0 {
		qty = 1
	}
	return l.Price.Mul(decimal.NewFromInt(int64(qty)))
}

// OrderReceived is the order-received email payload, also accepted by the webhook.
type OrderReceived struct {
	To            string          `json:"to"`
	OrderID       int64           `json:"order_id"`
	OrderNumber   string          `json:"order_number"`
	TotalPrice    decimal.Decimal `json:"total_price"`
	Deposit       decimal.Decimal `json:"deposit"`
	PaidAmount    decimal.Decimal `json:"paid_amount"`
	PaymentMethod string          `json:"payment_method"`
	Customer      OrderCustomer   `json:"customer"`
	Items         []OrderLine     `json:"items"`
}

func (p OrderReceived) Validate() error {
	if p.To == "" || p.OrderNumber == "" {
		return ErrMissingFields
	}
	return nil
}

// Balance is what is left to pay, never negative.
func (p OrderReceived) Balance() decimal.Decimal {
	balance := p.TotalPrice.Sub(p.PaidAmount)
	if balance.IsNegative() {
		return decimal.Zero
	}
	return balance
}

// PaymentKind is a deposit when 0 < deposit < total, a full transfer otherwise.
func (p OrderReceived) PaymentKind() string {
	if p.Deposit.IsPositive() && p.Deposit.LessThan(p.TotalPrice) {
		return PaymentKindDeposit
	}
	return PaymentKindFull
}

func (p OrderReceived) PaymentChannel() string {
	if p.PaymentMethod == domain.PaymentMethodTrueMoney {
		return ChannelTrueMoney
	}
	return ChannelBank
}

// StatusLink points the customer at the order status page.
func (p OrderReceived) StatusLink(base string) string {
	return base + "?order=" + url.QueryEscape(p.OrderNumber) + "&email=" + url.QueryEscape(p.To)
}

// FromOrder builds the payload for a freshly placed order.
func FromOrder(o *domain.Order) OrderReceived {
	lines := make([]OrderLine, 0, len(o.Items))
	for _, item := range o.Items {
		lines = append(lines, OrderLine{
			Name:     item.Name,
			Quantity: item.Quantity,
			Price:    item.Price,
			SKU:      item.SKU,
			Image:    item.Image,
		})
	}
	return OrderReceived{
		To:            o.Customer.Email,
		OrderID:       o.ID,
		OrderNumber:   o.OrderNumber,
		TotalPrice:    o.TotalPrice,
		Deposit:       o.Deposit,
		PaidAmount:    o.PaidAmount,
		PaymentMethod: o.PaymentMethod,
		Customer: OrderCustomer{
			Name:    o.Customer.Name,
			Phone:   o.Customer.Phone,
			Address: o.Customer.Address,
			Note:    o.Customer.Note,
		},
		Items: lines,
	}
}

type Mailer struct {
	sender    Sender
	from      string
	statusURL string
	logger    *zap.Logger
}

func New(sender Sender, from, statusURL string, logger *zap.Logger) *Mailer {
	return &Mailer{
		sender:    sender,
		from:      from,
		statusURL: statusURL,
		logger:    logger,
	}
}

// SendOrderReceived renders and sends the order summary. It sends exactly once;
// callers decide whether to retry.
func (m *Mailer) SendOrderReceived(ctx context.Context, p OrderReceived) error {
	if err := p.Validate(); err != nil {
		return err
	}

	msg, err := m.RenderOrderReceived(p)
	if err != nil {
		return fmt.Errorf("failed to render order email: %w", err)
	}

	id, err := m.sender.Send(ctx, msg)
	if err != nil {
		m.logger.Error("Failed to send order email",
			zap.String("order_number", p.OrderNumber),
			zap.Error(err),
		)
		return fmt.Errorf("%w: %w", ErrSendFailed, err)
	}

	m.logger.Info("Order email sent",
		zap.String("order_number", p.OrderNumber),
		zap.String("message_id", id),
	)
	return nil
}

var ErrMissingNoticeFields = errors.New("missing required fields: to, subject, message")

// ProductNotice is an admin-written message to one customer who ordered a SKU.
type ProductNotice struct {
	To      string
	SKU     string
	Subject string
	Message string
}

func (n ProductNotice) Validate() error {
	if n.To == "" || n.Subject == "" || n.Message == "" {
		return ErrMissingNoticeFields
	}
	return nil
}

// SendProductNotice sends one notice and returns the provider message id.
func (m *Mailer) SendProductNotice(ctx context.Context, n ProductNotice) (string, error) {
	if err := n.Validate(); err != nil {
		return "", err
	}

	msg, err := m.RenderProductNotice(n)
	if err != nil {
		return "", fmt.Errorf("failed to render product notice: %w", err)
	}

	id, err := m.sender.Send(ctx, msg)
	if err != nil {
		m.logger.Warn("Failed to send product notice",
			zap.String("sku", n.SKU),
			zap.Error(err),
		)
		return "", fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	return id, nil
}
