package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"regexp"
	"strings"
	"time"

	"wishyoulucky/internal/cart"
	"wishyoulucky/internal/domain"
	"wishyoulucky/internal/events"
	"wishyoulucky/internal/mailer"
	"wishyoulucky/internal/pkg/clock"
	"wishyoulucky/internal/pkg/retry"
	"wishyoulucky/internal/repository"
	"wishyoulucky/internal/shipping"
	"wishyoulucky/internal/storage"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	orderCodeAlphabet   = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	orderCodeLength     = 4
	orderNumberAttempts = 5
	searchMinLength     = 2
	searchLimit         = 20
	notifyTimeout       = 10 * time.Second
	publishTimeout      = 5 * time.Second
)

var (
	phonePattern = regexp.MustCompile(`^[0-9]{10}$`)
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
)

// OrderNotifier sends the order-received email.
type OrderNotifier interface {
	SendOrderReceived(ctx context.Context, p mailer.OrderReceived) error
}

// FileStore keeps uploaded payment slips.
type FileStore interface {
	Save(ctx context.Context, folder, filename string, r io.Reader, contentType string) (string, error)
}

type CheckoutInput struct {
	CartID        string
	Customer      domain.Customer
	PaymentMethod string
	UserID        *uuid.UUID
	UpdateProfile bool
}

type PaymentSlipInput struct {
	OrderNumber   string
	Email         string
	Filename      string
	ContentType   string
	File          io.Reader
	PaymentMethod string
	PaidAmount    decimal.Decimal
}

// PricingUpdate changes admin-controlled amounts; nil fields are left as they are.
type PricingUpdate struct {
	ShippingCost *decimal.Decimal
	Discount     *decimal.Decimal
	Deposit      *decimal.Decimal
}

type OrderPage struct {
	Data       []*domain.Order `json:"data"`
	Pagination Pagination      `json:"pagination"`
}

type OrderService interface {
	Checkout(ctx context.Context, input CheckoutInput) (*domain.Order, error)
	Track(ctx context.Context, orderNumber, email string) (*domain.Order, error)
	UploadPaymentSlip(ctx context.Context, input PaymentSlipInput) (*domain.Order, error)
	Search(ctx context.Context, term string) ([]domain.OrderSummary, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)

	List(ctx context.Context, filter domain.OrderFilter) (*OrderPage, error)
	Get(ctx context.Context, id int64) (*domain.Order, error)
	UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error)
	UpdateTracking(ctx context.Context, id int64, trackingNumber, adminNotes string) (*domain.Order, error)
	UpdatePricing(ctx context.Context, id int64, update PricingUpdate) (*domain.Order, error)
	MarkRead(ctx context.Context, id int64) error
	UnreadCount(ctx context.Context) (int, error)
}

// OrderDeps groups the collaborators of the order service.
type OrderDeps struct {
	Orders    repository.OrderRepository
	Products  repository.ProductRepository
	Users     repository.UserRepository
	Carts     cart.Store
	Files     FileStore
	Publisher events.Publisher
	Notifier  OrderNotifier
	Clock     clock.Clock
	Logger    *zap.Logger
}

type orderService struct {
	OrderDeps
	prefix         string
	location       *time.Location
	randIntN       func(int) int
	publishTimeout time.Duration
}

func NewOrderService(deps OrderDeps, orderPrefix string, loc *time.Location) OrderService {
	if deps.Publisher == nil {
		deps.Publisher = events.NopPublisher{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &orderService{
		OrderDeps:      deps,
		prefix:         orderPrefix,
		location:       loc,
		randIntN:       rand.IntN,
		publishTimeout: publishTimeout,
	}
}

// GenerateOrderNumber formats <prefix>-YYMMDD followed by a random code. The
// date is the calendar day in loc.
func GenerateOrderNumber(prefix string, now time.Time, loc *time.Location, intN func(int) int) string {
	code := make([]byte, orderCodeLength)
	for i := range code {
		code[i] = orderCodeAlphabet[intN(len(orderCodeAlphabet))]
	}
	return prefix + "-" + now.In(loc).Format("060102") + string(code)
}

func validateCustomer(c *domain.Customer) error {
	c.Name = strings.TrimSpace(c.Name)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	c.Email = strings.TrimSpace(c.Email)
	c.Note = strings.TrimSpace(c.Note)

	var errs ValidationErrors
	if c.Name == "" {
		errs.add("customer_name", "This field is required")
	}
	switch {
	case c.Phone == "":
		errs.add("customer_phone", "This field is required")
	case !phonePattern.MatchString(c.Phone):
		errs.add("customer_phone", "Phone number must be 10 digits")
	}
	if c.Address == "" {
		errs.add("customer_address", "This field is required")
	}
	switch {
	case c.Email == "":
		errs.add("customer_email", "This field is required")
	case !emailPattern.MatchString(c.Email):
		errs.add("customer_email", "Invalid email format")
	}
	return errs.orNil()
}

func normalizePaymentMethod(method string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(method)) {
	case "", domain.PaymentMethodKShop:
		return domain.PaymentMethodKShop, nil
	case domain.PaymentMethodTrueMoney:
		return domain.PaymentMethodTrueMoney, nil
	}
	return "", ValidationErrors{{Field: "payment_method", Message: "Value must be one of: kshop truemoney"}}
}

// Checkout turns the stored cart into an order. Prices are re-read from the
// catalog. Side effects after the insert (cart clear, profile, event, email) are
// best effort and never fail the checkout.
func (s *orderService) Checkout(ctx context.Context, input CheckoutInput) (*domain.Order, error) {
	if err := validateCustomer(&input.Customer); err != nil {
		return nil, err
	}
	method, err := normalizePaymentMethod(input.PaymentMethod)
	if err != nil {
		return nil, err
	}

	c, err := s.Carts.Load(ctx, input.CartID)
	if err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		return nil, ErrEmptyCart
	}

	items, err := s.priceItems(ctx, c.Items)
	if err != nil {
		return nil, err
	}

	order := &domain.Order{
		UserID:        input.UserID,
		Customer:      input.Customer,
		Items:         items,
		Discount:      decimal.Zero,
		Deposit:       decimal.Zero,
		PaidAmount:    decimal.Zero,
		Status:        domain.OrderStatusPendingPayment,
		PaymentMethod: method,
	}
	order.ShippingCost = shippingFor(items)
	order.Recalculate()

	if err := s.insertWithFreshNumber(ctx, order); err != nil {
		return nil, err
	}

	s.Logger.Info("Order placed",
		zap.Int64("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.String("total", order.TotalPrice.String()),
	)

	if err := s.Carts.Delete(ctx, input.CartID); err != nil {
		s.Logger.Warn("Failed to clear cart after checkout", zap.String("cart_id", input.CartID), zap.Error(err))
	}
	if input.UpdateProfile && input.UserID != nil {
		s.saveProfile(ctx, *input.UserID, order.Customer)
	}
	s.publish(ctx, domain.OrderEventInsert, order)
	s.notify(ctx, order)

	return order, nil
}

func (s *orderService) priceItems(ctx context.Context, lines []cart.Item) ([]domain.OrderItem, error) {
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		ids = append(ids, line.ProductID)
	}

	products, err := s.Products.FindByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load cart products: %w", err)
	}

	items := make([]domain.OrderItem, 0, len(lines))
	for _, line := range lines {
		p, ok := products[line.ProductID]
		if !ok {
			return nil, fmt.Errorf("%w: %s", repository.ErrProductNotFound, line.Name)
		}
		if p.Status == domain.ProductStatusSoldOut {
			return nil, fmt.Errorf("%w: %s", ErrProductUnavailable, p.Name)
		}
		items = append(items, domain.OrderItem{
			ProductID:   p.ID,
			SKU:         p.SKU,
			Name:        p.Name,
			Image:       p.Image,
			Quantity:    line.Quantity,
			Price:       p.SellingPrice,
			ProductType: p.TypeOrDefault(),
			Variant:     line.Variant,
		})
	}
	return items, nil
}

func shippingFor(items []domain.OrderItem) decimal.Decimal {
	lines := make([]shipping.Line, 0, len(items))
	for _, item := range items {
		lines = append(lines, shipping.Line{ProductType: item.ProductType, Quantity: item.Quantity})
	}
	return shipping.Calculate(lines)
}

func (s *orderService) insertWithFreshNumber(ctx context.Context, order *domain.Order) error {
	err := retry.Do(ctx, retry.Config{
		MaxAttempts: orderNumberAttempts,
		Backoff:     retry.ConstantBackoff(0),
		ShouldRetry: func(err error) bool {
			return errors.Is(err, repository.ErrOrderNumberTaken)
		},
	}, func() error {
		order.OrderNumber = GenerateOrderNumber(s.prefix, s.Clock.Now(), s.location, s.randIntN)
		err := s.Orders.Create(ctx, order)
		if errors.Is(err, repository.ErrOrderNumberTaken) {
			s.Logger.Warn("Order number collision", zap.String("order_number", order.OrderNumber))
		}
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to create order: %w", err)
	}
	return nil
}

func (s *orderService) saveProfile(ctx context.Context, userID uuid.UUID, c domain.Customer) {
	user, err := s.Users.FindByID(ctx, userID)
	if err != nil {
		s.Logger.Warn("Failed to load profile for update", zap.String("user_id", userID.String()), zap.Error(err))
		return
	}
	err = s.Users.UpdateProfile(ctx, userID, domain.ProfileUpdate{
		Username: user.Username,
		FullName: c.Name,
		Phone:    c.Phone,
		Address:  c.Address,
	})
	if err != nil {
		s.Logger.Warn("Failed to update profile from checkout", zap.String("user_id", userID.String()), zap.Error(err))
	}
}

// publish is best effort: a slow or unreachable broker costs at most
// publishTimeout and never fails the caller.
func (s *orderService) publish(ctx context.Context, kind domain.OrderEventType, order *domain.Order) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	err := s.Publisher.Publish(ctx, domain.OrderEvent{
		Type:        kind,
		OrderID:     order.ID,
		OrderNumber: order.OrderNumber,
		Status:      order.Status,
		OccurredAt:  s.Clock.Now(),
	})
	if err != nil {
		s.Logger.Error("Failed to publish order event",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
	}
}

func (s *orderService) notify(ctx context.Context, order *domain.Order) {
	if s.Notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
	defer cancel()

	if err := s.Notifier.SendOrderReceived(ctx, mailer.FromOrder(order)); err != nil {
		s.Logger.Error("Failed to send order received email",
			zap.String("order_number", order.OrderNumber),
			zap.Error(err),
		)
	}
}

// Track returns the order only when email matches the one given at checkout.
func (s *orderService) Track(ctx context.Context, orderNumber, email string) (*domain.Order, error) {
	order, err := s.Orders.FindByNumber(ctx, orderNumber)
	if err != nil {
		return nil, err
	}
	if !order.EmailMatches(email) {
		return nil, ErrOrderAccessDenied
	}
	return order, nil
}

// UploadPaymentSlip stores the slip and moves the order to payment review.
// A missing amount defaults to the deposit, or the full total without one.
func (s *orderService) UploadPaymentSlip(ctx context.Context, input PaymentSlipInput) (*domain.Order, error) {
	order, err := s.Track(ctx, input.OrderNumber, input.Email)
	if err != nil {
		return nil, err
	}
	if order.Status == domain.OrderStatusCancelled {
		return nil, ErrInvalidStatus
	}
	if input.PaidAmount.IsNegative() {
		return nil, ErrInvalidAmount
	}

	method := order.PaymentMethod
	if strings.TrimSpace(input.PaymentMethod) != "" {
		if method, err = normalizePaymentMethod(input.PaymentMethod); err != nil {
			return nil, err
		}
	}

	paid := input.PaidAmount
	if paid.IsZero() {
		paid = order.TotalPrice
		if order.Deposit.IsPositive() && order.Deposit.LessThan(order.TotalPrice) {
			paid = order.Deposit
		}
	}

	slipURL, err := s.Files.Save(ctx, storage.FolderSlips, input.Filename, input.File, input.ContentType)
	if err != nil {
		return nil, err
	}

	if err := s.Orders.AttachPaymentSlip(ctx, order.ID, slipURL, method, paid); err != nil {
		return nil, err
	}

	s.Logger.Info("Payment slip uploaded",
		zap.String("order_number", order.OrderNumber),
		zap.String("paid_amount", paid.String()),
	)

	updated, err := s.Orders.FindByID(ctx, order.ID)
	if err != nil {
		return nil, err
	}
	s.publish(ctx, domain.OrderEventUpdate, updated)
	return updated, nil
}

// Search matches customer name or item SKU and returns only redacted summaries.
func (s *orderService) Search(ctx context.Context, term string) ([]domain.OrderSummary, error) {
	term = strings.TrimSpace(term)
	if len([]rune(term)) < searchMinLength {
		return []domain.OrderSummary{}, nil
	}

	orders, err := s.Orders.Search(ctx, term, searchLimit)
	if err != nil {
		return nil, err
	}

	summaries := make([]domain.OrderSummary, 0, len(orders))
	for _, o := range orders {
		summaries = append(summaries, o.Summary())
	}
	return summaries, nil
}

func (s *orderService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	return s.Orders.ListByUser(ctx, userID)
}

func (s *orderService) List(ctx context.Context, filter domain.OrderFilter) (*OrderPage, error) {
	filter.Normalize()
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, ErrInvalidStatus
	}

	orders, total, err := s.Orders.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return &OrderPage{
		Data:       orders,
		Pagination: newPagination(filter.Page, filter.PageSize, total),
	}, nil
}

func (s *orderService) Get(ctx context.Context, id int64) (*domain.Order, error) {
	return s.Orders.FindByID(ctx, id)
}

// UpdateStatus accepts any known status. Moving to paid stamps the payment
// confirmation time.
func (s *orderService) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	var confirmedAt *time.Time
	if status == domain.OrderStatusPaid {
		now := s.Clock.Now()
		confirmedAt = &now
	}

	if err := s.Orders.UpdateStatus(ctx, id, status, confirmedAt); err != nil {
		return nil, err
	}

	order, err := s.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Logger.Info("Order status changed",
		zap.String("order_number", order.OrderNumber),
		zap.String("status", string(status)),
	)
	s.publish(ctx, domain.OrderEventUpdate, order)
	return order, nil
}

func (s *orderService) UpdateTracking(ctx context.Context, id int64, trackingNumber, adminNotes string) (*domain.Order, error) {
	if err := s.Orders.UpdateTracking(ctx, id, strings.TrimSpace(trackingNumber), strings.TrimSpace(adminNotes)); err != nil {
		return nil, err
	}
	return s.Orders.FindByID(ctx, id)
}

// UpdatePricing applies admin amounts and recomputes the total.
func (s *orderService) UpdatePricing(ctx context.Context, id int64, update PricingUpdate) (*domain.Order, error) {
	for _, v := range []*decimal.Decimal{update.ShippingCost, update.Discount, update.Deposit} {
		if v != nil && v.IsNegative() {
			return nil, ErrInvalidAmount
		}
	}

	order, err := s.Orders.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if update.ShippingCost != nil {
		order.ShippingCost = *update.ShippingCost
	}
	if update.Discount != nil {
		order.Discount = *update.Discount
	}
	if update.Deposit != nil {
		order.Deposit = *update.Deposit
	}
	order.Recalculate()

	if err := s.Orders.UpdatePricing(ctx, order); err != nil {
		return nil, err
	}
	s.publish(ctx, domain.OrderEventUpdate, order)
	return order, nil
}

func (s *orderService) MarkRead(ctx context.Context, id int64) error {
	return s.Orders.MarkRead(ctx, id)
}

func (s *orderService) UnreadCount(ctx context.Context) (int, error) {
	return s.Orders.CountUnread(ctx)
}
