package transport

import (
	"context"
	"sync"
	"testing"
	"time"

	"wishyoulucky/internal/cart"
	"wishyoulucky/internal/domain"
	"wishyoulucky/internal/mailer"
	"wishyoulucky/internal/repository"
	"wishyoulucky/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

// signToken issues an access token the auth middleware accepts.
func signToken(t *testing.T, userID uuid.UUID, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"role":    role,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

type mockUserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) Create(_ context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, user := range m.users {
		if user.ID == id {
			return user, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *mockUserRepository) UpdateProfile(ctx context.Context, id uuid.UUID, update domain.ProfileUpdate) error {
	user, err := m.FindByID(ctx, id)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user.Username = update.Username
	user.FullName = update.FullName
	user.Phone = update.Phone
	user.Address = update.Address
	return nil
}

type mockRefreshTokenRepository struct {
	mu     sync.Mutex
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{tokens: make(map[string]*domain.RefreshToken)}
}

func (m *mockRefreshTokenRepository) Create(_ context.Context, token *domain.RefreshToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(_ context.Context, token string) (*domain.RefreshToken, error) {
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

func (m *mockRefreshTokenRepository) Revoke(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(_ context.Context, userID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

type mockOrderService struct {
	mock.Mock
}

func (m *mockOrderService) Checkout(ctx context.Context, input service.CheckoutInput) (*domain.Order, error) {
	args := m.Called(ctx, input)
	order, _ := args.Get(0).(*domain.Order)
	return order, args.Error(1)
}

func (m *mockOrderService) Track(ctx context.Context, orderNumber, email string) (*domain.Order, error) {
	args := m.Called(ctx, orderNumber, email)
	order, _ := args.Get(0).(*domain.Order)
	return order, args.Error(1)
}

func (m *mockOrderService) UploadPaymentSlip(ctx context.Context, input service.PaymentSlipInput) (*domain.Order, error) {
	args := m.Called(ctx, input)
	order, _ := args.Get(0).(*domain.Order)
	return order, args.Error(1)
}

func (m *mockOrderService) Search(ctx context.Context, term string) ([]domain.OrderSummary, error) {
	args := m.Called(ctx, term)
	results, _ := args.Get(0).([]domain.OrderSummary)
	return results, args.Error(1)
}

func (m *mockOrderService) ListForUser(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	args := m.Called(ctx, userID)
	orders, _ := args.Get(0).([]*domain.Order)
	return orders, args.Error(1)
}

func (m *mockOrderService) List(ctx context.Context, filter domain.OrderFilter) (*service.OrderPage, error) {
	args := m.Called(ctx, filter)
	page, _ := args.Get(0).(*service.OrderPage)
	return page, args.Error(1)
}

func (m *mockOrderService) Get(ctx context.Context, id int64) (*domain.Order, error) {
	args := m.Called(ctx, id)
	order, _ := args.Get(0).(*domain.Order)
	return order, args.Error(1)
}

func (m *mockOrderService) UpdateStatus(ctx context.Context, id int64, status domain.OrderStatus) (*domain.Order, error) {
	args := m.Called(ctx, id, status)
	order, _ := args.Get(0).(*domain.Order)
	return order, args.Error(1)
}

func (m *mockOrderService) UpdateTracking(ctx context.Context, id int64, trackingNumber, adminNotes string) (*domain.Order, error) {
	args := m.Called(ctx, id, trackingNumber, adminNotes)
	order, _ := args.Get(0).(*domain.Order)
	return order, args.Error(1)
}

func (m *mockOrderService) UpdatePricing(ctx context.Context, id int64, update service.PricingUpdate) (*domain.Order, error) {
	args := m.Called(ctx, id, update)
	order, _ := args.Get(0).(*domain.Order)
	return order, args.Error(1)
}

func (m *mockOrderService) MarkRead(ctx context.Context, id int64) error {
	return m.Called(ctx, id).Error(0)
}

func (m *mockOrderService) UnreadCount(ctx context.Context) (int, error) {
	args := m.Called(ctx)
	return args.Int(0), args.Error(1)
}

type mockCartService struct {
	mock.Mock
}

func (m *mockCartService) Get(ctx context.Context, cartID string) (*cart.Cart, error) {
	args := m.Called(ctx, cartID)
	c, _ := args.Get(0).(*cart.Cart)
	return c, args.Error(1)
}

func (m *mockCartService) AddItem(ctx context.Context, cartID string, productID int64, variant string, quantity int) (*cart.Cart, error) {
	args := m.Called(ctx, cartID, productID, variant, quantity)
	c, _ := args.Get(0).(*cart.Cart)
	return c, args.Error(1)
}

func (m *mockCartService) UpdateItem(ctx context.Context, cartID string, productID int64, variant string, quantity int) (*cart.Cart, error) {
	args := m.Called(ctx, cartID, productID, variant, quantity)
	c, _ := args.Get(0).(*cart.Cart)
	return c, args.Error(1)
}

func (m *mockCartService) RemoveItem(ctx context.Context, cartID string, productID int64, variant string) (*cart.Cart, error) {
	args := m.Called(ctx, cartID, productID, variant)
	c, _ := args.Get(0).(*cart.Cart)
	return c, args.Error(1)
}

func (m *mockCartService) Clear(ctx context.Context, cartID string) error {
	return m.Called(ctx, cartID).Error(0)
}

// notifierFunc adapts a function to service.OrderNotifier.
type notifierFunc func(ctx context.Context, p mailer.OrderReceived) error

func (f notifierFunc) SendOrderReceived(ctx context.Context, p mailer.OrderReceived) error {
	return f(ctx, p)
}
