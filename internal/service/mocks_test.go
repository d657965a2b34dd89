package service

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"wishyoulucky/internal/cart"
	"wishyoulucky/internal/domain"
	"wishyoulucky/internal/mailer"
	"wishyoulucky/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

type mockUserRepository struct {
	users map[string]*domain.User
}

func newMockUserRepository() *mockUserRepository {
	return &mockUserRepository{users: make(map[string]*domain.User)}
}

func (m *mockUserRepository) Create(_ context.Context, user *domain.User) error {
	if _, exists := m.users[user.Email]; exists {
		return repository.ErrUserAlreadyExists
	}
	m.users[user.Email] = user
	return nil
}

func (m *mockUserRepository) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	user, exists := m.users[email]
	if !exists {
		return nil, repository.ErrUserNotFound
	}
	return user, nil
}

func (m *mockUserRepository) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
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
	user.Username = update.Username
	user.FullName = update.FullName
	user.Phone = update.Phone
	user.Address = update.Address
	return nil
}

type mockRefreshTokenRepository struct {
	tokens map[string]*domain.RefreshToken
}

func newMockRefreshTokenRepository() *mockRefreshTokenRepository {
	return &mockRefreshTokenRepository{tokens: make(map[string]*domain.RefreshToken)}
}

func (m *mockRefreshTokenRepository) Create(_ context.Context, token *domain.RefreshToken) error {
	m.tokens[token.Token] = token
	return nil
}

func (m *mockRefreshTokenRepository) FindByToken(_ context.Context, token string) (*domain.RefreshToken, error) {
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
	refreshToken, exists := m.tokens[token]
	if !exists {
		return repository.ErrRefreshTokenNotFound
	}
	refreshToken.Revoked = true
	return nil
}

func (m *mockRefreshTokenRepository) RevokeAllForUser(_ context.Context, userID uuid.UUID) error {
	for _, t := range m.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

type mockProductRepository struct {
	products map[int64]*domain.Product
	nextID   int64
	lastList domain.ProductFilter
}

func newMockProductRepository(products ...*domain.Product) *mockProductRepository {
	m := &mockProductRepository{products: make(map[int64]*domain.Product)}
	for _, p := range products {
		m.products[p.ID] = p
		if p.ID > m.nextID {
			m.nextID = p.ID
		}
	}
	return m
}

func (m *mockProductRepository) Create(_ context.Context, p *domain.Product) error {
	for _, existing := range m.products {
		if existing.SKU == p.SKU {
			return repository.ErrProductSKUExists
		}
	}
	m.nextID++
	p.ID = m.nextID
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepository) Update(_ context.Context, p *domain.Product) error {
	if _, ok := m.products[p.ID]; !ok {
		return repository.ErrProductNotFound
	}
	m.products[p.ID] = p
	return nil
}

func (m *mockProductRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.products[id]; !ok {
		return repository.ErrProductNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepository) FindByID(_ context.Context, id int64) (*domain.Product, error) {
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepository) FindBySlug(_ context.Context, slug string) (*domain.Product, error) {
	for _, p := range m.products {
		if p.Slug == slug {
			cp := *p
			return &cp, nil
		}
	}
	return nil, repository.ErrProductNotFound
}

func (m *mockProductRepository) FindByIDs(_ context.Context, ids []int64) (map[int64]*domain.Product, error) {
	out := make(map[int64]*domain.Product)
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

func (m *mockProductRepository) List(_ context.Context, filter domain.ProductFilter) ([]*domain.Product, int, error) {
	m.lastList = filter
	ids := make([]int64, 0, len(m.products))
	for id := range m.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var out []*domain.Product
	for _, id := range ids {
		out = append(out, m.products[id])
	}
	return out, len(out), nil
}

func (m *mockProductRepository) SetTags(_ context.Context, productID int64, tags []string) error {
	p, ok := m.products[productID]
	if !ok {
		return repository.ErrProductNotFound
	}
	p.Tags = tags
	return nil
}

func (m *mockProductRepository) ListTags(context.Context) ([]domain.Tag, error) {
	return []domain.Tag{{ID: 1, Name: "sanrio"}}, nil
}

type mockImageRepository struct {
	images map[int64][]domain.ProductImage
	nextID int64
}

func newMockImageRepository() *mockImageRepository {
	return &mockImageRepository{images: make(map[int64][]domain.ProductImage)}
}

func (m *mockImageRepository) Add(_ context.Context, img *domain.ProductImage) error {
	m.nextID++
	img.ID = m.nextID
	img.Order = len(m.images[img.ProductID])
	m.images[img.ProductID] = append(m.images[img.ProductID], *img)
	return nil
}

func (m *mockImageRepository) Delete(_ context.Context, productID, imageID int64) error {
	list := m.images[productID]
	for i, img := range list {
		if img.ID == imageID {
			m.images[productID] = append(list[:i], list[i+1:]...)
			return nil
		}
	}
	return repository.ErrProductImageNotFound
}

func (m *mockImageRepository) ListByProduct(_ context.Context, productID int64) ([]domain.ProductImage, error) {
	list := append([]domain.ProductImage(nil), m.images[productID]...)
	sort.Slice(list, func(i, j int) bool { return list[i].Order < list[j].Order })
	return list, nil
}

func (m *mockImageRepository) Reorder(_ context.Context, productID int64, ids []int64) error {
	list := m.images[productID]
	if len(ids) != len(list) {
		return repository.ErrProductImageNotFound
	}
	pos := make(map[int64]int, len(ids))
	for i, id := range ids {
		pos[id] = i
	}
	for i := range list {
		p, ok := pos[list[i].ID]
		if !ok {
			return repository.ErrProductImageNotFound
		}
		list[i].Order = p
	}
	return nil
}

type mockCategoryRepository struct {
	categories map[int64]*domain.Category
	nextID     int64
}

func newMockCategoryRepository() *mockCategoryRepository {
	return &mockCategoryRepository{categories: make(map[int64]*domain.Category)}
}

func (m *mockCategoryRepository) Create(_ context.Context, c *domain.Category) error {
	for _, existing := range m.categories {
		if strings.EqualFold(existing.Name, c.Name) {
			return repository.ErrCategoryAlreadyExists
		}
	}
	m.nextID++
	c.ID = m.nextID
	m.categories[c.ID] = c
	return nil
}

func (m *mockCategoryRepository) Update(_ context.Context, c *domain.Category) error {
	if _, ok := m.categories[c.ID]; !ok {
		return repository.ErrCategoryNotFound
	}
	m.categories[c.ID] = c
	return nil
}

func (m *mockCategoryRepository) Delete(_ context.Context, id int64) error {
	if _, ok := m.categories[id]; !ok {
		return repository.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

func (m *mockCategoryRepository) List(context.Context) ([]*domain.Category, error) {
	var out []*domain.Category
	for _, c := range m.categories {
		out = append(out, c)
	}
	return out, nil
}

func (m *mockCategoryRepository) ListHomepage(context.Context) ([]*domain.Category, error) {
	var out []*domain.Category
	for _, c := range m.categories {
		if c.DisplayOnHomepage {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *mockCategoryRepository) FindByID(_ context.Context, id int64) (*domain.Category, error) {
	c, ok := m.categories[id]
	if !ok {
		return nil, repository.ErrCategoryNotFound
	}
	return c, nil
}

type mockOrderRepository struct {
	orders map[int64]*domain.Order
	nextID int64
	// collisions makes the next N creates fail with ErrOrderNumberTaken.
	collisions int
}

func newMockOrderRepository() *mockOrderRepository {
	return &mockOrderRepository{orders: make(map[int64]*domain.Order)}
}

func (m *mockOrderRepository) Create(_ context.Context, o *domain.Order) error {
	if m.collisions > 0 {
		m.collisions--
		return repository.ErrOrderNumberTaken
	}
	for _, existing := range m.orders {
		if existing.OrderNumber == o.OrderNumber {
			return repository.ErrOrderNumberTaken
		}
	}
	m.nextID++
	o.ID = m.nextID
	o.CreatedAt = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	cp := *o
	m.orders[o.ID] = &cp
	return nil
}

func (m *mockOrderRepository) FindByID(_ context.Context, id int64) (*domain.Order, error) {
	o, ok := m.orders[id]
	if !ok {
		return nil, repository.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *mockOrderRepository) FindByNumber(_ context.Context, n string) (*domain.Order, error) {
	for _, o := range m.orders {
		if o.OrderNumber == strings.ToUpper(strings.TrimSpace(n)) {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrOrderNotFound
}

func (m *mockOrderRepository) List(_ context.Context, f domain.OrderFilter) ([]*domain.Order, int, error) {
	var out []*domain.Order
	for _, o := range m.orders {
		if f.Status == "" || o.Status == f.Status {
			out = append(out, o)
		}
	}
	return out, len(out), nil
}

func (m *mockOrderRepository) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range m.orders {
		if o.UserID != nil && *o.UserID == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderRepository) Search(_ context.Context, term string, limit int) ([]*domain.Order, error) {
	var out []*domain.Order
	for _, o := range m.orders {
		if strings.Contains(strings.ToLower(o.Customer.Name), strings.ToLower(term)) {
			out = append(out, o)
		}
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockOrderRepository) UpdateStatus(_ context.Context, id int64, status domain.OrderStatus, confirmedAt *time.Time) error {
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.Status = status
	if confirmedAt != nil {
		o.PaymentConfirmedAt = confirmedAt
	}
	return nil
}

func (m *mockOrderRepository) UpdateTracking(_ context.Context, id int64, tracking, notes string) error {
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.TrackingNumber = tracking
	o.AdminNotes = notes
	return nil
}

func (m *mockOrderRepository) UpdatePricing(_ context.Context, order *domain.Order) error {
	o, ok := m.orders[order.ID]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.Subtotal = order.Subtotal
	o.ShippingCost = order.ShippingCost
	o.Discount = order.Discount
	o.Deposit = order.Deposit
	o.TotalPrice = order.TotalPrice
	return nil
}

func (m *mockOrderRepository) AttachPaymentSlip(_ context.Context, id int64, slipURL, method string, paid decimal.Decimal) error {
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.PaymentSlipURL = slipURL
	o.PaymentMethod = method
	o.PaidAmount = paid
	o.Status = domain.OrderStatusPaymentReview
	o.AdminRead = false
	return nil
}

func (m *mockOrderRepository) MarkRead(_ context.Context, id int64) error {
	o, ok := m.orders[id]
	if !ok {
		return repository.ErrOrderNotFound
	}
	o.AdminRead = true
	return nil
}

func (m *mockOrderRepository) CountUnread(context.Context) (int, error) {
	n := 0
	for _, o := range m.orders {
		if !o.AdminRead {
			n++
		}
	}
	return n, nil
}

type memoryCartStore struct {
	mu    sync.Mutex
	carts map[string][]cart.Item
}

func newMemoryCartStore() *memoryCartStore {
	return &memoryCartStore{carts: make(map[string][]cart.Item)}
}

func (s *memoryCartStore) Load(_ context.Context, id string) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cart.New(append([]cart.Item(nil), s.carts[id]...)), nil
}

func (s *memoryCartStore) Save(_ context.Context, id string, c *cart.Cart) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.carts[id] = append([]cart.Item(nil), c.Items...)
	return nil
}

func (s *memoryCartStore) Update(_ context.Context, id string, fn func(*cart.Cart) error) (*cart.Cart, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := cart.New(append([]cart.Item(nil), s.carts[id]...))
	if err := fn(c); err != nil {
		return nil, err
	}
	if c.IsEmpty() {
		delete(s.carts, id)
	} else {
		s.carts[id] = append([]cart.Item(nil), c.Items...)
	}
	return c, nil
}

func (s *memoryCartStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.carts, id)
	return nil
}

type recordingPublisher struct {
	events []domain.OrderEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e domain.OrderEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, e)
	return nil
}

func (p *recordingPublisher) Close() {}

type mockNotifier struct {
	mock.Mock
}

func (m *mockNotifier) SendOrderReceived(ctx context.Context, p mailer.OrderReceived) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type memoryFileStore struct {
	saved map[string][]byte
	err   error
}

func (f *memoryFileStore) Save(_ context.Context, folder, filename string, r io.Reader, _ string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	if f.saved == nil {
		f.saved = make(map[string][]byte)
	}
	url := "http://localhost/uploads/" + folder + "/" + filename
	f.saved[url] = buf.Bytes()
	return url, nil
}
