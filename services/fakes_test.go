package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/lindawangwe/mama-uncle-stores/models"
	"github.com/lindawangwe/mama-uncle-stores/repository"
	"github.com/lindawangwe/mama-uncle-stores/services"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// --- Mock user repository ---

type mockUserRepo struct {
	mu        sync.Mutex
	carts     map[primitive.ObjectID][]models.CartItem
	saveCalls int
}

func newMockUserRepo(userIDs ...primitive.ObjectID) *mockUserRepo {
	m := &mockUserRepo{carts: make(map[primitive.ObjectID][]models.CartItem)}
	for _, id := range userIDs {
		m.carts[id] = []models.CartItem{}
	}
	return m
}

func (m *mockUserRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.carts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &models.User{ID: id, Role: models.RoleCustomer, CartItems: append([]models.CartItem(nil), items...)}, nil
}

func (m *mockUserRepo) FindCart(_ context.Context, id primitive.ObjectID) ([]models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	items, ok := m.carts[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return append([]models.CartItem(nil), items...), nil
}

func (m *mockUserRepo) SaveCart(_ context.Context, id primitive.ObjectID, items []models.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.carts[id]; !ok {
		return repository.ErrNotFound
	}
	m.saveCalls++
	m.carts[id] = append([]models.CartItem{}, items...)
	return nil
}

func (m *mockUserRepo) cart(id primitive.ObjectID) []models.CartItem {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]models.CartItem(nil), m.carts[id]...)
}

// --- Mock product repository ---

type mockProductRepo struct {
	mu       sync.Mutex
	products map[primitive.ObjectID]*models.Product
	findErr  error
	findCall int
}

func newMockProductRepo(products ...*models.Product) *mockProductRepo {
	m := &mockProductRepo{products: make(map[primitive.ObjectID]*models.Product)}
	for _, p := range products {
		m.products[p.ID] = p
	}
	return m
}

func (m *mockProductRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCall++
	if m.findErr != nil {
		return nil, m.findErr
	}
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	out := []models.Product{}
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *mockProductRepo) Find(_ context.Context, params repository.ProductListParams) ([]models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.findCall++
	out := []models.Product{}
	for _, p := range m.products {
		if params.Featured != nil && p.IsFeatured != *params.Featured {
			continue
		}
		if params.Category != "" && p.Category != params.Category {
			continue
		}
		if params.Search != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(params.Search)) {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (m *mockProductRepo) Count(ctx context.Context, params repository.ProductListParams) (int64, error) {
	m.mu.Lock()
	n := len(m.products)
	m.mu.Unlock()
	return int64(n), nil
}

func (m *mockProductRepo) Create(_ context.Context, product *models.Product) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if product.ID.IsZero() {
		product.ID = primitive.NewObjectID()
	}
	cp := *product
	m.products[product.ID] = &cp
	return nil
}

func (m *mockProductRepo) SetFeatured(_ context.Context, id primitive.ObjectID, featured bool) (*models.Product, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.products[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.IsFeatured = featured
	cp := *p
	return &cp, nil
}

func (m *mockProductRepo) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.products[id]; !ok {
		return repository.ErrNotFound
	}
	delete(m.products, id)
	return nil
}

func (m *mockProductRepo) setStock(id primitive.ObjectID, stock int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.products[id].Stock = stock
}

// --- Mock order repository ---

type mockOrderRepo struct {
	mu        sync.Mutex
	orders    []models.Order
	createErr error
}

func (m *mockOrderRepo) Create(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	for _, o := range m.orders {
		if o.StripeSessionID == order.StripeSessionID {
			return repository.ErrDuplicate
		}
	}
	if order.ID.IsZero() {
		order.ID = primitive.NewObjectID()
	}
	m.orders = append(m.orders, *order)
	return nil
}

func (m *mockOrderRepo) FindBySessionID(_ context.Context, sessionID string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.StripeSessionID == sessionID {
			cp := o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockOrderRepo) FindByID(_ context.Context, id primitive.ObjectID) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.orders {
		if o.ID == id {
			cp := o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *mockOrderRepo) FindByUser(_ context.Context, userID primitive.ObjectID) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Order{}
	for _, o := range m.orders {
		if o.User == userID {
			out = append(out, o)
		}
	}
	return out, nil
}

func (m *mockOrderRepo) EnsureIndexes(context.Context) error { return nil }

// --- Mock cart locker ---

type mockLocker struct {
	mu       sync.Mutex
	locks    map[string]*sync.Mutex
	acquired int
	err      error
}

func newMockLocker() *mockLocker {
	return &mockLocker{locks: make(map[string]*sync.Mutex)}
}

func (l *mockLocker) Lock(_ context.Context, userID string) (func(), error) {
	if l.err != nil {
		return nil, l.err
	}
	l.mu.Lock()
	m, ok := l.locks[userID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[userID] = m
	}
	l.acquired++
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

// --- Mock payment gateway ---

type mockGateway struct {
	created    []services.CreateSessionRequest
	sessions   map[string]*services.PaymentSession
	createErr  error
	getErr     error
	getCalls   int
	webhook    *services.WebhookEvent
	webhookErr error
}

func newMockGateway() *mockGateway {
	return &mockGateway{sessions: make(map[string]*services.PaymentSession)}
}

func (g *mockGateway) CreateSession(_ context.Context, req services.CreateSessionRequest) (*services.PaymentSession, error) {
	if g.createErr != nil {
		return nil, g.createErr
	}
	g.created = append(g.created, req)
	sess := &services.PaymentSession{
		ID:            "cs_test_" + primitive.NewObjectID().Hex(),
		URL:           "https://checkout.stripe.com/c/pay/test",
		Status:        "open",
		PaymentStatus: "unpaid",
		Metadata:      req.Metadata,
	}
	g.sessions[sess.ID] = sess
	return sess, nil
}

func (g *mockGateway) GetSession(_ context.Context, sessionID string) (*services.PaymentSession, error) {
	g.getCalls++
	if g.getErr != nil {
		return nil, g.getErr
	}
	sess, ok := g.sessions[sessionID]
	if !ok {
		return nil, errors.New("No such checkout.session: " + sessionID)
	}
	cp := *sess
	return &cp, nil
}

func (g *mockGateway) ConstructWebhookEvent(_ []byte, _ string) (*services.WebhookEvent, error) {
	if g.webhookErr != nil {
		return nil, g.webhookErr
	}
	return g.webhook, nil
}

// --- Mock event publisher ---

type mockPublisher struct {
	events []models.OrderCreatedEvent
	err    error
}

func (p *mockPublisher) PublishOrderCreated(_ context.Context, event models.OrderCreatedEvent) error {
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, event)
	return nil
}
