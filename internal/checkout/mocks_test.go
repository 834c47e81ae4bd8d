package checkout

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/catalog"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/fulfillment"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/order"
	"github.com/Tanmoy095/LogiSynapse/services/storefront-service/internal/payment"
)

// --- MOCKS ---

// memOrderStore mimics the SQL store, including the conditional update.
type memOrderStore struct {
	mu        sync.Mutex
	byID      map[string]*order.Order
	createErr error
	markErr   error
	afterMark func() // runs after a successful transition
}

func newMemOrderStore() *memOrderStore {
	return &memOrderStore{byID: map[string]*order.Order{}}
}

func (m *memOrderStore) CreateOrder(ctx context.Context, o *order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return m.createErr
	}
	if _, ok := m.byID[o.ProviderOrderID]; ok {
		return order.ErrDuplicateOrder
	}
	cp := *o
	m.byID[o.ProviderOrderID] = &cp
	return nil
}

func (m *memOrderStore) GetOrderByProviderID(ctx context.Context, id string) (*order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.byID[id]
	if !ok {
		return nil, order.ErrOrderNotFound
	}
	cp := *o
	return &cp, nil
}

func (m *memOrderStore) MarkOrderPaid(ctx context.Context, id, paymentID string, paidAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	if m.markErr != nil {
		return m.markErr
	}
	o, ok := m.byID[id]
	if !ok {
		return order.ErrOrderNotFound
	}
	if o.Status != order.OrderPending {
		return order.ErrAlreadyPaid
	}
	o.Status = order.OrderPaid
	o.ProviderPaymentID = paymentID
	o.PaidAt = &paidAt
	if m.afterMark != nil {
		m.afterMark()
	}
	return nil
}

func (m *memOrderStore) GetPendingOrders(ctx context.Context, provider string, limit int, olderThan time.Duration) ([]*order.Order, error) {
	return nil, nil
}

func (m *memOrderStore) get(id string) order.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return *m.byID[id]
}

func (m *memOrderStore) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.byID)
}

type stubProducts struct {
	products map[string]*catalog.Product
}

func (s *stubProducts) GetProduct(ctx context.Context, id string) (*catalog.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return nil, catalog.ErrProductNotFound
	}
	return p, nil
}

// fakeProvider returns canned answers and counts calls.
type fakeProvider struct {
	name     string
	strategy payment.Strategy

	handle    *payment.RemoteOrderHandle
	createErr error
	lastReq   payment.RemoteOrderRequest

	outcome    payment.PaymentOutcome
	confirmErr error
	confirmFn  func(ctx context.Context, id string, a *payment.Assertion) (payment.PaymentOutcome, error)
	confirms   atomic.Int32
}

func (f *fakeProvider) Name() string { return f.name }

func (f *fakeProvider) Strategy() payment.Strategy { return f.strategy }

func (f *fakeProvider) CreateRemoteOrder(ctx context.Context, req payment.RemoteOrderRequest) (*payment.RemoteOrderHandle, error) {
	f.lastReq = req
	if f.createErr != nil {
		return nil, f.createErr
	}
	return f.handle, nil
}

func (f *fakeProvider) ConfirmPayment(ctx context.Context, id string, a *payment.Assertion) (payment.PaymentOutcome, error) {
	f.confirms.Add(1)
	if f.confirmFn != nil {
		return f.confirmFn(ctx, id, a)
	}
	return f.outcome, f.confirmErr
}

type recordingNotifier struct {
	mu      sync.Mutex
	sent    []fulfillment.Delivery
	ctxErrs []error
	err     error
	delay   time.Duration
}

func (r *recordingNotifier) Send(ctx context.Context, d fulfillment.Delivery) error {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, d)
	r.ctxErrs = append(r.ctxErrs, ctx.Err())
	return r.err
}

func (r *recordingNotifier) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

type recordingPublisher struct {
	mu     sync.Mutex
	keys   []string
	values []any
	err    error
}

func (r *recordingPublisher) Publish(ctx context.Context, key string, value any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keys = append(r.keys, key)
	r.values = append(r.values, value)
	return r.err
}

func (r *recordingPublisher) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.values)
}
