package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"hitpay-gateway/internal/hitpay"
	"hitpay-gateway/internal/models"

	"github.com/stretchr/testify/mock"
)

type delivery struct {
	OrderID int64
	Status  string
	Outcome string
}

// memStore mirrors the guard semantics of the postgres store.
type memStore struct {
	mu         sync.Mutex
	orders     map[int64]*models.Order
	meta       map[int64]map[string]string
	notes      map[int64][]string
	deliveries []delivery
	metaErr    error
}

func newMemStore(orders ...*models.Order) *memStore {
	s := &memStore{
		orders: map[int64]*models.Order{},
		meta:   map[int64]map[string]string{},
		notes:  map[int64][]string{},
	}
	for _, o := range orders {
		s.orders[o.ID] = o
	}
	return s
}

func (s *memStore) GetOrderByID(_ context.Context, id int64) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %d", models.ErrOrderNotFound, id)
	}
	cp := *o
	return &cp, nil
}

func (s *memStore) GetMeta(_ context.Context, orderID int64, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.metaErr != nil {
		return "", s.metaErr
	}
	return s.meta[orderID][key], nil
}

func (s *memStore) SetMeta(_ context.Context, orderID int64, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setMetaLocked(orderID, key, value)
	return nil
}

func (s *memStore) setMetaLocked(orderID int64, key, value string) {
	if s.meta[orderID] == nil {
		s.meta[orderID] = map[string]string{}
	}
	s.meta[orderID][key] = value
}

func (s *memStore) ApplyReconciliation(_ context.Context, rec models.Reconciliation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.meta[rec.OrderID][models.MetaWebhookStatus]; ok {
		return models.ErrAlreadyReconciled
	}
	o, ok := s.orders[rec.OrderID]
	if !ok {
		return models.ErrOrderNotFound
	}
	s.setMetaLocked(rec.OrderID, models.MetaWebhookStatus, rec.WebhookStatus)
	o.Status = rec.OrderStatus
	for k, v := range rec.Meta() {
		s.setMetaLocked(rec.OrderID, k, v)
	}
	s.notes[rec.OrderID] = append(s.notes[rec.OrderID], rec.Note)
	return nil
}

func (s *memStore) RecordWebhookDelivery(_ context.Context, orderID int64, status, _ string, outcome string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries = append(s.deliveries, delivery{OrderID: orderID, Status: status, Outcome: outcome})
	return nil
}

func (s *memStore) status(id int64) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.orders[id].Status
}

func (s *memStore) metaValue(id int64, key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta[id][key]
}

type memCarts struct {
	mu      sync.Mutex
	cleared []string
}

func (c *memCarts) ClearCart(_ context.Context, sessionID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cleared = append(c.cleared, sessionID)
	return nil
}

type memLocker struct {
	mu   sync.Mutex
	held map[string]string
	err  error
}

func newMemLocker() *memLocker {
	return &memLocker{held: map[string]string{}}
}

func (l *memLocker) AcquireLock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return "", false, l.err
	}
	if _, ok := l.held[key]; ok {
		return "", false, nil
	}
	token := fmt.Sprintf("token-%s", key)
	l.held[key] = token
	return token, true, nil
}

func (l *memLocker) ReleaseLock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

type memCache struct {
	mu     sync.Mutex
	values map[int64]string
	err    error
}

func newMemCache() *memCache {
	return &memCache{values: map[int64]string{}}
}

func (c *memCache) CachedStatus(_ context.Context, orderID int64) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return "", c.err
	}
	return c.values[orderID], nil
}

func (c *memCache) CacheStatus(_ context.Context, orderID int64, status string, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	c.values[orderID] = status
	return nil
}

type recordingPublisher struct {
	mu         sync.Mutex
	created    []*models.PaymentCreatedEvent
	reconciled []*models.PaymentReconciledEvent
}

func (p *recordingPublisher) PublishPaymentCreated(_ context.Context, e *models.PaymentCreatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.created = append(p.created, e)
	return nil
}

func (p *recordingPublisher) PublishPaymentReconciled(_ context.Context, e *models.PaymentReconciledEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.reconciled = append(p.reconciled, e)
	return nil
}

type mockPaymentCreator struct {
	mock.Mock
}

func (m *mockPaymentCreator) CreatePayment(ctx context.Context, req hitpay.CreatePaymentRequest) (*hitpay.CreatedPayment, error) {
	args := m.Called(ctx, req)
	created, _ := args.Get(0).(*hitpay.CreatedPayment)
	return created, args.Error(1)
}

var errBoom = errors.New("boom")
