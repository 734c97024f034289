package services

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"carcare-marketplace-server/models"
)

// fakeStore is an in-memory Store for tests. Transact serializes callers
// under one mutex and stages writes until the callback returns nil, so the
// rollback-on-error contract matches the real database.
type fakeStore struct {
	mu        sync.Mutex
	orders    map[uint]*models.Order
	quotes    map[uint]*models.Quote
	providers map[uint]*models.Provider
	nextID    uint
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		orders:    make(map[uint]*models.Order),
		quotes:    make(map[uint]*models.Quote),
		providers: make(map[uint]*models.Provider),
	}
}

func (s *fakeStore) allocID() uint {
	s.nextID++
	return s.nextID
}

func copyOrder(o *models.Order) *models.Order {
	c := *o
	return &c
}

func copyQuote(q *models.Quote) *models.Quote {
	c := *q
	return &c
}

func copyProvider(p *models.Provider) *models.Provider {
	c := *p
	c.Services = append([]models.ProviderService(nil), p.Services...)
	return &c
}

type fakeTx struct {
	s            *fakeStore
	stagedOrders map[uint]*models.Order
	stagedQuotes map[uint]*models.Quote
}

func (tx *fakeTx) GetOrderForUpdate(id uint) (*models.Order, error) {
	if o, ok := tx.stagedOrders[id]; ok {
		return copyOrder(o), nil
	}
	o, ok := tx.s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
	}
	return copyOrder(o), nil
}

func (tx *fakeTx) GetQuoteForUpdate(id uint) (*models.Quote, error) {
	if q, ok := tx.stagedQuotes[id]; ok {
		return copyQuote(q), nil
	}
	q, ok := tx.s.quotes[id]
	if !ok {
		return nil, fmt.Errorf("%w: quote %d", ErrNotFound, id)
	}
	return copyQuote(q), nil
}

func (tx *fakeTx) SaveOrder(order *models.Order) error {
	tx.stagedOrders[order.ID] = copyOrder(order)
	return nil
}

func (tx *fakeTx) SaveQuote(quote *models.Quote) error {
	tx.stagedQuotes[quote.ID] = copyQuote(quote)
	return nil
}

func (tx *fakeTx) RejectPendingQuotes(orderID, exceptID uint) ([]models.Quote, error) {
	var ids []uint
	for id := range tx.s.quotes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var rejected []models.Quote
	now := time.Now()
	for _, id := range ids {
		q := tx.s.quotes[id]
		if staged, ok := tx.stagedQuotes[id]; ok {
			q = staged
		}
		if q.OrderID != orderID || q.ID == exceptID || q.Status != models.QuoteStatusPending {
			continue
		}
		c := copyQuote(q)
		c.Status = models.QuoteStatusRejected
		c.DecidedAt = &now
		tx.stagedQuotes[id] = c
		rejected = append(rejected, *c)
	}
	return rejected, nil
}

func (s *fakeStore) Transact(fn func(tx Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &fakeTx{
		s:            s,
		stagedOrders: make(map[uint]*models.Order),
		stagedQuotes: make(map[uint]*models.Quote),
	}
	if err := fn(tx); err != nil {
		return err
	}
	for id, o := range tx.stagedOrders {
		s.orders[id] = o
	}
	for id, q := range tx.stagedQuotes {
		s.quotes[id] = q
	}
	return nil
}

func (s *fakeStore) CreateOrder(order *models.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	order.ID = s.allocID()
	order.CreatedAt = time.Now()
	s.orders[order.ID] = copyOrder(order)
	return nil
}

func (s *fakeStore) GetOrder(id uint) (*models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: order %d", ErrNotFound, id)
	}
	return copyOrder(o), nil
}

func (s *fakeStore) ListOrdersByCustomer(customerID uint) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.CustomerID == customerID {
			out = append(out, *copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *fakeStore) ListOrdersByProvider(providerID uint) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.SelectedProviderID != nil && *o.SelectedProviderID == providerID {
			out = append(out, *copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *fakeStore) ListExpiredPendingOrders(now time.Time, limit int) ([]models.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Order
	for _, o := range s.orders {
		if o.Status == models.OrderStatusPending && o.ExpiresAt != nil && o.ExpiresAt.Before(now) {
			out = append(out, *copyOrder(o))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) CreateQuote(quote *models.Quote) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, q := range s.quotes {
		if q.OrderID == quote.OrderID && q.ProviderID == quote.ProviderID && q.Status == models.QuoteStatusPending {
			return fmt.Errorf("%w: provider %d on order %d", ErrDuplicateQuote, quote.ProviderID, quote.OrderID)
		}
	}
	quote.ID = s.allocID()
	quote.CreatedAt = time.Now()
	s.quotes[quote.ID] = copyQuote(quote)
	return nil
}

func (s *fakeStore) GetQuote(id uint) (*models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q, ok := s.quotes[id]
	if !ok {
		return nil, fmt.Errorf("%w: quote %d", ErrNotFound, id)
	}
	return copyQuote(q), nil
}

func (s *fakeStore) ListQuotesByOrder(orderID uint, sortBy QuoteSort) ([]models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Quote
	for _, q := range s.quotes {
		if q.OrderID == orderID {
			out = append(out, *copyQuote(q))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if sortBy == QuoteSortPrice {
		sort.SliceStable(out, func(i, j int) bool { return out[i].PriceMinor < out[j].PriceMinor })
	}
	return out, nil
}

func (s *fakeStore) ListQuotesByProvider(providerID uint) ([]models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Quote
	for _, q := range s.quotes {
		if q.ProviderID == providerID {
			out = append(out, *copyQuote(q))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (s *fakeStore) ListStalePendingQuotes(cutoff time.Time, limit int) ([]models.Quote, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Quote
	for _, q := range s.quotes {
		if q.Status == models.QuoteStatusPending && q.CreatedAt.Before(cutoff) {
			out = append(out, *copyQuote(q))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *fakeStore) GetProvider(id uint) (*models.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.providers[id]
	if !ok {
		return nil, fmt.Errorf("%w: provider %d", ErrNotFound, id)
	}
	return copyProvider(p), nil
}

func (s *fakeStore) GetProviderByUserID(userID uint) (*models.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.providers {
		if p.UserID == userID {
			return copyProvider(p), nil
		}
	}
	return nil, fmt.Errorf("%w: provider for user %d", ErrNotFound, userID)
}

func (s *fakeStore) ListMatchableProviders() ([]models.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Provider
	for _, p := range s.providers {
		if p.ApprovalStatus == models.ApprovalApproved && p.IsAvailable {
			out = append(out, *copyProvider(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *fakeStore) SaveProvider(provider *models.Provider) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if provider.ID == 0 {
		provider.ID = s.allocID()
	}
	s.providers[provider.ID] = copyProvider(provider)
	return nil
}

// recordingPublisher captures published order events for assertions
type recordingPublisher struct {
	mu     sync.Mutex
	events []OrderEvent
}

func (p *recordingPublisher) PublishOrderEvent(orderID uint, event OrderEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

// recordingSink captures stored notifications for assertions
type recordingSink struct {
	mu            sync.Mutex
	notifications []models.Notification
}

func (s *recordingSink) CreateNotification(n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notifications = append(s.notifications, *n)
	return nil
}
