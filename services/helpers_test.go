package services

import (
	"testing"

	"carcare-marketplace-server/config"
	"carcare-marketplace-server/models"
)

// testEnv wires the services against the in-memory store
type testEnv struct {
	store     *fakeStore
	sink      *recordingSink
	publisher *recordingPublisher
	catalog   *CatalogService
	quotes    *QuoteService
	orders    *OrderService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := newFakeStore()
	sink := &recordingSink{}
	publisher := &recordingPublisher{}
	dispatcher := NewDispatcher(sink, publisher)
	cfg := config.MatchingConfig{
		DefaultRadiusKm:    20,
		MaxRadiusKm:        50,
		ServiceMatchMode:   config.MatchModeExact,
		QuoteTTLMinutes:    30,
		OrderExpiryMinutes: 60,
	}
	return &testEnv{
		store:     store,
		sink:      sink,
		publisher: publisher,
		catalog:   NewCatalogService(store, cfg),
		quotes:    NewQuoteService(store, dispatcher),
		orders:    NewOrderService(store, dispatcher, cfg),
	}
}

// seedProvider stores an approved, available provider at the given location
// offering the listed services. Returns the provider with its assigned ID.
func (e *testEnv) seedProvider(t *testing.T, userID uint, lat, lng float64, services ...models.ProviderService) *models.Provider {
	t.Helper()
	p := &models.Provider{
		UserID:         userID,
		BusinessName:   "Test Garage",
		ProviderType:   models.ProviderMechanic,
		ApprovalStatus: models.ApprovalApproved,
		IsAvailable:    true,
		CurrentLat:     &lat,
		CurrentLng:     &lng,
		Services:       services,
	}
	if err := e.store.SaveProvider(p); err != nil {
		t.Fatalf("seed provider: %v", err)
	}
	return p
}

// seedOrder creates a pending order for the customer
func (e *testEnv) seedOrder(t *testing.T, customerID uint) *models.Order {
	t.Helper()
	order, err := e.orders.CreateOrder(customerID, models.OrderCreateRequest{
		ServiceType:     "full_wash",
		LocationLat:     19.0760,
		LocationLng:     72.8777,
		LocationAddress: "12 Marine Drive",
	})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return order
}

// settleOrder submits a quote from the provider's user and accepts it,
// leaving the order confirmed on that provider.
func (e *testEnv) settleOrder(t *testing.T, order *models.Order, providerUserID uint, price int64) *models.Quote {
	t.Helper()
	quote, err := e.quotes.SubmitQuote(providerUserID, order.ID, models.QuoteSubmitRequest{PriceMinor: price})
	if err != nil {
		t.Fatalf("submit quote: %v", err)
	}
	if _, err := e.quotes.AcceptQuote(order.CustomerID, quote.ID); err != nil {
		t.Fatalf("accept quote: %v", err)
	}
	return quote
}
