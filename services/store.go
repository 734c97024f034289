package services

import (
	"time"

	"carcare-marketplace-server/models"
)

// QuoteSort selects the ordering of a quote listing
type QuoteSort string

const (
	QuoteSortPrice   QuoteSort = "price"   // price ascending, then created
	QuoteSortCreated QuoteSort = "created" // submission order
)

// Tx is the transactional view of the store. Rows fetched ForUpdate are
// locked until the enclosing Transact call returns, so decisions made on
// them are atomic with the writes that follow. A transaction that locks an
// order and any of its quotes must lock the order first.
type Tx interface {
	GetOrderForUpdate(id uint) (*models.Order, error)
	GetQuoteForUpdate(id uint) (*models.Quote, error)
	SaveOrder(order *models.Order) error
	SaveQuote(quote *models.Quote) error

	// RejectPendingQuotes marks every pending quote on the order as
	// rejected, except the one with exceptID, and returns the quotes it
	// rejected.
	RejectPendingQuotes(orderID, exceptID uint) ([]models.Quote, error)
}

// Store is the persistence boundary of the service layer. The production
// implementation wraps the database; tests use an in-memory fake.
type Store interface {
	// Transact runs fn inside a single database transaction. Returning an
	// error rolls everything back.
	Transact(fn func(tx Tx) error) error

	// Orders
	CreateOrder(order *models.Order) error
	GetOrder(id uint) (*models.Order, error)
	ListOrdersByCustomer(customerID uint) ([]models.Order, error)
	ListOrdersByProvider(providerID uint) ([]models.Order, error)
	ListExpiredPendingOrders(now time.Time, limit int) ([]models.Order, error)

	// Quotes
	CreateQuote(quote *models.Quote) error
	GetQuote(id uint) (*models.Quote, error)
	ListQuotesByOrder(orderID uint, sort QuoteSort) ([]models.Quote, error)
	ListQuotesByProvider(providerID uint) ([]models.Quote, error)
	ListStalePendingQuotes(cutoff time.Time, limit int) ([]models.Quote, error)

	// Providers
	GetProvider(id uint) (*models.Provider, error)
	GetProviderByUserID(userID uint) (*models.Provider, error)
	ListMatchableProviders() ([]models.Provider, error)
	SaveProvider(provider *models.Provider) error
}
