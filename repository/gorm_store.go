package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"carcare-marketplace-server/models"
	"carcare-marketplace-server/services"
)

// GormStore implements services.Store on top of the database. Row locks taken
// with SELECT FOR UPDATE hold until the surrounding transaction commits.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

// Transact runs fn inside one database transaction
func (s *GormStore) Transact(fn func(tx services.Tx) error) error {
	return s.db.Transaction(func(tx *gorm.DB) error {
		return fn(&gormTx{db: tx})
	})
}

type gormTx struct {
	db *gorm.DB
}

func (t *gormTx) GetOrderForUpdate(id uint) (*models.Order, error) {
	var order models.Order
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, id).Error
	if err != nil {
		return nil, translateNotFound(err, "order", id)
	}
	return &order, nil
}

func (t *gormTx) GetQuoteForUpdate(id uint) (*models.Quote, error) {
	var quote models.Quote
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&quote, id).Error
	if err != nil {
		return nil, translateNotFound(err, "quote", id)
	}
	return &quote, nil
}

func (t *gormTx) SaveOrder(order *models.Order) error {
	return t.db.Save(order).Error
}

func (t *gormTx) SaveQuote(quote *models.Quote) error {
	return t.db.Save(quote).Error
}

func (t *gormTx) RejectPendingQuotes(orderID, exceptID uint) ([]models.Quote, error) {
	var quotes []models.Quote
	err := t.db.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("order_id = ? AND id <> ? AND status = ?", orderID, exceptID, models.QuoteStatusPending).
		Find(&quotes).Error
	if err != nil {
		return nil, err
	}
	if len(quotes) == 0 {
		return nil, nil
	}

	now := time.Now()
	ids := make([]uint, len(quotes))
	for i := range quotes {
		ids[i] = quotes[i].ID
		quotes[i].Status = models.QuoteStatusRejected
		quotes[i].DecidedAt = &now
	}
	err = t.db.Model(&models.Quote{}).
		Where("id IN ?", ids).
		Updates(map[string]interface{}{"status": models.QuoteStatusRejected, "decided_at": now}).Error
	if err != nil {
		return nil, err
	}
	return quotes, nil
}

func (s *GormStore) CreateOrder(order *models.Order) error {
	return s.db.Create(order).Error
}

func (s *GormStore) GetOrder(id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.Preload("Quotes").Preload("SelectedProvider").First(&order, id).Error
	if err != nil {
		return nil, translateNotFound(err, "order", id)
	}
	return &order, nil
}

func (s *GormStore) ListOrdersByCustomer(customerID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("SelectedProvider").
		Where("customer_id = ?", customerID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (s *GormStore) ListOrdersByProvider(providerID uint) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.Preload("Customer").
		Where("selected_provider_id = ?", providerID).
		Order("created_at DESC").
		Find(&orders).Error
	return orders, err
}

func (s *GormStore) ListExpiredPendingOrders(now time.Time, limit int) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.
		Where("status = ? AND expires_at IS NOT NULL AND expires_at < ?", models.OrderStatusPending, now).
		Limit(limit).
		Find(&orders).Error
	return orders, err
}

// CreateQuote inserts a quote. The partial unique index on pending quotes
// turns a concurrent duplicate into ErrDuplicateQuote.
func (s *GormStore) CreateQuote(quote *models.Quote) error {
	if err := s.db.Create(quote).Error; err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: provider %d on order %d", services.ErrDuplicateQuote, quote.ProviderID, quote.OrderID)
		}
		return err
	}
	return nil
}

func (s *GormStore) GetQuote(id uint) (*models.Quote, error) {
	var quote models.Quote
	err := s.db.Preload("Provider").First(&quote, id).Error
	if err != nil {
		return nil, translateNotFound(err, "quote", id)
	}
	return &quote, nil
}

func (s *GormStore) ListQuotesByOrder(orderID uint, sort services.QuoteSort) ([]models.Quote, error) {
	query := s.db.Preload("Provider").Where("order_id = ?", orderID)
	switch sort {
	case services.QuoteSortPrice:
		query = query.Order("price_minor ASC, created_at ASC")
	default:
		query = query.Order("created_at ASC")
	}
	var quotes []models.Quote
	err := query.Find(&quotes).Error
	return quotes, err
}

func (s *GormStore) ListQuotesByProvider(providerID uint) ([]models.Quote, error) {
	var quotes []models.Quote
	err := s.db.Preload("Order").
		Where("provider_id = ?", providerID).
		Order("created_at DESC").
		Find(&quotes).Error
	return quotes, err
}

func (s *GormStore) ListStalePendingQuotes(cutoff time.Time, limit int) ([]models.Quote, error) {
	var quotes []models.Quote
	err := s.db.
		Where("status = ? AND created_at < ?", models.QuoteStatusPending, cutoff).
		Limit(limit).
		Find(&quotes).Error
	return quotes, err
}

func (s *GormStore) GetProvider(id uint) (*models.Provider, error) {
	var provider models.Provider
	err := s.db.Preload("Services").First(&provider, id).Error
	if err != nil {
		return nil, translateNotFound(err, "provider", id)
	}
	return &provider, nil
}

func (s *GormStore) GetProviderByUserID(userID uint) (*models.Provider, error) {
	var provider models.Provider
	err := s.db.Preload("Services").Where("user_id = ?", userID).First(&provider).Error
	if err != nil {
		return nil, translateNotFound(err, "provider for user", userID)
	}
	return &provider, nil
}

func (s *GormStore) ListMatchableProviders() ([]models.Provider, error) {
	var providers []models.Provider
	err := s.db.Preload("Services").
		Where("approval_status = ? AND is_available = ?", models.ApprovalApproved, true).
		Find(&providers).Error
	return providers, err
}

func (s *GormStore) SaveProvider(provider *models.Provider) error {
	return s.db.Save(provider).Error
}

// CreateNotification lets the store double as the dispatcher's sink
func (s *GormStore) CreateNotification(n *models.Notification) error {
	return s.db.Create(n).Error
}

func translateNotFound(err error, kind string, id uint) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%w: %s %d", services.ErrNotFound, kind, id)
	}
	return err
}

func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
