package services

import (
	"fmt"
	"log"
	"time"

	"carcare-marketplace-server/models"
)

// QuoteService owns the quote ledger: submission, listing, and the
// accept/reject decisions that settle an order's pending quotes.
type QuoteService struct {
	store      Store
	dispatcher *Dispatcher
}

func NewQuoteService(store Store, dispatcher *Dispatcher) *QuoteService {
	return &QuoteService{store: store, dispatcher: dispatcher}
}

// SubmitQuote records a provider's offer against a pending order. A provider
// may hold at most one pending quote per order; re-submitting while one is
// pending returns ErrDuplicateQuote.
func (s *QuoteService) SubmitQuote(userID, orderID uint, req models.QuoteSubmitRequest) (*models.Quote, error) {
	if req.PriceMinor <= 0 {
		return nil, fmt.Errorf("%w: price must be positive", ErrValidation)
	}

	provider, err := s.store.GetProviderByUserID(userID)
	if err != nil {
		return nil, err
	}
	if !provider.IsApproved() {
		return nil, fmt.Errorf("%w: provider is not approved", ErrForbidden)
	}

	order, err := s.store.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.Status != models.OrderStatusPending {
		return nil, fmt.Errorf("%w: order is %s", ErrInvalidState, order.Status)
	}

	quote := &models.Quote{
		OrderID:                  order.ID,
		ProviderID:               provider.ID,
		PriceMinor:               req.PriceMinor,
		EstimatedDurationMinutes: req.EstimatedDurationMinutes,
		Notes:                    req.Notes,
		Status:                   models.QuoteStatusPending,
	}
	if err := s.store.CreateQuote(quote); err != nil {
		return nil, err
	}

	log.Printf("📋 Quote %d submitted on order %d by provider %d", quote.ID, order.ID, provider.ID)
	s.dispatcher.Dispatch(&models.Notification{
		RecipientType:  models.RecipientCustomer,
		RecipientID:    order.CustomerID,
		Title:          "New quote received",
		Message:        fmt.Sprintf("%s sent you a quote for your %s order", provider.BusinessName, order.ServiceType),
		RelatedOrderID: &order.ID,
	}, OrderEvent{
		Type:    EventQuoteSubmitted,
		OrderID: order.ID,
		Data:    quote,
	})
	return quote, nil
}

// AcceptQuote settles the order on the given quote: the quote becomes
// accepted, every other pending quote becomes rejected, and the order moves
// to confirmed with the quoted provider and amount. The whole decision runs
// in one transaction.
//
// If a concurrent accept already settled the order on a different quote, the
// loser gets ErrAlreadyDecided and nothing is mutated. Any other state
// mismatch gets ErrInvalidState, also without mutation.
func (s *QuoteService) AcceptQuote(customerID, quoteID uint) (*models.Quote, error) {
	// A quote's order ID never changes, so the unlocked read is safe.
	pre, err := s.store.GetQuote(quoteID)
	if err != nil {
		return nil, err
	}

	var (
		accepted *models.Quote
		rejected []models.Quote
		order    *models.Order
	)

	err = s.store.Transact(func(tx Tx) error {
		// Lock the order before any of its quotes. Every writer that locks
		// both takes them in this sequence, so two concurrent accepts on the
		// same order queue up on the order row instead of deadlocking on each
		// other's quote locks.
		ord, err := tx.GetOrderForUpdate(pre.OrderID)
		if err != nil {
			return err
		}
		quote, err := tx.GetQuoteForUpdate(quoteID)
		if err != nil {
			return err
		}
		if ord.CustomerID != customerID {
			return fmt.Errorf("%w: order belongs to another customer", ErrForbidden)
		}

		switch quote.Status {
		case models.QuoteStatusPending:
			if ord.Status != models.OrderStatusPending {
				return fmt.Errorf("%w: order is %s", ErrInvalidState, ord.Status)
			}
		case models.QuoteStatusRejected:
			// The quote lost a race: a concurrent accept settled the
			// order on a sibling quote and rejected this one.
			if ord.SelectedProviderID != nil {
				return fmt.Errorf("%w: order was settled on another quote", ErrAlreadyDecided)
			}
			return fmt.Errorf("%w: quote was rejected", ErrInvalidState)
		default:
			return fmt.Errorf("%w: quote is %s", ErrInvalidState, quote.Status)
		}

		now := time.Now()
		quote.Status = models.QuoteStatusAccepted
		quote.DecidedAt = &now
		if err := tx.SaveQuote(quote); err != nil {
			return err
		}

		losers, err := tx.RejectPendingQuotes(ord.ID, quote.ID)
		if err != nil {
			return err
		}

		ord.Status = models.OrderStatusConfirmed
		ord.SelectedProviderID = &quote.ProviderID
		ord.TotalAmountMinor = quote.PriceMinor
		ord.Version++
		if err := tx.SaveOrder(ord); err != nil {
			return err
		}

		accepted, rejected, order = quote, losers, ord
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("✅ Quote %d accepted on order %d, %d sibling quote(s) rejected", accepted.ID, order.ID, len(rejected))
	s.notifyDecision(order, accepted, rejected)
	return accepted, nil
}

// RejectQuote declines a single pending quote. The order stays pending and
// its other quotes are untouched.
func (s *QuoteService) RejectQuote(customerID, quoteID uint) (*models.Quote, error) {
	pre, err := s.store.GetQuote(quoteID)
	if err != nil {
		return nil, err
	}

	var (
		quote *models.Quote
		order *models.Order
	)

	err = s.store.Transact(func(tx Tx) error {
		// Same lock sequence as AcceptQuote: order row first, then the quote
		ord, err := tx.GetOrderForUpdate(pre.OrderID)
		if err != nil {
			return err
		}
		q, err := tx.GetQuoteForUpdate(quoteID)
		if err != nil {
			return err
		}
		if ord.CustomerID != customerID {
			return fmt.Errorf("%w: order belongs to another customer", ErrForbidden)
		}
		if q.Status != models.QuoteStatusPending {
			return fmt.Errorf("%w: quote is %s", ErrInvalidState, q.Status)
		}

		now := time.Now()
		q.Status = models.QuoteStatusRejected
		q.DecidedAt = &now
		if err := tx.SaveQuote(q); err != nil {
			return err
		}
		quote, order = q, ord
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(&models.Notification{
		RecipientType:  models.RecipientProvider,
		RecipientID:    quote.ProviderID,
		Title:          "Quote declined",
		Message:        fmt.Sprintf("Your quote for the %s order was declined", order.ServiceType),
		RelatedOrderID: &order.ID,
	}, OrderEvent{
		Type:    EventQuoteRejected,
		OrderID: order.ID,
		Data:    quote,
	})
	return quote, nil
}

// ListOrderQuotes returns the quotes on an order the customer owns
func (s *QuoteService) ListOrderQuotes(customerID, orderID uint, sort QuoteSort) ([]models.Quote, error) {
	order, err := s.store.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, fmt.Errorf("%w: order belongs to another customer", ErrForbidden)
	}
	if sort == "" {
		sort = QuoteSortCreated
	}
	return s.store.ListQuotesByOrder(orderID, sort)
}

// ListProviderQuotes returns the quotes the provider has submitted
func (s *QuoteService) ListProviderQuotes(userID uint) ([]models.Quote, error) {
	provider, err := s.store.GetProviderByUserID(userID)
	if err != nil {
		return nil, err
	}
	return s.store.ListQuotesByProvider(provider.ID)
}

// ExpireStaleQuotes rejects pending quotes older than the given TTL. Returns
// the number of quotes rejected.
func (s *QuoteService) ExpireStaleQuotes(ttl time.Duration, limit int) (int, error) {
	cutoff := time.Now().Add(-ttl)
	stale, err := s.store.ListStalePendingQuotes(cutoff, limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range stale {
		id := stale[i].ID
		err := s.store.Transact(func(tx Tx) error {
			q, err := tx.GetQuoteForUpdate(id)
			if err != nil {
				return err
			}
			// Re-check under lock; the quote may have been decided meanwhile
			if q.Status != models.QuoteStatusPending || q.CreatedAt.After(cutoff) {
				return fmt.Errorf("%w: quote no longer stale", ErrInvalidState)
			}
			now := time.Now()
			q.Status = models.QuoteStatusRejected
			q.DecidedAt = &now
			return tx.SaveQuote(q)
		})
		if err != nil {
			continue
		}
		expired++
	}
	return expired, nil
}

func (s *QuoteService) notifyDecision(order *models.Order, accepted *models.Quote, rejected []models.Quote) {
	s.dispatcher.Dispatch(&models.Notification{
		RecipientType:  models.RecipientProvider,
		RecipientID:    accepted.ProviderID,
		Title:          "Quote accepted",
		Message:        fmt.Sprintf("Your quote for the %s order was accepted", order.ServiceType),
		RelatedOrderID: &order.ID,
	}, OrderEvent{
		Type:    EventQuoteAccepted,
		OrderID: order.ID,
		Data:    accepted,
	})

	for i := range rejected {
		q := &rejected[i]
		s.dispatcher.Dispatch(&models.Notification{
			RecipientType:  models.RecipientProvider,
			RecipientID:    q.ProviderID,
			Title:          "Quote declined",
			Message:        fmt.Sprintf("The customer chose another provider for the %s order", order.ServiceType),
			RelatedOrderID: &order.ID,
		}, OrderEvent{
			Type:    EventQuoteRejected,
			OrderID: order.ID,
			Data:    q,
		})
	}

	s.dispatcher.Dispatch(nil, OrderEvent{
		Type:    EventOrderStatusChanged,
		OrderID: order.ID,
		Data:    order,
	})
}
