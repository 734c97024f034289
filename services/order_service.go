package services

import (
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"carcare-marketplace-server/config"
	"carcare-marketplace-server/models"
	"carcare-marketplace-server/utils"
)

// OrderService owns the order lifecycle from creation through completion
type OrderService struct {
	store      Store
	dispatcher *Dispatcher
	cfg        config.MatchingConfig
}

func NewOrderService(store Store, dispatcher *Dispatcher, cfg config.MatchingConfig) *OrderService {
	return &OrderService{store: store, dispatcher: dispatcher, cfg: cfg}
}

// CreateOrder opens a new pending order for the customer. The order expires
// if no quote is accepted before the configured window elapses.
func (s *OrderService) CreateOrder(customerID uint, req models.OrderCreateRequest) (*models.Order, error) {
	if !utils.IsLocationValid(req.LocationLat, req.LocationLng) {
		return nil, fmt.Errorf("%w: invalid coordinates", ErrValidation)
	}
	if req.ServiceType == "" {
		return nil, fmt.Errorf("%w: service_type is required", ErrValidation)
	}

	lat, lng := req.LocationLat, req.LocationLng
	order := &models.Order{
		Reference:           uuid.NewString(),
		CustomerID:          customerID,
		ServiceType:         req.ServiceType,
		LocationLat:         &lat,
		LocationLng:         &lng,
		LocationAddress:     req.LocationAddress,
		LocationCity:        req.LocationCity,
		ScheduledTime:       req.ScheduledTime,
		VehicleDescription:  req.VehicleDescription,
		SpecialInstructions: req.SpecialInstructions,
		Status:              models.OrderStatusPending,
	}

	if req.ScheduledDate != "" {
		date, err := time.Parse("2006-01-02", req.ScheduledDate)
		if err != nil {
			return nil, fmt.Errorf("%w: scheduled_date must be YYYY-MM-DD", ErrValidation)
		}
		order.ScheduledDate = &date
	}

	if s.cfg.OrderExpiryMinutes > 0 {
		expiresAt := time.Now().Add(time.Duration(s.cfg.OrderExpiryMinutes) * time.Minute)
		order.ExpiresAt = &expiresAt
	}

	if err := s.store.CreateOrder(order); err != nil {
		return nil, err
	}
	log.Printf("🚗 Order %d (%s) created by customer %d", order.ID, order.ServiceType, customerID)
	return order, nil
}

// GetCustomerOrder fetches an order the customer owns
func (s *OrderService) GetCustomerOrder(customerID, orderID uint) (*models.Order, error) {
	order, err := s.store.GetOrder(orderID)
	if err != nil {
		return nil, err
	}
	if order.CustomerID != customerID {
		return nil, fmt.Errorf("%w: order belongs to another customer", ErrForbidden)
	}
	return order, nil
}

// ListCustomerOrders returns the customer's orders, newest first
func (s *OrderService) ListCustomerOrders(customerID uint) ([]models.Order, error) {
	return s.store.ListOrdersByCustomer(customerID)
}

// ListProviderOrders returns orders settled on the provider of the given user
func (s *OrderService) ListProviderOrders(userID uint) ([]models.Order, error) {
	provider, err := s.store.GetProviderByUserID(userID)
	if err != nil {
		return nil, err
	}
	return s.store.ListOrdersByProvider(provider.ID)
}

// CancelOrder cancels the customer's order. Allowed while the order is
// pending, confirmed, or in progress; terminal orders return
// ErrInvalidTransition. Pending quotes on the order are rejected in the same
// transaction so providers are not left waiting on a dead order.
func (s *OrderService) CancelOrder(customerID, orderID uint) (*models.Order, error) {
	var (
		order  *models.Order
		losers []models.Quote
	)
	err := s.store.Transact(func(tx Tx) error {
		o, err := tx.GetOrderForUpdate(orderID)
		if err != nil {
			return err
		}
		if o.CustomerID != customerID {
			return fmt.Errorf("%w: order belongs to another customer", ErrForbidden)
		}
		if !o.CanTransitionTo(models.OrderStatusCancelled) {
			return fmt.Errorf("%w: cannot move order from %s to %s", ErrInvalidTransition, o.Status, models.OrderStatusCancelled)
		}

		rejected, err := tx.RejectPendingQuotes(o.ID, 0)
		if err != nil {
			return err
		}

		o.Status = models.OrderStatusCancelled
		o.Version++
		if err := tx.SaveOrder(o); err != nil {
			return err
		}
		order, losers = o, rejected
		return nil
	})
	if err != nil {
		return nil, err
	}

	for i := range losers {
		q := &losers[i]
		s.dispatcher.Dispatch(&models.Notification{
			RecipientType:  models.RecipientProvider,
			RecipientID:    q.ProviderID,
			Title:          "Quote declined",
			Message:        fmt.Sprintf("The %s order was cancelled before your quote was decided", order.ServiceType),
			RelatedOrderID: &order.ID,
		}, OrderEvent{Type: EventQuoteRejected, OrderID: order.ID, Data: q})
	}

	if order.SelectedProviderID != nil {
		s.dispatcher.Dispatch(&models.Notification{
			RecipientType:  models.RecipientProvider,
			RecipientID:    *order.SelectedProviderID,
			Title:          "Order cancelled",
			Message:        fmt.Sprintf("The customer cancelled the %s order", order.ServiceType),
			RelatedOrderID: &order.ID,
		}, OrderEvent{Type: EventOrderStatusChanged, OrderID: order.ID, Data: order})
	} else {
		s.dispatcher.Dispatch(nil, OrderEvent{Type: EventOrderStatusChanged, OrderID: order.ID, Data: order})
	}
	return order, nil
}

// StartOrder moves a confirmed order to in progress. Only the provider the
// order was settled on may start it.
func (s *OrderService) StartOrder(userID, orderID uint) (*models.Order, error) {
	provider, err := s.store.GetProviderByUserID(userID)
	if err != nil {
		return nil, err
	}

	order, err := s.transition(orderID, models.OrderStatusInProgress, func(o *models.Order) error {
		if o.SelectedProviderID == nil || *o.SelectedProviderID != provider.ID {
			return fmt.Errorf("%w: order is assigned to another provider", ErrForbidden)
		}
		now := time.Now()
		o.StartedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(&models.Notification{
		RecipientType:  models.RecipientCustomer,
		RecipientID:    order.CustomerID,
		Title:          "Work started",
		Message:        fmt.Sprintf("%s started working on your %s order", provider.BusinessName, order.ServiceType),
		RelatedOrderID: &order.ID,
	}, OrderEvent{Type: EventOrderStatusChanged, OrderID: order.ID, Data: order})
	return order, nil
}

// CompleteOrder finishes an in-progress order and credits the provider's
// completed job count.
func (s *OrderService) CompleteOrder(userID, orderID uint) (*models.Order, error) {
	provider, err := s.store.GetProviderByUserID(userID)
	if err != nil {
		return nil, err
	}

	order, err := s.transition(orderID, models.OrderStatusCompleted, func(o *models.Order) error {
		if o.SelectedProviderID == nil || *o.SelectedProviderID != provider.ID {
			return fmt.Errorf("%w: order is assigned to another provider", ErrForbidden)
		}
		now := time.Now()
		o.CompletedAt = &now
		return nil
	})
	if err != nil {
		return nil, err
	}

	provider.CompletedJobs++
	if err := s.store.SaveProvider(provider); err != nil {
		log.Printf("⚠️ Failed to update completed job count for provider %d: %v", provider.ID, err)
	}

	s.dispatcher.Dispatch(&models.Notification{
		RecipientType:  models.RecipientCustomer,
		RecipientID:    order.CustomerID,
		Title:          "Order completed",
		Message:        fmt.Sprintf("Your %s order is complete", order.ServiceType),
		RelatedOrderID: &order.ID,
	}, OrderEvent{Type: EventOrderStatusChanged, OrderID: order.ID, Data: order})
	return order, nil
}

// SubmitReview records the customer's one-time rating of a completed order
// and folds it into the provider's rating aggregate.
func (s *OrderService) SubmitReview(customerID, orderID uint, req models.OrderReviewRequest) (*models.Order, error) {
	if req.Rating < 1 || req.Rating > 5 {
		return nil, fmt.Errorf("%w: rating must be between 1 and 5", ErrValidation)
	}

	var order *models.Order
	err := s.store.Transact(func(tx Tx) error {
		o, err := tx.GetOrderForUpdate(orderID)
		if err != nil {
			return err
		}
		if o.CustomerID != customerID {
			return fmt.Errorf("%w: order belongs to another customer", ErrForbidden)
		}
		if o.Status != models.OrderStatusCompleted {
			return fmt.Errorf("%w: order is %s", ErrInvalidState, o.Status)
		}
		if o.CustomerRating != nil {
			return fmt.Errorf("%w: order was already reviewed", ErrInvalidState)
		}

		rating := req.Rating
		o.CustomerRating = &rating
		o.CustomerReview = req.Review
		if err := tx.SaveOrder(o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}

	if order.SelectedProviderID != nil {
		if err := s.applyRating(*order.SelectedProviderID, req.Rating); err != nil {
			log.Printf("⚠️ Failed to update rating for provider %d: %v", *order.SelectedProviderID, err)
		}
	}
	return order, nil
}

// ExpirePendingOrders cancels pending orders whose expiry window has passed.
// Pending quotes on an expired order are rejected in the same transaction,
// like CancelOrder. Returns the number of orders cancelled.
func (s *OrderService) ExpirePendingOrders(limit int) (int, error) {
	stale, err := s.store.ListExpiredPendingOrders(time.Now(), limit)
	if err != nil {
		return 0, err
	}

	expired := 0
	for i := range stale {
		id := stale[i].ID
		var (
			order  *models.Order
			losers []models.Quote
		)
		err := s.store.Transact(func(tx Tx) error {
			o, err := tx.GetOrderForUpdate(id)
			if err != nil {
				return err
			}
			// Re-check under lock; the order may have been settled meanwhile
			if o.Status != models.OrderStatusPending || o.ExpiresAt == nil || o.ExpiresAt.After(time.Now()) {
				return fmt.Errorf("%w: order no longer expired", ErrInvalidState)
			}

			rejected, err := tx.RejectPendingQuotes(o.ID, 0)
			if err != nil {
				return err
			}

			o.Status = models.OrderStatusCancelled
			o.Version++
			if err := tx.SaveOrder(o); err != nil {
				return err
			}
			order, losers = o, rejected
			return nil
		})
		if err != nil {
			continue
		}
		expired++

		for j := range losers {
			q := &losers[j]
			s.dispatcher.Dispatch(&models.Notification{
				RecipientType:  models.RecipientProvider,
				RecipientID:    q.ProviderID,
				Title:          "Quote declined",
				Message:        fmt.Sprintf("The %s order expired before your quote was decided", order.ServiceType),
				RelatedOrderID: &order.ID,
			}, OrderEvent{Type: EventQuoteRejected, OrderID: order.ID, Data: q})
		}

		s.dispatcher.Dispatch(&models.Notification{
			RecipientType:  models.RecipientCustomer,
			RecipientID:    order.CustomerID,
			Title:          "Order expired",
			Message:        fmt.Sprintf("Your %s order expired without an accepted quote", order.ServiceType),
			RelatedOrderID: &order.ID,
		}, OrderEvent{Type: EventOrderStatusChanged, OrderID: order.ID, Data: order})
	}
	return expired, nil
}

// transition applies one legal status change under lock. The check callback
// runs after the lock is taken and before any mutation; returning an error
// from it aborts with nothing written.
func (s *OrderService) transition(orderID uint, to models.OrderStatus, check func(*models.Order) error) (*models.Order, error) {
	var order *models.Order
	err := s.store.Transact(func(tx Tx) error {
		o, err := tx.GetOrderForUpdate(orderID)
		if err != nil {
			return err
		}
		if check != nil {
			if err := check(o); err != nil {
				return err
			}
		}
		if !o.CanTransitionTo(to) {
			return fmt.Errorf("%w: cannot move order from %s to %s", ErrInvalidTransition, o.Status, to)
		}
		o.Status = to
		o.Version++
		if err := tx.SaveOrder(o); err != nil {
			return err
		}
		order = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return order, nil
}

func (s *OrderService) applyRating(providerID uint, rating int) error {
	provider, err := s.store.GetProvider(providerID)
	if err != nil {
		return err
	}
	total := float64(provider.TotalReviews)
	provider.Rating = (provider.Rating*total + float64(rating)) / (total + 1)
	provider.TotalReviews++
	return s.store.SaveProvider(provider)
}
