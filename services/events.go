package services

import (
	"log"
	"time"

	"carcare-marketplace-server/models"
)

// Event types pushed to order watchers over the realtime channel
const (
	EventQuoteSubmitted     = "quote_submitted"
	EventQuoteAccepted      = "quote_accepted"
	EventQuoteRejected      = "quote_rejected"
	EventOrderStatusChanged = "order_status_changed"
)

// OrderEvent is a realtime notification about an order
type OrderEvent struct {
	Type      string      `json:"type"`
	OrderID   uint        `json:"order_id"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// EventPublisher pushes order events to connected watchers. Publishing is
// best effort; a missing or slow watcher never fails the operation.
type EventPublisher interface {
	PublishOrderEvent(orderID uint, event OrderEvent)
}

// NotificationSink persists notifications for later retrieval
type NotificationSink interface {
	CreateNotification(n *models.Notification) error
}

// Dispatcher fans out domain events: it writes a notification row for the
// recipient and pushes a realtime event to anyone watching the order.
// Dispatch never returns an error; delivery failures are logged and dropped.
type Dispatcher struct {
	sink      NotificationSink
	publisher EventPublisher
}

// NewDispatcher creates a dispatcher. Either argument may be nil, in which
// case that delivery path is skipped.
func NewDispatcher(sink NotificationSink, publisher EventPublisher) *Dispatcher {
	return &Dispatcher{sink: sink, publisher: publisher}
}

// Dispatch stores the notification and publishes the event
func (d *Dispatcher) Dispatch(n *models.Notification, event OrderEvent) {
	if d == nil {
		return
	}
	if d.sink != nil && n != nil {
		if err := d.sink.CreateNotification(n); err != nil {
			log.Printf("⚠️ Failed to store notification for %s %d: %v", n.RecipientType, n.RecipientID, err)
		}
	}
	if d.publisher != nil && event.Type != "" {
		if event.Timestamp.IsZero() {
			event.Timestamp = time.Now()
		}
		d.publisher.PublishOrderEvent(event.OrderID, event)
	}
}
