package websocket

import (
	"carcare-marketplace-server/services"
)

// EventBridge adapts the hub to the service layer's publisher interface
type EventBridge struct {
	hub *Hub
}

func NewEventBridge(hub *Hub) *EventBridge {
	return &EventBridge{hub: hub}
}

// PublishOrderEvent pushes an order event to everyone watching the order.
// Delivery is best effort; nobody watching is not an error.
func (b *EventBridge) PublishOrderEvent(orderID uint, event services.OrderEvent) {
	b.hub.SendToOrderWatchers(orderID, &Message{
		Type:      event.Type,
		OrderID:   orderID,
		Timestamp: event.Timestamp,
		Data:      event.Data,
	})
}
