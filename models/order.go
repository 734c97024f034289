package models

import (
	"time"

	"gorm.io/gorm"
)

// OrderStatus represents the current status of a service order
type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusConfirmed  OrderStatus = "confirmed"
	OrderStatusInProgress OrderStatus = "in_progress"
	OrderStatusCompleted  OrderStatus = "completed"
	OrderStatusCancelled  OrderStatus = "cancelled"
	OrderStatusRejected   OrderStatus = "rejected"
)

// orderTransitions is the full transition table of the order state machine.
// Anything not listed here is an illegal transition.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusConfirmed, OrderStatusRejected, OrderStatusCancelled},
	OrderStatusConfirmed:  {OrderStatusInProgress, OrderStatusCancelled},
	OrderStatusInProgress: {OrderStatusCompleted, OrderStatusCancelled},
}

// IsTerminal reports whether no further transitions are allowed from s
func (s OrderStatus) IsTerminal() bool {
	return len(orderTransitions[s]) == 0
}

// CanTransition reports whether from → to is a legal order transition
func CanTransition(from, to OrderStatus) bool {
	for _, next := range orderTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Order represents a customer's service order
type Order struct {
	ID         uint   `json:"id" gorm:"primaryKey"`
	Reference  string `json:"reference" gorm:"type:varchar(36);uniqueIndex;not null"`
	CustomerID uint   `json:"customer_id" gorm:"not null"`

	ServiceType         string     `json:"service_type" gorm:"type:varchar(100);not null"`
	LocationLat         *float64   `json:"location_lat" gorm:"type:decimal(10,8)"`
	LocationLng         *float64   `json:"location_lng" gorm:"type:decimal(11,8)"`
	LocationAddress     string     `json:"location_address" gorm:"type:text;not null"`
	LocationCity        string     `json:"location_city" gorm:"type:varchar(100)"`
	ScheduledDate       *time.Time `json:"scheduled_date"`
	ScheduledTime       string     `json:"scheduled_time" gorm:"type:varchar(20)"`
	VehicleDescription  string     `json:"vehicle_description" gorm:"type:varchar(200)"`
	SpecialInstructions string     `json:"special_instructions" gorm:"type:text"`

	Status             OrderStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	SelectedProviderID *uint       `json:"selected_provider_id"`
	TotalAmountMinor   int64       `json:"total_amount_minor" gorm:"not null;default:0"`
	PaymentStatus      string      `json:"payment_status" gorm:"type:varchar(20);not null;default:'unpaid'"` // unpaid, paid

	// Version is bumped on every state transition. It backs the optimistic
	// compare-and-swap in the store and lets callers verify "no mutation".
	Version uint `json:"version" gorm:"not null;default:0"`

	ExpiresAt   *time.Time `json:"expires_at"`
	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`

	// Review left by the customer after completion
	CustomerRating *int   `json:"customer_rating"`
	CustomerReview string `json:"customer_review" gorm:"type:text"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relationships
	Customer         User      `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
	SelectedProvider *Provider `json:"selected_provider,omitempty" gorm:"foreignKey:SelectedProviderID"`
	Quotes           []Quote   `json:"quotes,omitempty" gorm:"foreignKey:OrderID"`
}

// CanTransitionTo reports whether the order may move to the given status
func (o *Order) CanTransitionTo(to OrderStatus) bool {
	return CanTransition(o.Status, to)
}

// HasLocation reports whether both coordinates are present
func (o *Order) HasLocation() bool {
	return o.LocationLat != nil && o.LocationLng != nil
}

// OrderCreateRequest represents the request structure for creating an order
type OrderCreateRequest struct {
	ServiceType         string  `json:"service_type" binding:"required"`
	LocationLat         float64 `json:"location_lat" binding:"required"`
	LocationLng         float64 `json:"location_lng" binding:"required"`
	LocationAddress     string  `json:"location_address" binding:"required"`
	LocationCity        string  `json:"location_city"`
	ScheduledDate       string  `json:"scheduled_date"` // ISO8601 date, optional
	ScheduledTime       string  `json:"scheduled_time"`
	VehicleID           *uint   `json:"vehicle_id"`
	VehicleDescription  string  `json:"vehicle_description"`
	SpecialInstructions string  `json:"special_instructions"`
}

// OrderReviewRequest represents a customer review of a completed order
type OrderReviewRequest struct {
	Rating int    `json:"rating" binding:"required,min=1,max=5"`
	Review string `json:"review"`
}
