package models

import (
	"time"
)

// QuoteStatus represents the status of a provider's quote on an order.
// A quote transitions exactly once from pending to accepted or rejected.
type QuoteStatus string

const (
	QuoteStatusPending  QuoteStatus = "pending"
	QuoteStatusAccepted QuoteStatus = "accepted"
	QuoteStatusRejected QuoteStatus = "rejected"
)

// Quote represents a provider's offer against a customer order
type Quote struct {
	ID         uint `json:"id" gorm:"primaryKey"`
	OrderID    uint `json:"order_id" gorm:"not null;index"`
	ProviderID uint `json:"provider_id" gorm:"not null;index"`

	PriceMinor               int64  `json:"price_minor" gorm:"not null"`
	EstimatedDurationMinutes int    `json:"estimated_duration_minutes"`
	Notes                    string `json:"notes" gorm:"type:text"`

	Status    QuoteStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	DecidedAt *time.Time  `json:"decided_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// Relationships
	Order    Order    `json:"order,omitempty" gorm:"foreignKey:OrderID"`
	Provider Provider `json:"provider,omitempty" gorm:"foreignKey:ProviderID"`
}

// IsDecided reports whether the quote has left the pending state
func (q *Quote) IsDecided() bool {
	return q.Status != QuoteStatusPending
}

// QuoteSubmitRequest represents the request structure for submitting a quote
type QuoteSubmitRequest struct {
	PriceMinor               int64  `json:"price_minor" binding:"required,min=1"`
	EstimatedDurationMinutes int    `json:"estimated_duration_minutes" binding:"omitempty,min=1"`
	Notes                    string `json:"notes"`
}
