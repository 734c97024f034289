package models

import (
	"time"
)

// PaymentStatus represents the state of a payment attempt
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "pending"
	PaymentApproved PaymentStatus = "approved"
	PaymentFailed   PaymentStatus = "failed"
)

// Payment records one checkout attempt against a confirmed or completed order.
// ExternalID and CheckoutURL come back from the payment gateway.
type Payment struct {
	ID          uint          `json:"id" gorm:"primaryKey"`
	OrderID     uint          `json:"order_id" gorm:"not null;index"`
	Reference   string        `json:"reference" gorm:"type:varchar(36);uniqueIndex;not null"`
	AmountMinor int64         `json:"amount_minor" gorm:"not null"`
	Currency    string        `json:"currency" gorm:"type:varchar(3);not null;default:'INR'"`
	Status      PaymentStatus `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	ExternalID  string        `json:"external_id" gorm:"type:varchar(100)"`
	CheckoutURL string        `json:"checkout_url" gorm:"type:varchar(500)"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`

	Order Order `json:"order,omitempty" gorm:"foreignKey:OrderID"`
}
