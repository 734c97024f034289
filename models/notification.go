package models

import (
	"time"

	"gorm.io/gorm"
)

// RecipientType identifies which side of the marketplace a notification targets
type RecipientType string

const (
	RecipientCustomer RecipientType = "customer"
	RecipientProvider RecipientType = "provider"
)

type Notification struct {
	ID             uint           `json:"id" gorm:"primaryKey"`
	RecipientType  RecipientType  `json:"recipient_type" gorm:"type:varchar(20);not null"`
	RecipientID    uint           `json:"recipient_id" gorm:"not null;index"`
	Title          string         `json:"title" gorm:"not null"`
	Message        string         `json:"message" gorm:"not null"`
	RelatedOrderID *uint          `json:"related_order_id"`
	IsRead         bool           `json:"is_read" gorm:"default:false"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `json:"deleted_at" gorm:"index"`
}

// PushToken registers an external delivery channel for a user. Delivery itself
// happens outside this server; the table is only the channel registry.
type PushToken struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	UserID    uint           `json:"user_id" gorm:"not null"`
	Token     string         `json:"token" gorm:"not null;unique"`
	Platform  string         `json:"platform" gorm:"not null"` // ios, android
	DeviceID  string         `json:"device_id"`
	Active    bool           `json:"active" gorm:"default:true"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at" gorm:"index"`

	// Relations
	User User `json:"user" gorm:"foreignKey:UserID"`
}
