package models

import (
	"time"
)

// PasswordReset stores one-time password reset codes
type PasswordReset struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	UserID    uint      `json:"user_id" gorm:"not null;index"`
	CodeHash  string    `json:"-" gorm:"type:varchar(255);not null"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Used      bool      `json:"used" gorm:"default:false"`
	CreatedAt time.Time `json:"created_at"`
}

// IsValid reports whether the code may still be redeemed
func (r *PasswordReset) IsValid() bool {
	return !r.Used && time.Now().Before(r.ExpiresAt)
}
