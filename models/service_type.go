package models

import (
	"time"
)

// ServiceType is a catalog entry of the services the marketplace supports.
// Orders and provider price lists reference entries by Slug.
type ServiceType struct {
	ID              uint      `json:"id" gorm:"primaryKey"`
	Slug            string    `json:"slug" gorm:"type:varchar(100);uniqueIndex;not null"`
	Name            string    `json:"name" gorm:"type:varchar(200);not null"`
	Description     string    `json:"description" gorm:"type:text"`
	Category        string    `json:"category" gorm:"type:varchar(50);not null"` // wash, mechanic
	BasePriceMinor  int64     `json:"base_price_minor" gorm:"default:0"`
	DurationMinutes int       `json:"duration_minutes" gorm:"default:60"`
	IconURL         string    `json:"icon_url" gorm:"type:varchar(500)"`
	IsActive        bool      `json:"is_active" gorm:"default:true"`
	SortOrder       int       `json:"sort_order" gorm:"default:0"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
