package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Vehicle represents a customer's saved vehicle
type Vehicle struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	UserID       uint           `json:"user_id" gorm:"not null;index"`
	Make         string         `json:"make" gorm:"type:varchar(100);not null"`
	Model        string         `json:"model" gorm:"type:varchar(100);not null"`
	Year         int            `json:"year"`
	Color        string         `json:"color" gorm:"type:varchar(50)"`
	PlateNumber  string         `json:"plate_number" gorm:"type:varchar(20)"`
	IsDefault    bool           `json:"is_default" gorm:"default:false"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relations
	User User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// Describe returns a short human-readable description for order snapshots
func (v *Vehicle) Describe() string {
	if v.Year > 0 {
		return fmt.Sprintf("%d %s %s (%s)", v.Year, v.Make, v.Model, v.Color)
	}
	return fmt.Sprintf("%s %s (%s)", v.Make, v.Model, v.Color)
}

// VehicleCreateRequest represents the request structure for adding a vehicle
type VehicleCreateRequest struct {
	Make        string `json:"make" binding:"required,min=1,max=100"`
	Model       string `json:"model" binding:"required,min=1,max=100"`
	Year        int    `json:"year" binding:"omitempty,min=1950,max=2100"`
	Color       string `json:"color"`
	PlateNumber string `json:"plate_number"`
	IsDefault   bool   `json:"is_default"`
}
