package models

import (
	"time"

	"gorm.io/gorm"
)

// ApprovalStatus represents the administrative approval state of a provider.
// A provider is created pending and is decided exactly once.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "pending"
	ApprovalApproved ApprovalStatus = "approved"
	ApprovalRejected ApprovalStatus = "rejected"
)

// ProviderType distinguishes service companies from independent mechanics
type ProviderType string

const (
	ProviderCompany  ProviderType = "company"
	ProviderMechanic ProviderType = "mechanic"
)

// Provider represents a service provider profile (wash company or mechanic)
type Provider struct {
	ID           uint         `json:"id" gorm:"primaryKey"`
	UserID       uint         `json:"user_id" gorm:"uniqueIndex;not null"`
	BusinessName string       `json:"business_name" gorm:"type:varchar(200);not null"`
	ProviderType ProviderType `json:"provider_type" gorm:"type:varchar(20);not null;default:'mechanic'"`
	PhoneNumber  string       `json:"phone_number" gorm:"type:varchar(20)"`
	City         string       `json:"city" gorm:"type:varchar(100)"`
	Address      string       `json:"address" gorm:"type:text"`

	// Location and availability
	IsAvailable        bool       `json:"is_available" gorm:"default:false"`
	CurrentLat         *float64   `json:"current_lat" gorm:"type:decimal(10,8)"`
	CurrentLng         *float64   `json:"current_lng" gorm:"type:decimal(11,8)"`
	LastLocationUpdate *time.Time `json:"last_location_update"`

	// Approval workflow
	ApprovalStatus    ApprovalStatus `json:"approval_status" gorm:"type:varchar(20);not null;default:'pending'"`
	ApprovalDecidedAt *time.Time     `json:"approval_decided_at"`

	// Reputation
	Rating        float64 `json:"rating" gorm:"type:decimal(3,2);default:0"`
	TotalReviews  int     `json:"total_reviews" gorm:"default:0"`
	CompletedJobs int     `json:"completed_jobs" gorm:"default:0"`

	// Media (uploaded during registration, reviewed by admin)
	ProfilePhoto     *string `json:"profile_photo" gorm:"type:varchar(500)"`
	LicencePhoto     *string `json:"licence_photo" gorm:"type:varchar(500)"`
	LicenceBackPhoto *string `json:"licence_photo_back" gorm:"type:varchar(500)"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	// Relationships
	User     User              `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Services []ProviderService `json:"services,omitempty" gorm:"foreignKey:ProviderID"`
}

// ProviderService is one entry of a provider's price list: the service type it
// offers and the price in minor currency units (e.g., paise). A missing row
// means the service is not offered.
type ProviderService struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	ProviderID  uint      `json:"provider_id" gorm:"not null;uniqueIndex:idx_provider_service"`
	ServiceType string    `json:"service_type" gorm:"type:varchar(100);not null;uniqueIndex:idx_provider_service"`
	PriceMinor  int64     `json:"price_minor" gorm:"not null;default:0"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// IsApproved reports whether the provider may appear in matching results
func (p *Provider) IsApproved() bool {
	return p.ApprovalStatus == ApprovalApproved
}

// HasLocation reports whether both coordinates are present
func (p *Provider) HasLocation() bool {
	return p.CurrentLat != nil && p.CurrentLng != nil
}

// ProviderRegisterRequest represents the request structure for creating a provider profile
type ProviderRegisterRequest struct {
	BusinessName string   `json:"business_name" binding:"required,min=2,max=200"`
	ProviderType string   `json:"provider_type" binding:"omitempty,oneof=company mechanic"`
	PhoneNumber  string   `json:"phone_number"`
	City         string   `json:"city"`
	Address      string   `json:"address"`
	CurrentLat   *float64 `json:"current_lat"`
	CurrentLng   *float64 `json:"current_lng"`
}

// ProviderServiceRequest is one price-list entry in an update request
type ProviderServiceRequest struct {
	ServiceType string `json:"service_type" binding:"required"`
	PriceMinor  int64  `json:"price_minor" binding:"required,min=0"`
}

// ProviderLocationUpdateRequest represents a provider's location update
type ProviderLocationUpdateRequest struct {
	Latitude    float64 `json:"latitude" binding:"required"`
	Longitude   float64 `json:"longitude" binding:"required"`
	IsAvailable bool    `json:"is_available"`
}
