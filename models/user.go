package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleEndUser         UserRole = "endUser"
	RoleServiceProvider UserRole = "serviceProvider"
)

type SubscriptionPlan string

const (
	PlanFree  SubscriptionPlan = "free"
	PlanBasic SubscriptionPlan = "basic"
	PlanPro   SubscriptionPlan = "pro"
)

// AllowedRadiusKm is the fixed set of provider work radii.
var AllowedRadiusKm = []int{5, 10, 15, 20}

type User struct {
	ID           uint             `json:"id" gorm:"primaryKey"`
	PhoneNumber  string           `json:"phone_number" gorm:"size:20;uniqueIndex;not null"`
	Name         string           `json:"name" gorm:"size:255;not null"`
	Language     string           `json:"language" gorm:"size:10;not null;default:'en'"`
	Role         UserRole         `json:"role" gorm:"type:varchar(20);default:''"`
	CreditPoints int              `json:"credit_points" gorm:"default:0"`
	Plan         SubscriptionPlan `json:"plan" gorm:"type:varchar(10);not null;default:'free'"`
	PhotoURL     *string          `json:"photo_url" gorm:"size:500"`
	IsActive     bool             `json:"is_active" gorm:"default:true"`
	CreatedAt    time.Time        `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time        `json:"updated_at" gorm:"autoUpdateTime"`

	// Relationships
	ProviderProfile *ProviderProfile `json:"provider_profile,omitempty" gorm:"foreignKey:UserID"`
	WorkRequests    []WorkRequest    `json:"work_requests,omitempty" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for the User model
func (User) TableName() string {
	return "users"
}

// BeforeCreate is a GORM hook that runs before creating a user
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.Plan == "" {
		u.Plan = PlanFree
	}
	return nil
}

// IsServiceProvider checks if the user is a service provider
func (u *User) IsServiceProvider() bool {
	return u.Role == RoleServiceProvider
}

// IsEndUser checks if the user is an end user
func (u *User) IsEndUser() bool {
	return u.Role == RoleEndUser
}

// ProviderProfile holds the service-provider facet of a user. The services
// set is soft-capped at 3 in the client UI only; the server stores whatever
// it receives. RadiusKm is validated against AllowedRadiusKm but is not
// consulted anywhere in matching.
type ProviderProfile struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	UserID       uint      `json:"user_id" gorm:"uniqueIndex;not null"`
	ServicesRaw  string    `json:"-" gorm:"column:services;type:text;not null;default:''"` // comma-separated service ids
	Services     []string  `json:"services" gorm:"-"`
	LocationName *string   `json:"location_name" gorm:"size:255"`
	LocationLat  *float64  `json:"location_lat" gorm:"type:decimal(10,8)"`
	LocationLng  *float64  `json:"location_lng" gorm:"type:decimal(11,8)"`
	RadiusKm     int       `json:"radius_km" gorm:"default:5"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Relationships
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

// TableName specifies the table name for the ProviderProfile model
func (ProviderProfile) TableName() string {
	return "provider_profiles"
}

// AfterFind exposes the comma-stored services as a slice
func (p *ProviderProfile) AfterFind(tx *gorm.DB) error {
	p.Services = p.ServiceList()
	return nil
}

// ServiceList returns the declared services as a slice.
func (p *ProviderProfile) ServiceList() []string {
	if p.ServicesRaw == "" {
		return nil
	}
	return strings.Split(p.ServicesRaw, ",")
}

// SetServiceList stores a slice of service ids.
func (p *ProviderProfile) SetServiceList(services []string) {
	p.ServicesRaw = strings.Join(services, ",")
	p.Services = services
}

// OffersService checks whether the provider declares the exact service id.
func (p *ProviderProfile) OffersService(service string) bool {
	for _, s := range p.ServiceList() {
		if s == service {
			return true
		}
	}
	return false
}

// ProviderInfoRequest is the provider_info payload on profile updates
type ProviderInfoRequest struct {
	Services     []string `json:"services" binding:"required"`
	LocationName *string  `json:"location_name"`
	LocationLat  *float64 `json:"location_lat"`
	LocationLng  *float64 `json:"location_lng"`
	RadiusKm     *int     `json:"radius_km"`
}

// ProfileUpdateRequest is the payload for PUT /profile
type ProfileUpdateRequest struct {
	Name         *string              `json:"name"`
	Language     *string              `json:"language"`
	Role         *string              `json:"role" binding:"omitempty,oneof=endUser serviceProvider"`
	ProviderInfo *ProviderInfoRequest `json:"provider_info"`
}
