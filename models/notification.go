package models

import (
	"time"

	"gorm.io/gorm"
)

// NotificationType enumerates every lifecycle event that informs a user
type NotificationType string

const (
	NotificationNewRequest      NotificationType = "newRequest"
	NotificationRequestAccepted NotificationType = "requestAccepted"
	NotificationRatingPrompt    NotificationType = "ratingPrompt"
	NotificationBoostPromotion  NotificationType = "boostPromotion"
	NotificationAutoClosed      NotificationType = "autoClosed"
	NotificationPlanPromotion   NotificationType = "planPromotion"
)

// Notification is immutable once created except for the Read flag.
type Notification struct {
	ID        uint             `json:"id" gorm:"primaryKey"`
	UserID    uint             `json:"user_id" gorm:"not null;index"`
	Type      NotificationType `json:"type" gorm:"type:varchar(30);not null"`
	Title     string           `json:"title" gorm:"not null"`
	Message   string           `json:"message" gorm:"not null"`
	Data      string           `json:"data" gorm:"type:text"` // JSON payload
	Read      bool             `json:"read" gorm:"default:false"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
	DeletedAt gorm.DeletedAt   `json:"deleted_at,omitempty" gorm:"index"`

	// Relations
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}

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
	User *User `json:"user,omitempty" gorm:"foreignKey:UserID"`
}
