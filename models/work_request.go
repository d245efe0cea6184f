package models

import (
	"strings"
	"time"

	"gorm.io/gorm"
)

// WorkRequestStatus represents the current status of a work request
type WorkRequestStatus string

const (
	RequestStatusActive WorkRequestStatus = "active"
	RequestStatusClosed WorkRequestStatus = "closed"
)

// WorkRequest is a posted service need created by an end user. Status moves
// active -> closed exactly once; Boosted moves false -> true exactly once.
type WorkRequest struct {
	ID           uint              `json:"id" gorm:"primaryKey"`
	UserID       uint              `json:"user_id" gorm:"not null;index"`
	User         *User             `json:"user,omitempty" gorm:"foreignKey:UserID"`
	Service      string            `json:"service" gorm:"size:100;not null"`
	LocationName string            `json:"location_name" gorm:"size:255;not null"`
	LocationLat  float64           `json:"location_lat" gorm:"type:decimal(10,8)"`
	LocationLng  float64           `json:"location_lng" gorm:"type:decimal(11,8)"`
	TagsRaw      string            `json:"-" gorm:"column:tags;type:text;not null;default:''"` // comma-separated
	Tags         []string          `json:"tags" gorm:"-"`
	Status       WorkRequestStatus `json:"status" gorm:"type:varchar(10);not null;default:'active'"`
	Boosted      bool              `json:"boosted" gorm:"default:false"`
	ClosedAt     *time.Time        `json:"closed_at"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`

	// Relationships
	Acceptances []RequestAcceptance `json:"accepted_providers,omitempty" gorm:"foreignKey:RequestID"`
	Rating      *RequestRating      `json:"rating,omitempty" gorm:"foreignKey:RequestID"`
}

// TableName specifies the table name for the WorkRequest model
func (WorkRequest) TableName() string {
	return "work_requests"
}

// AfterFind exposes the comma-stored tags as a slice
func (w *WorkRequest) AfterFind(tx *gorm.DB) error {
	w.Tags = w.TagList()
	return nil
}

// TagList returns the free-text tags as a slice.
func (w *WorkRequest) TagList() []string {
	if w.TagsRaw == "" {
		return nil
	}
	return strings.Split(w.TagsRaw, ",")
}

// SetTagList stores a slice of tags.
func (w *WorkRequest) SetTagList(tags []string) {
	w.TagsRaw = strings.Join(tags, ",")
	w.Tags = tags
}

// IsClosed reports whether the request has been closed.
func (w *WorkRequest) IsClosed() bool {
	return w.Status == RequestStatusClosed
}

// RequestAcceptance records one provider accepting a request. A provider
// appears at most once per request; there is no cap on how many providers
// accept the same request.
type RequestAcceptance struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	RequestID  uint      `json:"request_id" gorm:"not null;index:idx_request_provider,unique"`
	ProviderID uint      `json:"provider_id" gorm:"not null;index:idx_request_provider,unique"`
	AcceptedAt time.Time `json:"accepted_at" gorm:"not null"`

	// Relationships
	Provider *User `json:"provider,omitempty" gorm:"foreignKey:ProviderID"`
}

// TableName specifies the table name for the RequestAcceptance model
func (RequestAcceptance) TableName() string {
	return "request_acceptances"
}

// RequestRating is the optional rating attached when the owner closes a
// request. The rated provider is not checked against the acceptance list.
type RequestRating struct {
	ID         uint      `json:"id" gorm:"primaryKey"`
	RequestID  uint      `json:"request_id" gorm:"uniqueIndex;not null"`
	ProviderID uint      `json:"provider_id" gorm:"not null"`
	Stars      int       `json:"stars" gorm:"type:int;not null;check:stars >= 1 AND stars <= 5"`
	Review     string    `json:"review" gorm:"type:text"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName specifies the table name for the RequestRating model
func (RequestRating) TableName() string {
	return "request_ratings"
}

// WorkRequestCreate represents the request structure for creating a work request
type WorkRequestCreate struct {
	Service  string        `json:"service" binding:"required"`
	Location LocationInput `json:"location" binding:"required"`
	Tags     []string      `json:"tags"`
	Force    bool          `json:"force"`
}

// LocationInput carries a named coordinate pair
type LocationInput struct {
	Name string   `json:"name"`
	Lat  *float64 `json:"lat"`
	Lng  *float64 `json:"lng"`
}

// WorkRequestClose represents the request structure for closing a work request
type WorkRequestClose struct {
	ProviderID *uint  `json:"provider_id"`
	Stars      *int   `json:"stars"`
	Review     string `json:"review"`
}

// HasRating reports whether the close payload carries a rating.
func (c *WorkRequestClose) HasRating() bool {
	return c.ProviderID != nil && c.Stars != nil
}
