package review

import (
	"time"

	"cleandigo/internal/domain/profile"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Review is left by a customer for one of their completed bookings. A
// customer reviews a booking at most once.
type Review struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	BookingID   uuid.UUID `json:"booking_id" gorm:"type:uuid;not null;uniqueIndex:idx_review_booking_customer"`
	CustomerID  uuid.UUID `json:"customer_id" gorm:"type:uuid;not null;uniqueIndex:idx_review_booking_customer"`
	Rating      int       `json:"rating" gorm:"not null"`
	Comment     string    `json:"comment,omitempty"`
	IsPublished bool      `json:"is_published" gorm:"not null;default:false;index"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`

	Customer *profile.Profile `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
}

func (Review) TableName() string {
	return "reviews"
}

func (r *Review) BeforeCreate(_ *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
