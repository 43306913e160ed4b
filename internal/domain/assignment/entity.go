package assignment

import (
	"time"

	"cleandigo/internal/domain/profile"

	"github.com/google/uuid"
)

// Assignment binds a cleaner to a booking. Rows are never updated or
// deleted; the current assignment is the latest by AssignedAt.
type Assignment struct {
	ID         int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	BookingID  uuid.UUID `json:"booking_id" gorm:"type:uuid;not null;index"`
	CleanerID  uuid.UUID `json:"cleaner_id" gorm:"type:uuid;not null;index"`
	AssignedBy uuid.UUID `json:"assigned_by" gorm:"type:uuid;not null"`
	AssignedAt time.Time `json:"assigned_at" gorm:"not null;index"`
	Notes      string    `json:"notes,omitempty"`

	Cleaner *profile.Profile `json:"cleaner,omitempty" gorm:"foreignKey:CleanerID"`
}

func (Assignment) TableName() string {
	return "assignments"
}
