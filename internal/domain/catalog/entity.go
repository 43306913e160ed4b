package catalog

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Service is one cleaning service on the price list.
type Service struct {
	ID            uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	Name          string    `json:"name" gorm:"type:varchar(150);not null"`
	Description   string    `json:"description,omitempty"`
	BasePrice     float64   `json:"base_price" gorm:"not null;default:0"`
	DurationHours float64   `json:"duration_hours" gorm:"not null;default:0"`
	IsActive      bool      `json:"is_active" gorm:"not null;default:true;index"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func (Service) TableName() string {
	return "services"
}

func (s *Service) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}
