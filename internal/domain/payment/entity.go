package payment

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusPending  Status = "pending"
	StatusPaid     Status = "paid"
	StatusFailed   Status = "failed"
	StatusRefunded Status = "refunded"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusFailed, StatusRefunded:
		return true
	}
	return false
}

// Payment is recorded by an admin against a booking. Processing itself
// happens outside this system.
type Payment struct {
	ID            uuid.UUID  `json:"id" gorm:"type:uuid;primaryKey"`
	BookingID     uuid.UUID  `json:"booking_id" gorm:"type:uuid;not null;index"`
	Amount        float64    `json:"amount" gorm:"not null"`
	Method        string     `json:"payment_method,omitempty" gorm:"column:payment_method;type:varchar(32)"`
	Status        Status     `json:"payment_status" gorm:"column:payment_status;type:varchar(20);not null;default:'pending'"`
	PaymentDate   *time.Time `json:"payment_date,omitempty"`
	TransactionID string     `json:"transaction_id,omitempty" gorm:"type:varchar(128)"`
	InvoiceNumber string     `json:"invoice_number,omitempty" gorm:"type:varchar(64)"`
	CreatedAt     time.Time  `json:"created_at" gorm:"index"`
}

func (Payment) TableName() string {
	return "payments"
}

func (p *Payment) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
