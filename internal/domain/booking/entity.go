package booking

import (
	"math"
	"time"

	"cleandigo/internal/domain/catalog"
	"cleandigo/internal/domain/profile"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Booking is one scheduled cleaning engagement. Bookings are never deleted;
// cancellation is a terminal status.
type Booking struct {
	ID          uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	CustomerID  uuid.UUID `json:"customer_id" gorm:"type:uuid;not null;index"`
	BookingDate string    `json:"booking_date" gorm:"type:varchar(10);not null;index"`
	StartTime   string    `json:"start_time" gorm:"type:varchar(5);not null"`
	EndTime     *string   `json:"end_time,omitempty" gorm:"type:varchar(5)"`
	Status      Status    `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	TotalAmount float64   `json:"total_amount" gorm:"not null;default:0"`
	Address     string    `json:"address" gorm:"not null"`
	Suburb      string    `json:"suburb" gorm:"type:varchar(100)"`
	Postcode    string    `json:"postcode" gorm:"type:varchar(10);index"`
	State       string    `json:"state" gorm:"type:varchar(10)"`
	Notes       string    `json:"notes,omitempty"`
	AdminNotes  string    `json:"admin_notes,omitempty"`
	CreatedAt   time.Time `json:"created_at" gorm:"index"`
	UpdatedAt   time.Time `json:"updated_at"`

	Items    []LineItem       `json:"items,omitempty" gorm:"foreignKey:BookingID"`
	Customer *profile.Profile `json:"customer,omitempty" gorm:"foreignKey:CustomerID"`
}

func (Booking) TableName() string {
	return "bookings"
}

func (b *Booking) BeforeCreate(_ *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// LineItem is one service selected within a booking. Prices are a snapshot
// taken when the item was added.
type LineItem struct {
	ID         uuid.UUID `json:"id" gorm:"type:uuid;primaryKey"`
	BookingID  uuid.UUID `json:"booking_id" gorm:"type:uuid;not null;index"`
	ServiceID  uuid.UUID `json:"service_id" gorm:"type:uuid;not null"`
	Quantity   int       `json:"quantity" gorm:"not null;default:1"`
	UnitPrice  float64   `json:"unit_price" gorm:"not null"`
	TotalPrice float64   `json:"total_price" gorm:"not null"`
	CreatedAt  time.Time `json:"created_at"`

	Service *catalog.Service `json:"service,omitempty" gorm:"foreignKey:ServiceID"`
}

func (LineItem) TableName() string {
	return "booking_items"
}

func (i *LineItem) BeforeCreate(_ *gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}

// StatusHistoryEntry is an append-only record of one status change or
// annotation. OldStatus is nil only for the creation entry.
type StatusHistoryEntry struct {
	ID        int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	BookingID uuid.UUID `json:"booking_id" gorm:"type:uuid;not null;index"`
	OldStatus *Status   `json:"old_status" gorm:"type:varchar(20)"`
	NewStatus Status    `json:"new_status" gorm:"type:varchar(20);not null"`
	ChangedBy uuid.UUID `json:"changed_by" gorm:"type:uuid;not null"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (StatusHistoryEntry) TableName() string {
	return "booking_status_history"
}

// ItemsTotal sums the line item totals of b.
func (b *Booking) ItemsTotal() float64 {
	var sum float64
	for _, it := range b.Items {
		sum += it.TotalPrice
	}
	return roundCents(sum)
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
