package booking

import "github.com/google/uuid"

type ItemRequest struct {
	ServiceID uuid.UUID `json:"service_id" validate:"required"`
	Quantity  int       `json:"quantity" validate:"min=1"`
}

type CreateRequest struct {
	CustomerID  uuid.UUID     `json:"customer_id"`
	BookingDate string        `json:"booking_date" validate:"required,datetime=2006-01-02"`
	StartTime   string        `json:"start_time" validate:"required,datetime=15:04"`
	EndTime     *string       `json:"end_time,omitempty" validate:"omitempty,datetime=15:04"`
	Address     string        `json:"address" validate:"required,max=255"`
	Suburb      string        `json:"suburb" validate:"required,max=100"`
	Postcode    string        `json:"postcode" validate:"required,max=10"`
	State       string        `json:"state" validate:"max=10"`
	Notes       string        `json:"notes" validate:"max=2000"`
	AdminNotes  string        `json:"admin_notes" validate:"max=2000"`
	Status      Status        `json:"status,omitempty"`
	Items       []ItemRequest `json:"items" validate:"required,min=1,dive"`
}

// Transition is the committed result of a status change or annotation.
type Transition struct {
	Booking *Booking            `json:"booking"`
	Entry   *StatusHistoryEntry `json:"entry"`
}
