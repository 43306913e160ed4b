package booking

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"
)

const EventBookingChanged = "booking.changed"

const (
	ActionCreated      = "created"
	ActionTransitioned = "transitioned"
	ActionAnnotated    = "annotated"
	ActionAssigned     = "assigned"
	ActionItemsChanged = "items_changed"
)

// Event describes a committed change to a booking.
type Event struct {
	Type       string     `json:"type"`
	Action     string     `json:"action"`
	BookingID  uuid.UUID  `json:"booking_id"`
	CustomerID uuid.UUID  `json:"customer_id"`
	CleanerID  *uuid.UUID `json:"cleaner_id,omitempty"`
	OldStatus  *Status    `json:"old_status,omitempty"`
	NewStatus  Status     `json:"new_status"`
	ActorID    uuid.UUID  `json:"actor_id"`
	At         time.Time  `json:"at"`
}

func NewEvent(action string, b *Booking, old *Status, actor uuid.UUID, at time.Time) Event {
	return Event{
		Type:       EventBookingChanged,
		Action:     action,
		BookingID:  b.ID,
		CustomerID: b.CustomerID,
		OldStatus:  old,
		NewStatus:  b.Status,
		ActorID:    actor,
		At:         at,
	}
}

type EventPublisher interface {
	Publish(ctx context.Context, e Event)
}

// Publishers fans an event out to every publisher in order.
type Publishers []EventPublisher

func (ps Publishers) Publish(ctx context.Context, e Event) {
	for _, p := range ps {
		if p != nil {
			p.Publish(ctx, e)
		}
	}
}

type JSONPublisher interface {
	PublishJSON(ctx context.Context, key string, v any) error
}

// BrokerPublisher routes events to a topic exchange as booking.<status>.
type BrokerPublisher struct {
	pub JSONPublisher
}

func NewBrokerPublisher(pub JSONPublisher) *BrokerPublisher {
	return &BrokerPublisher{pub: pub}
}

func (p *BrokerPublisher) Publish(ctx context.Context, e Event) {
	key := "booking." + string(e.NewStatus)
	if err := p.pub.PublishJSON(ctx, key, e); err != nil {
		log.Printf("booking_event_publish_failed key=%s booking_id=%s action=%s err=%v", key, e.BookingID, e.Action, err)
	}
}
