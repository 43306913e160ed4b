package notification

import (
	"context"
	"fmt"
	"log"
	"strings"

	"cleandigo/internal/domain/assignment"
	"cleandigo/internal/domain/booking"
	"cleandigo/internal/domain/profile"

	"github.com/google/uuid"
)

// Sender is what the booking notifier needs from a dispatcher.
type Sender interface {
	Dispatch(ctx context.Context, p Payload) (*Result, error)
}

type ProfileReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
}

// BookingNotifier turns committed booking changes into messages. Delivery
// errors are logged and never reach the booking operation.
type BookingNotifier struct {
	profiles ProfileReader
	email    Sender
	sms      Sender
}

func NewBookingNotifier(profiles ProfileReader, email Sender) *BookingNotifier {
	return &BookingNotifier{profiles: profiles, email: email}
}

// WithSMS also texts customers and cleaners that have a phone number.
func (n *BookingNotifier) WithSMS(sms Sender) *BookingNotifier {
	n.sms = sms
	return n
}

var (
	_ booking.Notifier    = (*BookingNotifier)(nil)
	_ assignment.Notifier = (*BookingNotifier)(nil)
)

func (n *BookingNotifier) BookingCreated(ctx context.Context, b *booking.Booking) {
	customer := n.customer(ctx, b)
	if customer == nil {
		return
	}
	key := fmt.Sprintf("%s-%s", EventBookingCreated, b.ID)
	n.send(ctx, EventBookingCreated, key, b, customer, MessageData{})
}

// StatusChanged covers completion and cancellation. Moving to assigned is
// announced by CleanerAssigned, which knows the cleaner.
func (n *BookingNotifier) StatusChanged(ctx context.Context, b *booking.Booking, entry *booking.StatusHistoryEntry) {
	var event EventType
	switch entry.NewStatus {
	case booking.StatusCompleted:
		event = EventBookingCompleted
	case booking.StatusCancelled:
		event = EventBookingCancelled
	default:
		return
	}
	customer := n.customer(ctx, b)
	if customer == nil {
		return
	}
	key := fmt.Sprintf("%s-%s-%d", event, b.ID, entry.ID)
	n.send(ctx, event, key, b, customer, MessageData{Note: entry.Notes})
}

func (n *BookingNotifier) Rescheduled(ctx context.Context, b *booking.Booking, entry *booking.StatusHistoryEntry) {
	customer := n.customer(ctx, b)
	if customer == nil {
		return
	}
	note := b.AdminNotes
	if i := strings.IndexByte(note, '\n'); i >= 0 {
		note = note[:i]
	}
	key := fmt.Sprintf("%s-%s-%d", EventBookingRescheduled, b.ID, entry.ID)
	n.send(ctx, EventBookingRescheduled, key, b, customer, MessageData{Note: note})
}

// CleanerAssigned tells both the customer and the cleaner, once per
// assignment row.
func (n *BookingNotifier) CleanerAssigned(ctx context.Context, b *booking.Booking, a *assignment.Assignment) {
	cleaner := a.Cleaner
	if cleaner == nil {
		p, err := n.profiles.GetByID(ctx, a.CleanerID)
		if err != nil {
			log.Printf("notify_lookup_failed booking_id=%s profile_id=%s err=%v", b.ID, a.CleanerID, err)
		} else {
			cleaner = p
		}
	}
	cleanerName := "Your cleaner"
	if cleaner != nil {
		cleanerName = cleaner.FullName()
	}

	key := fmt.Sprintf("%s-%s-a%d", EventBookingAssigned, b.ID, a.ID)
	if customer := n.customer(ctx, b); customer != nil {
		n.send(ctx, EventBookingAssigned, key, b, customer, MessageData{CleanerName: cleanerName})
	}
	if cleaner != nil {
		n.send(ctx, EventBookingAssigned, key, b, cleaner, MessageData{CleanerName: cleanerName})
	}
}

func (n *BookingNotifier) customer(ctx context.Context, b *booking.Booking) *profile.Profile {
	if b.Customer != nil {
		return b.Customer
	}
	p, err := n.profiles.GetByID(ctx, b.CustomerID)
	if err != nil {
		log.Printf("notify_lookup_failed booking_id=%s profile_id=%s err=%v", b.ID, b.CustomerID, err)
		return nil
	}
	b.Customer = p
	return p
}

func (n *BookingNotifier) send(ctx context.Context, event EventType, key string, b *booking.Booking, to *profile.Profile, extra MessageData) {
	data := bookingData(b)
	data.Recipient = to.FirstName
	data.CleanerName = extra.CleanerName
	data.Note = extra.Note

	subject, body, err := Render(event, data)
	if err != nil {
		log.Printf("notify_render_failed booking_id=%s event=%s err=%v", b.ID, event, err)
		return
	}

	if to.Email != "" {
		n.deliver(ctx, n.email, Payload{
			To:             to.Email,
			Subject:        subject,
			Body:           body,
			EventType:      event,
			IdempotencyKey: key + ":" + to.Email,
		})
	}
	if n.sms != nil && to.Phone != "" {
		n.deliver(ctx, n.sms, Payload{
			To:             to.Phone,
			Subject:        subject,
			Body:           fmt.Sprintf("Cleandigo: %s. Booking %s.", subject, data.BookingID),
			EventType:      event,
			IdempotencyKey: key + ":sms:" + to.Phone,
		})
	}
}

func (n *BookingNotifier) deliver(ctx context.Context, s Sender, p Payload) {
	res, err := s.Dispatch(ctx, p)
	if err != nil {
		log.Printf("notify_dispatch_failed key=%s event=%s to=%s err=%v", p.IdempotencyKey, p.EventType, p.To, err)
		return
	}
	log.Printf("notify_dispatched key=%s event=%s status=%s", p.IdempotencyKey, p.EventType, res.Status)
}
