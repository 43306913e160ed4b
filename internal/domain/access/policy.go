package access

import (
	"context"
	"slices"

	"cleandigo/internal/domain/booking"
	"cleandigo/internal/domain/profile"

	"github.com/google/uuid"
)

// Caller is a verified user with the role read from their profile.
type Caller struct {
	ID   uuid.UUID
	Role profile.Role

	system bool
}

// System is the caller for machine triggers such as the cron sweep. It has
// no profile and is allowed the sweep only.
func System() Caller { return Caller{system: true} }

func (c Caller) IsAdmin() bool { return c.Role == profile.RoleAdmin }

func (c Caller) IsSystem() bool { return c.system }

// policy answers booking-level questions for one caller.
type policy interface {
	// scope narrows a listing to what the caller may see.
	scope(ctx context.Context, f *booking.Filter) error
	canRead(ctx context.Context, b *booking.Booking) (bool, error)
	canEditItems(b *booking.Booking) bool
	canAdminister() bool
	view(b *booking.Booking) *booking.Booking
	viewHistory(entries []booking.StatusHistoryEntry) []booking.StatusHistoryEntry
}

type adminPolicy struct{}

func (adminPolicy) scope(context.Context, *booking.Filter) error { return nil }
func (adminPolicy) canRead(context.Context, *booking.Booking) (bool, error) {
	return true, nil
}
func (adminPolicy) canEditItems(*booking.Booking) bool { return true }
func (adminPolicy) canAdminister() bool { return true }
func (adminPolicy) view(b *booking.Booking) *booking.Booking { return b }
func (adminPolicy) viewHistory(e []booking.StatusHistoryEntry) []booking.StatusHistoryEntry {
	return e
}

// customerPolicy limits a customer to their own bookings. Admin notes are
// internal and never shown to customers.
type customerPolicy struct {
	id uuid.UUID
}

func (p customerPolicy) scope(_ context.Context, f *booking.Filter) error {
	id := p.id
	f.CustomerID = &id
	return nil
}

func (p customerPolicy) canRead(_ context.Context, b *booking.Booking) (bool, error) {
	return b.CustomerID == p.id, nil
}

func (p customerPolicy) canEditItems(b *booking.Booking) bool { return b.CustomerID == p.id }
func (customerPolicy) canAdminister() bool { return false }

func (customerPolicy) view(b *booking.Booking) *booking.Booking {
	out := *b
	out.AdminNotes = ""
	return &out
}

// History notes may carry admin notes, so customers only see the statuses.
func (customerPolicy) viewHistory(entries []booking.StatusHistoryEntry) []booking.StatusHistoryEntry {
	out := make([]booking.StatusHistoryEntry, len(entries))
	for i, e := range entries {
		e.Notes = ""
		out[i] = e
	}
	return out
}

// cleanerPolicy gives read-only access to bookings where the cleaner is the
// current assignee.
type cleanerPolicy struct {
	id       uuid.UUID
	assigned func(ctx context.Context) ([]uuid.UUID, error)
}

func (p cleanerPolicy) scope(ctx context.Context, f *booking.Filter) error {
	ids, err := p.assigned(ctx)
	if err != nil {
		return err
	}
	if f.IDs != nil {
		ids = slices.DeleteFunc(ids, func(id uuid.UUID) bool { return !slices.Contains(f.IDs, id) })
	}
	if ids == nil {
		ids = []uuid.UUID{}
	}
	f.IDs = ids
	return nil
}

func (p cleanerPolicy) canRead(ctx context.Context, b *booking.Booking) (bool, error) {
	ids, err := p.assigned(ctx)
	if err != nil {
		return false, err
	}
	return slices.Contains(ids, b.ID), nil
}

func (cleanerPolicy) canEditItems(*booking.Booking) bool { return false }
func (cleanerPolicy) canAdminister() bool { return false }
func (cleanerPolicy) view(b *booking.Booking) *booking.Booking { return b }
func (cleanerPolicy) viewHistory(e []booking.StatusHistoryEntry) []booking.StatusHistoryEntry {
	return e
}
