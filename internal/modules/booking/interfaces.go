package booking

import (
	"context"

	"cleandigo/internal/domain/access"
	"cleandigo/internal/domain/assignment"
	"cleandigo/internal/domain/booking"

	"github.com/google/uuid"
)

// Gate is the subset of access.Gate the booking routes need.
type Gate interface {
	GetBooking(ctx context.Context, c access.Caller, id uuid.UUID) (*booking.Booking, error)
	ListBookings(ctx context.Context, c access.Caller, f booking.Filter) ([]booking.Booking, int64, error)
	History(ctx context.Context, c access.Caller, id uuid.UUID) ([]booking.StatusHistoryEntry, error)
	CreateBooking(ctx context.Context, c access.Caller, req booking.CreateRequest) (*booking.Booking, error)
	ApplyTransition(ctx context.Context, c access.Caller, id uuid.UUID, to booking.Status, note string) (*booking.Transition, error)
	Annotate(ctx context.Context, c access.Caller, id uuid.UUID, note string, adminNotes *string) (*booking.Transition, error)
	MarkRescheduledByPhone(ctx context.Context, c access.Caller, id uuid.UUID, note string) (*booking.Transition, error)
	AddLineItem(ctx context.Context, c access.Caller, id uuid.UUID, ir booking.ItemRequest) (*booking.Booking, error)
	RemoveLineItem(ctx context.Context, c access.Caller, id, itemID uuid.UUID) (*booking.Booking, error)
	AssignCleaner(ctx context.Context, c access.Caller, bookingID, cleanerID uuid.UUID, note string) (*assignment.Result, error)
	Assignments(ctx context.Context, c access.Caller, bookingID uuid.UUID) ([]assignment.Assignment, error)
}
