package access

import (
	"context"

	"cleandigo/internal/domain/assignment"
	"cleandigo/internal/domain/audit"
	"cleandigo/internal/domain/booking"
	"cleandigo/internal/domain/export"
	"cleandigo/internal/domain/payment"
	"cleandigo/internal/domain/profile"
	"cleandigo/internal/domain/review"
	"cleandigo/internal/domain/stats"
	"cleandigo/internal/domain/sweeper"

	"github.com/google/uuid"
)

type ProfileReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
}

type BookingEngine interface {
	Get(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	List(ctx context.Context, f booking.Filter) ([]booking.Booking, int64, error)
	History(ctx context.Context, id uuid.UUID) ([]booking.StatusHistoryEntry, error)
	CreateBooking(ctx context.Context, actor uuid.UUID, req booking.CreateRequest) (*booking.Booking, error)
	ApplyTransition(ctx context.Context, id uuid.UUID, to booking.Status, actor uuid.UUID, note string) (*booking.Transition, error)
	Annotate(ctx context.Context, id, actor uuid.UUID, note string, adminNotes *string) (*booking.Transition, error)
	MarkRescheduledByPhone(ctx context.Context, id, actor uuid.UUID, note string) (*booking.Transition, error)
	AddLineItem(ctx context.Context, id, actor uuid.UUID, ir booking.ItemRequest) (*booking.Booking, error)
	RemoveLineItem(ctx context.Context, id, actor, itemID uuid.UUID) (*booking.Booking, error)
}

type Assigner interface {
	AssignCleaner(ctx context.Context, bookingID, cleanerID, adminID uuid.UUID, note string) (*assignment.Result, error)
	Current(ctx context.Context, bookingID uuid.UUID) (*assignment.Assignment, error)
	List(ctx context.Context, bookingID uuid.UUID) ([]assignment.Assignment, error)
	BookingIDsForCleaner(ctx context.Context, cleanerID uuid.UUID) ([]uuid.UUID, error)
}

type Payments interface {
	Record(ctx context.Context, actor, bookingID uuid.UUID, req payment.RecordRequest) (*payment.Payment, error)
	List(ctx context.Context, bookingID uuid.UUID) ([]payment.Payment, error)
}

type Reviews interface {
	Create(ctx context.Context, customerID, bookingID uuid.UUID, req review.CreateRequest) (*review.Review, error)
	SetPublished(ctx context.Context, admin, id uuid.UUID, published bool) (*review.Review, error)
	ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]review.Review, error)
}

type Exporter interface {
	Export(ctx context.Context, actor uuid.UUID, f export.Filter, format export.Format) (*export.Result, error)
}

type Stats interface {
	Dashboard(ctx context.Context) (*stats.Dashboard, error)
}

type Sweeper interface {
	Sweep(ctx context.Context, thresholdHours int) (*sweeper.Summary, error)
}

type AuditReader interface {
	List(ctx context.Context, f audit.Filter) ([]audit.Entry, error)
}
