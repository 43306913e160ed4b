package assignment

import (
	"context"

	"cleandigo/internal/domain/booking"
	"cleandigo/internal/domain/profile"

	"github.com/google/uuid"
)

type ProfileReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*profile.Profile, error)
}

type BookingEngine interface {
	GetForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
	ApplyTransition(ctx context.Context, id uuid.UUID, to booking.Status, actor uuid.UUID, note string) (*booking.Transition, error)
}

// Notifier is told about every committed assignment, reassignments included.
type Notifier interface {
	CleanerAssigned(ctx context.Context, b *booking.Booking, a *Assignment)
}
