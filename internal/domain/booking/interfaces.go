package booking

import (
	"context"

	"cleandigo/internal/domain/catalog"

	"github.com/google/uuid"
)

// ServiceCatalog resolves catalog prices for new line items.
type ServiceCatalog interface {
	GetByID(ctx context.Context, id uuid.UUID) (*catalog.Service, error)
}

// Notifier reacts to committed booking changes. Implementations log their
// own delivery failures; nothing is returned to the engine.
type Notifier interface {
	BookingCreated(ctx context.Context, b *Booking)
	StatusChanged(ctx context.Context, b *Booking, entry *StatusHistoryEntry)
	Rescheduled(ctx context.Context, b *Booking, entry *StatusHistoryEntry)
}

type nopNotifier struct{}

func (nopNotifier) BookingCreated(context.Context, *Booking) {}
func (nopNotifier) StatusChanged(context.Context, *Booking, *StatusHistoryEntry) {}
func (nopNotifier) Rescheduled(context.Context, *Booking, *StatusHistoryEntry) {}
