package payment

import (
	"context"
	"errors"
	"fmt"

	"cleandigo/internal/database"
	"cleandigo/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, p *Payment) error {
	return database.Conn(ctx, r.db).Create(p).Error
}

func (r *Repository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]Payment, error) {
	var out []Payment
	err := database.Conn(ctx, r.db).
		Where("booking_id = ?", bookingID).
		Order("created_at desc, id desc").
		Find(&out).Error
	return out, err
}

// Latest returns the most recently recorded payment of a booking.
func (r *Repository) Latest(ctx context.Context, bookingID uuid.UUID) (*Payment, error) {
	var p Payment
	err := database.Conn(ctx, r.db).
		Where("booking_id = ?", bookingID).
		Order("created_at desc, id desc").
		First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no payment for booking %s", apperr.ErrNotFound, bookingID)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// LatestForBookings maps booking id to its latest payment. Bookings without
// payments are absent from the map.
func (r *Repository) LatestForBookings(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Payment, error) {
	out := make(map[uuid.UUID]Payment, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var rows []Payment
	err := database.Conn(ctx, r.db).
		Where("booking_id IN ?", ids).
		Order("created_at desc, id desc").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, p := range rows {
		if _, seen := out[p.BookingID]; !seen {
			out[p.BookingID] = p
		}
	}
	return out, nil
}
