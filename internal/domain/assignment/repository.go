package assignment

import (
	"context"
	"errors"
	"fmt"

	"cleandigo/internal/database"
	"cleandigo/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, a *Assignment) error {
	return database.Conn(ctx, r.db).Omit(clause.Associations).Create(a).Error
}

func latestFirst(db *gorm.DB) *gorm.DB {
	return db.Order("assigned_at desc, id desc")
}

// Current returns the latest assignment of a booking.
func (r *Repository) Current(ctx context.Context, bookingID uuid.UUID) (*Assignment, error) {
	var a Assignment
	err := latestFirst(database.Conn(ctx, r.db).Preload("Cleaner")).
		Where("booking_id = ?", bookingID).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: no assignment for booking %s", apperr.ErrNotFound, bookingID)
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *Repository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]Assignment, error) {
	var out []Assignment
	err := latestFirst(database.Conn(ctx, r.db).Preload("Cleaner")).
		Where("booking_id = ?", bookingID).
		Find(&out).Error
	return out, err
}

// CurrentForBookings maps each booking id to its current assignment.
// Bookings without assignments are absent from the map.
func (r *Repository) CurrentForBookings(ctx context.Context, bookingIDs []uuid.UUID) (map[uuid.UUID]*Assignment, error) {
	out := make(map[uuid.UUID]*Assignment, len(bookingIDs))
	if len(bookingIDs) == 0 {
		return out, nil
	}
	var rows []Assignment
	err := latestFirst(database.Conn(ctx, r.db).Preload("Cleaner")).
		Where("booking_id IN ?", bookingIDs).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	for i := range rows {
		if _, seen := out[rows[i].BookingID]; !seen {
			out[rows[i].BookingID] = &rows[i]
		}
	}
	return out, nil
}

// BookingIDsForCleaner returns the bookings whose current assignment names
// the cleaner.
func (r *Repository) BookingIDsForCleaner(ctx context.Context, cleanerID uuid.UUID) ([]uuid.UUID, error) {
	var candidates []uuid.UUID
	err := database.Conn(ctx, r.db).
		Model(&Assignment{}).
		Where("cleaner_id = ?", cleanerID).
		Distinct().
		Pluck("booking_id", &candidates).Error
	if err != nil {
		return nil, err
	}

	current, err := r.CurrentForBookings(ctx, candidates)
	if err != nil {
		return nil, err
	}
	out := make([]uuid.UUID, 0, len(current))
	for _, id := range candidates {
		if a, ok := current[id]; ok && a.CleanerID == cleanerID {
			out = append(out, id)
		}
	}
	return out, nil
}
