package assignment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"cleandigo/internal/database"
	"cleandigo/internal/domain/booking"
	"cleandigo/internal/domain/profile"
	"cleandigo/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var ErrInvalidCleaner = fmt.Errorf("%w: cleaner must reference a cleaner profile", apperr.ErrValidation)

type Service struct {
	db       *gorm.DB
	repo     *Repository
	profiles ProfileReader
	bookings BookingEngine
	notifier Notifier
	events   booking.EventPublisher
	now      func() time.Time
}

func NewService(db *gorm.DB, repo *Repository, profiles ProfileReader, bookings BookingEngine, notifier Notifier, events booking.EventPublisher) *Service {
	if events == nil {
		events = booking.Publishers(nil)
	}
	return &Service{
		db:       db,
		repo:     repo,
		profiles: profiles,
		bookings: bookings,
		notifier: notifier,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = func() time.Time { return now().UTC() }
	return s
}

type Result struct {
	Assignment *Assignment         `json:"assignment"`
	Booking    *booking.Booking    `json:"booking"`
	Transition *booking.Transition `json:"transition,omitempty"`
}

// AssignCleaner records a new assignment. A confirmed booking also moves to
// assigned in the same transaction; later statuses keep their status so a
// reassignment never moves a booking backward.
func (s *Service) AssignCleaner(ctx context.Context, bookingID, cleanerID, adminID uuid.UUID, note string) (*Result, error) {
	cleaner, err := s.profiles.GetByID(ctx, cleanerID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, ErrInvalidCleaner
		}
		return nil, err
	}
	if cleaner.Role != profile.RoleCleaner {
		return nil, ErrInvalidCleaner
	}

	res := &Result{}
	err = database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		// a concurrent cancellation waits on this lock or is already visible
		b, err := s.bookings.GetForUpdate(ctx, bookingID)
		if err != nil {
			return err
		}
		if b.Status.Terminal() {
			return fmt.Errorf("%w: cannot assign a %s booking", apperr.ErrInvalidTransition, b.Status)
		}

		now := s.now()
		a := &Assignment{
			BookingID:  bookingID,
			CleanerID:  cleanerID,
			AssignedBy: adminID,
			AssignedAt: now,
			Notes:      strings.TrimSpace(note),
		}
		if err := s.repo.Create(ctx, a); err != nil {
			return err
		}
		a.Cleaner = cleaner
		res.Assignment = a
		res.Booking = b

		if b.Status == booking.StatusConfirmed {
			t, err := s.bookings.ApplyTransition(ctx, bookingID, booking.StatusAssigned, adminID, "")
			if err != nil {
				return err
			}
			res.Transition = t
			res.Booking = t.Booking
		}

		database.AfterCommit(ctx, func(ctx context.Context) {
			if s.notifier != nil {
				s.notifier.CleanerAssigned(ctx, res.Booking, a)
			}
			e := booking.NewEvent(booking.ActionAssigned, res.Booking, nil, adminID, now)
			e.CleanerID = &cleanerID
			s.events.Publish(ctx, e)
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("cleaner_assigned booking_id=%s cleaner_id=%s admin_id=%s status=%s transitioned=%t",
		bookingID, cleanerID, adminID, res.Booking.Status, res.Transition != nil)
	return res, nil
}

func (s *Service) Current(ctx context.Context, bookingID uuid.UUID) (*Assignment, error) {
	return s.repo.Current(ctx, bookingID)
}

func (s *Service) List(ctx context.Context, bookingID uuid.UUID) ([]Assignment, error) {
	return s.repo.ListByBooking(ctx, bookingID)
}

func (s *Service) BookingIDsForCleaner(ctx context.Context, cleanerID uuid.UUID) ([]uuid.UUID, error) {
	return s.repo.BookingIDsForCleaner(ctx, cleanerID)
}
