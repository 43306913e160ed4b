package review

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"cleandigo/internal/domain/audit"
	"cleandigo/internal/domain/booking"
	"cleandigo/internal/pkg/apperr"
	"cleandigo/internal/pkg/validator"

	"github.com/google/uuid"
)

var ErrReviewNotAllowed = fmt.Errorf("%w: only the customer of a completed booking may review it", apperr.ErrValidation)

type BookingReader interface {
	Get(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
}

type Auditor interface {
	Append(ctx context.Context, rec audit.Record) (*audit.Entry, error)
}

type CreateRequest struct {
	Rating  int    `json:"rating" validate:"min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

type Service struct {
	repo     *Repository
	bookings BookingReader
	audit    Auditor
	now      func() time.Time
}

func NewService(repo *Repository, bookings BookingReader, auditor Auditor) *Service {
	return &Service{
		repo:     repo,
		bookings: bookings,
		audit:    auditor,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) Create(ctx context.Context, customerID, bookingID uuid.UUID, req CreateRequest) (*Review, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	b, err := s.bookings.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.CustomerID != customerID || b.Status != booking.StatusCompleted {
		return nil, ErrReviewNotAllowed
	}
	exists, err := s.repo.Exists(ctx, bookingID, customerID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: booking already reviewed", apperr.ErrConflict)
	}

	rv := &Review{
		BookingID:  bookingID,
		CustomerID: customerID,
		Rating:     req.Rating,
		Comment:    strings.TrimSpace(req.Comment),
		CreatedAt:  s.now(),
	}
	if err := s.repo.Create(ctx, rv); err != nil {
		return nil, err
	}
	log.Printf("review_created review_id=%s booking_id=%s rating=%d", rv.ID, bookingID, rv.Rating)
	return rv, nil
}

func (s *Service) SetPublished(ctx context.Context, admin, id uuid.UUID, published bool) (*Review, error) {
	ok, err := s.repo.SetPublished(ctx, id, published)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: review %s", apperr.ErrNotFound, id)
	}
	if s.audit != nil {
		if _, err := s.audit.Append(ctx, audit.Record{
			Table:     "reviews",
			RecordID:  id.String(),
			Action:    audit.ActionReviewToggle,
			NewValues: map[string]any{"is_published": published},
			ChangedBy: &admin,
		}); err != nil {
			log.Printf("review_audit_failed review_id=%s err=%v", id, err)
		}
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListPublished(ctx context.Context, limit, offset int) ([]Review, error) {
	return s.repo.ListPublished(ctx, limit, offset)
}

func (s *Service) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]Review, error) {
	return s.repo.ListByBooking(ctx, bookingID)
}

func (s *Service) AverageRating(ctx context.Context) (float64, error) {
	return s.repo.AverageRating(ctx)
}
