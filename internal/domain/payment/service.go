package payment

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"cleandigo/internal/database"
	"cleandigo/internal/domain/audit"
	"cleandigo/internal/domain/booking"
	"cleandigo/internal/pkg/apperr"
	"cleandigo/internal/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BookingReader interface {
	Get(ctx context.Context, id uuid.UUID) (*booking.Booking, error)
}

type Auditor interface {
	Append(ctx context.Context, rec audit.Record) (*audit.Entry, error)
}

type RecordRequest struct {
	Amount        float64    `json:"amount" validate:"gt=0"`
	Method        string     `json:"payment_method" validate:"omitempty,oneof=card cash bank_transfer"`
	Status        Status     `json:"payment_status"`
	PaymentDate   *time.Time `json:"payment_date"`
	TransactionID string     `json:"transaction_id" validate:"max=128"`
	InvoiceNumber string     `json:"invoice_number" validate:"max=64"`
}

type Service struct {
	db       *gorm.DB
	repo     *Repository
	bookings BookingReader
	audit    Auditor
	now      func() time.Time
}

func NewService(db *gorm.DB, repo *Repository, bookings BookingReader, auditor Auditor) *Service {
	return &Service{
		db:       db,
		repo:     repo,
		bookings: bookings,
		audit:    auditor,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = func() time.Time { return now().UTC() }
	return s
}

// Record stores a payment and its audit entry together. An empty invoice
// number is generated from the booking date and payment id.
func (s *Service) Record(ctx context.Context, actor, bookingID uuid.UUID, req RecordRequest) (*Payment, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	status := req.Status
	if status == "" {
		status = StatusPaid
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown payment status %q", apperr.ErrValidation, status)
	}

	now := s.now()
	p := &Payment{
		ID:            uuid.New(),
		BookingID:     bookingID,
		Amount:        req.Amount,
		Method:        req.Method,
		Status:        status,
		PaymentDate:   req.PaymentDate,
		TransactionID: strings.TrimSpace(req.TransactionID),
		InvoiceNumber: strings.TrimSpace(req.InvoiceNumber),
		CreatedAt:     now,
	}
	if p.Status == StatusPaid && p.PaymentDate == nil {
		p.PaymentDate = &now
	}

	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		b, err := s.bookings.Get(ctx, bookingID)
		if err != nil {
			return err
		}
		if p.InvoiceNumber == "" {
			p.InvoiceNumber = invoiceNumber(b, p.ID)
		}
		if err := s.repo.Create(ctx, p); err != nil {
			return err
		}
		_, err = s.audit.Append(ctx, audit.Record{
			Table:    "payments",
			RecordID: p.ID.String(),
			Action:   audit.ActionPayment,
			NewValues: map[string]any{
				"booking_id":     bookingID,
				"amount":         p.Amount,
				"payment_status": p.Status,
				"invoice_number": p.InvoiceNumber,
			},
			ChangedBy: &actor,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("payment_recorded booking_id=%s payment_id=%s amount=%.2f status=%s", bookingID, p.ID, p.Amount, p.Status)
	return p, nil
}

func invoiceNumber(b *booking.Booking, id uuid.UUID) string {
	return fmt.Sprintf("INV-%s-%s", strings.ReplaceAll(b.BookingDate, "-", ""), strings.ToUpper(id.String()[:8]))
}

func (s *Service) List(ctx context.Context, bookingID uuid.UUID) ([]Payment, error) {
	return s.repo.ListByBooking(ctx, bookingID)
}

func (s *Service) LatestForBookings(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]Payment, error) {
	return s.repo.LatestForBookings(ctx, ids)
}
