package export

import (
	"context"
	"fmt"
	"log"
	"time"

	"cleandigo/internal/domain/assignment"
	"cleandigo/internal/domain/audit"
	"cleandigo/internal/domain/booking"
	"cleandigo/internal/domain/payment"
	"cleandigo/internal/pkg/apperr"

	"github.com/google/uuid"
)

const DefaultPageSize = 1000

type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

type BookingLister interface {
	List(ctx context.Context, f booking.Filter) ([]booking.Booking, int64, error)
}

type AssignmentLookup interface {
	CurrentForBookings(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*assignment.Assignment, error)
}

type PaymentLookup interface {
	LatestForBookings(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]payment.Payment, error)
}

type Auditor interface {
	Append(ctx context.Context, rec audit.Record) (*audit.Entry, error)
}

type Filter struct {
	DateFrom string           `json:"start_date,omitempty"`
	DateTo   string           `json:"end_date,omitempty"`
	Statuses []booking.Status `json:"status,omitempty"`
	Postcode string           `json:"postcode,omitempty"`
	Page     int              `json:"page"`
	PageSize int              `json:"limit"`
}

type Result struct {
	Rows     []Row  `json:"rows"`
	Total    int64  `json:"total"`
	Page     int    `json:"page"`
	PageSize int    `json:"limit"`
	Format   Format `json:"format"`
	Filename string `json:"filename"`
}

type Service struct {
	bookings    BookingLister
	assignments AssignmentLookup
	payments    PaymentLookup
	audit       Auditor
	maxPageSize int
}

func NewService(bookings BookingLister, assignments AssignmentLookup, payments PaymentLookup, auditor Auditor, maxPageSize int) *Service {
	if maxPageSize <= 0 {
		maxPageSize = DefaultPageSize
	}
	return &Service{
		bookings:    bookings,
		assignments: assignments,
		payments:    payments,
		audit:       auditor,
		maxPageSize: maxPageSize,
	}
}

func (s *Service) normalize(f *Filter) error {
	for _, d := range []string{f.DateFrom, f.DateTo} {
		if d == "" {
			continue
		}
		if _, err := time.Parse("2006-01-02", d); err != nil {
			return fmt.Errorf("%w: dates must be YYYY-MM-DD, got %q", apperr.ErrValidation, d)
		}
	}
	if f.DateFrom != "" && f.DateTo != "" && f.DateFrom > f.DateTo {
		return fmt.Errorf("%w: start_date is after end_date", apperr.ErrValidation)
	}
	for _, st := range f.Statuses {
		if !st.Valid() {
			return fmt.Errorf("%w: unknown booking status %q", apperr.ErrValidation, st)
		}
	}
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.PageSize <= 0 {
		f.PageSize = DefaultPageSize
	}
	if f.PageSize > s.maxPageSize {
		f.PageSize = s.maxPageSize
	}
	return nil
}

// Export reads one page of flattened bookings ordered by booking date. The
// export is audit-logged before any row is returned; if the audit entry
// cannot be written the export fails.
func (s *Service) Export(ctx context.Context, actor uuid.UUID, f Filter, format Format) (*Result, error) {
	if format == "" {
		format = FormatCSV
	}
	if format != FormatCSV && format != FormatXLSX {
		return nil, fmt.Errorf("%w: unknown export format %q", apperr.ErrValidation, format)
	}
	if err := s.normalize(&f); err != nil {
		return nil, err
	}

	bookings, total, err := s.bookings.List(ctx, booking.Filter{
		Statuses: f.Statuses,
		DateFrom: f.DateFrom,
		DateTo:   f.DateTo,
		Postcode: f.Postcode,
		Limit:    f.PageSize,
		Offset:   (f.Page - 1) * f.PageSize,
	})
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(bookings))
	for i := range bookings {
		ids[i] = bookings[i].ID
	}
	current, err := s.assignments.CurrentForBookings(ctx, ids)
	if err != nil {
		return nil, err
	}
	latest, err := s.payments.LatestForBookings(ctx, ids)
	if err != nil {
		return nil, err
	}

	rows := make([]Row, 0, len(bookings))
	for i := range bookings {
		b := &bookings[i]
		var p *payment.Payment
		if lp, ok := latest[b.ID]; ok {
			p = &lp
		}
		rows = append(rows, Flatten(b, current[b.ID], p))
	}

	action := audit.ActionCSVExport
	if format == FormatXLSX {
		action = audit.ActionXLSXExport
	}
	if _, err := s.audit.Append(ctx, audit.Record{
		Table:  "bookings",
		Action: action,
		NewValues: map[string]any{
			"filters":      f,
			"record_count": len(rows),
			"exported_by":  actor,
		},
		ChangedBy: &actor,
	}); err != nil {
		return nil, fmt.Errorf("audit export: %w", err)
	}

	log.Printf("bookings_exported actor=%s format=%s rows=%d total=%d page=%d", actor, format, len(rows), total, f.Page)
	return &Result{
		Rows:     rows,
		Total:    total,
		Page:     f.Page,
		PageSize: f.PageSize,
		Format:   format,
		Filename: filename(f, format),
	}, nil
}

func filename(f Filter, format Format) string {
	from, to := f.DateFrom, f.DateTo
	if from == "" {
		from = "all"
	}
	if to == "" {
		to = "all"
	}
	return fmt.Sprintf("cleandigo-bookings-%s-to-%s-page-%d.%s", from, to, f.Page, format)
}
