package export_test

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"cleandigo/internal/domain/assignment"
	"cleandigo/internal/domain/audit"
	"cleandigo/internal/domain/booking"
	"cleandigo/internal/domain/catalog"
	"cleandigo/internal/domain/export"
	"cleandigo/internal/domain/payment"
	"cleandigo/internal/domain/profile"
	"cleandigo/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

type MockBookings struct{ mock.Mock }

func (m *MockBookings) List(ctx context.Context, f booking.Filter) ([]booking.Booking, int64, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]booking.Booking), args.Get(1).(int64), args.Error(2)
}

type MockAssignments struct{ mock.Mock }

func (m *MockAssignments) CurrentForBookings(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]*assignment.Assignment, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[uuid.UUID]*assignment.Assignment), args.Error(1)
}

type MockPayments struct{ mock.Mock }

func (m *MockPayments) LatestForBookings(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]payment.Payment, error) {
	args := m.Called(ctx, ids)
	return args.Get(0).(map[uuid.UUID]payment.Payment), args.Error(1)
}

type MockAuditor struct{ mock.Mock }

func (m *MockAuditor) Append(ctx context.Context, rec audit.Record) (*audit.Entry, error) {
	args := m.Called(ctx, rec)
	e, _ := args.Get(0).(*audit.Entry)
	return e, args.Error(1)
}

func sampleBooking() booking.Booking {
	created := time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	end := "12:00"
	return booking.Booking{
		ID:          uuid.MustParse("6f1c2f6e-4e55-4c1e-9a31-2b7f3f0b9a10"),
		BookingDate: "2024-01-15",
		StartTime:   "09:00",
		EndTime:     &end,
		Status:      booking.StatusConfirmed,
		TotalAmount: 256.5,
		Address:     "12 Ocean St, Unit 4",
		Suburb:      "Bondi",
		Postcode:    "2026",
		State:       "NSW",
		Notes:       `Key under "mat"`,
		AdminNotes:  "Call first\nDog on site",
		CreatedAt:   created,
		UpdatedAt:   created.Add(time.Hour),
		Customer:    &profile.Profile{FirstName: "Jo", LastName: "Smith", Email: "jo@example.com", Phone: "0400 000 000"},
		Items: []booking.LineItem{
			{Quantity: 1, UnitPrice: 120, Service: &catalog.Service{Name: "Regular Clean"}},
			{Quantity: 3, UnitPrice: 45.5, Service: &catalog.Service{Name: "Window Cleaning"}},
		},
	}
}

func TestFlattenDefaults(t *testing.T) {
	b := sampleBooking()
	row := export.Flatten(&b, nil, nil)

	assert.Equal(t, "Jo Smith", row.CustomerName)
	assert.Equal(t, "Regular Clean (1 × 120.00); Window Cleaning (3 × 45.50)", row.Services)
	assert.Equal(t, "256.50", row.TotalAmount)
	assert.Equal(t, "Not assigned", row.Cleaner)
	assert.Equal(t, "Pending", row.PaymentStatus)
	assert.Equal(t, "12:00", row.EndTime)
	assert.Equal(t, "2024-01-10T08:00:00Z", row.CreatedAt)
	assert.Len(t, row.Values(), len(export.Header))
}

func TestFlattenWithAssignmentAndPayment(t *testing.T) {
	b := sampleBooking()
	a := &assignment.Assignment{Cleaner: &profile.Profile{FirstName: "Sam", LastName: "Brush"}}
	p := &payment.Payment{Status: payment.StatusPaid, InvoiceNumber: "INV-1"}

	row := export.Flatten(&b, a, p)
	assert.Equal(t, "Sam Brush", row.Cleaner)
	assert.Equal(t, "paid", row.PaymentStatus)
	assert.Equal(t, "INV-1", row.InvoiceNumber)
}

func TestEscapeCSV(t *testing.T) {
	tests := map[string]string{
		"plain":        "plain",
		"a,b":          `"a,b"`,
		`say "hi"`:     `"say ""hi"""`,
		"line\nbreak":  "\"line\nbreak\"",
		"":             "",
		"Bondi Beach ": "Bondi Beach ",
	}
	for in, want := range tests {
		assert.Equal(t, want, export.EscapeCSV(in), in)
	}
}

func TestWriteCSV(t *testing.T) {
	b := sampleBooking()
	var buf bytes.Buffer
	require.NoError(t, export.WriteCSV(&buf, []export.Row{export.Flatten(&b, nil, nil)}))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "Booking ID,Date,Start Time,End Time,Customer Name,"))
	assert.Contains(t, out, `"12 Ocean St, Unit 4"`)
	assert.Contains(t, out, `"Key under ""mat"""`)
	assert.Contains(t, out, "\"Call first\nDog on site\"")
	assert.Contains(t, out, ",Not assigned,Pending,,")
}

func TestWriteXLSX(t *testing.T) {
	b := sampleBooking()
	var buf bytes.Buffer
	require.NoError(t, export.WriteXLSX(&buf, []export.Row{export.Flatten(&b, nil, nil)}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Bookings")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, export.Header, rows[0])
	assert.Equal(t, b.ID.String(), rows[1][0])
	assert.Equal(t, "Not assigned", rows[1][14])
}

func TestExportAuditsAndPaginates(t *testing.T) {
	b := sampleBooking()
	actor := uuid.New()
	ctx := context.Background()

	bookings := &MockBookings{}
	bookings.On("List", ctx, booking.Filter{
		Statuses: []booking.Status{booking.StatusConfirmed},
		DateFrom: "2024-01-01",
		DateTo:   "2024-01-31",
		Limit:    500,
		Offset:   500,
	}).Return([]booking.Booking{b}, int64(501), nil)

	assignments := &MockAssignments{}
	assignments.On("CurrentForBookings", ctx, []uuid.UUID{b.ID}).Return(map[uuid.UUID]*assignment.Assignment{}, nil)
	payments := &MockPayments{}
	payments.On("LatestForBookings", ctx, []uuid.UUID{b.ID}).Return(map[uuid.UUID]payment.Payment{
		b.ID: {Status: payment.StatusPaid, InvoiceNumber: "INV-9"},
	}, nil)

	auditor := &MockAuditor{}
	auditor.On("Append", ctx, mock.MatchedBy(func(r audit.Record) bool {
		vals := r.NewValues.(map[string]any)
		return r.Action == audit.ActionCSVExport && r.Table == "bookings" &&
			*r.ChangedBy == actor && vals["record_count"] == 1
	})).Return(&audit.Entry{ID: 1}, nil)

	svc := export.NewService(bookings, assignments, payments, auditor, 500)
	res, err := svc.Export(ctx, actor, export.Filter{
		DateFrom: "2024-01-01",
		DateTo:   "2024-01-31",
		Statuses: []booking.Status{booking.StatusConfirmed},
		Page:     2,
		PageSize: 5000,
	}, export.FormatCSV)
	require.NoError(t, err)

	assert.Equal(t, 500, res.PageSize)
	assert.Equal(t, int64(501), res.Total)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, "INV-9", res.Rows[0].InvoiceNumber)
	assert.Equal(t, "cleandigo-bookings-2024-01-01-to-2024-01-31-page-2.csv", res.Filename)
	mock.AssertExpectationsForObjects(t, bookings, assignments, payments, auditor)
}

func TestExportFailsWhenAuditFails(t *testing.T) {
	ctx := context.Background()
	bookings := &MockBookings{}
	bookings.On("List", ctx, mock.Anything).Return([]booking.Booking{}, int64(0), nil)
	assignments := &MockAssignments{}
	assignments.On("CurrentForBookings", ctx, mock.Anything).Return(map[uuid.UUID]*assignment.Assignment{}, nil)
	payments := &MockPayments{}
	payments.On("LatestForBookings", ctx, mock.Anything).Return(map[uuid.UUID]payment.Payment{}, nil)
	auditor := &MockAuditor{}
	auditor.On("Append", ctx, mock.Anything).Return(nil, errors.New("disk full"))

	svc := export.NewService(bookings, assignments, payments, auditor, 0)
	res, err := svc.Export(ctx, uuid.New(), export.Filter{}, export.FormatXLSX)
	assert.Error(t, err)
	assert.Nil(t, res)
}

func TestExportRejectsBadFilters(t *testing.T) {
	svc := export.NewService(&MockBookings{}, &MockAssignments{}, &MockPayments{}, &MockAuditor{}, 0)
	ctx := context.Background()

	for name, f := range map[string]export.Filter{
		"bad date":      {DateFrom: "01/02/2024"},
		"reversed":      {DateFrom: "2024-02-01", DateTo: "2024-01-01"},
		"unknown state": {Statuses: []booking.Status{"archived"}},
	} {
		_, err := svc.Export(ctx, uuid.New(), f, export.FormatCSV)
		assert.ErrorIs(t, err, apperr.ErrValidation, name)
	}
	_, err := svc.Export(ctx, uuid.New(), export.Filter{}, "pdf")
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
