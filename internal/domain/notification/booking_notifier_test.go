package notification_test

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"cleandigo/internal/domain/assignment"
	"cleandigo/internal/domain/booking"
	"cleandigo/internal/domain/notification"
	"cleandigo/internal/domain/profile"
	"cleandigo/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	mu       sync.Mutex
	payloads []notification.Payload
}

func (s *recordingSender) Dispatch(_ context.Context, p notification.Payload) (*notification.Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, p)
	return &notification.Result{Status: notification.StatusSent}, nil
}

type profileMap map[uuid.UUID]*profile.Profile

func (m profileMap) GetByID(_ context.Context, id uuid.UUID) (*profile.Profile, error) {
	if p, ok := m[id]; ok {
		return p, nil
	}
	return nil, apperr.ErrNotFound
}

func notifierFixture() (*booking.Booking, *profile.Profile, *profile.Profile, profileMap) {
	customer := &profile.Profile{ID: uuid.New(), Email: "jane@example.com", FirstName: "Jane", LastName: "Citizen", Phone: "+61400000001", Role: profile.RoleCustomer}
	cleaner := &profile.Profile{ID: uuid.New(), Email: "sam@cleandigo.com.au", FirstName: "Sam", LastName: "Brush", Role: profile.RoleCleaner}
	b := &booking.Booking{
		ID:          uuid.New(),
		CustomerID:  customer.ID,
		BookingDate: "2024-01-12",
		StartTime:   "09:00",
		Status:      booking.StatusCompleted,
		TotalAmount: 165.5,
		Address:     "1 George St",
		Suburb:      "Sydney",
		Postcode:    "2000",
		State:       "NSW",
	}
	return b, customer, cleaner, profileMap{customer.ID: customer, cleaner.ID: cleaner}
}

func TestBookingNotifier_CompletedGoesToCustomer(t *testing.T) {
	b, customer, _, profiles := notifierFixture()
	email := &recordingSender{}
	n := notification.NewBookingNotifier(profiles, email)

	old := booking.StatusInProgress
	n.StatusChanged(context.Background(), b, &booking.StatusHistoryEntry{ID: 42, OldStatus: &old, NewStatus: booking.StatusCompleted})

	require.Len(t, email.payloads, 1)
	p := email.payloads[0]
	assert.Equal(t, customer.Email, p.To)
	assert.Equal(t, notification.EventBookingCompleted, p.EventType)
	assert.Equal(t, "booking_completed-"+b.ID.String()+"-42:jane@example.com", p.IdempotencyKey)
	assert.Equal(t, "Booking completed - 12/01/2024", p.Subject)
	assert.Contains(t, p.Body, "Hi Jane")
}

func TestBookingNotifier_IgnoresIntermediateStatuses(t *testing.T) {
	b, _, _, profiles := notifierFixture()
	email := &recordingSender{}
	n := notification.NewBookingNotifier(profiles, email)

	for _, s := range []booking.Status{booking.StatusConfirmed, booking.StatusAssigned, booking.StatusEnRoute, booking.StatusInProgress} {
		n.StatusChanged(context.Background(), b, &booking.StatusHistoryEntry{ID: 1, NewStatus: s})
	}
	assert.Empty(t, email.payloads)
}

func TestBookingNotifier_AssignedNotifiesBothParties(t *testing.T) {
	b, customer, cleaner, profiles := notifierFixture()
	b.Status = booking.StatusAssigned
	email := &recordingSender{}
	sms := &recordingSender{}
	n := notification.NewBookingNotifier(profiles, email).WithSMS(sms)

	n.CleanerAssigned(context.Background(), b, &assignment.Assignment{ID: 7, BookingID: b.ID, CleanerID: cleaner.ID, AssignedAt: time.Now()})

	require.Len(t, email.payloads, 2)
	assert.Equal(t, customer.Email, email.payloads[0].To)
	assert.Equal(t, cleaner.Email, email.payloads[1].To)
	for _, p := range email.payloads {
		assert.Contains(t, p.Body, "Sam Brush")
		assert.True(t, strings.HasPrefix(p.IdempotencyKey, "booking_assigned-"+b.ID.String()+"-a7:"))
	}
	assert.NotEqual(t, email.payloads[0].IdempotencyKey, email.payloads[1].IdempotencyKey)

	// Only the customer has a phone number.
	require.Len(t, sms.payloads, 1)
	assert.Equal(t, customer.Phone, sms.payloads[0].To)
}

func TestBookingNotifier_RescheduledUsesLatestNoteLine(t *testing.T) {
	b, _, _, profiles := notifierFixture()
	b.Status = booking.StatusConfirmed
	b.AdminNotes = "Rescheduled by phone on 11/01/2024. Moved to Friday\nGate code 1234"
	email := &recordingSender{}
	n := notification.NewBookingNotifier(profiles, email)

	n.Rescheduled(context.Background(), b, &booking.StatusHistoryEntry{ID: 9, NewStatus: booking.StatusConfirmed})

	require.Len(t, email.payloads, 1)
	assert.Equal(t, notification.EventBookingRescheduled, email.payloads[0].EventType)
	assert.Contains(t, email.payloads[0].Body, "Moved to Friday")
	assert.NotContains(t, email.payloads[0].Body, "Gate code")
}

func TestBookingNotifier_MissingCustomerIsSkipped(t *testing.T) {
	b, _, _, _ := notifierFixture()
	email := &recordingSender{}
	n := notification.NewBookingNotifier(profileMap{}, email)

	n.BookingCreated(context.Background(), b)
	assert.Empty(t, email.payloads)
}

func TestStalePayload(t *testing.T) {
	b, customer, _, _ := notifierFixture()
	b.Customer = customer
	day := time.Date(2024, 1, 11, 9, 0, 0, 0, time.UTC)

	p, err := notification.StalePayload(b, "admin@cleandigo.com.au", day)
	require.NoError(t, err)
	assert.Equal(t, "admin@cleandigo.com.au", p.To)
	assert.Equal(t, "stale-"+b.ID.String()+"-2024-01-11", p.IdempotencyKey)
	assert.Equal(t, "Stale Booking Alert - Customer: Jane", p.Subject)
	assert.Contains(t, p.Body, "jane@example.com")

	later, err := notification.StalePayload(b, "admin@cleandigo.com.au", day.Add(10*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, p.IdempotencyKey, later.IdempotencyKey)
}
