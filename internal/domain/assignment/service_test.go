package assignment_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"cleandigo/internal/database/dbtest"
	"cleandigo/internal/domain/assignment"
	"cleandigo/internal/domain/booking"
	"cleandigo/internal/domain/catalog"
	"cleandigo/internal/domain/profile"
	"cleandigo/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"
)

type assignedCall struct {
	bookingID uuid.UUID
	cleanerID uuid.UUID
	status    booking.Status
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []assignedCall
}

func (n *recordingNotifier) CleanerAssigned(_ context.Context, b *booking.Booking, a *assignment.Assignment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, assignedCall{bookingID: b.ID, cleanerID: a.CleanerID, status: b.Status})
}

// lockingEngine records which read the assignment path used. The status it
// reports stands in for a cancellation committed by another transaction
// just before the lock was taken.
type lockingEngine struct {
	*booking.Service
	mu       sync.Mutex
	locked   int
	unlocked int
	override booking.Status
}

func (e *lockingEngine) Get(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	e.mu.Lock()
	e.unlocked++
	e.mu.Unlock()
	return e.Service.Get(ctx, id)
}

func (e *lockingEngine) GetForUpdate(ctx context.Context, id uuid.UUID) (*booking.Booking, error) {
	e.mu.Lock()
	e.locked++
	e.mu.Unlock()
	b, err := e.Service.GetForUpdate(ctx, id)
	if err == nil && e.override != "" {
		b.Status = e.override
	}
	return b, err
}

type AssignmentSuite struct {
	suite.Suite

	now      time.Time
	bookings *booking.Service
	svc      *assignment.Service
	repo     *assignment.Repository
	notifier *recordingNotifier

	customer *profile.Profile
	admin    *profile.Profile
	cleanerX *profile.Profile
	cleanerY *profile.Profile
	service  *catalog.Service
	profiles *profile.Repository
	db       *gorm.DB
}

func TestAssignmentSuite(t *testing.T) {
	suite.Run(t, new(AssignmentSuite))
}

func (s *AssignmentSuite) SetupTest() {
	db := dbtest.Open(s.T(),
		&profile.Profile{},
		&catalog.Service{},
		&booking.Booking{},
		&booking.LineItem{},
		&booking.StatusHistoryEntry{},
		&assignment.Assignment{},
	)
	ctx := context.Background()

	profiles := profile.NewRepository(db)
	s.customer = &profile.Profile{Email: "c@example.com", FirstName: "Casey", Role: profile.RoleCustomer}
	s.admin = &profile.Profile{Email: "a@example.com", FirstName: "Alex", Role: profile.RoleAdmin}
	s.cleanerX = &profile.Profile{Email: "x@example.com", FirstName: "Xan", Role: profile.RoleCleaner}
	s.cleanerY = &profile.Profile{Email: "y@example.com", FirstName: "Yuki", Role: profile.RoleCleaner}
	for _, p := range []*profile.Profile{s.customer, s.admin, s.cleanerX, s.cleanerY} {
		s.Require().NoError(profiles.Create(ctx, p))
	}

	services := catalog.NewRepository(db)
	s.service = &catalog.Service{Name: "End of Lease", BasePrice: 350, IsActive: true}
	s.Require().NoError(services.Create(ctx, s.service))

	s.now = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)
	clock := func() time.Time { return s.now }

	s.bookings = booking.NewService(db, booking.NewRepository(db), services, nil, nil).WithClock(clock)
	s.repo = assignment.NewRepository(db)
	s.notifier = &recordingNotifier{}
	s.svc = assignment.NewService(db, s.repo, profiles, s.bookings, s.notifier, nil).WithClock(clock)
	s.profiles = profiles
	s.db = db
}

func (s *AssignmentSuite) createBooking() *booking.Booking {
	b, err := s.bookings.CreateBooking(context.Background(), s.customer.ID, booking.CreateRequest{
		CustomerID:  s.customer.ID,
		BookingDate: "2024-01-20",
		StartTime:   "08:30",
		Address:     "7 Gum Tree Ave",
		Suburb:      "Parramatta",
		Postcode:    "2150",
		State:       "NSW",
		Items:       []booking.ItemRequest{{ServiceID: s.service.ID, Quantity: 1}},
	})
	s.Require().NoError(err)
	return b
}

func (s *AssignmentSuite) walk(id uuid.UUID, path ...booking.Status) {
	for _, st := range path {
		_, err := s.bookings.ApplyTransition(context.Background(), id, st, s.admin.ID, "")
		s.Require().NoError(err)
	}
}

func (s *AssignmentSuite) TestExampleScenario() {
	ctx := context.Background()
	b := s.createBooking()

	s.now = time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC)
	_, err := s.bookings.ApplyTransition(ctx, b.ID, booking.StatusConfirmed, s.admin.ID, "")
	s.Require().NoError(err)
	history, err := s.bookings.History(ctx, b.ID)
	s.Require().NoError(err)
	s.Len(history, 2)

	s.now = time.Date(2024, 1, 10, 10, 0, 0, 0, time.UTC)
	res, err := s.svc.AssignCleaner(ctx, b.ID, s.cleanerX.ID, s.admin.ID, "")
	s.Require().NoError(err)
	s.Equal(booking.StatusAssigned, res.Booking.Status)
	s.NotNil(res.Transition)

	rows, err := s.svc.List(ctx, b.ID)
	s.Require().NoError(err)
	s.Len(rows, 1)
	history, err = s.bookings.History(ctx, b.ID)
	s.Require().NoError(err)
	s.Len(history, 3)
	s.Equal(booking.StatusAssigned, history[2].NewStatus)

	_, err = s.bookings.ApplyTransition(ctx, b.ID, booking.StatusPending, s.admin.ID, "")
	s.True(errors.Is(err, apperr.ErrInvalidTransition))

	stored, err := s.bookings.Get(ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(booking.StatusAssigned, stored.Status)
	history, err = s.bookings.History(ctx, b.ID)
	s.Require().NoError(err)
	s.Len(history, 3)
}

func (s *AssignmentSuite) TestAssignInProgressKeepsStatus() {
	ctx := context.Background()
	b := s.createBooking()
	s.walk(b.ID, booking.StatusConfirmed)
	_, err := s.svc.AssignCleaner(ctx, b.ID, s.cleanerX.ID, s.admin.ID, "")
	s.Require().NoError(err)
	s.walk(b.ID, booking.StatusEnRoute, booking.StatusInProgress)

	before, err := s.bookings.History(ctx, b.ID)
	s.Require().NoError(err)

	s.now = s.now.Add(2 * time.Hour)
	res, err := s.svc.AssignCleaner(ctx, b.ID, s.cleanerY.ID, s.admin.ID, "Xan fell ill")
	s.Require().NoError(err)
	s.Nil(res.Transition)
	s.Equal(booking.StatusInProgress, res.Booking.Status)

	after, err := s.bookings.History(ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(len(before), len(after))

	rows, err := s.svc.List(ctx, b.ID)
	s.Require().NoError(err)
	s.Len(rows, 2)

	current, err := s.svc.Current(ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(s.cleanerY.ID, current.CleanerID)
	s.Equal("Xan fell ill", current.Notes)
	s.Require().NotNil(current.Cleaner)
	s.Equal("Yuki", current.Cleaner.FirstName)
}

func (s *AssignmentSuite) TestAssignPendingRecordsOnly() {
	ctx := context.Background()
	b := s.createBooking()

	res, err := s.svc.AssignCleaner(ctx, b.ID, s.cleanerX.ID, s.admin.ID, "")
	s.Require().NoError(err)
	s.Nil(res.Transition)
	s.Equal(booking.StatusPending, res.Booking.Status)
}

func (s *AssignmentSuite) TestInvalidCleaner() {
	ctx := context.Background()
	b := s.createBooking()
	s.walk(b.ID, booking.StatusConfirmed)

	_, err := s.svc.AssignCleaner(ctx, b.ID, s.customer.ID, s.admin.ID, "")
	s.True(errors.Is(err, assignment.ErrInvalidCleaner))
	s.True(errors.Is(err, apperr.ErrValidation))

	_, err = s.svc.AssignCleaner(ctx, b.ID, uuid.New(), s.admin.ID, "")
	s.True(errors.Is(err, assignment.ErrInvalidCleaner))

	rows, err := s.svc.List(ctx, b.ID)
	s.Require().NoError(err)
	s.Empty(rows)
	stored, err := s.bookings.Get(ctx, b.ID)
	s.Require().NoError(err)
	s.Equal(booking.StatusConfirmed, stored.Status)
	s.Empty(s.notifier.calls)
}

func (s *AssignmentSuite) TestTerminalAndMissingBookings() {
	ctx := context.Background()
	b := s.createBooking()
	s.walk(b.ID, booking.StatusCancelled)

	_, err := s.svc.AssignCleaner(ctx, b.ID, s.cleanerX.ID, s.admin.ID, "")
	s.True(errors.Is(err, apperr.ErrInvalidTransition))

	_, err = s.svc.AssignCleaner(ctx, uuid.New(), s.cleanerX.ID, s.admin.ID, "")
	s.True(errors.Is(err, apperr.ErrNotFound))

	_, err = s.svc.Current(ctx, b.ID)
	s.True(errors.Is(err, apperr.ErrNotFound))
}

func (s *AssignmentSuite) TestNotifierSeesCommittedStatus() {
	ctx := context.Background()
	b := s.createBooking()
	s.walk(b.ID, booking.StatusConfirmed)

	_, err := s.svc.AssignCleaner(ctx, b.ID, s.cleanerX.ID, s.admin.ID, "")
	s.Require().NoError(err)

	s.Require().Len(s.notifier.calls, 1)
	s.Equal(assignedCall{bookingID: b.ID, cleanerID: s.cleanerX.ID, status: booking.StatusAssigned}, s.notifier.calls[0])
}

func (s *AssignmentSuite) TestBookingIDsForCleanerFollowsCurrentAssignment() {
	ctx := context.Background()
	first := s.createBooking()
	second := s.createBooking()
	s.walk(first.ID, booking.StatusConfirmed)
	s.walk(second.ID, booking.StatusConfirmed)

	_, err := s.svc.AssignCleaner(ctx, first.ID, s.cleanerX.ID, s.admin.ID, "")
	s.Require().NoError(err)
	_, err = s.svc.AssignCleaner(ctx, second.ID, s.cleanerX.ID, s.admin.ID, "")
	s.Require().NoError(err)

	s.now = s.now.Add(time.Hour)
	_, err = s.svc.AssignCleaner(ctx, second.ID, s.cleanerY.ID, s.admin.ID, "")
	s.Require().NoError(err)

	ids, err := s.svc.BookingIDsForCleaner(ctx, s.cleanerX.ID)
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{first.ID}, ids)

	ids, err = s.svc.BookingIDsForCleaner(ctx, s.cleanerY.ID)
	s.Require().NoError(err)
	s.Equal([]uuid.UUID{second.ID}, ids)

	current, err := s.repo.CurrentForBookings(ctx, []uuid.UUID{first.ID, second.ID, uuid.New()})
	s.Require().NoError(err)
	s.Len(current, 2)
	s.Equal(s.cleanerY.ID, current[second.ID].CleanerID)
}

func TestCurrentForNoBookings(t *testing.T) {
	repo := assignment.NewRepository(dbtest.Open(t, &profile.Profile{}, &assignment.Assignment{}))
	got, err := repo.CurrentForBookings(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func (s *AssignmentSuite) TestAssignReadsBookingUnderLock() {
	ctx := context.Background()
	b := s.createBooking()
	s.walk(b.ID, booking.StatusConfirmed)

	engine := &lockingEngine{Service: s.bookings}
	svc := assignment.NewService(s.db, s.repo, s.profiles, engine, s.notifier, nil)

	_, err := svc.AssignCleaner(ctx, b.ID, s.cleanerX.ID, s.admin.ID, "")
	s.Require().NoError(err)
	s.Equal(1, engine.locked)
	s.Zero(engine.unlocked)
}

func (s *AssignmentSuite) TestAssignRejectsBookingCancelledBeforeLock() {
	ctx := context.Background()
	b := s.createBooking()
	s.walk(b.ID, booking.StatusConfirmed)
	_, err := s.svc.AssignCleaner(ctx, b.ID, s.cleanerX.ID, s.admin.ID, "")
	s.Require().NoError(err)

	engine := &lockingEngine{Service: s.bookings, override: booking.StatusCancelled}
	svc := assignment.NewService(s.db, s.repo, s.profiles, engine, s.notifier, nil)

	_, err = svc.AssignCleaner(ctx, b.ID, s.cleanerY.ID, s.admin.ID, "")
	s.True(errors.Is(err, apperr.ErrInvalidTransition))

	rows, err := s.svc.List(ctx, b.ID)
	s.Require().NoError(err)
	s.Len(rows, 1)
	s.Equal(s.cleanerX.ID, rows[0].CleanerID)
	s.Len(s.notifier.calls, 1)
}
