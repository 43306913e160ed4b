package access

import (
	"context"
	"errors"
	"fmt"
	"log"

	"cleandigo/internal/domain/assignment"
	"cleandigo/internal/domain/audit"
	"cleandigo/internal/domain/booking"
	"cleandigo/internal/domain/export"
	"cleandigo/internal/domain/payment"
	"cleandigo/internal/domain/profile"
	"cleandigo/internal/domain/review"
	"cleandigo/internal/domain/stats"
	"cleandigo/internal/domain/sweeper"
	"cleandigo/internal/pkg/apperr"

	"github.com/google/uuid"
)

var errForbidden = fmt.Errorf("%w: you do not have permission to modify this booking", apperr.ErrUnauthorized)

type Deps struct {
	Profiles    ProfileReader
	Bookings    BookingEngine
	Assignments Assigner
	Payments    Payments
	Reviews     Reviews
	Exports     Exporter
	Stats       Stats
	Sweeper     Sweeper
	Audit       AuditReader
}

// Gate is the only entry point into the booking components. Every call is
// checked against the caller's role before it reaches a service.
type Gate struct {
	d Deps
}

func NewGate(d Deps) *Gate {
	return &Gate{d: d}
}

// Resolve loads the caller's role from their profile. Unknown users are
// unauthorized.
func (g *Gate) Resolve(ctx context.Context, userID uuid.UUID) (Caller, error) {
	p, err := g.d.Profiles.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return Caller{}, fmt.Errorf("%w: no profile for user %s", apperr.ErrUnauthorized, userID)
		}
		return Caller{}, err
	}
	if !p.Role.Valid() {
		return Caller{}, fmt.Errorf("%w: profile has no usable role", apperr.ErrUnauthorized)
	}
	return Caller{ID: p.ID, Role: p.Role}, nil
}

func (g *Gate) policyFor(c Caller) policy {
	switch c.Role {
	case profile.RoleAdmin:
		return adminPolicy{}
	case profile.RoleCustomer:
		return customerPolicy{id: c.ID}
	case profile.RoleCleaner:
		return cleanerPolicy{id: c.ID, assigned: func(ctx context.Context) ([]uuid.UUID, error) {
			return g.d.Assignments.BookingIDsForCleaner(ctx, c.ID)
		}}
	}
	return nil
}

func (g *Gate) deny(c Caller, op string, id uuid.UUID) error {
	log.Printf("access_denied caller=%s role=%s op=%s booking_id=%s", c.ID, c.Role, op, id)
	return errForbidden
}

func (g *Gate) requireAdmin(c Caller, op string) error {
	if p := g.policyFor(c); p == nil || !p.canAdminister() {
		return g.deny(c, op, uuid.Nil)
	}
	return nil
}

// readable loads a booking the caller may see.
func (g *Gate) readable(ctx context.Context, c Caller, id uuid.UUID) (*booking.Booking, policy, error) {
	p := g.policyFor(c)
	if p == nil {
		return nil, nil, g.deny(c, "read", id)
	}
	b, err := g.d.Bookings.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	ok, err := p.canRead(ctx, b)
	if err != nil {
		return nil, nil, err
	}
	if !ok {
		return nil, nil, g.deny(c, "read", id)
	}
	return b, p, nil
}

func (g *Gate) GetBooking(ctx context.Context, c Caller, id uuid.UUID) (*booking.Booking, error) {
	b, p, err := g.readable(ctx, c, id)
	if err != nil {
		return nil, err
	}
	return p.view(b), nil
}

func (g *Gate) ListBookings(ctx context.Context, c Caller, f booking.Filter) ([]booking.Booking, int64, error) {
	p := g.policyFor(c)
	if p == nil {
		return nil, 0, g.deny(c, "list", uuid.Nil)
	}
	if err := p.scope(ctx, &f); err != nil {
		return nil, 0, err
	}
	list, total, err := g.d.Bookings.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	for i := range list {
		list[i] = *p.view(&list[i])
	}
	return list, total, nil
}

func (g *Gate) History(ctx context.Context, c Caller, id uuid.UUID) ([]booking.StatusHistoryEntry, error) {
	_, p, err := g.readable(ctx, c, id)
	if err != nil {
		return nil, err
	}
	entries, err := g.d.Bookings.History(ctx, id)
	if err != nil {
		return nil, err
	}
	return p.viewHistory(entries), nil
}

// CreateBooking lets customers book for themselves and admins book on behalf
// of any customer. Customers cannot pick the initial status or admin notes.
func (g *Gate) CreateBooking(ctx context.Context, c Caller, req booking.CreateRequest) (*booking.Booking, error) {
	switch c.Role {
	case profile.RoleCustomer:
		req.CustomerID = c.ID
		req.Status = ""
		req.AdminNotes = ""
	case profile.RoleAdmin:
		if req.CustomerID == uuid.Nil {
			return nil, fmt.Errorf("%w: customer_id is required", apperr.ErrValidation)
		}
		cust, err := g.d.Profiles.GetByID(ctx, req.CustomerID)
		if err != nil {
			if errors.Is(err, apperr.ErrNotFound) {
				return nil, fmt.Errorf("%w: unknown customer %s", apperr.ErrValidation, req.CustomerID)
			}
			return nil, err
		}
		if cust.Role != profile.RoleCustomer {
			return nil, fmt.Errorf("%w: bookings belong to customer profiles", apperr.ErrValidation)
		}
	default:
		return nil, g.deny(c, "create", uuid.Nil)
	}
	b, err := g.d.Bookings.CreateBooking(ctx, c.ID, req)
	if err != nil {
		return nil, err
	}
	return g.policyFor(c).view(b), nil
}

// ApplyTransition is admin-only; customers cannot cancel their own bookings.
func (g *Gate) ApplyTransition(ctx context.Context, c Caller, id uuid.UUID, to booking.Status, note string) (*booking.Transition, error) {
	if err := g.requireAdmin(c, "transition"); err != nil {
		return nil, err
	}
	return g.d.Bookings.ApplyTransition(ctx, id, to, c.ID, note)
}

func (g *Gate) Annotate(ctx context.Context, c Caller, id uuid.UUID, note string, adminNotes *string) (*booking.Transition, error) {
	if err := g.requireAdmin(c, "annotate"); err != nil {
		return nil, err
	}
	return g.d.Bookings.Annotate(ctx, id, c.ID, note, adminNotes)
}

func (g *Gate) MarkRescheduledByPhone(ctx context.Context, c Caller, id uuid.UUID, note string) (*booking.Transition, error) {
	if err := g.requireAdmin(c, "reschedule"); err != nil {
		return nil, err
	}
	return g.d.Bookings.MarkRescheduledByPhone(ctx, id, c.ID, note)
}

func (g *Gate) editable(ctx context.Context, c Caller, id uuid.UUID) (policy, error) {
	b, p, err := g.readable(ctx, c, id)
	if err != nil {
		return nil, err
	}
	if !p.canEditItems(b) {
		return nil, g.deny(c, "edit_items", id)
	}
	return p, nil
}

func (g *Gate) AddLineItem(ctx context.Context, c Caller, id uuid.UUID, ir booking.ItemRequest) (*booking.Booking, error) {
	p, err := g.editable(ctx, c, id)
	if err != nil {
		return nil, err
	}
	b, err := g.d.Bookings.AddLineItem(ctx, id, c.ID, ir)
	if err != nil {
		return nil, err
	}
	return p.view(b), nil
}

func (g *Gate) RemoveLineItem(ctx context.Context, c Caller, id, itemID uuid.UUID) (*booking.Booking, error) {
	p, err := g.editable(ctx, c, id)
	if err != nil {
		return nil, err
	}
	b, err := g.d.Bookings.RemoveLineItem(ctx, id, c.ID, itemID)
	if err != nil {
		return nil, err
	}
	return p.view(b), nil
}

func (g *Gate) AssignCleaner(ctx context.Context, c Caller, bookingID, cleanerID uuid.UUID, note string) (*assignment.Result, error) {
	if err := g.requireAdmin(c, "assign"); err != nil {
		return nil, err
	}
	return g.d.Assignments.AssignCleaner(ctx, bookingID, cleanerID, c.ID, note)
}

func (g *Gate) Assignments(ctx context.Context, c Caller, bookingID uuid.UUID) ([]assignment.Assignment, error) {
	if _, _, err := g.readable(ctx, c, bookingID); err != nil {
		return nil, err
	}
	return g.d.Assignments.List(ctx, bookingID)
}

func (g *Gate) RecordPayment(ctx context.Context, c Caller, bookingID uuid.UUID, req payment.RecordRequest) (*payment.Payment, error) {
	if err := g.requireAdmin(c, "record_payment"); err != nil {
		return nil, err
	}
	return g.d.Payments.Record(ctx, c.ID, bookingID, req)
}

// Payments are visible to admins and to the booking's customer.
func (g *Gate) Payments(ctx context.Context, c Caller, bookingID uuid.UUID) ([]payment.Payment, error) {
	if c.Role == profile.RoleCleaner {
		return nil, g.deny(c, "payments", bookingID)
	}
	if _, _, err := g.readable(ctx, c, bookingID); err != nil {
		return nil, err
	}
	return g.d.Payments.List(ctx, bookingID)
}

// CreateReview is open to the booking's own customer once it is completed.
func (g *Gate) CreateReview(ctx context.Context, c Caller, bookingID uuid.UUID, req review.CreateRequest) (*review.Review, error) {
	if c.Role != profile.RoleCustomer {
		return nil, g.deny(c, "review", bookingID)
	}
	if _, _, err := g.readable(ctx, c, bookingID); err != nil {
		return nil, err
	}
	return g.d.Reviews.Create(ctx, c.ID, bookingID, req)
}

func (g *Gate) BookingReviews(ctx context.Context, c Caller, bookingID uuid.UUID) ([]review.Review, error) {
	if _, _, err := g.readable(ctx, c, bookingID); err != nil {
		return nil, err
	}
	return g.d.Reviews.ListByBooking(ctx, bookingID)
}

func (g *Gate) PublishReview(ctx context.Context, c Caller, reviewID uuid.UUID, published bool) (*review.Review, error) {
	if err := g.requireAdmin(c, "publish_review"); err != nil {
		return nil, err
	}
	return g.d.Reviews.SetPublished(ctx, c.ID, reviewID, published)
}

func (g *Gate) Export(ctx context.Context, c Caller, f export.Filter, format export.Format) (*export.Result, error) {
	if err := g.requireAdmin(c, "export"); err != nil {
		return nil, err
	}
	return g.d.Exports.Export(ctx, c.ID, f, format)
}

func (g *Gate) Dashboard(ctx context.Context, c Caller) (*stats.Dashboard, error) {
	if err := g.requireAdmin(c, "stats"); err != nil {
		return nil, err
	}
	return g.d.Stats.Dashboard(ctx)
}

// Sweep runs the stale sweep for an admin or for the System caller.
func (g *Gate) Sweep(ctx context.Context, c Caller, thresholdHours int) (*sweeper.Summary, error) {
	if !c.IsSystem() {
		if err := g.requireAdmin(c, "sweep"); err != nil {
			return nil, err
		}
	}
	return g.d.Sweeper.Sweep(ctx, thresholdHours)
}

func (g *Gate) AuditLog(ctx context.Context, c Caller, f audit.Filter) ([]audit.Entry, error) {
	if err := g.requireAdmin(c, "audit_log"); err != nil {
		return nil, err
	}
	return g.d.Audit.List(ctx, f)
}
