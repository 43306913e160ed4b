package booking

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"cleandigo/internal/database"
	"cleandigo/internal/pkg/apperr"
	"cleandigo/internal/pkg/validator"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// maxTransitionAttempts bounds re-reads when a conditional status update
// loses a race with another writer.
const maxTransitionAttempts = 3

const rescheduleNote = "Booking rescheduled by phone"

type Service struct {
	db       *gorm.DB
	repo     *Repository
	catalog  ServiceCatalog
	notifier Notifier
	events   EventPublisher
	now      func() time.Time
}

func NewService(db *gorm.DB, repo *Repository, catalog ServiceCatalog, notifier Notifier, events EventPublisher) *Service {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if events == nil {
		events = Publishers(nil)
	}
	return &Service{
		db:       db,
		repo:     repo,
		catalog:  catalog,
		notifier: notifier,
		events:   events,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithClock replaces the time source.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = func() time.Time { return now().UTC() }
	return s
}

func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.GetByID(ctx, id)
}

// GetForUpdate reads a booking under a row lock. Call it inside
// database.RunInTx.
func (s *Service) GetForUpdate(ctx context.Context, id uuid.UUID) (*Booking, error) {
	return s.repo.GetForUpdate(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Booking, int64, error) {
	return s.repo.List(ctx, f)
}

func (s *Service) History(ctx context.Context, id uuid.UUID) ([]StatusHistoryEntry, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	return s.repo.History(ctx, id)
}

// CreateBooking prices each line item from the catalog and stores the booking
// together with its creation history entry.
func (s *Service) CreateBooking(ctx context.Context, actor uuid.UUID, req CreateRequest) (*Booking, error) {
	if err := validator.Struct(req); err != nil {
		return nil, err
	}
	if req.CustomerID == uuid.Nil {
		return nil, fmt.Errorf("%w: customer_id is required", apperr.ErrValidation)
	}
	status := req.Status
	if status == "" {
		status = StatusPending
	}
	if !status.Valid() {
		return nil, fmt.Errorf("%w: unknown booking status %q", apperr.ErrValidation, status)
	}
	if req.EndTime != nil && *req.EndTime <= req.StartTime {
		return nil, fmt.Errorf("%w: end_time must be after start_time", apperr.ErrValidation)
	}

	now := s.now()
	b := &Booking{
		CustomerID:  req.CustomerID,
		BookingDate: req.BookingDate,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		Status:      status,
		Address:     strings.TrimSpace(req.Address),
		Suburb:      strings.TrimSpace(req.Suburb),
		Postcode:    strings.TrimSpace(req.Postcode),
		State:       strings.TrimSpace(req.State),
		Notes:       req.Notes,
		AdminNotes:  req.AdminNotes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	entry := &StatusHistoryEntry{
		NewStatus: status,
		ChangedBy: actor,
		Notes:     "Booking created",
		CreatedAt: now,
	}

	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		for _, ir := range req.Items {
			item, err := s.priceItem(ctx, ir, now)
			if err != nil {
				return err
			}
			b.Items = append(b.Items, *item)
		}
		b.TotalAmount = b.ItemsTotal()

		if err := s.repo.Create(ctx, b, entry); err != nil {
			return err
		}

		database.AfterCommit(ctx, func(ctx context.Context) {
			s.notifier.BookingCreated(ctx, b)
			s.events.Publish(ctx, NewEvent(ActionCreated, b, nil, actor, now))
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("booking_created booking_id=%s customer_id=%s status=%s total=%.2f", b.ID, b.CustomerID, b.Status, b.TotalAmount)
	return b, nil
}

func (s *Service) priceItem(ctx context.Context, ir ItemRequest, now time.Time) (*LineItem, error) {
	if ir.Quantity <= 0 {
		return nil, fmt.Errorf("%w: quantity must be positive", apperr.ErrValidation)
	}
	svc, err := s.catalog.GetByID(ctx, ir.ServiceID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, fmt.Errorf("%w: unknown service %s", apperr.ErrValidation, ir.ServiceID)
		}
		return nil, err
	}
	if !svc.IsActive {
		return nil, fmt.Errorf("%w: service %s is not offered", apperr.ErrValidation, svc.Name)
	}
	return &LineItem{
		ServiceID:  svc.ID,
		Quantity:   ir.Quantity,
		UnitPrice:  svc.BasePrice,
		TotalPrice: roundCents(float64(ir.Quantity) * svc.BasePrice),
		CreatedAt:  now,
		Service:    svc,
	}, nil
}

// ApplyTransition moves a booking to a new status and appends the matching
// history entry in the same transaction. A non-empty note replaces the
// admin notes and becomes the history note.
func (s *Service) ApplyTransition(ctx context.Context, id uuid.UUID, to Status, actor uuid.UUID, note string) (*Transition, error) {
	if !to.Valid() {
		return nil, fmt.Errorf("%w: unknown booking status %q", apperr.ErrValidation, to)
	}

	var out *Transition
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		for attempt := 1; attempt <= maxTransitionAttempts; attempt++ {
			b, err := s.repo.GetByID(ctx, id)
			if err != nil {
				return err
			}
			from := b.Status
			if from.Terminal() {
				return fmt.Errorf("%w: booking is %s", apperr.ErrInvalidTransition, from)
			}
			if !CanTransition(from, to) {
				return fmt.Errorf("%w: %s -> %s", apperr.ErrInvalidTransition, from, to)
			}

			now := s.now()
			var adminNotes *string
			historyNote := fmt.Sprintf("Status changed from %s to %s", from, to)
			if n := strings.TrimSpace(note); n != "" {
				adminNotes = &n
				historyNote = n
			}

			ok, err := s.repo.UpdateStatus(ctx, id, from, to, adminNotes, now)
			if err != nil {
				return err
			}
			if !ok {
				log.Printf("booking_transition_race booking_id=%s from=%s to=%s attempt=%d", id, from, to, attempt)
				continue
			}

			entry := &StatusHistoryEntry{
				BookingID: id,
				OldStatus: &from,
				NewStatus: to,
				ChangedBy: actor,
				Notes:     historyNote,
				CreatedAt: now,
			}
			if err := s.repo.AppendHistory(ctx, entry); err != nil {
				return err
			}

			b.Status = to
			b.UpdatedAt = now
			if adminNotes != nil {
				b.AdminNotes = *adminNotes
			}
			out = &Transition{Booking: b, Entry: entry}

			database.AfterCommit(ctx, func(ctx context.Context) {
				s.notifier.StatusChanged(ctx, b, entry)
				s.events.Publish(ctx, NewEvent(ActionTransitioned, b, &from, actor, now))
			})
			return nil
		}
		return fmt.Errorf("%w: booking %s changed concurrently", apperr.ErrInvalidTransition, id)
	})
	if err != nil {
		return nil, err
	}

	log.Printf("booking_transition booking_id=%s from=%s to=%s actor=%s", id, *out.Entry.OldStatus, to, actor)
	return out, nil
}

// Annotate appends a history entry that keeps the current status. It is
// allowed in every status, terminal ones included. A non-nil adminNotes
// replaces the booking's admin notes.
func (s *Service) Annotate(ctx context.Context, id uuid.UUID, actor uuid.UUID, note string, adminNotes *string) (*Transition, error) {
	note = strings.TrimSpace(note)
	if note == "" {
		return nil, fmt.Errorf("%w: note is required", apperr.ErrValidation)
	}
	return s.annotate(ctx, id, actor, note, false, func(*Booking, time.Time) *string { return adminNotes })
}

// MarkRescheduledByPhone records a phone reschedule: a dated line is
// prepended to the admin notes and a history entry is appended.
func (s *Service) MarkRescheduledByPhone(ctx context.Context, id uuid.UUID, actor uuid.UUID, note string) (*Transition, error) {
	return s.annotate(ctx, id, actor, rescheduleNote, true, func(b *Booking, now time.Time) *string {
		line := fmt.Sprintf("Rescheduled by phone on %s.", now.Format("02/01/2006"))
		if n := strings.TrimSpace(note); n != "" {
			line += " " + n
		}
		if b.AdminNotes != "" {
			line += "\n" + b.AdminNotes
		}
		return &line
	})
}

func (s *Service) annotate(ctx context.Context, id, actor uuid.UUID, note string, rescheduled bool, notesFn func(*Booking, time.Time) *string) (*Transition, error) {
	var out *Transition
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		b, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		now := s.now()

		if notes := notesFn(b, now); notes != nil {
			if err := s.repo.UpdateAdminNotes(ctx, id, *notes, now); err != nil {
				return err
			}
			b.AdminNotes = *notes
			b.UpdatedAt = now
		}

		current := b.Status
		entry := &StatusHistoryEntry{
			BookingID: id,
			OldStatus: &current,
			NewStatus: current,
			ChangedBy: actor,
			Notes:     note,
			CreatedAt: now,
		}
		if err := s.repo.AppendHistory(ctx, entry); err != nil {
			return err
		}
		out = &Transition{Booking: b, Entry: entry}

		database.AfterCommit(ctx, func(ctx context.Context) {
			if rescheduled {
				s.notifier.Rescheduled(ctx, b, entry)
			}
			s.events.Publish(ctx, NewEvent(ActionAnnotated, b, &current, actor, now))
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Printf("booking_annotated booking_id=%s status=%s actor=%s note=%q", id, out.Booking.Status, actor, note)
	return out, nil
}

// AddLineItem adds a priced item to a pending booking and recomputes the total.
func (s *Service) AddLineItem(ctx context.Context, id uuid.UUID, actor uuid.UUID, ir ItemRequest) (*Booking, error) {
	if err := validator.Struct(ir); err != nil {
		return nil, err
	}
	return s.mutateItems(ctx, id, actor, func(ctx context.Context, b *Booking, now time.Time) error {
		item, err := s.priceItem(ctx, ir, now)
		if err != nil {
			return err
		}
		item.BookingID = b.ID
		return s.repo.AddItem(ctx, item)
	})
}

// RemoveLineItem drops an item from a pending booking. The last item cannot
// be removed.
func (s *Service) RemoveLineItem(ctx context.Context, id uuid.UUID, actor uuid.UUID, itemID uuid.UUID) (*Booking, error) {
	return s.mutateItems(ctx, id, actor, func(ctx context.Context, b *Booking, _ time.Time) error {
		n, err := s.repo.CountItems(ctx, b.ID)
		if err != nil {
			return err
		}
		if n <= 1 {
			return fmt.Errorf("%w: a booking needs at least one service", apperr.ErrValidation)
		}
		ok, err := s.repo.DeleteItem(ctx, b.ID, itemID)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: line item %s", apperr.ErrNotFound, itemID)
		}
		return nil
	})
}

func (s *Service) mutateItems(ctx context.Context, id, actor uuid.UUID, fn func(context.Context, *Booking, time.Time) error) (*Booking, error) {
	var out *Booking
	err := database.RunInTx(ctx, s.db, func(ctx context.Context) error {
		b, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if b.Status != StatusPending {
			return fmt.Errorf("%w: line items are locked once a booking leaves pending", apperr.ErrInvalidTransition)
		}
		now := s.now()
		if err := fn(ctx, b, now); err != nil {
			return err
		}
		if _, ok, err := s.repo.SyncTotalWhilePending(ctx, id, now); err != nil {
			return err
		} else if !ok {
			return fmt.Errorf("%w: line items are locked once a booking leaves pending", apperr.ErrInvalidTransition)
		}

		out, err = s.repo.GetByID(ctx, id)
		if err != nil {
			return err
		}
		database.AfterCommit(ctx, func(ctx context.Context) {
			s.events.Publish(ctx, NewEvent(ActionItemsChanged, out, nil, actor, now))
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
