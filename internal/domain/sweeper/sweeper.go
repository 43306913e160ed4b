// Package sweeper flags bookings that stayed pending for too long and alerts
// operations staff. It never changes a booking's status.
package sweeper

import (
	"context"
	"fmt"
	"log"
	"time"

	"cleandigo/internal/domain/audit"
	"cleandigo/internal/domain/booking"
	"cleandigo/internal/domain/notification"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
)

const DefaultThresholdHours = 24

type StaleFinder interface {
	ListStalePending(ctx context.Context, before time.Time) ([]booking.Booking, error)
}

type Auditor interface {
	Append(ctx context.Context, rec audit.Record) (*audit.Entry, error)
}

type Summary struct {
	Processed            int         `json:"processed"`
	BookingIDs           []uuid.UUID `json:"bookingIds"`
	NotificationFailures int         `json:"notificationFailures"`
	AuditFailures        int         `json:"auditFailures"`
	Timestamp            time.Time   `json:"timestamp"`
}

type Sweeper struct {
	bookings StaleFinder
	audit    Auditor
	sender   notification.Sender
	opsEmail string
	now      func() time.Time
}

func New(bookings StaleFinder, auditor Auditor, sender notification.Sender, opsEmail string) *Sweeper {
	return &Sweeper{
		bookings: bookings,
		audit:    auditor,
		sender:   sender,
		opsEmail: opsEmail,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (s *Sweeper) WithClock(now func() time.Time) *Sweeper {
	s.now = func() time.Time { return now().UTC() }
	return s
}

// Sweep flags every booking pending for longer than thresholdHours. Audit
// rows are written on every run; alerts are keyed per booking and day so a
// rerun on the same day sends nothing new. Failures for one booking do not
// stop the others.
func (s *Sweeper) Sweep(ctx context.Context, thresholdHours int) (*Summary, error) {
	if thresholdHours <= 0 {
		thresholdHours = DefaultThresholdHours
	}
	now := s.now()
	cutoff := now.Add(-time.Duration(thresholdHours) * time.Hour)

	log.Printf("stale_sweep_started threshold_hours=%d cutoff=%s", thresholdHours, cutoff.Format(time.RFC3339))
	stale, err := s.bookings.ListStalePending(ctx, cutoff)
	if err != nil {
		return nil, fmt.Errorf("list stale bookings: %w", err)
	}

	sum := &Summary{BookingIDs: make([]uuid.UUID, 0, len(stale)), Timestamp: now}
	note := fmt.Sprintf("Booking flagged as stale after %d hours in pending status", thresholdHours)
	for i := range stale {
		b := &stale[i]
		sum.Processed++
		sum.BookingIDs = append(sum.BookingIDs, b.ID)

		if _, err := s.audit.Append(ctx, audit.Record{
			Table:     "bookings",
			RecordID:  b.ID.String(),
			Action:    audit.ActionStaleFlagged,
			NewValues: map[string]any{"flagged_stale": true, "flagged_at": now.Format(time.RFC3339)},
			Notes:     note,
		}); err != nil {
			sum.AuditFailures++
			log.Printf("stale_audit_failed booking_id=%s err=%v", b.ID, err)
		}

		if err := s.alert(ctx, b, now); err != nil {
			sum.NotificationFailures++
			log.Printf("stale_alert_failed booking_id=%s err=%v", b.ID, err)
		}
	}

	log.Printf("stale_sweep_completed processed=%d notification_failures=%d audit_failures=%d",
		sum.Processed, sum.NotificationFailures, sum.AuditFailures)
	return sum, nil
}

func (s *Sweeper) alert(ctx context.Context, b *booking.Booking, now time.Time) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	p, err := notification.StalePayload(b, s.opsEmail, now)
	if err != nil {
		return err
	}
	_, err = s.sender.Dispatch(ctx, p)
	return err
}

// RunFunc performs one sweep. (*Sweeper).Sweep and the access gate's
// System sweep both satisfy it.
type RunFunc func(ctx context.Context, thresholdHours int) (*Summary, error)

// Schedule registers run as a cron job on sched.
func Schedule(sched gocron.Scheduler, cronExpr string, thresholdHours int, run RunFunc) (gocron.Job, error) {
	return sched.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() {
			if _, err := run(context.Background(), thresholdHours); err != nil {
				log.Printf("stale_sweep_failed err=%v", err)
			}
		}),
		gocron.WithName("stale-booking-sweep"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
}
