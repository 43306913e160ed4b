package notification

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"cleandigo/internal/pkg/apperr"

	"github.com/google/uuid"
)

type Config struct {
	MaxAttempts    int
	RetryBase      time.Duration
	AttemptTimeout time.Duration
	Retention      time.Duration
}

func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		RetryBase:      time.Second,
		AttemptTimeout: 5 * time.Second,
		Retention:      time.Hour,
	}
}

// Dispatcher delivers each idempotency key at most once. Failed attempts
// are retried out of band with a linearly growing delay.
type Dispatcher struct {
	transport Transport
	store     Store
	scheduler Scheduler
	cfg       Config
	now       func() time.Time
}

func NewDispatcher(transport Transport, store Store, scheduler Scheduler, cfg Config) *Dispatcher {
	def := DefaultConfig()
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.RetryBase <= 0 {
		cfg.RetryBase = def.RetryBase
	}
	if cfg.AttemptTimeout <= 0 {
		cfg.AttemptTimeout = def.AttemptTimeout
	}
	if cfg.Retention <= 0 {
		cfg.Retention = def.Retention
	}
	return &Dispatcher{
		transport: transport,
		store:     store,
		scheduler: scheduler,
		cfg:       cfg,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (d *Dispatcher) WithClock(now func() time.Time) *Dispatcher {
	d.now = now
	return d
}

// Dispatch returns as soon as the first attempt finished. A repeated key
// gets the recorded result marked duplicate, or an in-flight ack while the
// first delivery is still being retried.
func (d *Dispatcher) Dispatch(ctx context.Context, p Payload) (*Result, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	reserved, existing, err := d.store.Reserve(ctx, p.IdempotencyKey, d.cfg.Retention)
	if err != nil {
		return nil, err
	}
	if !reserved {
		if existing != nil {
			dup := *existing
			dup.Status = StatusDuplicate
			log.Printf("notification_duplicate key=%s event=%s to=%s", p.IdempotencyKey, p.EventType, p.To)
			return &dup, nil
		}
		log.Printf("notification_in_flight key=%s event=%s to=%s", p.IdempotencyKey, p.EventType, p.To)
		return &Result{
			Status:         StatusInFlight,
			EventType:      p.EventType,
			To:             p.To,
			Subject:        p.Subject,
			IdempotencyKey: p.IdempotencyKey,
			Transport:      d.transport.Name(),
		}, nil
	}

	res := Result{
		ID:             uuid.NewString(),
		EventType:      p.EventType,
		To:             p.To,
		Subject:        p.Subject,
		IdempotencyKey: p.IdempotencyKey,
		Transport:      d.transport.Name(),
	}
	return d.attempt(context.WithoutCancel(ctx), p, res, 1)
}

func (d *Dispatcher) attempt(ctx context.Context, p Payload, res Result, attempt int) (*Result, error) {
	actx, cancel := context.WithTimeout(ctx, d.cfg.AttemptTimeout)
	sendErr := d.transport.Send(actx, p)
	cancel()

	res.Attempts = attempt
	if sendErr == nil {
		sentAt := d.now()
		res.Status = StatusSent
		res.SentAt = &sentAt
		if err := d.store.Complete(ctx, p.IdempotencyKey, &res, d.cfg.Retention); err != nil {
			log.Printf("notification_record_failed key=%s err=%v", p.IdempotencyKey, err)
		}
		log.Printf("notification_sent key=%s event=%s to=%s transport=%s attempt=%d", p.IdempotencyKey, p.EventType, p.To, res.Transport, attempt)
		return &res, nil
	}

	log.Printf("notification_attempt_failed key=%s event=%s to=%s attempt=%d/%d err=%v",
		p.IdempotencyKey, p.EventType, p.To, attempt, d.cfg.MaxAttempts, sendErr)

	if errors.Is(sendErr, apperr.ErrConfiguration) {
		return d.giveUp(ctx, p, res, apperr.ErrConfiguration, sendErr)
	}
	if attempt >= d.cfg.MaxAttempts {
		return d.giveUp(ctx, p, res, apperr.ErrTransientDelivery, sendErr)
	}

	delay := d.cfg.RetryBase * time.Duration(attempt)
	next := res
	if err := d.scheduler.After(delay, func() {
		d.retry(ctx, p, next, attempt+1)
	}); err != nil {
		log.Printf("notification_retry_schedule_failed key=%s err=%v", p.IdempotencyKey, err)
		return d.giveUp(ctx, p, res, apperr.ErrTransientDelivery, sendErr)
	}

	log.Printf("notification_retry_scheduled key=%s attempt=%d delay=%s", p.IdempotencyKey, attempt+1, delay)
	res.Status = StatusRetrying
	return &res, nil
}

func (d *Dispatcher) retry(ctx context.Context, p Payload, res Result, attempt int) {
	_, _ = d.attempt(ctx, p, res, attempt)
}

// giveUp frees the key so a later dispatch of the same event can try again.
func (d *Dispatcher) giveUp(ctx context.Context, p Payload, res Result, kind, cause error) (*Result, error) {
	if err := d.store.Release(ctx, p.IdempotencyKey); err != nil {
		log.Printf("notification_release_failed key=%s err=%v", p.IdempotencyKey, err)
	}
	log.Printf("notification_failed key=%s event=%s to=%s attempts=%d err=%v", p.IdempotencyKey, p.EventType, p.To, res.Attempts, cause)
	res.Status = StatusFailed
	return &res, fmt.Errorf("%w: %s after %d attempts: %v", kind, p.IdempotencyKey, res.Attempts, cause)
}
