package app

import (
	"context"
	"fmt"
	"log"

	"cleandigo/internal/config"
	"cleandigo/internal/domain/access"
	"cleandigo/internal/domain/assignment"
	"cleandigo/internal/domain/audit"
	"cleandigo/internal/domain/booking"
	"cleandigo/internal/domain/catalog"
	"cleandigo/internal/domain/export"
	"cleandigo/internal/domain/notification"
	"cleandigo/internal/domain/payment"
	"cleandigo/internal/domain/profile"
	"cleandigo/internal/domain/realtime"
	"cleandigo/internal/domain/review"
	"cleandigo/internal/domain/stats"
	"cleandigo/internal/domain/sweeper"
	"cleandigo/internal/pkg/mq"

	"github.com/go-co-op/gocron/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// Services holds every wired component. Close releases the external
// connections it opened.
type Services struct {
	Profiles    *profile.Repository
	Catalog     *catalog.Repository
	Bookings    *booking.Service
	Assignments *assignment.Service
	Payments    *payment.Service
	Reviews     *review.Service
	Audit       *audit.Repository
	Exports     *export.Service
	Stats       *stats.Service
	Sweeper     *sweeper.Sweeper
	Hub         *realtime.Hub
	Gate        *access.Gate

	closers []func() error
}

// Overrides replaces integrations in tests.
type Overrides struct {
	Email notification.Transport
	SMS   notification.Transport
	Store notification.Store
}

func NewServices(ctx context.Context, cfg *config.App, db *gorm.DB, sched gocron.Scheduler, ov Overrides) (*Services, error) {
	s := &Services{}

	store, err := s.idempotencyStore(ctx, cfg, sched, ov.Store)
	if err != nil {
		s.Close()
		return nil, err
	}

	email := ov.Email
	if email == nil {
		email = emailTransport(cfg)
	}

	dcfg := notification.Config{
		MaxAttempts:    cfg.NotifyMaxAttempts,
		RetryBase:      cfg.NotifyRetryBase,
		AttemptTimeout: cfg.NotifyAttemptTimeout,
		Retention:      cfg.NotifyRetention,
	}
	retries := notification.NewGocronScheduler(sched)
	emailDispatcher := notification.NewDispatcher(email, store, retries, dcfg)

	s.Profiles = profile.NewRepository(db)
	s.Catalog = catalog.NewRepository(db)
	s.Audit = audit.NewRepository(db)

	notifier := notification.NewBookingNotifier(s.Profiles, emailDispatcher)
	sms := ov.SMS
	if sms == nil && cfg.SMSEnabled {
		if sns, err := notification.NewSNSTransportFromEnv(ctx); err != nil {
			log.Printf("integration_disabled name=sms err=%v", err)
		} else {
			sms = sns
		}
	}
	if sms != nil {
		notifier = notifier.WithSMS(notification.NewDispatcher(sms, store, retries, dcfg))
	}

	assignmentRepo := assignment.NewRepository(db)
	s.Hub = realtime.NewHub(assignmentRepo)
	events := booking.Publishers{s.Hub}
	if cfg.RabbitURL != "" {
		if pub, err := mq.NewPublisher(cfg.RabbitURL, cfg.RabbitExchange); err != nil {
			log.Printf("integration_disabled name=rabbitmq err=%v", err)
		} else {
			s.closers = append(s.closers, pub.Close)
			events = append(events, booking.NewBrokerPublisher(pub))
		}
	}

	bookingRepo := booking.NewRepository(db)
	s.Bookings = booking.NewService(db, bookingRepo, s.Catalog, notifier, events)
	s.Assignments = assignment.NewService(db, assignmentRepo, s.Profiles, s.Bookings, notifier, events)

	paymentRepo := payment.NewRepository(db)
	s.Payments = payment.NewService(db, paymentRepo, s.Bookings, s.Audit)
	s.Reviews = review.NewService(review.NewRepository(db), s.Bookings, s.Audit)
	s.Exports = export.NewService(s.Bookings, assignmentRepo, s.Payments, s.Audit, cfg.ExportMaxPageSize)
	s.Stats = stats.NewService(db)
	s.Sweeper = sweeper.New(bookingRepo, s.Audit, emailDispatcher, cfg.OpsEmail)

	s.Gate = access.NewGate(access.Deps{
		Profiles:    s.Profiles,
		Bookings:    s.Bookings,
		Assignments: s.Assignments,
		Payments:    s.Payments,
		Reviews:     s.Reviews,
		Exports:     s.Exports,
		Stats:       s.Stats,
		Sweeper:     s.Sweeper,
		Audit:       s.Audit,
	})

	return s, nil
}

func (s *Services) idempotencyStore(ctx context.Context, cfg *config.App, sched gocron.Scheduler, override notification.Store) (notification.Store, error) {
	if override != nil {
		return override, nil
	}
	if cfg.RedisURL == "" {
		log.Println("notification: using in-memory idempotency store")
		mem := notification.NewMemoryStore()
		if _, err := mem.ScheduleCleanup(sched, cfg.NotifyRetention); err != nil {
			return nil, fmt.Errorf("schedule idempotency cleanup: %w", err)
		}
		return mem, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	s.closers = append(s.closers, client.Close)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	log.Println("notification: using redis idempotency store")
	return notification.NewRedisStore(client), nil
}

// emailTransport never fails the wiring. A rejected smtp setup leaves email
// unavailable and every send reports the configuration error.
func emailTransport(cfg *config.App) notification.Transport {
	if cfg.MailTransport != "smtp" {
		return notification.LogTransport{}
	}
	t, err := notification.NewSMTPTransport(notification.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.MailFrom,
	})
	if err != nil {
		log.Printf("integration_disabled name=email err=%v", err)
		return notification.NewUnavailableTransport("smtp", err)
	}
	return t
}

func (s *Services) Close() error {
	var first error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	s.closers = nil
	return first
}
