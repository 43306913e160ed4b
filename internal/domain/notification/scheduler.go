package notification

import (
	"time"

	"github.com/go-co-op/gocron/v2"
)

// Scheduler runs fn once after delay without blocking the caller.
type Scheduler interface {
	After(delay time.Duration, fn func()) error
}

// GocronScheduler schedules retries as one-time gocron jobs.
type GocronScheduler struct {
	s gocron.Scheduler
}

func NewGocronScheduler(s gocron.Scheduler) *GocronScheduler {
	return &GocronScheduler{s: s}
}

func (g *GocronScheduler) After(delay time.Duration, fn func()) error {
	_, err := g.s.NewJob(
		gocron.OneTimeJob(gocron.OneTimeJobStartDateTime(time.Now().Add(delay))),
		gocron.NewTask(fn),
		gocron.WithLimitedRuns(1),
	)
	return err
}
