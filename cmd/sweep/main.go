package main

import (
	"context"
	"flag"
	"log"
	"time"

	"cleandigo/internal/app"
	"cleandigo/internal/config"
	"cleandigo/internal/database"
	"cleandigo/internal/domain/access"

	"github.com/go-co-op/gocron/v2"
)

// One-shot stale booking sweep for an external cron.
func main() {
	threshold := flag.Int("hours", 0, "pending age in hours (default STALE_THRESHOLD_HOURS)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if *threshold <= 0 {
		*threshold = cfg.StaleThresholdHours
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	sched.Start()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	svc, err := app.NewServices(ctx, cfg, db, sched, app.Overrides{})
	if err != nil {
		log.Fatalf("wiring failed: %v", err)
	}
	defer svc.Close()

	summary, err := svc.Gate.Sweep(ctx, access.System(), *threshold)
	if err != nil {
		log.Fatalf("sweep failed: %v", err)
	}

	// retries of failed alerts run on the scheduler; wait for them
	if err := sched.Shutdown(); err != nil {
		log.Printf("scheduler shutdown: %v", err)
	}
	log.Printf("sweep completed processed=%d notification_failures=%d audit_failures=%d",
		summary.Processed, summary.NotificationFailures, summary.AuditFailures)
}
