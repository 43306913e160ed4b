package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cleandigo/internal/app"
	"cleandigo/internal/config"
	"cleandigo/internal/database"
	"cleandigo/internal/domain"
	"cleandigo/internal/domain/access"
	"cleandigo/internal/domain/sweeper"
	jwtsvc "cleandigo/internal/pkg/jwt"

	"github.com/go-co-op/gocron/v2"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db connect failed: %v", err)
	}
	if err := database.Migrate(db, domain.Models()...); err != nil {
		log.Fatalf("migrate failed: %v", err)
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}

	svc, err := app.NewServices(ctx, cfg, db, sched, app.Overrides{})
	if err != nil {
		log.Fatalf("wiring failed: %v", err)
	}
	defer svc.Close()

	if cfg.SweepEnabled {
		run := func(ctx context.Context, hours int) (*sweeper.Summary, error) {
			return svc.Gate.Sweep(ctx, access.System(), hours)
		}
		if _, err := sweeper.Schedule(sched, cfg.StaleSweepCron, cfg.StaleThresholdHours, run); err != nil {
			log.Fatalf("sweep schedule: %v", err)
		}
		log.Printf("sweep scheduled cron=%q threshold_hours=%d", cfg.StaleSweepCron, cfg.StaleThresholdHours)
	}
	sched.Start()

	tokens := jwtsvc.New(cfg.JWTSecret, cfg.JWTTTL)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           app.NewRouter(cfg, tokens, svc),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("listening addr=%s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("http shutdown: %v", err)
	}
	// lets queued notification retries finish
	if err := sched.Shutdown(); err != nil {
		log.Printf("scheduler shutdown: %v", err)
	}
}
