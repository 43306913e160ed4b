package main

import (
	"context"
	"log"
	"time"

	"cleandigo/internal/app"
	"cleandigo/internal/config"
	"cleandigo/internal/database"
	"cleandigo/internal/domain"
	"cleandigo/internal/domain/booking"
	"cleandigo/internal/domain/catalog"
	"cleandigo/internal/domain/profile"

	"github.com/go-co-op/gocron/v2"
)

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("DB connection failed:", err)
	}
	if err := database.Migrate(db, domain.Models()...); err != nil {
		log.Fatal("migrate failed:", err)
	}

	// Cleanup old data (in safe order to avoid foreign key errors)
	log.Println("Cleaning old data...")
	for _, table := range []string{
		"audit_log", "reviews", "payments", "assignments",
		"booking_status_history", "booking_items", "bookings", "services", "profiles",
	} {
		if err := db.Exec("DELETE FROM " + table).Error; err != nil {
			log.Fatalf("cleanup %s: %v", table, err)
		}
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("scheduler: %v", err)
	}
	sched.Start()
	defer func() { _ = sched.Shutdown() }()

	svc, err := app.NewServices(ctx, cfg, db, sched, app.Overrides{})
	if err != nil {
		log.Fatalf("wiring failed: %v", err)
	}
	defer svc.Close()

	// ================== PROFILES ==================
	mk := func(email, first, last, phone string, role profile.Role) *profile.Profile {
		p := &profile.Profile{Email: email, FirstName: first, LastName: last, Phone: phone, Role: role}
		if err := svc.Profiles.Create(ctx, p); err != nil {
			log.Fatalf("profile %s: %v", email, err)
		}
		return p
	}
	admin := mk(cfg.OpsEmail, "Ops", "Desk", "", profile.RoleAdmin)
	cleaners := []*profile.Profile{
		mk("mia@cleandigo.com.au", "Mia", "Nguyen", "+61400000101", profile.RoleCleaner),
		mk("sam@cleandigo.com.au", "Sam", "Patel", "+61400000102", profile.RoleCleaner),
	}
	customers := []*profile.Profile{
		mk("jo.smith@example.com", "Jo", "Smith", "+61400000201", profile.RoleCustomer),
		mk("lee.wong@example.com", "Lee", "Wong", "+61400000202", profile.RoleCustomer),
		mk("kim.jones@example.com", "Kim", "Jones", "", profile.RoleCustomer),
	}
	log.Printf("profiles created admin=%s cleaners=%d customers=%d", admin.Email, len(cleaners), len(customers))

	// ================== SERVICES ==================
	services := []*catalog.Service{
		{Name: "Regular clean", Description: "Kitchen, bathrooms, floors and dusting", BasePrice: 120, DurationHours: 3},
		{Name: "Deep clean", Description: "Inside cupboards, skirting and grout", BasePrice: 260, DurationHours: 5},
		{Name: "Oven clean", BasePrice: 89, DurationHours: 1.5},
		{Name: "Window clean", Description: "Per window, inside and out", BasePrice: 15, DurationHours: 0.25},
	}
	for _, s := range services {
		s.IsActive = true
		if err := svc.Catalog.Create(ctx, s); err != nil {
			log.Fatalf("service %s: %v", s.Name, err)
		}
	}
	log.Printf("services created count=%d", len(services))

	// ================== BOOKINGS ==================
	day := func(offset int) string { return time.Now().AddDate(0, 0, offset).Format("2006-01-02") }
	plans := []struct {
		customer *profile.Profile
		date     string
		items    []booking.ItemRequest
		to       []booking.Status
	}{
		{customers[0], day(3), []booking.ItemRequest{{ServiceID: services[0].ID, Quantity: 1}}, nil},
		{customers[1], day(5), []booking.ItemRequest{{ServiceID: services[1].ID, Quantity: 1}, {ServiceID: services[2].ID, Quantity: 1}}, []booking.Status{booking.StatusConfirmed}},
		{customers[2], day(-2), []booking.ItemRequest{{ServiceID: services[3].ID, Quantity: 8}}, []booking.Status{booking.StatusConfirmed}},
	}

	for i, p := range plans {
		b, err := svc.Bookings.CreateBooking(ctx, admin.ID, booking.CreateRequest{
			CustomerID:  p.customer.ID,
			BookingDate: p.date,
			StartTime:   "09:00",
			Address:     "1 George St",
			Suburb:      "Sydney",
			Postcode:    "2000",
			State:       "NSW",
			Items:       p.items,
		})
		if err != nil {
			log.Fatalf("booking %d: %v", i, err)
		}
		for _, to := range p.to {
			if _, err := svc.Bookings.ApplyTransition(ctx, b.ID, to, admin.ID, "seeded"); err != nil {
				log.Fatalf("booking %d -> %s: %v", i, to, err)
			}
		}
		if len(p.to) > 0 {
			cleaner := cleaners[i%len(cleaners)]
			if _, err := svc.Assignments.AssignCleaner(ctx, b.ID, cleaner.ID, admin.ID, "seeded"); err != nil {
				log.Fatalf("assign booking %d: %v", i, err)
			}
		}
		log.Printf("booking created id=%s customer=%s total=%.2f", b.ID, p.customer.Email, b.TotalAmount)
	}

	log.Println("Seed completed")
}
