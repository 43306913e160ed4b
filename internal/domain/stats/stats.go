package stats

import (
	"context"
	"time"

	"cleandigo/internal/database"
	"cleandigo/internal/domain/booking"
	"cleandigo/internal/domain/profile"

	"gorm.io/gorm"
)

type Dashboard struct {
	NewBookings7d      int64     `json:"newBookings7d"`
	AssignedBookings   int64     `json:"assignedBookings"`
	InProgressBookings int64     `json:"inProgressBookings"`
	PendingBookings    int64     `json:"pendingBookings"`
	Completed30d       int64     `json:"completed30d"`
	Cancellations      int64     `json:"cancellations"`
	TotalRevenue30d    float64   `json:"totalRevenue30d"`
	AverageRating      float64   `json:"averageRating"`
	TotalCustomers     int64     `json:"totalCustomers"`
	GeneratedAt        time.Time `json:"generatedAt"`
}

type Service struct {
	db  *gorm.DB
	now func() time.Time
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = func() time.Time { return now().UTC() }
	return s
}

// Dashboard computes the admin overview. Completion and revenue windows use
// updated_at, which is when a booking last changed status.
func (s *Service) Dashboard(ctx context.Context) (*Dashboard, error) {
	db := database.Conn(ctx, s.db)
	now := s.now()
	weekAgo := now.Add(-7 * 24 * time.Hour)
	monthAgo := now.Add(-30 * 24 * time.Hour)

	d := &Dashboard{GeneratedAt: now}
	bookings := func() *gorm.DB { return db.Table("bookings") }

	if err := bookings().Where("created_at >= ?", weekAgo).Count(&d.NewBookings7d).Error; err != nil {
		return nil, err
	}
	if err := bookings().Where("status = ?", booking.StatusAssigned).Count(&d.AssignedBookings).Error; err != nil {
		return nil, err
	}
	if err := bookings().Where("status = ?", booking.StatusInProgress).Count(&d.InProgressBookings).Error; err != nil {
		return nil, err
	}
	if err := bookings().Where("status = ?", booking.StatusPending).Count(&d.PendingBookings).Error; err != nil {
		return nil, err
	}
	if err := bookings().Where("status = ?", booking.StatusCancelled).Count(&d.Cancellations).Error; err != nil {
		return nil, err
	}

	completed := bookings().Where("status = ? AND updated_at >= ?", booking.StatusCompleted, monthAgo)
	if err := completed.Count(&d.Completed30d).Error; err != nil {
		return nil, err
	}
	if err := bookings().
		Where("status = ? AND updated_at >= ?", booking.StatusCompleted, monthAgo).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&d.TotalRevenue30d).Error; err != nil {
		return nil, err
	}

	if err := db.Table("reviews").Select("COALESCE(AVG(rating), 0)").Scan(&d.AverageRating).Error; err != nil {
		return nil, err
	}
	if err := db.Table("profiles").Where("role = ?", profile.RoleCustomer).Count(&d.TotalCustomers).Error; err != nil {
		return nil, err
	}
	return d, nil
}
