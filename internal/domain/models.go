package domain

import (
	"cleandigo/internal/domain/assignment"
	"cleandigo/internal/domain/audit"
	"cleandigo/internal/domain/booking"
	"cleandigo/internal/domain/catalog"
	"cleandigo/internal/domain/payment"
	"cleandigo/internal/domain/profile"
	"cleandigo/internal/domain/review"
)

// Models lists every persisted entity in migration order.
func Models() []any {
	return []any{
		&profile.Profile{},
		&catalog.Service{},
		&booking.Booking{},
		&booking.LineItem{},
		&booking.StatusHistoryEntry{},
		&assignment.Assignment{},
		&payment.Payment{},
		&review.Review{},
		&audit.Entry{},
	}
}
