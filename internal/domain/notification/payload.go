package notification

import (
	"fmt"
	"strings"
	"time"

	"cleandigo/internal/pkg/apperr"
)

type EventType string

const (
	EventBookingCreated     EventType = "booking_created"
	EventBookingAssigned    EventType = "booking_assigned"
	EventBookingCompleted   EventType = "booking_completed"
	EventBookingCancelled   EventType = "booking_cancelled"
	EventBookingRescheduled EventType = "booking_rescheduled"
	EventBookingStale       EventType = "booking_stale"
)

func (e EventType) Valid() bool {
	switch e {
	case EventBookingCreated, EventBookingAssigned, EventBookingCompleted,
		EventBookingCancelled, EventBookingRescheduled, EventBookingStale:
		return true
	}
	return false
}

// Payload is what a transport delivers.
type Payload struct {
	To             string    `json:"to"`
	Subject        string    `json:"subject"`
	Body           string    `json:"body"`
	EventType      EventType `json:"eventType"`
	IdempotencyKey string    `json:"idempotencyKey"`
}

func (p Payload) validate() error {
	switch {
	case strings.TrimSpace(p.To) == "":
		return fmt.Errorf("%w: notification recipient is required", apperr.ErrValidation)
	case strings.TrimSpace(p.IdempotencyKey) == "":
		return fmt.Errorf("%w: idempotency key is required", apperr.ErrValidation)
	case !p.EventType.Valid():
		return fmt.Errorf("%w: unknown notification event %q", apperr.ErrValidation, p.EventType)
	}
	return nil
}

type DeliveryStatus string

const (
	StatusSent      DeliveryStatus = "sent"
	StatusDuplicate DeliveryStatus = "duplicate"
	StatusInFlight  DeliveryStatus = "in_flight"
	StatusRetrying  DeliveryStatus = "retrying"
	StatusFailed    DeliveryStatus = "failed"
)

// Result acknowledges a dispatch call.
type Result struct {
	ID             string         `json:"id"`
	Status         DeliveryStatus `json:"status"`
	EventType      EventType      `json:"eventType"`
	To             string         `json:"to"`
	Subject        string         `json:"subject"`
	IdempotencyKey string         `json:"idempotencyKey"`
	Transport      string         `json:"transport"`
	Attempts       int            `json:"attempts"`
	SentAt         *time.Time     `json:"sentAt,omitempty"`
}
