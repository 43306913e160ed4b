package notification

import (
	"context"
	"log"
)

// Transport delivers one payload. Returned errors are retried by the
// dispatcher, except apperr.ErrConfiguration which fails at once.
type Transport interface {
	Name() string
	Send(ctx context.Context, p Payload) error
}

// LogTransport writes payloads to the process log instead of sending them.
type LogTransport struct{}

func (LogTransport) Name() string { return "log" }

func (LogTransport) Send(ctx context.Context, p Payload) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	log.Printf("notification_delivered transport=log to=%s event=%s key=%s subject=%q", p.To, p.EventType, p.IdempotencyKey, p.Subject)
	return nil
}

// UnavailableTransport stands in for a transport whose configuration was
// rejected at startup. Every send fails with that configuration error.
type UnavailableTransport struct {
	name  string
	cause error
}

func NewUnavailableTransport(name string, cause error) *UnavailableTransport {
	return &UnavailableTransport{name: name, cause: cause}
}

func (t *UnavailableTransport) Name() string { return t.name }

func (t *UnavailableTransport) Send(context.Context, Payload) error {
	return t.cause
}
