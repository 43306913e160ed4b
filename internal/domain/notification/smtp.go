package notification

import (
	"context"
	"fmt"
	"strings"
	"time"

	"cleandigo/internal/pkg/apperr"

	"github.com/wneessen/go-mail"
)

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPTransport sends HTML email through an SMTP relay.
type SMTPTransport struct {
	client *mail.Client
	from   string
}

func NewSMTPTransport(cfg SMTPConfig) (*SMTPTransport, error) {
	if strings.TrimSpace(cfg.Host) == "" || strings.TrimSpace(cfg.From) == "" {
		return nil, fmt.Errorf("%w: SMTP_HOST and MAIL_FROM are required for smtp mail", apperr.ErrConfiguration)
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	opts := []mail.Option{
		mail.WithPort(cfg.Port),
		mail.WithTimeout(cfg.Timeout),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.Username),
			mail.WithPassword(cfg.Password),
		)
	}

	c, err := mail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: smtp client: %v", apperr.ErrConfiguration, err)
	}
	return &SMTPTransport{client: c, from: cfg.From}, nil
}

func (t *SMTPTransport) Name() string { return "smtp" }

func (t *SMTPTransport) Send(ctx context.Context, p Payload) error {
	msg, err := t.message(p)
	if err != nil {
		return err
	}
	if err := t.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("%w: smtp: %v", apperr.ErrTransientDelivery, err)
	}
	return nil
}

func (t *SMTPTransport) message(p Payload) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(t.from); err != nil {
		return nil, fmt.Errorf("set from: %w", err)
	}
	if err := msg.To(p.To); err != nil {
		return nil, fmt.Errorf("set to: %w", err)
	}
	msg.Subject(p.Subject)
	msg.SetGenHeader(mail.Header("X-Idempotency-Key"), p.IdempotencyKey)
	msg.SetGenHeader(mail.Header("X-Event-Type"), string(p.EventType))
	msg.SetBodyString(mail.TypeTextHTML, p.Body)
	return msg, nil
}
