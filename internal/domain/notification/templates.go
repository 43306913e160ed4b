package notification

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"cleandigo/internal/domain/booking"
)

// MessageData is the template input for booking emails.
type MessageData struct {
	BookingID    string
	Recipient    string
	CustomerName string
	CleanerName  string
	Date         string
	StartTime    string
	Address      string
	Status       string
	Total        string
	Note         string
}

var subjects = map[EventType]string{
	EventBookingCreated:     "Booking received - %s",
	EventBookingAssigned:    "Your cleaner is booked - %s",
	EventBookingCompleted:   "Booking completed - %s",
	EventBookingCancelled:   "Booking cancelled - %s",
	EventBookingRescheduled: "Booking rescheduled - %s",
	EventBookingStale:       "Stale Booking Alert - Customer: %s",
}

var bodies = template.Must(template.New("notification").Parse(`
{{define "booking_created"}}<h2>Thanks for booking with Cleandigo</h2>
<p>Hi {{.Recipient}}, we have received your booking for {{.Date}} at {{.StartTime}}.</p>
<ul>
<li><strong>Booking ID:</strong> {{.BookingID}}</li>
<li><strong>Address:</strong> {{.Address}}</li>
<li><strong>Total:</strong> ${{.Total}}</li>
</ul>
<p>We will confirm it shortly.</p>{{end}}
{{define "booking_assigned"}}<h2>Cleaner assigned</h2>
<p>Hi {{.Recipient}}, {{.CleanerName}} is booked for the clean on {{.Date}} at {{.StartTime}}.</p>
<ul>
<li><strong>Booking ID:</strong> {{.BookingID}}</li>
<li><strong>Customer:</strong> {{.CustomerName}}</li>
<li><strong>Address:</strong> {{.Address}}</li>
</ul>{{end}}
{{define "booking_completed"}}<h2>Your clean is complete</h2>
<p>Hi {{.Recipient}}, booking {{.BookingID}} on {{.Date}} has been completed.</p>
<p>We would love to hear how it went. You can leave a review from your account.</p>{{end}}
{{define "booking_cancelled"}}<h2>Booking cancelled</h2>
<p>Hi {{.Recipient}}, booking {{.BookingID}} on {{.Date}} at {{.StartTime}} has been cancelled.</p>
{{if .Note}}<p>{{.Note}}</p>{{end}}{{end}}
{{define "booking_rescheduled"}}<h2>Booking rescheduled</h2>
<p>Hi {{.Recipient}}, booking {{.BookingID}} was rescheduled after your call with us.</p>
{{if .Note}}<p>{{.Note}}</p>{{end}}
<p>Current schedule: {{.Date}} at {{.StartTime}}.</p>{{end}}
{{define "booking_stale"}}<h2>Stale Booking Alert</h2>
<p>The following booking has been pending for over 24 hours:</p>
<ul>
<li><strong>Booking ID:</strong> {{.BookingID}}</li>
<li><strong>Customer:</strong> {{.CustomerName}} ({{.Recipient}})</li>
<li><strong>Status:</strong> Pending for over 24 hours</li>
</ul>
<p>Please review and contact the customer to confirm or update the booking status.</p>{{end}}
`))

// Render builds the subject and HTML body for event.
func Render(event EventType, data MessageData) (string, string, error) {
	subject, ok := subjects[event]
	if !ok {
		return "", "", fmt.Errorf("no template for %s", event)
	}
	subjectArg := data.Date
	if event == EventBookingStale {
		subjectArg = data.CustomerName
	}

	var buf bytes.Buffer
	if err := bodies.ExecuteTemplate(&buf, string(event), data); err != nil {
		return "", "", fmt.Errorf("render %s: %w", event, err)
	}
	return fmt.Sprintf(subject, subjectArg), buf.String(), nil
}

func bookingData(b *booking.Booking) MessageData {
	d := MessageData{
		BookingID: b.ID.String(),
		Date:      displayDate(b.BookingDate),
		StartTime: b.StartTime,
		Address:   fmt.Sprintf("%s, %s %s %s", b.Address, b.Suburb, b.State, b.Postcode),
		Status:    string(b.Status),
		Total:     fmt.Sprintf("%.2f", b.TotalAmount),
	}
	if b.Customer != nil {
		d.CustomerName = b.Customer.FullName()
	}
	return d
}

func displayDate(isoDate string) string {
	t, err := time.Parse("2006-01-02", isoDate)
	if err != nil {
		return isoDate
	}
	return t.Format("02/01/2006")
}

// StaleKey is stable for one booking within one calendar day.
func StaleKey(bookingID string, day time.Time) string {
	return fmt.Sprintf("stale-%s-%s", bookingID, day.UTC().Format("2006-01-02"))
}

// StalePayload builds the operations alert for a booking stuck in pending.
// The recipient line in the body names the customer email.
func StalePayload(b *booking.Booking, opsEmail string, day time.Time) (Payload, error) {
	d := bookingData(b)
	if b.Customer != nil {
		d.CustomerName = b.Customer.FirstName
		d.Recipient = b.Customer.Email
	}
	subject, body, err := Render(EventBookingStale, d)
	if err != nil {
		return Payload{}, err
	}
	return Payload{
		To:             opsEmail,
		Subject:        subject,
		Body:           body,
		EventType:      EventBookingStale,
		IdempotencyKey: StaleKey(b.ID.String(), day),
	}, nil
}
