package export

import (
	"fmt"
	"strings"
	"time"

	"cleandigo/internal/domain/assignment"
	"cleandigo/internal/domain/booking"
	"cleandigo/internal/domain/payment"
)

const (
	notAssigned    = "Not assigned"
	paymentPending = "Pending"
)

// Header is the fixed column order of every export.
var Header = []string{
	"Booking ID",
	"Date",
	"Start Time",
	"End Time",
	"Customer Name",
	"Customer Email",
	"Customer Phone",
	"Address",
	"Suburb",
	"Postcode",
	"State",
	"Services",
	"Total Amount (AUD)",
	"Status",
	"Assigned Cleaner",
	"Payment Status",
	"Invoice Number",
	"Created At",
	"Updated At",
	"Notes",
	"Admin Notes",
}

// Row is one flattened booking.
type Row struct {
	BookingID     string `json:"booking_id"`
	Date          string `json:"date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`
	CustomerPhone string `json:"customer_phone"`
	Address       string `json:"address"`
	Suburb        string `json:"suburb"`
	Postcode      string `json:"postcode"`
	State         string `json:"state"`
	Services      string `json:"services"`
	TotalAmount   string `json:"total_amount"`
	Status        string `json:"status"`
	Cleaner       string `json:"assigned_cleaner"`
	PaymentStatus string `json:"payment_status"`
	InvoiceNumber string `json:"invoice_number"`
	CreatedAt     string `json:"created_at"`
	UpdatedAt     string `json:"updated_at"`
	Notes         string `json:"notes"`
	AdminNotes    string `json:"admin_notes"`
}

func (r Row) Values() []string {
	return []string{
		r.BookingID, r.Date, r.StartTime, r.EndTime,
		r.CustomerName, r.CustomerEmail, r.CustomerPhone,
		r.Address, r.Suburb, r.Postcode, r.State,
		r.Services, r.TotalAmount, r.Status, r.Cleaner,
		r.PaymentStatus, r.InvoiceNumber, r.CreatedAt, r.UpdatedAt,
		r.Notes, r.AdminNotes,
	}
}

// Flatten joins a booking with its current assignment and latest payment.
// Either may be nil.
func Flatten(b *booking.Booking, a *assignment.Assignment, p *payment.Payment) Row {
	row := Row{
		BookingID:     b.ID.String(),
		Date:          b.BookingDate,
		StartTime:     b.StartTime,
		Address:       b.Address,
		Suburb:        b.Suburb,
		Postcode:      b.Postcode,
		State:         b.State,
		Services:      services(b.Items),
		TotalAmount:   fmt.Sprintf("%.2f", b.TotalAmount),
		Status:        string(b.Status),
		Cleaner:       notAssigned,
		PaymentStatus: paymentPending,
		CreatedAt:     b.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:     b.UpdatedAt.UTC().Format(time.RFC3339),
		Notes:         b.Notes,
		AdminNotes:    b.AdminNotes,
	}
	if b.EndTime != nil {
		row.EndTime = *b.EndTime
	}
	if c := b.Customer; c != nil {
		row.CustomerName = strings.TrimSpace(c.FirstName + " " + c.LastName)
		row.CustomerEmail = c.Email
		row.CustomerPhone = c.Phone
	}
	if a != nil && a.Cleaner != nil {
		if name := a.Cleaner.FullName(); name != "" {
			row.Cleaner = name
		}
	}
	if p != nil {
		if p.Status != "" {
			row.PaymentStatus = string(p.Status)
		}
		row.InvoiceNumber = p.InvoiceNumber
	}
	return row
}

func services(items []booking.LineItem) string {
	parts := make([]string, 0, len(items))
	for _, it := range items {
		name := it.ServiceID.String()
		if it.Service != nil {
			name = it.Service.Name
		}
		parts = append(parts, fmt.Sprintf("%s (%d × %.2f)", name, it.Quantity, it.UnitPrice))
	}
	return strings.Join(parts, "; ")
}
