package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"cleandigo/internal/database"
	"cleandigo/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Filter narrows List. A non-nil IDs slice restricts results to those ids,
// an empty one matches nothing.
type Filter struct {
	CustomerID *uuid.UUID
	IDs        []uuid.UUID
	Statuses   []Status
	DateFrom   string
	DateTo     string
	Postcode   string
	Limit      int
	Offset     int
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts b, its line items and the creation history entry.
func (r *Repository) Create(ctx context.Context, b *Booking, entry *StatusHistoryEntry) error {
	db := database.Conn(ctx, r.db)
	if err := db.Omit(clause.Associations).Create(b).Error; err != nil {
		return err
	}
	for i := range b.Items {
		b.Items[i].BookingID = b.ID
		if err := db.Omit(clause.Associations).Create(&b.Items[i]).Error; err != nil {
			return err
		}
	}
	entry.BookingID = b.ID
	return db.Create(entry).Error
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var b Booking
	err := r.withDetails(database.Conn(ctx, r.db)).First(&b, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: booking %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// GetForUpdate locks the booking row for the rest of the transaction, then
// loads it with its details. Sqlite has no row locks and ignores the clause.
func (r *Repository) GetForUpdate(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var locked Booking
	err := database.Conn(ctx, r.db).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id").
		First(&locked, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: booking %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *Repository) withDetails(db *gorm.DB) *gorm.DB {
	return db.
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at asc, id asc")
		}).
		Preload("Items.Service").
		Preload("Customer")
}

// UpdateStatus moves the booking from one status to another only if it is
// still in from. It reports whether a row was changed.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, from, to Status, adminNotes *string, at time.Time) (bool, error) {
	updates := map[string]any{
		"status":     to,
		"updated_at": at,
	}
	if adminNotes != nil {
		updates["admin_notes"] = *adminNotes
	}
	res := database.Conn(ctx, r.db).
		Model(&Booking{}).
		Where("id = ? AND status = ?", id, from).
		Updates(updates)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) UpdateAdminNotes(ctx context.Context, id uuid.UUID, notes string, at time.Time) error {
	return database.Conn(ctx, r.db).
		Model(&Booking{}).
		Where("id = ?", id).
		Updates(map[string]any{"admin_notes": notes, "updated_at": at}).Error
}

func (r *Repository) AppendHistory(ctx context.Context, entry *StatusHistoryEntry) error {
	return database.Conn(ctx, r.db).Create(entry).Error
}

// History returns the entries of a booking oldest first.
func (r *Repository) History(ctx context.Context, bookingID uuid.UUID) ([]StatusHistoryEntry, error) {
	var out []StatusHistoryEntry
	err := database.Conn(ctx, r.db).
		Where("booking_id = ?", bookingID).
		Order("created_at asc, id asc").
		Find(&out).Error
	return out, err
}

func (r *Repository) AddItem(ctx context.Context, item *LineItem) error {
	return database.Conn(ctx, r.db).Omit(clause.Associations).Create(item).Error
}

func (r *Repository) DeleteItem(ctx context.Context, bookingID, itemID uuid.UUID) (bool, error) {
	res := database.Conn(ctx, r.db).
		Where("id = ? AND booking_id = ?", itemID, bookingID).
		Delete(&LineItem{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *Repository) CountItems(ctx context.Context, bookingID uuid.UUID) (int64, error) {
	var n int64
	err := database.Conn(ctx, r.db).Model(&LineItem{}).Where("booking_id = ?", bookingID).Count(&n).Error
	return n, err
}

// SyncTotalWhilePending recomputes total_amount from the line items, but only
// while the booking is still pending.
func (r *Repository) SyncTotalWhilePending(ctx context.Context, bookingID uuid.UUID, at time.Time) (float64, bool, error) {
	db := database.Conn(ctx, r.db)

	var sum float64
	if err := db.Model(&LineItem{}).
		Where("booking_id = ?", bookingID).
		Select("COALESCE(SUM(total_price), 0)").
		Scan(&sum).Error; err != nil {
		return 0, false, err
	}
	total := roundCents(sum)

	res := db.Model(&Booking{}).
		Where("id = ? AND status = ?", bookingID, StatusPending).
		Updates(map[string]any{"total_amount": total, "updated_at": at})
	if res.Error != nil {
		return 0, false, res.Error
	}
	return total, res.RowsAffected == 1, nil
}

func (r *Repository) List(ctx context.Context, f Filter) ([]Booking, int64, error) {
	if f.IDs != nil && len(f.IDs) == 0 {
		return []Booking{}, 0, nil
	}

	q := database.Conn(ctx, r.db).Model(&Booking{})
	if f.CustomerID != nil {
		q = q.Where("customer_id = ?", *f.CustomerID)
	}
	if f.IDs != nil {
		q = q.Where("id IN ?", f.IDs)
	}
	if len(f.Statuses) > 0 {
		q = q.Where("status IN ?", f.Statuses)
	}
	if f.DateFrom != "" {
		q = q.Where("booking_date >= ?", f.DateFrom)
	}
	if f.DateTo != "" {
		q = q.Where("booking_date <= ?", f.DateTo)
	}
	if f.Postcode != "" {
		q = q.Where("postcode = ?", f.Postcode)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	list := r.withDetails(q).Order("booking_date asc, start_time asc, created_at asc")
	if f.Limit > 0 {
		list = list.Limit(f.Limit)
	}
	if f.Offset > 0 {
		list = list.Offset(f.Offset)
	}

	var out []Booking
	if err := list.Find(&out).Error; err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// ListStalePending returns pending bookings created before the cutoff.
func (r *Repository) ListStalePending(ctx context.Context, before time.Time) ([]Booking, error) {
	var out []Booking
	err := database.Conn(ctx, r.db).
		Preload("Customer").
		Where("status = ? AND created_at < ?", StatusPending, before).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}
