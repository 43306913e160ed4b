package review

import (
	"context"
	"errors"
	"fmt"

	"cleandigo/internal/database"
	"cleandigo/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, rv *Review) error {
	err := database.Conn(ctx, r.db).Omit(clause.Associations).Create(rv).Error
	if apperr.IsUniqueViolation(err) {
		return fmt.Errorf("%w: booking already reviewed", apperr.ErrConflict)
	}
	return err
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Review, error) {
	var rv Review
	err := database.Conn(ctx, r.db).First(&rv, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: review %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &rv, nil
}

func (r *Repository) Exists(ctx context.Context, bookingID, customerID uuid.UUID) (bool, error) {
	var n int64
	err := database.Conn(ctx, r.db).
		Model(&Review{}).
		Where("booking_id = ? AND customer_id = ?", bookingID, customerID).
		Count(&n).Error
	return n > 0, err
}

func (r *Repository) SetPublished(ctx context.Context, id uuid.UUID, published bool) (bool, error) {
	tx := database.Conn(ctx, r.db).
		Model(&Review{}).
		Where("id = ?", id).
		Update("is_published", published)
	return tx.RowsAffected > 0, tx.Error
}

func (r *Repository) ListPublished(ctx context.Context, limit, offset int) ([]Review, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	var out []Review
	err := database.Conn(ctx, r.db).
		Preload("Customer").
		Where("is_published = ?", true).
		Order("created_at desc, id desc").
		Limit(limit).
		Offset(offset).
		Find(&out).Error
	return out, err
}

func (r *Repository) ListByBooking(ctx context.Context, bookingID uuid.UUID) ([]Review, error) {
	var out []Review
	err := database.Conn(ctx, r.db).
		Where("booking_id = ?", bookingID).
		Order("created_at asc, id asc").
		Find(&out).Error
	return out, err
}

// AverageRating is taken over every review, published or not. It is zero
// when there are none.
func (r *Repository) AverageRating(ctx context.Context) (float64, error) {
	var avg float64
	err := database.Conn(ctx, r.db).
		Model(&Review{}).
		Select("COALESCE(AVG(rating), 0)").
		Scan(&avg).Error
	return avg, err
}
