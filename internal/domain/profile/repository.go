package profile

import (
	"context"
	"errors"
	"fmt"

	"cleandigo/internal/database"
	"cleandigo/internal/pkg/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, p *Profile) error {
	if !p.Role.Valid() {
		return fmt.Errorf("%w: unknown role %q", apperr.ErrValidation, p.Role)
	}
	if err := database.Conn(ctx, r.db).Create(p).Error; err != nil {
		if apperr.IsUniqueViolation(err) {
			return fmt.Errorf("%w: email already registered", apperr.ErrConflict)
		}
		return err
	}
	return nil
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Profile, error) {
	var p Profile
	err := database.Conn(ctx, r.db).First(&p, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: profile %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	var p Profile
	err := database.Conn(ctx, r.db).First(&p, "email = ?", email).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: profile %s", apperr.ErrNotFound, email)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *Repository) ListByRole(ctx context.Context, role Role) ([]Profile, error) {
	var out []Profile
	err := database.Conn(ctx, r.db).
		Where("role = ?", role).
		Order("last_name asc, first_name asc").
		Find(&out).Error
	return out, err
}

func (r *Repository) CountByRole(ctx context.Context, role Role) (int64, error) {
	var n int64
	err := database.Conn(ctx, r.db).Model(&Profile{}).Where("role = ?", role).Count(&n).Error
	return n, err
}
