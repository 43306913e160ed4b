package catalog

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

func (r *Repository) Create(ctx context.Context, s *Service) error {
	if s.Name == "" || s.BasePrice < 0 {
		return fmt.Errorf("%w: service needs a name and a non-negative price", apperr.ErrValidation)
	}
	return database.Conn(ctx, r.db).Create(s).Error
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (*Service, error) {
	var s Service
	err := database.Conn(ctx, r.db).First(&s, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: service %s", apperr.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *Repository) ListActive(ctx context.Context) ([]Service, error) {
	var out []Service
	err := database.Conn(ctx, r.db).
		Where("is_active = ?", true).
		Order("name asc").
		Find(&out).Error
	return out, err
}
