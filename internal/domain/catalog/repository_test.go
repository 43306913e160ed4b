package catalog_test

import (
	"context"
	"errors"
	"testing"

	"cleandigo/internal/database/dbtest"
	"cleandigo/internal/domain/catalog"
	"cleandigo/internal/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListActiveSkipsRetiredServices(t *testing.T) {
	db := dbtest.Open(t, &catalog.Service{})
	repo := catalog.NewRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &catalog.Service{Name: "Window Cleaning", BasePrice: 80, IsActive: true}))
	require.NoError(t, repo.Create(ctx, &catalog.Service{Name: "Carpet Steam", BasePrice: 120, IsActive: true}))
	retired := &catalog.Service{Name: "Oven Detail", BasePrice: 60, IsActive: true}
	require.NoError(t, repo.Create(ctx, retired))
	require.NoError(t, db.Model(retired).Update("is_active", false).Error)

	active, err := repo.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "Carpet Steam", active[0].Name)
}

func TestGetByIDAndValidation(t *testing.T) {
	repo := catalog.NewRepository(dbtest.Open(t, &catalog.Service{}))
	ctx := context.Background()

	_, err := repo.GetByID(ctx, uuid.New())
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	err = repo.Create(ctx, &catalog.Service{Name: "Bad", BasePrice: -1})
	assert.True(t, errors.Is(err, apperr.ErrValidation))
}
