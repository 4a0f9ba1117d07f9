package repository_test

import (
	"context"
	"testing"

	infraRepo "storefront/internal/infra/repository"
	repo "storefront/internal/repository"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProductGorm_ListPublic(t *testing.T) {
	gdb := newTestDB(t)
	r := infraRepo.NewProductGormRepository(gdb)
	ctx := context.Background()

	seedProduct(t, gdb, "Blue Coffee", true, "10", "30")
	seedProduct(t, gdb, "Apple Tea", true, "5")
	seedProduct(t, gdb, "Hidden Coffee", false, "10")

	items, total, err := r.ListPublic(ctx, repo.ProductListQuery{Page: 1, Limit: 10, Sort: "name_asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 2)
	assert.Equal(t, "Apple Tea", items[0].Name)
	assert.Len(t, items[1].Variants, 2)
	assert.Len(t, items[1].Variants[0].Options, 1)

	items, total, err = r.ListPublic(ctx, repo.ProductListQuery{Page: 1, Limit: 10, Q: "COFFEE"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Blue Coffee", items[0].Name)

	//どれかのバリアントが価格帯に入っていればよい
	minP := decimal.NewFromInt(20)
	items, total, err = r.ListPublic(ctx, repo.ProductListQuery{Page: 1, Limit: 10, MinPrice: &minP})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	assert.Equal(t, "Blue Coffee", items[0].Name)

	maxP := decimal.NewFromInt(6)
	_, total, err = r.ListPublic(ctx, repo.ProductListQuery{Page: 1, Limit: 10, MaxPrice: &maxP})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	items, total, err = r.ListPublic(ctx, repo.ProductListQuery{Page: 2, Limit: 1, Sort: "name_asc"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, items, 1)
	assert.Equal(t, "Blue Coffee", items[0].Name)
}

func TestProductGorm_UpdateAndSoftDelete(t *testing.T) {
	gdb := newTestDB(t)
	r := infraRepo.NewProductGormRepository(gdb)
	ctx := context.Background()

	p := seedProduct(t, gdb, "Old", true, "1")
	p.Name = "New"
	p.IsActive = false
	require.NoError(t, r.Update(ctx, p))

	got, err := r.FindByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, "New", got.Name)
	assert.False(t, got.IsActive)
	assert.Len(t, got.Variants, 1)

	require.NoError(t, r.SoftDelete(ctx, p.ID))
	_, err = r.FindByID(ctx, p.ID)
	assert.ErrorIs(t, err, repo.ErrNotFound)
	assert.ErrorIs(t, r.SoftDelete(ctx, p.ID), repo.ErrNotFound)
}
