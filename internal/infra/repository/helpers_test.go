package repository_test

import (
	"testing"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.OpenSQLite("")
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

func seedProduct(t *testing.T, gdb *gorm.DB, name string, active bool, prices ...string) model.Product {
	t.Helper()

	p := model.Product{Name: name, IsActive: active}
	require.NoError(t, gdb.Create(&p).Error)

	for i, price := range prices {
		v := model.Variant{
			ProductID: p.ID,
			SKU:       name + "-" + string(rune('A'+i)),
			Price:     decimal.RequireFromString(price),
			Stock:     10,
			Options:   []model.VariantOption{{Name: "size", Value: string(rune('S' + i))}},
		}
		require.NoError(t, gdb.Omit("Product").Create(&v).Error)
		p.Variants = append(p.Variants, v)
	}
	return p
}
