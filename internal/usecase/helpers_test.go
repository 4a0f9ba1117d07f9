package usecase_test

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/infra/db"
	infraRepo "storefront/internal/infra/repository"
	"storefront/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// =====================
// sqlite（インメモリ）で組み立てる
// =====================

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

// ファイルDB（WAL・複数接続）。Txが実際に並行して走る。
func newFileTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	gdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "cart.db"))
	require.NoError(t, err)
	require.NoError(t, db.Migrate(gdb))

	t.Cleanup(func() {
		if sqlDB, err := gdb.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return gdb
}

type seqIDs struct {
	mu sync.Mutex
	n  int
}

func (g *seqIDs) NewID() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	return fmt.Sprintf("ev-%d", g.n)
}

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

var testNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

// 発行されたイベントを記録する
type recordingPublisher struct {
	mu     sync.Mutex
	events []model.CartEvent
	err    error
}

func (p *recordingPublisher) Publish(ctx context.Context, ev model.CartEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Types() []model.CartEventType {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]model.CartEventType, 0, len(p.events))
	for _, ev := range p.events {
		out = append(out, ev.Type)
	}
	return out
}

type cartFixture struct {
	db        *gorm.DB
	cart      *usecase.CartUsecase
	products  *usecase.ProductUsecase
	publisher *recordingPublisher
}

func newCartFixture(t *testing.T) cartFixture {
	t.Helper()
	return newCartFixtureOn(t, newTestDB(t))
}

func newCartFixtureOn(t *testing.T, gdb *gorm.DB) cartFixture {
	t.Helper()

	txm := infraRepo.NewTxManagerGorm(gdb, 5*time.Second)
	pub := &recordingPublisher{}
	clock := fixedClock{t: testNow}

	return cartFixture{
		db:        gdb,
		cart:      usecase.NewCartUsecase(txm, pub, &seqIDs{}, clock),
		products:  usecase.NewProductUsecase(txm, infraRepo.NewProductGormRepository(gdb), infraRepo.NewAuditLogGormRepository(gdb), clock),
		publisher: pub,
	}
}

// 公開商品＋バリアント1つを作る
func seedVariant(t *testing.T, gdb *gorm.DB, sku string, price string, stock int64) model.Variant {
	t.Helper()

	p := model.Product{Name: "Product " + sku, Description: "x", IsActive: true}
	require.NoError(t, gdb.Create(&p).Error)

	v := model.Variant{
		ProductID: p.ID,
		SKU:       sku,
		Price:     decimal.RequireFromString(price),
		Stock:     stock,
		Options: []model.VariantOption{
			{Name: "size", Value: "M"},
			{Name: "color", Value: "red"},
		},
	}
	require.NoError(t, gdb.Omit("Product").Create(&v).Error)
	return v
}

func requireDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	require.True(t, decimal.RequireFromString(want).Equal(got), "want %s got %s", want, got.String())
}
