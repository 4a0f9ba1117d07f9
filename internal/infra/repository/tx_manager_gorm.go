package repository

import (
	"context"
	"time"

	repo "storefront/internal/repository"

	"gorm.io/gorm"
)

type txReposGorm struct {
	carts     repo.CartRepository
	cartItems repo.CartItemRepository
	ledger    repo.InventoryLedger
	inventory repo.InventoryRepository
	variants  repo.VariantRepository
	products  repo.ProductRepository
	auditLogs repo.AuditLogRepository
}

func (r *txReposGorm) Carts() repo.CartRepository          { return r.carts }
func (r *txReposGorm) CartItems() repo.CartItemRepository  { return r.cartItems }
func (r *txReposGorm) Ledger() repo.InventoryLedger        { return r.ledger }
func (r *txReposGorm) Inventory() repo.InventoryRepository { return r.inventory }
func (r *txReposGorm) Variants() repo.VariantRepository    { return r.variants }
func (r *txReposGorm) Products() repo.ProductRepository    { return r.products }
func (r *txReposGorm) AuditLogs() repo.AuditLogRepository  { return r.auditLogs }

type TxManagerGorm struct {
	db      *gorm.DB
	timeout time.Duration
}

// timeoutはストア側のリクエストタイムアウト（0なら付けない）
func NewTxManagerGorm(db *gorm.DB, timeout time.Duration) *TxManagerGorm {
	return &TxManagerGorm{db: db, timeout: timeout}
}

func (tm *TxManagerGorm) WithinTx(ctx context.Context, fn func(r repo.TxRepos) error) error {
	if tm.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, tm.timeout)
		defer cancel()
	}

	return tm.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		//repoはtxを持ったDBで作り直す
		cart := NewCartGormRepository(tx)
		inv := NewInventoryGormRepository(tx)
		r := &txReposGorm{
			carts:     cart,
			cartItems: cart,
			ledger:    inv,
			inventory: inv,
			variants:  inv,
			products:  NewProductGormRepository(tx),
			auditLogs: NewAuditLogGormRepository(tx),
		}
		return fn(r)
	})
}
