package repository

import (
	"context"

	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 在庫の読み取り専用窓口。ロックもしないし引当もしない。
type InventoryLedger interface {
	GetVariant(ctx context.Context, variantID int64) (model.Variant, error)
	GetStock(ctx context.Context, variantID int64) (int64, error)
}

type InventoryRepository interface {
	// 在庫の現在値を設定
	SetStock(ctx context.Context, variantID int64, newStock int64) error

	// 調整履歴作成
	CreateAdjustment(ctx context.Context, adjustment model.InventoryAdjustment) error
}

// バリアントの管理系操作
type VariantRepository interface {
	Create(ctx context.Context, v model.Variant) (model.Variant, error)
	FindByID(ctx context.Context, variantID int64) (model.Variant, error)
	FindByIDForUpdate(ctx context.Context, variantID int64) (model.Variant, error)
	UpdatePrice(ctx context.Context, variantID int64, price decimal.Decimal) error
	ListByProduct(ctx context.Context, productID int64) ([]model.Variant, error)
}
