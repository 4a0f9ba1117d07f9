package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartRepository interface {
	FindByUserID(ctx context.Context, userID int64) (model.Cart, error)
	// 行ロック（FOR UPDATE）付きで取得。Tx内で使う。
	FindByIDForUpdate(ctx context.Context, cartID int64) (model.Cart, error)
	// 無ければ作ってから行ロックする。Tx内で使う。
	GetOrCreateForUpdate(ctx context.Context, userID int64) (model.Cart, error)
	// 明細＋バリアント＋商品＋オプションを結合して返す
	LoadHydrated(ctx context.Context, cartID int64) (model.Cart, error)
	// 明細ごと削除
	Delete(ctx context.Context, cartID int64) error
}
