package repository

import (
	"context"

	"storefront/internal/domain/model"
)

type CartItemRepository interface {
	FindByID(ctx context.Context, cartItemID int64) (model.CartItem, error)
	FindByCartAndVariant(ctx context.Context, cartID int64, variantID int64) (model.CartItem, error)
	Create(ctx context.Context, item model.CartItem) (model.CartItem, error)
	UpdateQuantity(ctx context.Context, cartItemID int64, qty int64) error
	// cartIDに属する明細だけ消す
	DeleteFromCart(ctx context.Context, cartID int64, cartItemID int64) error
}
