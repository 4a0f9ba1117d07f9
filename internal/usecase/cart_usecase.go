package usecase

import (
	"context"
	"errors"

	"storefront/internal/domain/model"
	"storefront/internal/logging"
	"storefront/internal/metrics"
	repo "storefront/internal/repository"

	"go.uber.org/zap"
)

const (
	opAddItem        = "add_item"
	opUpdateQuantity = "update_quantity"
	opRemoveItem     = "remove_item"
	opDeleteCart     = "delete_cart"
)

// CartUsecase は /cart の業務ロジック。
// 変更系は全てカート行をロックしたTxの中で行う（同じカートへの変更は直列になる）。
// 在庫は読むだけで引当はしない。
type CartUsecase struct {
	tx        repo.TransactionManager
	publisher CartEventPublisher
	ids       IDGenerator
	clock     Clock
}

func NewCartUsecase(
	tx repo.TransactionManager,
	publisher CartEventPublisher,
	ids IDGenerator,
	clock Clock,
) *CartUsecase {
	return &CartUsecase{
		tx:        tx,
		publisher: publisher,
		ids:       ids,
		clock:     clock,
	}
}

type AddItemInput struct {
	VariantID int64
	Quantity  int64
}

// AddItem はカートに追加する。カートが無ければ作る。
// 同じバリアントが既にあれば数量を足して、在庫数で頭打ちにする。
func (u *CartUsecase) AddItem(ctx context.Context, userID int64, in AddItemInput) (out CartOutput, err error) {
	defer func() { observe(opAddItem, err) }()

	if userID <= 0 {
		return CartOutput{}, ErrUnauthorized
	}
	if in.VariantID <= 0 {
		return CartOutput{}, invalidInput("invalid variant_id")
	}
	if in.Quantity < 1 {
		return CartOutput{}, ErrInvalidQuantity
	}

	var (
		cart     model.Cart
		itemID   int64
		finalQty int64
	)

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		v, err := r.Ledger().GetVariant(ctx, in.VariantID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrVariantNotFound
		}
		if err != nil {
			return storeUnavailable(err)
		}
		// 今回追加する数量だけで判定する（既存分との合計は下で頭打ち）
		if in.Quantity > v.Stock {
			return ErrInsufficientStock
		}

		c, err := r.Carts().GetOrCreateForUpdate(ctx, userID)
		if err != nil {
			return storeUnavailable(err)
		}

		existing, err := r.CartItems().FindByCartAndVariant(ctx, c.ID, v.ID)
		switch {
		case err == nil:
			merged, clamped := mergeQuantity(existing.Quantity, in.Quantity, v.Stock)
			if clamped {
				metrics.ObserveClamp()
				logging.FromContext(ctx).Debug("cart merge clamped to stock",
					zap.Int64("cart_id", c.ID),
					zap.Int64("variant_id", v.ID),
					zap.Int64("requested", existing.Quantity+in.Quantity),
					zap.Int64("stock", v.Stock),
				)
			}
			if err := r.CartItems().UpdateQuantity(ctx, existing.ID, merged); err != nil {
				return storeUnavailable(err)
			}
			itemID, finalQty = existing.ID, merged

		case errors.Is(err, repo.ErrNotFound):
			// unit_price は追加時点の価格を固定で持つ
			created, err := r.CartItems().Create(ctx, model.CartItem{
				CartID:    c.ID,
				VariantID: v.ID,
				Quantity:  in.Quantity,
				UnitPrice: v.Price,
			})
			if err != nil {
				return storeUnavailable(err)
			}
			itemID, finalQty = created.ID, created.Quantity

		default:
			return storeUnavailable(err)
		}

		cart, err = r.Carts().LoadHydrated(ctx, c.ID)
		if err != nil {
			return storeUnavailable(err)
		}
		return nil
	})
	if err != nil {
		return CartOutput{}, asUsecaseError(err)
	}

	u.publish(ctx, model.CartEvent{
		Type:      model.CartEventItemAdded,
		UserID:    cart.UserID,
		CartID:    cart.ID,
		ItemID:    itemID,
		VariantID: in.VariantID,
		Quantity:  finalQty,
	})

	return buildCartOutput(cart), nil
}

// UpdateQuantity は明細の数量を置き換える（足し算ではない）。
func (u *CartUsecase) UpdateQuantity(ctx context.Context, cartID int64, itemID int64, quantity int64) (out CartOutput, err error) {
	defer func() { observe(opUpdateQuantity, err) }()

	if quantity < 1 {
		return CartOutput{}, ErrInvalidQuantity
	}

	var (
		cart      model.Cart
		variantID int64
	)

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.Carts().FindByIDForUpdate(ctx, cartID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCartNotFound
		}
		if err != nil {
			return storeUnavailable(err)
		}

		// 他のカートの明細は見えないものとして扱う
		item, err := r.CartItems().FindByID(ctx, itemID)
		if errors.Is(err, repo.ErrNotFound) || (err == nil && item.CartID != c.ID) {
			return ErrItemNotFound
		}
		if err != nil {
			return storeUnavailable(err)
		}

		stock, err := r.Ledger().GetStock(ctx, item.VariantID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrVariantNotFound
		}
		if err != nil {
			return storeUnavailable(err)
		}
		if quantity > stock {
			return ErrInsufficientStock
		}

		if err := r.CartItems().UpdateQuantity(ctx, item.ID, quantity); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrItemNotFound
			}
			return storeUnavailable(err)
		}
		variantID = item.VariantID

		cart, err = r.Carts().LoadHydrated(ctx, c.ID)
		if err != nil {
			return storeUnavailable(err)
		}
		return nil
	})
	if err != nil {
		return CartOutput{}, asUsecaseError(err)
	}

	u.publish(ctx, model.CartEvent{
		Type:      model.CartEventQuantityUpdated,
		UserID:    cart.UserID,
		CartID:    cart.ID,
		ItemID:    itemID,
		VariantID: variantID,
		Quantity:  quantity,
	})

	return buildCartOutput(cart), nil
}

// RemoveItem は明細を1件消す。最後の1件を消してもカートは残る。
func (u *CartUsecase) RemoveItem(ctx context.Context, cartID int64, itemID int64) (out CartOutput, err error) {
	defer func() { observe(opRemoveItem, err) }()

	var cart model.Cart

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.Carts().FindByIDForUpdate(ctx, cartID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCartNotFound
		}
		if err != nil {
			return storeUnavailable(err)
		}

		if err := r.CartItems().DeleteFromCart(ctx, c.ID, itemID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrItemNotFound
			}
			return storeUnavailable(err)
		}

		cart, err = r.Carts().LoadHydrated(ctx, c.ID)
		if err != nil {
			return storeUnavailable(err)
		}
		return nil
	})
	if err != nil {
		return CartOutput{}, asUsecaseError(err)
	}

	u.publish(ctx, model.CartEvent{
		Type:   model.CartEventItemRemoved,
		UserID: cart.UserID,
		CartID: cart.ID,
		ItemID: itemID,
	})

	return buildCartOutput(cart), nil
}

// GetCart はユーザーのカートを返す。読み取りだけなので作成はしない。
// 読み取りもTx経由にしてストアのタイムアウトを効かせる。
func (u *CartUsecase) GetCart(ctx context.Context, userID int64) (CartOutput, error) {
	if userID <= 0 {
		return CartOutput{}, ErrUnauthorized
	}

	var cart model.Cart
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.Carts().FindByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCartNotFound
		}
		if err != nil {
			return storeUnavailable(err)
		}

		cart, err = r.Carts().LoadHydrated(ctx, c.ID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCartNotFound
		}
		if err != nil {
			return storeUnavailable(err)
		}
		return nil
	})
	if err != nil {
		return CartOutput{}, asUsecaseError(err)
	}

	return buildCartOutput(cart), nil
}

// DeleteCart はカートと明細をまとめて消す。
func (u *CartUsecase) DeleteCart(ctx context.Context, cartID int64) (err error) {
	defer func() { observe(opDeleteCart, err) }()

	var userID int64

	err = u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.Carts().FindByIDForUpdate(ctx, cartID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCartNotFound
		}
		if err != nil {
			return storeUnavailable(err)
		}
		userID = c.UserID

		if err := r.Carts().Delete(ctx, c.ID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrCartNotFound
			}
			return storeUnavailable(err)
		}
		return nil
	})
	if err != nil {
		return asUsecaseError(err)
	}

	u.publish(ctx, model.CartEvent{
		Type:   model.CartEventCartDeleted,
		UserID: userID,
		CartID: cartID,
	})
	return nil
}

// ResolveCartID はログインユーザーのカートIDを返す（明細系ルートの所有者解決）。
func (u *CartUsecase) ResolveCartID(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, ErrUnauthorized
	}

	var cartID int64
	err := u.tx.WithinTx(ctx, func(r repo.TxRepos) error {
		c, err := r.Carts().FindByUserID(ctx, userID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrCartNotFound
		}
		if err != nil {
			return storeUnavailable(err)
		}
		cartID = c.ID
		return nil
	})
	if err != nil {
		return 0, asUsecaseError(err)
	}
	return cartID, nil
}

// コミット済みの変更を流す。失敗してもカート操作自体は成功のまま。
func (u *CartUsecase) publish(ctx context.Context, ev model.CartEvent) {
	if u.publisher == nil {
		return
	}
	ev.ID = u.ids.NewID()
	ev.OccurredAt = u.clock.Now()

	// コミット済みなのでリクエストの取り消しでは落とさない
	if err := u.publisher.Publish(context.WithoutCancel(ctx), ev); err != nil {
		metrics.ObservePublishFailure()
		logging.FromContext(ctx).Warn("cart event publish failed",
			zap.String("event_id", ev.ID),
			zap.String("type", string(ev.Type)),
			zap.Int64("cart_id", ev.CartID),
			zap.Error(err),
		)
	}
}

func observe(op string, err error) {
	if err == nil {
		metrics.ObserveCartMutation(op, "ok")
		return
	}
	if ue, ok := AsError(err); ok {
		metrics.ObserveCartMutation(op, string(ue.Kind))
		return
	}
	metrics.ObserveCartMutation(op, "error")
}
