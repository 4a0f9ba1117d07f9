package usecase

import (
	"storefront/internal/domain/model"

	"github.com/shopspring/decimal"
)

// 合計は必ず追加時点の単価（unit_price）から計算する。現在価格は使わない。

func lineTotal(quantity int64, unitPrice decimal.Decimal) decimal.Decimal {
	return unitPrice.Mul(decimal.NewFromInt(quantity))
}

// Subtotal は Σ quantity × unit_price
func Subtotal(items []model.CartItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(lineTotal(it.Quantity, it.UnitPrice))
	}
	return total
}

// 既存数量に足して在庫で頭打ちにする
func mergeQuantity(existing int64, add int64, stock int64) (merged int64, clamped bool) {
	merged = existing + add
	if merged > stock {
		return stock, true
	}
	return merged, false
}

type VariantOptionOutput struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// price は unit_price（追加時点の価格）。current_price は表示用。
type CartItemOutput struct {
	ID           int64                 `json:"id"`
	VariantID    int64                 `json:"variant_id"`
	SKU          string                `json:"sku"`
	ProductID    int64                 `json:"product_id"`
	ProductName  string                `json:"product_name"`
	Options      []VariantOptionOutput `json:"options"`
	Quantity     int64                 `json:"quantity"`
	UnitPrice    decimal.Decimal       `json:"unit_price"`
	LineTotal    decimal.Decimal       `json:"line_total"`
	CurrentPrice decimal.Decimal       `json:"current_price"`
	Stock        int64                 `json:"stock"`
}

type CartOutput struct {
	ID        int64            `json:"id"`
	UserID    int64            `json:"user_id"`
	Items     []CartItemOutput `json:"items"`
	ItemCount int64            `json:"item_count"`
	Subtotal  decimal.Decimal  `json:"subtotal"`
}

// 結合済みのカートをレスポンスにする
func buildCartOutput(cart model.Cart) CartOutput {
	items := make([]CartItemOutput, 0, len(cart.Items))
	var count int64

	for _, it := range cart.Items {
		row := CartItemOutput{
			ID:        it.ID,
			VariantID: it.VariantID,
			Options:   []VariantOptionOutput{},
			Quantity:  it.Quantity,
			UnitPrice: it.UnitPrice,
			LineTotal: lineTotal(it.Quantity, it.UnitPrice),
		}
		if v := it.Variant; v != nil {
			row.SKU = v.SKU
			row.ProductID = v.ProductID
			row.CurrentPrice = v.Price
			row.Stock = v.Stock
			for _, o := range v.Options {
				row.Options = append(row.Options, VariantOptionOutput{Name: o.Name, Value: o.Value})
			}
			if v.Product != nil {
				row.ProductName = v.Product.Name
			}
		}

		items = append(items, row)
		count += it.Quantity
	}

	return CartOutput{
		ID:        cart.ID,
		UserID:    cart.UserID,
		Items:     items,
		ItemCount: count,
		Subtotal:  Subtotal(cart.Items),
	}
}
