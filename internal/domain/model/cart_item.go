package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// カートの明細
// (cart_id, variant_id) は1行だけ。UnitPrice は追加時点の価格で、後から同期しない。
type CartItem struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CartID    int64           `gorm:"not null;uniqueIndex:idx_cart_items_cart_variant" json:"cart_id"`
	VariantID int64           `gorm:"not null;uniqueIndex:idx_cart_items_cart_variant;index" json:"variant_id"`
	Variant   *Variant        `gorm:"foreignKey:VariantID;constraint:OnDelete:RESTRICT" json:"variant,omitempty"`
	Quantity  int64           `gorm:"not null" json:"quantity"`
	UnitPrice decimal.Decimal `gorm:"type:numeric(12,2);not null;column:unit_price" json:"unit_price"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
