package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// 購入単位（SKU）。カート明細からは参照されるだけで所有されない。
type Variant struct {
	ID        int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	ProductID int64           `gorm:"not null;index" json:"product_id"`
	Product   *Product        `gorm:"foreignKey:ProductID" json:"product,omitempty"`
	SKU       string          `gorm:"column:sku;type:varchar(64);not null;uniqueIndex" json:"sku"`
	Price     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"price"`
	Stock     int64           `gorm:"not null;default:0" json:"stock"`
	Options   []VariantOption `gorm:"foreignKey:VariantID;constraint:OnDelete:CASCADE" json:"options"`
	CreatedAt time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}

// サイズ・色などの属性
type VariantOption struct {
	ID        int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	VariantID int64  `gorm:"not null;index" json:"variant_id"`
	Name      string `gorm:"type:varchar(64);not null" json:"name"`
	Value     string `gorm:"type:varchar(255);not null" json:"value"`
}
