package model

import "time"

type CartEventType string

const (
	CartEventItemAdded       CartEventType = "cart.item_added"
	CartEventQuantityUpdated CartEventType = "cart.quantity_updated"
	CartEventItemRemoved     CartEventType = "cart.item_removed"
	CartEventCartDeleted     CartEventType = "cart.deleted"
)

// コミット後に外部へ流すカート変更イベント。
type CartEvent struct {
	ID         string        `json:"id"`
	Type       CartEventType `json:"type"`
	UserID     int64         `json:"user_id"`
	CartID     int64         `json:"cart_id"`
	ItemID     int64         `json:"item_id,omitempty"`
	VariantID  int64         `json:"variant_id,omitempty"`
	Quantity   int64         `json:"quantity,omitempty"`
	OccurredAt time.Time     `json:"occurred_at"`
}
