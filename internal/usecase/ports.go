package usecase

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

// UUID 等のIDを作る約束
type IDGenerator interface {
	NewID() string
}

// 現在の時間
type Clock interface {
	Now() time.Time
}

// コミット後にカートイベントを外へ流す約束
type CartEventPublisher interface {
	Publish(ctx context.Context, ev model.CartEvent) error
}
