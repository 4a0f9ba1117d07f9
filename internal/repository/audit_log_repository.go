package repository

import (
	"context"
	"time"

	"storefront/internal/domain/model"
)

// 監査ログの絞り込み。nilの項目は条件にしない。
type AuditLogFilter struct {
	ActorUserID  *int64
	Action       *model.AuditAction
	ResourceType *model.AuditResourceType
	ResourceID   *int64
	CreatedFrom  *time.Time
	CreatedTo    *time.Time
	Limit        int
	Offset       int
}

// 管理操作の記録。追記のみで更新・削除はしない。
type AuditLogRepository interface {
	Create(ctx context.Context, entry model.AuditLog) error
	// 新しい順
	List(ctx context.Context, filter AuditLogFilter) ([]model.AuditLog, error)
}
