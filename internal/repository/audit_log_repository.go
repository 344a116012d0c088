package repository

import (
	"context"
	"time"

	"restaurant/internal/domain/model"
)

// 監査ログの絞り込み条件。
type AuditLogFilter struct {
	ActorUserID  *int64
	Action       string
	ResourceType string
	ResourceID   *int64
	From         *time.Time
	To           *time.Time
	Page         int
	Limit        int
}

// 管理者操作の記録。更新・削除はしない。
type AuditLogRepository interface {
	Create(ctx context.Context, log model.AuditLog) error
	// 新しい順。total はページング前の件数
	List(ctx context.Context, f AuditLogFilter) ([]model.AuditLog, int64, error)
}
