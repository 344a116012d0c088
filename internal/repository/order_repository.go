package repository

import (
	"context"
	"time"

	"restaurant/internal/domain/model"
)

// AdminOrderListFilter は管理画面の注文一覧条件。
// Active=true なら未完了の注文だけを古い順に返す（厨房の作業キュー）。
type AdminOrderListFilter struct {
	Page      int
	Limit     int
	Status    string
	OrderType string
	// 顧客名・メールの部分一致
	Q      string
	Active bool
	From   *time.Time
	To     *time.Time
}

type OrderRepository interface {
	FindByID(ctx context.Context, orderID int64) (model.Order, error)
	ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error)
	// (owner_key, idempotency_key) が既にあれば ErrConflict
	Create(ctx context.Context, order model.Order) (int64, error)
	UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error
	// found=false は未作成
	FindByIdempotencyKey(ctx context.Context, ownerKey string, key string) (model.Order, bool, error)
	ListAdmin(ctx context.Context, f AdminOrderListFilter) ([]model.Order, int64, error)
}
