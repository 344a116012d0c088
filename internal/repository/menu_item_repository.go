package repository

import (
	"context"

	"restaurant/internal/domain/model"
)

// 一覧検索
type MenuListQuery struct {
	Page       int
	Limit      int
	Q          string
	CategoryID *int64
	// 管理画面では提供停止中も出す
	IncludeUnavailable bool
}

// メニューの永続化（保存・取得）だけを約束。
type MenuItemRepository interface {
	List(ctx context.Context, q MenuListQuery) ([]model.MenuItem, int64, error)
	// Category を読み込んだ状態で返す
	FindByID(ctx context.Context, id int64) (model.MenuItem, error)

	Create(ctx context.Context, m model.MenuItem) (model.MenuItem, error)
	Update(ctx context.Context, m model.MenuItem) error
	SoftDelete(ctx context.Context, id int64) error
}
