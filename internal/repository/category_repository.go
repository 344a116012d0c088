package repository

import (
	"context"

	"restaurant/internal/domain/model"
)

type CategoryRepository interface {
	// sort_order, id の順
	List(ctx context.Context) ([]model.Category, error)
	FindByID(ctx context.Context, id int64) (model.Category, error)
	FindBySlug(ctx context.Context, slug string) (model.Category, error)
	Create(ctx context.Context, c model.Category) (model.Category, error)
	Update(ctx context.Context, c model.Category) error
	Delete(ctx context.Context, id int64) error
	// 削除前チェック用（削除済みメニューは数えない）
	CountMenuItems(ctx context.Context, id int64) (int64, error)
}
