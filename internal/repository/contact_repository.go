package repository

import (
	"context"

	"restaurant/internal/domain/model"
)

// お問い合わせの保存・一覧
type ContactMessageRepository interface {
	Create(ctx context.Context, m model.ContactMessage) (model.ContactMessage, error)
	// 新しい順
	List(ctx context.Context, limit int, offset int) ([]model.ContactMessage, error)
}
