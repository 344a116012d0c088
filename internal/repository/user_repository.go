package repository

import (
	"context"

	"restaurant/internal/domain/model"
)

// 保存・取得を約束
// 見つからないときは ErrNotFound
type UserRepository interface {
	//新規ユーザー作成（email重複は ErrConflict）
	Create(ctx context.Context, user *model.User) error
	// IDからユーザーを1件取得する。
	FindByID(ctx context.Context, userID int64) (*model.User, error)
	//メールからユーザーを一件取得する。
	FindByEmail(ctx context.Context, email string) (*model.User, error)
	// 最終ログイン更新など
	Update(ctx context.Context, user *model.User) error
	//トークンのバージョンを＋１
	IncrementTokenVersion(ctx context.Context, userID int64) error
}
