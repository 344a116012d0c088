package validator

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"restaurant/internal/usecase"
)

// 簡易メール形式
var emailRe = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

type authValidator struct{}

// Usecaseは interface を依存注入
func NewAuthValidator() usecase.AuthValidator {
	return &authValidator{}
}

// サインアップの入力を検証
// email重複はDBの一意制約で弾く（ErrConflict）
func (v *authValidator) ValidateRegister(ctx context.Context, email string, password string, name string) error {
	// 必須チェック
	if email == "" || password == "" || name == "" {
		return fmt.Errorf("%w: email, password and name are required", usecase.ErrValidation)
	}

	if !isEmailLike(email) {
		return fmt.Errorf("%w: invalid email", usecase.ErrValidation)
	}

	// パスワード最低文字数 8
	if len(password) < 8 {
		return fmt.Errorf("%w: password must be at least 8 characters", usecase.ErrValidation)
	}
	// bcrypt は72バイトまで
	if len(password) > 72 {
		return fmt.Errorf("%w: password too long", usecase.ErrValidation)
	}

	if utf8.RuneCountInString(name) > 100 {
		return fmt.Errorf("%w: name too long", usecase.ErrValidation)
	}

	return nil
}

// ログインの入力を検証
func (v *authValidator) ValidateLogin(ctx context.Context, email string, password string) error {
	if email == "" || password == "" {
		return fmt.Errorf("%w: email and password are required", usecase.ErrValidation)
	}
	if !isEmailLike(email) {
		return fmt.Errorf("%w: invalid email", usecase.ErrValidation)
	}
	return nil
}

// 強制ログアウトの入力を検証（自分自身は不可）
func (v *authValidator) ValidateForceLogout(ctx context.Context, actorUserID int64, targetUserID int64) error {
	if targetUserID <= 0 {
		return fmt.Errorf("%w: invalid user id", usecase.ErrValidation)
	}
	if actorUserID == targetUserID {
		return fmt.Errorf("%w: cannot force-logout yourself", usecase.ErrValidation)
	}
	return nil
}

func isEmailLike(s string) bool {
	return len(s) <= 255 && emailRe.MatchString(strings.TrimSpace(s))
}
