package middleware

import (
	"net/http"

	"restaurant/internal/repository"

	"github.com/labstack/echo/v4"
)

// JWTのtvとDBのtoken_versionが一致するか確認。
// 強制ログアウト後の古いトークンはここで落ちる。
func TokenVersionGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return tokenVersionGuard(userRepo, false)
}

// ゲストも通すルート用。ログインしている時だけ確認する。
func OptionalTokenVersionGuard(userRepo repository.UserRepository) echo.MiddlewareFunc {
	return tokenVersionGuard(userRepo, true)
}

func tokenVersionGuard(userRepo repository.UserRepository, optional bool) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			rawUserID := c.Get(CtxUserIDKey)
			if rawUserID == nil && optional {
				return next(c)
			}
			userID, ok := rawUserID.(int64)
			if !ok || userID <= 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			tv, ok := c.Get(CtxTokenVersionKey).(int)
			if !ok || tv < 0 {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			//DBから最新のuserを取得する
			user, err := userRepo.FindByID(c.Request().Context(), userID)
			if err != nil || user == nil {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			if user.TokenVersion != tv || !user.IsActive {
				return c.JSON(http.StatusUnauthorized, errorJSON("unauthorized"))
			}

			return next(c)
		}
	}
}
