package handler

import (
	"net/http"
	"strconv"

	"restaurant/internal/middleware"
	"restaurant/internal/repository"
	"restaurant/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

// SuccessResponse は { message: string } の形。
type SuccessResponse struct {
	Message string `json:"message"`
}

func writeError(c echo.Context, err error) error {
	if err == nil {
		return nil
	}
	if he, ok := usecase.AsHTTPError(err); ok {
		return c.JSON(he.Status, ErrorResponse{Error: he.Message})
	}

	//500
	return c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal error"})
}

// Guards はルートごとの認証ミドルウェアの組み合わせ。
type Guards struct {
	JWTSecret string
	Users     repository.UserRepository
}

// JWT必須 + token_version一致
func (g Guards) Required() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.AuthJWT(g.JWTSecret),
		middleware.TokenVersionGuard(g.Users),
	}
}

// ゲストも可（カート・注文・予約）
func (g Guards) Optional() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{
		middleware.OptionalAuthJWT(g.JWTSecret),
		middleware.OptionalTokenVersionGuard(g.Users),
	}
}

// /admin 配下は全部「JWT必須 + token_version一致 + ADMIN限定」
func (g Guards) Admin() []echo.MiddlewareFunc {
	return append(g.Required(), middleware.AdminRoleGuard())
}

//middleware.AuthJWT が c.Set("user_id", int64) した値を取り出す

func getUserIDFromContext(c echo.Context) (int64, bool) {
	id, ok := c.Get(middleware.CtxUserIDKey).(int64)
	if !ok || id <= 0 {
		return 0, false
	}
	return id, true
}

// page / limit（未指定ならデフォルト）
func parsePageLimit(c echo.Context, defLimit int) (int, int, error) {
	page := 1
	if v := c.QueryParam("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid page")
		}
		page = p
	}

	limit := defLimit
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil {
			return 0, 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid limit")
		}
		limit = l
	}
	return page, limit, nil
}

func parseIDParam(c echo.Context, name string) (int64, error) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		return 0, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return id, nil
}
