package handler

import (
	"net/http"

	"restaurant/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /menu と /categories の公開API
type MenuHandler struct {
	menu       *usecase.MenuUsecase
	categories *usecase.CategoryUsecase
}

// DI
func NewMenuHandler(menu *usecase.MenuUsecase, categories *usecase.CategoryUsecase) *MenuHandler {
	return &MenuHandler{menu: menu, categories: categories}
}

func (h *MenuHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/categories", h.listCategories)
	e.GET("/menu", h.list)
	e.GET("/menu/:id", h.detail)
}

func (h *MenuHandler) listCategories(c echo.Context) error {
	out, err := h.categories.List(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// ?category=<slug>&q=&page=&limit=
func (h *MenuHandler) list(c echo.Context) error {
	page, limit, err := parsePageLimit(c, 20)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.menu.ListMenu(c.Request().Context(), usecase.ListMenuInput{
		Page:     page,
		Limit:    limit,
		Q:        c.QueryParam("q"),
		Category: c.QueryParam("category"),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *MenuHandler) detail(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	item, err := h.menu.GetMenuItem(c.Request().Context(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, item)
}
