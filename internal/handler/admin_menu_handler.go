package handler

import (
	"net/http"

	"restaurant/internal/usecase"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// MenuItemRequest は作成・更新で共通。価格は "12.50" でも 12.5 でも受ける
type MenuItemRequest struct {
	CategoryID  int64           `json:"category_id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	ImageURL    string          `json:"image_url"`
	IsAvailable *bool           `json:"is_available"`
}

func (r MenuItemRequest) toInput() usecase.AdminMenuItemInput {
	available := true
	if r.IsAvailable != nil {
		available = *r.IsAvailable
	}
	return usecase.AdminMenuItemInput{
		CategoryID:  r.CategoryID,
		Name:        r.Name,
		Description: r.Description,
		Price:       r.Price,
		ImageURL:    r.ImageURL,
		IsAvailable: available,
	}
}

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	SortOrder   int    `json:"sort_order"`
}

// /admin/menu-items と /admin/categories をまとめる
type AdminMenuHandler struct {
	menu       *usecase.MenuUsecase
	categories *usecase.CategoryUsecase
}

// DI
func NewAdminMenuHandler(menu *usecase.MenuUsecase, categories *usecase.CategoryUsecase) *AdminMenuHandler {
	return &AdminMenuHandler{menu: menu, categories: categories}
}

// adminを登録
func (h *AdminMenuHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	admin := e.Group("/admin", guards.Admin()...)

	admin.GET("/menu-items", h.listMenuItems)
	admin.POST("/menu-items", h.createMenuItem)
	admin.PUT("/menu-items/:id", h.updateMenuItem)
	admin.DELETE("/menu-items/:id", h.deleteMenuItem)

	admin.POST("/categories", h.createCategory)
	admin.PUT("/categories/:id", h.updateCategory)
	admin.DELETE("/categories/:id", h.deleteCategory)
}

// 提供停止中も含めて返す
func (h *AdminMenuHandler) listMenuItems(c echo.Context) error {
	page, limit, err := parsePageLimit(c, 50)
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.menu.AdminListMenu(c.Request().Context(), usecase.ListMenuInput{
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

func (h *AdminMenuHandler) createMenuItem(c echo.Context) error {
	var req MenuItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	item, err := h.menu.AdminCreateMenuItem(c.Request().Context(), adminID, req.toInput())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusCreated, item)
}

func (h *AdminMenuHandler) updateMenuItem(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req MenuItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	item, err := h.menu.AdminUpdateMenuItem(c.Request().Context(), adminID, id, req.toInput())
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, item)
}

func (h *AdminMenuHandler) deleteMenuItem(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	if err := h.menu.AdminDeleteMenuItem(c.Request().Context(), adminID, id); err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}

func (h *AdminMenuHandler) createCategory(c echo.Context) error {
	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.categories.Create(c.Request().Context(), usecase.CategoryInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

func (h *AdminMenuHandler) updateCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req CategoryRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.categories.Update(c.Request().Context(), id, usecase.CategoryInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// 紐づくメニューがあると409
func (h *AdminMenuHandler) deleteCategory(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	if err := h.categories.Delete(c.Request().Context(), id); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, SuccessResponse{Message: "deleted"})
}
