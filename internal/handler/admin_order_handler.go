package handler

import (
	"net/http"
	"strconv"
	"time"

	"restaurant/internal/repository"
	"restaurant/internal/usecase"

	"github.com/labstack/echo/v4"
)

type AdminOrderHandler struct {
	uc *usecase.AdminOrderUsecase
}

func NewAdminOrderHandler(uc *usecase.AdminOrderUsecase) *AdminOrderHandler {
	return &AdminOrderHandler{uc: uc}
}

type OrderStatusUpdateRequest struct {
	Status string `json:"status"`
}

func (h *AdminOrderHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	admin := e.Group("/admin", guards.Admin()...)

	admin.GET("/orders", h.list)
	admin.PUT("/orders/:id/status", h.updateStatus)
}

func (h *AdminOrderHandler) list(c echo.Context) error {
	page, limit, err := parsePageLimit(c, 50)
	if err != nil {
		return writeError(c, err)
	}

	from, err := parseTimeQuery(c, "from")
	if err != nil {
		return writeError(c, err)
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		return writeError(c, err)
	}

	// active=true で未完了の注文を古い順に
	active := false
	if v := c.QueryParam("active"); v != "" {
		active, err = strconv.ParseBool(v)
		if err != nil {
			return writeError(c, usecase.NewHTTPError(http.StatusBadRequest, "invalid active"))
		}
	}

	out, err := h.uc.List(c.Request().Context(), repository.AdminOrderListFilter{
		Page:      page,
		Limit:     limit,
		Status:    c.QueryParam("status"),
		OrderType: c.QueryParam("order_type"),
		Q:         c.QueryParam("q"),
		Active:    active,
		From:      from,
		To:        to,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

func (h *AdminOrderHandler) updateStatus(c echo.Context) error {
	orderID, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req OrderStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	// 操作した管理者IDを取得（監査ログ用）
	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.UpdateStatus(
		c.Request().Context(),
		adminID,
		orderID,
		usecase.AdminUpdateOrderStatusInput{Status: req.Status},
	)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, out)
}

// RFC3339。未指定は nil
func parseTimeQuery(c echo.Context, name string) (*time.Time, error) {
	v := c.QueryParam(name)
	if v == "" {
		return nil, nil
	}
	tm, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, usecase.NewHTTPError(http.StatusBadRequest, "invalid "+name)
	}
	return &tm, nil
}
