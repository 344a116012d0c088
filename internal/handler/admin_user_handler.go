package handler

import (
	"net/http"
	"strconv"
	"time"

	"restaurant/internal/repository"
	"restaurant/internal/usecase"

	"github.com/labstack/echo/v4"
)

// /admin/users と /admin/audit-logs
type AdminUserHandler struct {
	auth  *usecase.AuthUsecase
	audit *usecase.AuditLogUsecase
}

func NewAdminUserHandler(auth *usecase.AuthUsecase, audit *usecase.AuditLogUsecase) *AdminUserHandler {
	return &AdminUserHandler{auth: auth, audit: audit}
}

func (h *AdminUserHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	admin := e.Group("/admin", guards.Admin()...)

	admin.POST("/users/:id/force-logout", h.forceLogout)
	admin.GET("/audit-logs", h.auditLogs)
}

func (h *AdminUserHandler) forceLogout(c echo.Context) error {
	targetID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || targetID <= 0 {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid user_id"})
	}

	actorID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	res, err := h.auth.ForceLogout(c.Request().Context(), actorID, targetID)
	if err != nil {
		return writeAuthError(c, err)
	}

	return c.JSON(http.StatusOK, res)
}

// ?action=&resource_type=&resource_id=&actor_user_id=&from=&to=&page=&limit=
func (h *AdminUserHandler) auditLogs(c echo.Context) error {
	page, limit, err := parsePageLimit(c, 50)
	if err != nil {
		return writeError(c, err)
	}

	f := repository.AuditLogFilter{
		Action:       c.QueryParam("action"),
		ResourceType: c.QueryParam("resource_type"),
		Page:         page,
		Limit:        limit,
	}

	if v := c.QueryParam("resource_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid resource_id"})
		}
		f.ResourceID = &id
	}
	if v := c.QueryParam("actor_user_id"); v != "" {
		id, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid actor_user_id"})
		}
		f.ActorUserID = &id
	}

	var from, to *time.Time
	if from, err = parseTimeQuery(c, "from"); err != nil {
		return writeError(c, err)
	}
	if to, err = parseTimeQuery(c, "to"); err != nil {
		return writeError(c, err)
	}
	f.From, f.To = from, to

	out, err := h.audit.List(c.Request().Context(), f)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
