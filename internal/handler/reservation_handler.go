package handler

import (
	"net/http"
	"strconv"

	"restaurant/internal/repository"
	"restaurant/internal/usecase"

	"github.com/labstack/echo/v4"
)

type ReservationHandler struct {
	uc *usecase.ReservationUsecase
}

func NewReservationHandler(uc *usecase.ReservationUsecase) *ReservationHandler {
	return &ReservationHandler{uc: uc}
}

type ReservationCreateRequest struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	PartySize  int    `json:"party_size"`
	ReservedAt string `json:"reserved_at"`
	Notes      string `json:"notes"`
}

type ReservationStatusUpdateRequest struct {
	Status string `json:"status"`
}

func (h *ReservationHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	e.POST("/reservations", h.create, guards.Optional()...)

	admin := e.Group("/admin", guards.Admin()...)
	admin.GET("/reservations", h.adminList)
	admin.PUT("/reservations/:id/status", h.adminUpdateStatus)
}

func (h *ReservationHandler) create(c echo.Context) error {
	var req ReservationCreateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.Create(c.Request().Context(), optionalUserID(c), usecase.CreateReservationInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, out)
}

// ?status=&from=&to=&limit=&offset=
func (h *ReservationHandler) adminList(c echo.Context) error {
	limit := 100
	if v := c.QueryParam("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 || l > 200 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit"})
		}
		limit = l
	}
	offset := 0
	if v := c.QueryParam("offset"); v != "" {
		o, err := strconv.Atoi(v)
		if err != nil || o < 0 {
			return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid offset"})
		}
		offset = o
	}

	from, err := parseTimeQuery(c, "from")
	if err != nil {
		return writeError(c, err)
	}
	to, err := parseTimeQuery(c, "to")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.AdminList(c.Request().Context(), repository.ReservationListFilter{
		Status: c.QueryParam("status"),
		From:   from,
		To:     to,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *ReservationHandler) adminUpdateStatus(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req ReservationStatusUpdateRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	adminID, ok := getUserIDFromContext(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized"})
	}

	out, err := h.uc.AdminUpdateStatus(c.Request().Context(), adminID, id, req.Status)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}
