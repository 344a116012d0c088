package handler

import (
	"net/http"
	"time"

	"restaurant/internal/usecase"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
)

const cartSessionCookie = "cart_session"

// /cartのHTTP
type CartHandler struct {
	uc           *usecase.CartUsecase
	sessionTTL   time.Duration
	cookieSecure bool
}

// DI
func NewCartHandler(uc *usecase.CartUsecase, sessionTTL time.Duration, cookieSecure bool) *CartHandler {
	return &CartHandler{uc: uc, sessionTTL: sessionTTL, cookieSecure: cookieSecure}
}

type AddCartItemRequest struct {
	MenuItemID int64 `json:"menu_item_id"`
}

type UpdateCartItemRequest struct {
	Quantity *int `json:"quantity"`
}

// ログインしていなくても使える
func (h *CartHandler) RegisterRoutes(e *echo.Echo, guards Guards) {
	g := e.Group("/cart", guards.Optional()...)

	g.GET("", h.getCart)
	g.DELETE("", h.clear)
	g.POST("/items", h.addItem)
	g.PATCH("/items/:id", h.updateItem)
	g.DELETE("/items/:id", h.removeItem)
}

func (h *CartHandler) getCart(c echo.Context) error {
	out, err := h.uc.GetCart(c.Request().Context(), h.owner(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) addItem(c echo.Context) error {
	var req AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.AddItem(c.Request().Context(), h.owner(c), req.MenuItemID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) updateItem(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	var req UpdateCartItemRequest
	if err := c.Bind(&req); err != nil || req.Quantity == nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid body"})
	}

	out, err := h.uc.UpdateQuantity(c.Request().Context(), h.owner(c), id, *req.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) removeItem(c echo.Context) error {
	id, err := parseIDParam(c, "id")
	if err != nil {
		return writeError(c, err)
	}

	out, err := h.uc.RemoveItem(c.Request().Context(), h.owner(c), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

func (h *CartHandler) clear(c echo.Context) error {
	out, err := h.uc.Clear(c.Request().Context(), h.owner(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, out)
}

// ログイン中はユーザーのカート、それ以外はcookieのセッション（無ければ発行）
func (h *CartHandler) owner(c echo.Context) usecase.Owner {
	if userID, ok := getUserIDFromContext(c); ok {
		return usecase.UserOwner(userID)
	}
	if session, ok := guestSession(c); ok {
		return usecase.GuestOwner(session)
	}

	session := uuid.NewString()
	c.SetCookie(&http.Cookie{
		Name:     cartSessionCookie,
		Value:    session,
		Path:     "/",
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
		MaxAge:   int(h.sessionTTL.Seconds()),
	})
	return usecase.GuestOwner(session)
}

// uuidとして読めるcookieだけ使う
func guestSession(c echo.Context) (string, bool) {
	ck, err := c.Cookie(cartSessionCookie)
	if err != nil {
		return "", false
	}
	id, err := uuid.Parse(ck.Value)
	if err != nil {
		return "", false
	}
	return id.String(), true
}

// 注文・予約でゲストも扱う。cookieが無いゲストは空のOwner
func ownerFromRequest(c echo.Context) usecase.Owner {
	if userID, ok := getUserIDFromContext(c); ok {
		return usecase.UserOwner(userID)
	}
	if session, ok := guestSession(c); ok {
		return usecase.GuestOwner(session)
	}
	return usecase.Owner{}
}

func optionalUserID(c echo.Context) *int64 {
	if userID, ok := getUserIDFromContext(c); ok {
		return &userID
	}
	return nil
}
