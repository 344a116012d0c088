package server

import (
	"restaurant/internal/handler"

	"github.com/labstack/echo/v4"
)

// Handlers はルート登録に必要なものをまとめたもの
type Handlers struct {
	Guards handler.Guards

	Health      *handler.HealthHandler
	Auth        *handler.AuthHandler
	Menu        *handler.MenuHandler
	Cart        *handler.CartHandler
	Order       *handler.OrderHandler
	Reservation *handler.ReservationHandler
	Contact     *handler.ContactHandler
	AdminMenu   *handler.AdminMenuHandler
	AdminOrder  *handler.AdminOrderHandler
	AdminUser   *handler.AdminUserHandler
}

func RegisterRoutes(e *echo.Echo, h Handlers) {
	// 公開
	h.Health.RegisterRoutes(e)
	h.Menu.RegisterRoutes(e)

	// ゲスト可（ログインしていればユーザー扱い）
	h.Auth.RegisterRoutes(e, h.Guards)
	h.Cart.RegisterRoutes(e, h.Guards)
	h.Order.RegisterRoutes(e, h.Guards)
	h.Reservation.RegisterRoutes(e, h.Guards)
	h.Contact.RegisterRoutes(e, h.Guards)

	// /admin
	h.AdminMenu.RegisterRoutes(e, h.Guards)
	h.AdminOrder.RegisterRoutes(e, h.Guards)
	h.AdminUser.RegisterRoutes(e, h.Guards)
}
