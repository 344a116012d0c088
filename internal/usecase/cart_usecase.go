package usecase

import (
	"context"
	"net/http"
	"strconv"

	"restaurant/internal/cart"
	repo "restaurant/internal/repository"
)

// 1品あたりの上限
const maxCartQuantity = 99

type CartUsecase struct {
	carts *cart.Registry
	menu  repo.MenuItemRepository
}

// DI
func NewCartUsecase(carts *cart.Registry, menu repo.MenuItemRepository) *CartUsecase {
	return &CartUsecase{carts: carts, menu: menu}
}

func (u *CartUsecase) GetCart(ctx context.Context, owner Owner) (cart.State, error) {
	if !owner.valid() {
		return cart.State{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	// 読むだけなので Store は作らない
	return u.carts.Peek(ctx, owner.Key), nil
}

// メニューから名前・価格を取ってカートに入れる（価格はこの時点の値で固定）
func (u *CartUsecase) AddItem(ctx context.Context, owner Owner, menuItemID int64) (cart.State, error) {
	if !owner.valid() {
		return cart.State{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if menuItemID <= 0 {
		return cart.State{}, NewHTTPError(http.StatusBadRequest, "invalid menu_item_id")
	}

	m, err := u.menu.FindByID(ctx, menuItemID)
	if err == repo.ErrNotFound {
		return cart.State{}, NewHTTPError(http.StatusNotFound, "menu item not found")
	}
	if err != nil {
		return cart.State{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !m.IsAvailable {
		return cart.State{}, NewHTTPError(http.StatusBadRequest, "menu item unavailable")
	}

	id := strconv.FormatInt(m.ID, 10)
	add := cart.AddItem(cart.Item{
		ID:          id,
		Name:        m.Name,
		Price:       m.Price,
		Image:       m.ImageURL,
		Description: m.Description,
		Category:    m.CategoryName(),
	})

	// 上限チェックと追加は同じロックの中で
	st, err := u.carts.Get(ctx, owner.Key).Apply(func(s cart.State) ([]cart.Action, error) {
		if li, ok := s.Find(id); ok && li.Quantity >= maxCartQuantity {
			return nil, NewHTTPError(http.StatusBadRequest, "quantity too large")
		}
		return []cart.Action{add}, nil
	})
	if err != nil {
		return cart.State{}, err
	}
	return st, nil
}

// 0以下は削除
func (u *CartUsecase) UpdateQuantity(ctx context.Context, owner Owner, menuItemID int64, quantity int) (cart.State, error) {
	if !owner.valid() {
		return cart.State{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if menuItemID <= 0 {
		return cart.State{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if quantity > maxCartQuantity {
		return cart.State{}, NewHTTPError(http.StatusBadRequest, "quantity too large")
	}

	store := u.carts.Get(ctx, owner.Key)
	return store.Dispatch(cart.UpdateQuantity(strconv.FormatInt(menuItemID, 10), quantity)), nil
}

func (u *CartUsecase) RemoveItem(ctx context.Context, owner Owner, menuItemID int64) (cart.State, error) {
	if !owner.valid() {
		return cart.State{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if menuItemID <= 0 {
		return cart.State{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	store := u.carts.Get(ctx, owner.Key)
	return store.Dispatch(cart.RemoveItem(strconv.FormatInt(menuItemID, 10))), nil
}

func (u *CartUsecase) Clear(ctx context.Context, owner Owner) (cart.State, error) {
	if !owner.valid() {
		return cart.State{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return u.carts.Get(ctx, owner.Key).Dispatch(cart.ClearCart()), nil
}
