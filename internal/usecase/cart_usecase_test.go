package usecase_test

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"testing"
	"time"

	"restaurant/internal/cart"
	"restaurant/internal/domain/model"
	repo "restaurant/internal/repository"
	"restaurant/internal/usecase"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newRegistry() *cart.Registry {
	return cart.NewRegistry(cart.NewMemorySnapshotStore(), time.Second, quietLogger())
}

func ramen() model.MenuItem {
	return model.MenuItem{
		ID:          7,
		CategoryID:  1,
		Category:    &model.Category{ID: 1, Name: "Noodles"},
		Name:        "Shoyu Ramen",
		Description: "soy broth",
		Price:       decimal.RequireFromString("11.50"),
		ImageURL:    "/img/ramen.jpg",
		IsAvailable: true,
	}
}

func TestCartUsecase_AddItemBuildsLineFromCatalog(t *testing.T) {
	ctx := context.Background()
	menu := new(MenuRepoMock)
	menu.On("FindByID", mock.Anything, int64(7)).Return(ramen(), nil)

	uc := usecase.NewCartUsecase(newRegistry(), menu)
	owner := usecase.GuestOwner("abc")

	_, err := uc.AddItem(ctx, owner, 7)
	require.NoError(t, err)
	s, err := uc.AddItem(ctx, owner, 7)
	require.NoError(t, err)

	require.Len(t, s.Items, 1)
	li := s.Items[0]
	assert.Equal(t, "7", li.ID)
	assert.Equal(t, "Shoyu Ramen", li.Name)
	assert.Equal(t, "Noodles", li.Category)
	assert.Equal(t, "/img/ramen.jpg", li.Image)
	assert.Equal(t, 2, li.Quantity)
	assert.True(t, decimal.RequireFromString("23").Equal(s.Total))
	assert.Equal(t, 2, s.ItemCount)
}

func TestCartUsecase_AddItemErrors(t *testing.T) {
	ctx := context.Background()
	unavailable := ramen()
	unavailable.IsAvailable = false

	menu := new(MenuRepoMock)
	menu.On("FindByID", mock.Anything, int64(1)).Return(model.MenuItem{}, repo.ErrNotFound)
	menu.On("FindByID", mock.Anything, int64(7)).Return(unavailable, nil)

	uc := usecase.NewCartUsecase(newRegistry(), menu)
	owner := usecase.GuestOwner("abc")

	_, err := uc.AddItem(ctx, owner, 1)
	he, ok := usecase.AsHTTPError(err)
	require.True(t, ok)
	assert.Equal(t, http.StatusNotFound, he.Status)

	_, err = uc.AddItem(ctx, owner, 7)
	assertErrContains(t, err, "unavailable")

	_, err = uc.AddItem(ctx, owner, 0)
	assertErrContains(t, err, "invalid menu_item_id")

	_, err = uc.AddItem(ctx, usecase.GuestOwner(""), 7)
	assertErrContains(t, err, "unauthorized")
}

func TestCartUsecase_UpdateRemoveClear(t *testing.T) {
	ctx := context.Background()
	menu := new(MenuRepoMock)
	menu.On("FindByID", mock.Anything, int64(7)).Return(ramen(), nil)

	uc := usecase.NewCartUsecase(newRegistry(), menu)
	owner := usecase.UserOwner(3)

	_, err := uc.AddItem(ctx, owner, 7)
	require.NoError(t, err)

	s, err := uc.UpdateQuantity(ctx, owner, 7, 4)
	require.NoError(t, err)
	assert.Equal(t, 4, s.ItemCount)

	_, err = uc.UpdateQuantity(ctx, owner, 7, 100)
	assertErrContains(t, err, "quantity too large")

	s, err = uc.UpdateQuantity(ctx, owner, 7, 0)
	require.NoError(t, err)
	assert.Empty(t, s.Items)

	_, err = uc.AddItem(ctx, owner, 7)
	require.NoError(t, err)
	s, err = uc.RemoveItem(ctx, owner, 7)
	require.NoError(t, err)
	assert.True(t, s.IsEmpty())

	_, err = uc.AddItem(ctx, owner, 7)
	require.NoError(t, err)
	s, err = uc.Clear(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, cart.Empty(), s)
}

func TestCartUsecase_OwnersAreIsolated(t *testing.T) {
	ctx := context.Background()
	menu := new(MenuRepoMock)
	menu.On("FindByID", mock.Anything, int64(7)).Return(ramen(), nil)

	uc := usecase.NewCartUsecase(newRegistry(), menu)

	_, err := uc.AddItem(ctx, usecase.UserOwner(1), 7)
	require.NoError(t, err)

	s, err := uc.GetCart(ctx, usecase.UserOwner(2))
	require.NoError(t, err)
	assert.Empty(t, s.Items)

	s, err = uc.GetCart(ctx, usecase.GuestOwner("1"))
	require.NoError(t, err)
	assert.Empty(t, s.Items)
}

func TestCartUsecase_ConcurrentAddsNeverExceedQuantityCap(t *testing.T) {
	ctx := context.Background()
	menu := new(MenuRepoMock)
	menu.On("FindByID", mock.Anything, int64(7)).Return(ramen(), nil)

	uc := usecase.NewCartUsecase(newRegistry(), menu)
	owner := usecase.UserOwner(5)

	_, err := uc.AddItem(ctx, owner, 7)
	require.NoError(t, err)
	_, err = uc.UpdateQuantity(ctx, owner, 7, 98)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = uc.AddItem(ctx, owner, 7)
		}(i)
	}
	wg.Wait()

	rejected := 0
	for _, err := range errs {
		if err != nil {
			assertErrContains(t, err, "quantity too large")
			rejected++
		}
	}
	assert.Equal(t, len(errs)-1, rejected)

	s, err := uc.GetCart(ctx, owner)
	require.NoError(t, err)
	require.Len(t, s.Items, 1)
	assert.Equal(t, 99, s.Items[0].Quantity)
}
