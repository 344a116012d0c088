package usecase

import (
	"context"
	"net/http"
	"strings"
	"unicode"

	"restaurant/internal/domain/model"
	repo "restaurant/internal/repository"
)

type CategoryUsecase struct {
	categoryRepo repo.CategoryRepository
}

func NewCategoryUsecase(categoryRepo repo.CategoryRepository) *CategoryUsecase {
	return &CategoryUsecase{categoryRepo: categoryRepo}
}

type CategoryInput struct {
	Name        string
	Description string
	SortOrder   int
}

func (u *CategoryUsecase) List(ctx context.Context) ([]model.Category, error) {
	cs, err := u.categoryRepo.List(ctx)
	if err != nil {
		return []model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return cs, nil
}

func (u *CategoryUsecase) Create(ctx context.Context, in CategoryInput) (model.Category, error) {
	c, err := buildCategory(in)
	if err != nil {
		return model.Category{}, err
	}

	created, err := u.categoryRepo.Create(ctx, c)
	if err == repo.ErrConflict {
		return model.Category{}, NewHTTPError(http.StatusConflict, "category already exists")
	}
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return created, nil
}

func (u *CategoryUsecase) Update(ctx context.Context, id int64, in CategoryInput) (model.Category, error) {
	if id <= 0 {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	c, err := buildCategory(in)
	if err != nil {
		return model.Category{}, err
	}
	c.ID = id

	err = u.categoryRepo.Update(ctx, c)
	switch err {
	case nil:
	case repo.ErrNotFound:
		return model.Category{}, NewHTTPError(http.StatusNotFound, "not found")
	case repo.ErrConflict:
		return model.Category{}, NewHTTPError(http.StatusConflict, "category already exists")
	default:
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	updated, err := u.categoryRepo.FindByID(ctx, id)
	if err != nil {
		return model.Category{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return updated, nil
}

// メニューが残っているカテゴリは消さない（409）
func (u *CategoryUsecase) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	n, err := u.categoryRepo.CountMenuItems(ctx, id)
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if n > 0 {
		return NewHTTPError(http.StatusConflict, "category has menu items")
	}

	err = u.categoryRepo.Delete(ctx, id)
	switch err {
	case nil:
		return nil
	case repo.ErrNotFound:
		return NewHTTPError(http.StatusNotFound, "not found")
	case repo.ErrConflict:
		return NewHTTPError(http.StatusConflict, "category has menu items")
	default:
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
}

func buildCategory(in CategoryInput) (model.Category, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if len(name) > 100 {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name too long")
	}
	slug := Slugify(name)
	if slug == "" {
		return model.Category{}, NewHTTPError(http.StatusBadRequest, "name must contain letters or digits")
	}
	return model.Category{
		Name:        name,
		Slug:        slug,
		Description: in.Description,
		SortOrder:   in.SortOrder,
	}, nil
}

// Slugify は "Main Dishes & Sides" -> "main-dishes-sides"。
// 英数字以外は区切りとして扱う。
func Slugify(s string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(s) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || (r > unicode.MaxASCII && (unicode.IsLetter(r) || unicode.IsDigit(r))) {
			b.WriteRune(r)
			dash = false
			continue
		}
		if b.Len() > 0 && !dash {
			b.WriteByte('-')
			dash = true
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
