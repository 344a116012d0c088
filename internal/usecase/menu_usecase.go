package usecase

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"restaurant/internal/domain/model"
	repo "restaurant/internal/repository"

	"github.com/shopspring/decimal"
)

type MenuUsecase struct {
	menuRepo     repo.MenuItemRepository
	categoryRepo repo.CategoryRepository
	auditRepo    repo.AuditLogRepository
}

// DI
func NewMenuUsecase(
	menuRepo repo.MenuItemRepository,
	categoryRepo repo.CategoryRepository,
	auditRepo repo.AuditLogRepository,
) *MenuUsecase {
	return &MenuUsecase{
		menuRepo:     menuRepo,
		categoryRepo: categoryRepo,
		auditRepo:    auditRepo,
	}
}

// GET /menu の入力
type ListMenuInput struct {
	Page     int
	Limit    int
	Q        string
	Category string // slug
}

type MenuListOutput struct {
	Items []model.MenuItem `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

func (u *MenuUsecase) ListMenu(ctx context.Context, in ListMenuInput) (MenuListOutput, error) {
	return u.list(ctx, in, false)
}

// 管理画面用（提供停止中も含む）
func (u *MenuUsecase) AdminListMenu(ctx context.Context, in ListMenuInput) (MenuListOutput, error) {
	return u.list(ctx, in, true)
}

func (u *MenuUsecase) list(ctx context.Context, in ListMenuInput, includeUnavailable bool) (MenuListOutput, error) {
	if in.Page < 1 {
		return MenuListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if in.Limit < 1 || in.Limit > 100 {
		return MenuListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if len(in.Q) > 100 {
		return MenuListOutput{}, NewHTTPError(http.StatusBadRequest, "q too long")
	}

	q := repo.MenuListQuery{
		Page:               in.Page,
		Limit:              in.Limit,
		Q:                  strings.TrimSpace(in.Q),
		IncludeUnavailable: includeUnavailable,
	}

	// 存在しないカテゴリは空の一覧
	if slug := strings.TrimSpace(in.Category); slug != "" {
		c, err := u.categoryRepo.FindBySlug(ctx, slug)
		if err == repo.ErrNotFound {
			return MenuListOutput{Items: []model.MenuItem{}, Total: 0, Page: in.Page, Limit: in.Limit}, nil
		}
		if err != nil {
			return MenuListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
		}
		q.CategoryID = &c.ID
	}

	items, total, err := u.menuRepo.List(ctx, q)
	if err != nil {
		return MenuListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	return MenuListOutput{
		Items: items,
		Total: total,
		Page:  in.Page,
		Limit: in.Limit,
	}, nil
}

// 提供停止中は公開側では404
func (u *MenuUsecase) GetMenuItem(ctx context.Context, id int64) (model.MenuItem, error) {
	if id <= 0 {
		return model.MenuItem{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	m, err := u.menuRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.MenuItem{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.MenuItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	if !m.IsAvailable {
		return model.MenuItem{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	return m, nil
}

type AdminMenuItemInput struct {
	CategoryID  int64
	Name        string
	Description string
	Price       decimal.Decimal
	ImageURL    string
	IsAvailable bool
}

func (u *MenuUsecase) validateMenuInput(ctx context.Context, in AdminMenuItemInput) error {
	if strings.TrimSpace(in.Name) == "" {
		return NewHTTPError(http.StatusBadRequest, "name required")
	}
	if len(in.Name) > 255 {
		return NewHTTPError(http.StatusBadRequest, "name too long")
	}
	if in.Price.IsNegative() {
		return NewHTTPError(http.StatusBadRequest, "price must be >= 0")
	}
	// numeric(10,2)
	if !in.Price.Equal(in.Price.Round(2)) {
		return NewHTTPError(http.StatusBadRequest, "price must have at most 2 decimal places")
	}
	if in.CategoryID <= 0 {
		return NewHTTPError(http.StatusBadRequest, "category_id required")
	}

	_, err := u.categoryRepo.FindByID(ctx, in.CategoryID)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusBadRequest, "category not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

func (u *MenuUsecase) AdminCreateMenuItem(ctx context.Context, adminUserID int64, in AdminMenuItemInput) (model.MenuItem, error) {
	if adminUserID <= 0 {
		return model.MenuItem{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if err := u.validateMenuInput(ctx, in); err != nil {
		return model.MenuItem{}, err
	}

	m, err := u.menuRepo.Create(ctx, model.MenuItem{
		CategoryID:  in.CategoryID,
		Name:        strings.TrimSpace(in.Name),
		Description: in.Description,
		Price:       in.Price,
		ImageURL:    strings.TrimSpace(in.ImageURL),
		IsAvailable: in.IsAvailable,
	})
	if err != nil {
		return model.MenuItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.audit(ctx, adminUserID, model.AuditActionCreateMenuItem, m.ID, nil, m); err != nil {
		return model.MenuItem{}, err
	}
	return m, nil
}

func (u *MenuUsecase) AdminUpdateMenuItem(ctx context.Context, adminUserID int64, id int64, in AdminMenuItemInput) (model.MenuItem, error) {
	if adminUserID <= 0 {
		return model.MenuItem{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if id <= 0 {
		return model.MenuItem{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}
	if err := u.validateMenuInput(ctx, in); err != nil {
		return model.MenuItem{}, err
	}

	//変更前（before）
	before, err := u.menuRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.MenuItem{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.MenuItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	after := before
	after.Category = nil
	after.CategoryID = in.CategoryID
	after.Name = strings.TrimSpace(in.Name)
	after.Description = in.Description
	after.Price = in.Price
	after.ImageURL = strings.TrimSpace(in.ImageURL)
	after.IsAvailable = in.IsAvailable

	err = u.menuRepo.Update(ctx, after)
	if err == repo.ErrNotFound {
		return model.MenuItem{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.MenuItem{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	before.Category = nil
	if err := u.audit(ctx, adminUserID, model.AuditActionUpdateMenuItem, id, before, after); err != nil {
		return model.MenuItem{}, err
	}
	return after, nil
}

// 論理削除。過去の注文明細はスナップショットを持っているので影響しない
func (u *MenuUsecase) AdminDeleteMenuItem(ctx context.Context, adminUserID int64, id int64) error {
	if adminUserID <= 0 {
		return NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if id <= 0 {
		return NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	before, err := u.menuRepo.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	err = u.menuRepo.SoftDelete(ctx, id)
	if err == repo.ErrNotFound {
		return NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}

	before.Category = nil
	return u.audit(ctx, adminUserID, model.AuditActionDeleteMenuItem, id, before, nil)
}

// 監査ログ（メニュー）
func (u *MenuUsecase) audit(ctx context.Context, actorID int64, action model.AuditAction, id int64, before, after any) error {
	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorID,
		Action:       action,
		ResourceType: model.AuditResourceMenuItem,
		ResourceID:   id,
		BeforeJSON:   toAuditJSON(before),
		AfterJSON:    toAuditJSON(after),
		CreatedAt:    time.Now(),
	}); err != nil {
		return NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return nil
}

// nilは空文字
func toAuditJSON(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
