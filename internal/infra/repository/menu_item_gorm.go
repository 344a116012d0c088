package repository

import (
	"context"
	"errors"
	"strings"

	"restaurant/internal/domain/model"
	repo "restaurant/internal/repository"

	"gorm.io/gorm"
)

type MenuItemGormRepository struct {
	db *gorm.DB
}

// DI
func NewMenuItemGormRepository(db *gorm.DB) *MenuItemGormRepository {
	return &MenuItemGormRepository{db: db}
}

// 検索/カテゴリ/ページング付きで返す。
func (r *MenuItemGormRepository) List(ctx context.Context, q repo.MenuListQuery) ([]model.MenuItem, int64, error) {
	var items []model.MenuItem
	var total int64

	tx := r.db.WithContext(ctx).Model(&model.MenuItem{})

	// 公開側は提供中のものだけ（削除済みはgormが除外する）
	if !q.IncludeUnavailable {
		tx = tx.Where("is_available = ?", true)
	}

	if q.CategoryID != nil {
		tx = tx.Where("category_id = ?", *q.CategoryID)
	}

	// q は name/description を対象
	if s := strings.TrimSpace(q.Q); s != "" {
		like := "%" + s + "%"
		tx = tx.Where("name ILIKE ? OR description ILIKE ?", like, like)
	}

	if err := tx.Count(&total).Error; err != nil {
		return []model.MenuItem{}, 0, err
	}

	offset := (q.Page - 1) * q.Limit
	err := tx.Preload("Category").
		Order("category_id asc").Order("name asc").Order("id asc").
		Offset(offset).Limit(q.Limit).
		Find(&items).Error
	if err != nil {
		return []model.MenuItem{}, 0, err
	}

	return items, total, nil
}

// IDでメニューを取得
func (r *MenuItemGormRepository) FindByID(ctx context.Context, id int64) (model.MenuItem, error) {
	var m model.MenuItem
	err := r.db.WithContext(ctx).Preload("Category").First(&m, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.MenuItem{}, repo.ErrNotFound
	}
	if err != nil {
		return model.MenuItem{}, err
	}
	return m, nil
}

func (r *MenuItemGormRepository) Create(ctx context.Context, m model.MenuItem) (model.MenuItem, error) {
	m.Category = nil
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return model.MenuItem{}, err
	}
	return m, nil
}

func (r *MenuItemGormRepository) Update(ctx context.Context, m model.MenuItem) error {
	res := r.db.WithContext(ctx).Model(&model.MenuItem{}).Where("id = ?", m.ID).Updates(map[string]interface{}{
		"category_id":  m.CategoryID,
		"name":         m.Name,
		"description":  m.Description,
		"price":        m.Price,
		"image_url":    m.ImageURL,
		"is_available": m.IsAvailable,
	})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

// 注文明細から参照されるので論理削除
func (r *MenuItemGormRepository) SoftDelete(ctx context.Context, id int64) error {
	res := r.db.WithContext(ctx).Delete(&model.MenuItem{}, id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
