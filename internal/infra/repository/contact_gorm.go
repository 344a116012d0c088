package repository

import (
	"context"

	"restaurant/internal/domain/model"
	repo "restaurant/internal/repository"

	"gorm.io/gorm"
)

type contactMessageGormRepository struct {
	db *gorm.DB
}

func NewContactMessageGormRepository(db *gorm.DB) repo.ContactMessageRepository {
	return &contactMessageGormRepository{db: db}
}

func (r *contactMessageGormRepository) Create(ctx context.Context, m model.ContactMessage) (model.ContactMessage, error) {
	if err := r.db.WithContext(ctx).Create(&m).Error; err != nil {
		return model.ContactMessage{}, err
	}
	return m, nil
}

func (r *contactMessageGormRepository) List(ctx context.Context, limit int, offset int) ([]model.ContactMessage, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	var out []model.ContactMessage
	err := r.db.WithContext(ctx).Order("id desc").Limit(limit).Offset(offset).Find(&out).Error
	if err != nil {
		return []model.ContactMessage{}, err
	}
	return out, nil
}
