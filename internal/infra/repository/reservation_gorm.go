package repository

import (
	"context"
	"errors"

	"restaurant/internal/domain/model"
	repo "restaurant/internal/repository"

	"gorm.io/gorm"
)

type ReservationGormRepository struct {
	db *gorm.DB
}

func NewReservationGormRepository(db *gorm.DB) *ReservationGormRepository {
	return &ReservationGormRepository{db: db}
}

func (r *ReservationGormRepository) Create(ctx context.Context, rs model.Reservation) (model.Reservation, error) {
	if err := r.db.WithContext(ctx).Create(&rs).Error; err != nil {
		return model.Reservation{}, err
	}
	return rs, nil
}

func (r *ReservationGormRepository) FindByID(ctx context.Context, id int64) (model.Reservation, error) {
	var rs model.Reservation
	err := r.db.WithContext(ctx).First(&rs, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Reservation{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Reservation{}, err
	}
	return rs, nil
}

// 予約日時の早い順
func (r *ReservationGormRepository) List(ctx context.Context, f repo.ReservationListFilter) ([]model.Reservation, error) {
	q := r.db.WithContext(ctx).Model(&model.Reservation{})

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.From != nil {
		q = q.Where("reserved_at >= ?", *f.From)
	}
	if f.To != nil {
		q = q.Where("reserved_at <= ?", *f.To)
	}

	limit := f.Limit
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if f.Offset < 0 {
		f.Offset = 0
	}

	var out []model.Reservation
	if err := q.Order("reserved_at asc").Order("id asc").Limit(limit).Offset(f.Offset).Find(&out).Error; err != nil {
		return []model.Reservation{}, err
	}
	return out, nil
}

func (r *ReservationGormRepository) UpdateStatus(ctx context.Context, id int64, status model.ReservationStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Reservation{}).
		Where("id = ?", id).
		Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}
