package repository

import (
	"context"
	"errors"
	"strings"

	"restaurant/internal/domain/model"
	repo "restaurant/internal/repository"

	"gorm.io/gorm"
)

type OrderGormRepository struct {
	db *gorm.DB
}

func NewOrderGormRepository(db *gorm.DB) *OrderGormRepository {
	return &OrderGormRepository{db: db}
}

func (r *OrderGormRepository) FindByID(ctx context.Context, orderID int64) (model.Order, error) {
	var o model.Order
	err := r.db.WithContext(ctx).First(&o, orderID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return model.Order{}, repo.ErrNotFound
	}
	if err != nil {
		return model.Order{}, err
	}
	return o, nil
}

// ゲスト注文（user_id NULL）はここには出ない
func (r *OrderGormRepository) ListByUserID(ctx context.Context, userID int64, page int, limit int) ([]model.Order, int64, error) {
	q := r.db.WithContext(ctx).Model(&model.Order{}).Where("user_id = ?", userID)
	return paginateOrders(q, page, limit, "created_at desc, id desc")
}

func (r *OrderGormRepository) Create(ctx context.Context, order model.Order) (int64, error) {
	err := r.db.WithContext(ctx).Create(&order).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return 0, repo.ErrConflict
	}
	if err != nil {
		return 0, err
	}
	return order.ID, nil
}

func (r *OrderGormRepository) UpdateStatus(ctx context.Context, orderID int64, status model.OrderStatus) error {
	res := r.db.WithContext(ctx).Model(&model.Order{ID: orderID}).Update("status", status)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *OrderGormRepository) FindByIdempotencyKey(ctx context.Context, ownerKey string, key string) (model.Order, bool, error) {
	var orders []model.Order
	err := r.db.WithContext(ctx).
		Where(&model.Order{OwnerKey: ownerKey, IdempotencyKey: key}).
		Limit(1).
		Find(&orders).Error
	if err != nil {
		return model.Order{}, false, err
	}
	if len(orders) == 0 {
		return model.Order{}, false, nil
	}
	return orders[0], true, nil
}

func (r *OrderGormRepository) ListAdmin(ctx context.Context, f repo.AdminOrderListFilter) ([]model.Order, int64, error) {
	if f.Page <= 0 {
		f.Page = 1
	}
	if f.Limit <= 0 || f.Limit > 100 {
		f.Limit = 50
	}

	q := r.db.WithContext(ctx).Model(&model.Order{}).Scopes(adminOrderScope(f))

	order := "created_at desc, id desc"
	if f.Active {
		order = "created_at asc, id asc"
	}
	return paginateOrders(q, f.Page, f.Limit, order)
}

func adminOrderScope(f repo.AdminOrderListFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		if f.Active {
			q = q.Where("status NOT IN ?", []model.OrderStatus{model.OrderStatusCompleted, model.OrderStatusCanceled})
		}
		if f.OrderType != "" {
			q = q.Where("order_type = ?", f.OrderType)
		}
		if s := strings.TrimSpace(f.Q); s != "" {
			like := "%" + strings.ToLower(s) + "%"
			q = q.Where("LOWER(customer_name) LIKE ? OR LOWER(customer_email) LIKE ?", like, like)
		}
		if f.From != nil {
			q = q.Where("created_at >= ?", *f.From)
		}
		if f.To != nil {
			q = q.Where("created_at <= ?", *f.To)
		}
		return q
	}
}

// 件数とページを同じ条件で取る
func paginateOrders(q *gorm.DB, page int, limit int, order string) ([]model.Order, int64, error) {
	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return []model.Order{}, 0, err
	}

	items := []model.Order{}
	if total == 0 {
		return items, 0, nil
	}
	err := q.Session(&gorm.Session{}).
		Order(order).
		Limit(limit).
		Offset((page - 1) * limit).
		Find(&items).Error
	if err != nil {
		return []model.Order{}, 0, err
	}
	return items, total, nil
}
