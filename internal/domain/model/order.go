package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusConfirmed OrderStatus = "CONFIRMED"
	OrderStatusPreparing OrderStatus = "PREPARING"
	OrderStatusReady     OrderStatus = "READY"
	OrderStatusCompleted OrderStatus = "COMPLETED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
)

// 終端（これ以上変更できない）
func (s OrderStatus) IsTerminal() bool {
	return s == OrderStatusCompleted || s == OrderStatusCanceled
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusConfirmed, OrderStatusPreparing,
		OrderStatusReady, OrderStatusCompleted, OrderStatusCanceled:
		return true
	default:
		return false
	}
}

type OrderType string

const (
	OrderTypePickup   OrderType = "PICKUP"
	OrderTypeDelivery OrderType = "DELIVERY"
)

type Order struct {
	ID     int64  `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID *int64 `gorm:"index" json:"user_id"`
	// user:<id> または guest:<uuid>（冪等キーのスコープ）
	OwnerKey        string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_orders_owner_idem" json:"-"`
	CustomerName    string          `gorm:"type:varchar(255);not null" json:"customer_name"`
	CustomerEmail   string          `gorm:"type:varchar(255);not null" json:"customer_email"`
	CustomerPhone   string          `gorm:"type:varchar(30)" json:"customer_phone"`
	OrderType       OrderType       `gorm:"type:varchar(20);not null" json:"order_type"`
	DeliveryAddress string          `gorm:"type:text" json:"delivery_address"`
	Notes           string          `gorm:"type:text" json:"notes"`
	Status          OrderStatus     `gorm:"type:varchar(20);not null;index" json:"status"`
	TotalPrice      decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"total_price"`
	IdempotencyKey  string          `gorm:"type:varchar(255);not null;uniqueIndex:idx_orders_owner_idem" json:"-"`
	CreatedAt       time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
