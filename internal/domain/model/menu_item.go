package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type MenuItem struct {
	ID          int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	CategoryID  int64           `gorm:"not null;index" json:"category_id"`
	Category    *Category       `gorm:"foreignKey:CategoryID;constraint:OnUpdate:CASCADE,OnDelete:RESTRICT" json:"category,omitempty"`
	Name        string          `gorm:"type:varchar(255);not null" json:"name"`
	Description string          `gorm:"type:text" json:"description"`
	Price       decimal.Decimal `gorm:"type:numeric(10,2);not null" json:"price"`
	ImageURL    string          `gorm:"type:varchar(1024)" json:"image_url"`
	IsAvailable bool            `gorm:"not null;default:true" json:"is_available"`
	CreatedAt   time.Time       `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time       `gorm:"not null;autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt  `gorm:"index" json:"-"`
}

// カテゴリ名（Preload していないときは空）
func (m MenuItem) CategoryName() string {
	if m.Category == nil {
		return ""
	}
	return m.Category.Name
}
