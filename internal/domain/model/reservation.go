package model

import "time"

type ReservationStatus string

const (
	ReservationStatusPending   ReservationStatus = "PENDING"
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusCanceled  ReservationStatus = "CANCELED"
)

// 席の予約
type Reservation struct {
	ID         int64             `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID     *int64            `gorm:"index" json:"user_id"`
	Name       string            `gorm:"type:varchar(255);not null" json:"name"`
	Email      string            `gorm:"type:varchar(255);not null" json:"email"`
	Phone      string            `gorm:"type:varchar(30)" json:"phone"`
	PartySize  int               `gorm:"not null" json:"party_size"`
	ReservedAt time.Time         `gorm:"not null;index" json:"reserved_at"`
	Notes      string            `gorm:"type:text" json:"notes"`
	Status     ReservationStatus `gorm:"type:varchar(20);not null;index" json:"status"`
	CreatedAt  time.Time         `gorm:"not null;autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time         `gorm:"not null;autoUpdateTime" json:"updated_at"`
}
