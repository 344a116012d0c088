package repository

import (
	"context"
	"time"

	"restaurant/internal/domain/model"
)

type ReservationListFilter struct {
	Status string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

type ReservationRepository interface {
	Create(ctx context.Context, r model.Reservation) (model.Reservation, error)
	FindByID(ctx context.Context, id int64) (model.Reservation, error)
	List(ctx context.Context, f ReservationListFilter) ([]model.Reservation, error)
	UpdateStatus(ctx context.Context, id int64, status model.ReservationStatus) error
}
