package usecase_test

import (
	"context"
	"testing"
	"time"

	"restaurant/internal/domain/model"
	repo "restaurant/internal/repository"
	"restaurant/internal/usecase"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func reservationInput(at time.Time) usecase.CreateReservationInput {
	return usecase.CreateReservationInput{
		Name:       "Ken",
		Email:      "ken@example.com",
		PartySize:  4,
		ReservedAt: at.Format(time.RFC3339),
	}
}

func TestReservationUsecase_Create(t *testing.T) {
	rs := new(ReservationRepoMock)
	uc := usecase.NewReservationUsecase(rs, new(AuditRepoMock))

	at := time.Now().Add(48 * time.Hour).Truncate(time.Second)
	rs.On("Create", mock.Anything, mock.MatchedBy(func(r model.Reservation) bool {
		return r.Status == model.ReservationStatusPending && r.PartySize == 4 && r.ReservedAt.Equal(at) && r.UserID == nil
	})).Return(model.Reservation{ID: 1, Status: model.ReservationStatusPending}, nil)

	out, err := uc.Create(context.Background(), nil, reservationInput(at))
	require.NoError(t, err)
	assert.Equal(t, int64(1), out.ID)
	rs.AssertExpectations(t)
}

func TestReservationUsecase_Create_Validation(t *testing.T) {
	uc := usecase.NewReservationUsecase(new(ReservationRepoMock), new(AuditRepoMock))
	future := time.Now().Add(time.Hour)

	in := reservationInput(future)
	in.PartySize = 0
	_, err := uc.Create(context.Background(), nil, in)
	assertErrContains(t, err, "party_size")

	in = reservationInput(future)
	in.PartySize = 21
	_, err = uc.Create(context.Background(), nil, in)
	assertErrContains(t, err, "party_size")

	_, err = uc.Create(context.Background(), nil, reservationInput(time.Now().Add(-time.Hour)))
	assertErrContains(t, err, "in the future")

	in = reservationInput(future)
	in.ReservedAt = "tomorrow at 7"
	_, err = uc.Create(context.Background(), nil, in)
	assertErrContains(t, err, "invalid reserved_at")

	in = reservationInput(future)
	in.Email = "ken"
	_, err = uc.Create(context.Background(), nil, in)
	assertErrContains(t, err, "invalid email")
}

func TestReservationUsecase_AdminUpdateStatus(t *testing.T) {
	rs := new(ReservationRepoMock)
	audit := new(AuditRepoMock)
	uc := usecase.NewReservationUsecase(rs, audit)

	rs.On("FindByID", mock.Anything, int64(1)).Return(model.Reservation{ID: 1, Status: model.ReservationStatusPending}, nil)
	rs.On("UpdateStatus", mock.Anything, int64(1), model.ReservationStatusConfirmed).Return(nil)
	audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionUpdateReservationStatus && l.ResourceType == model.AuditResourceReservation
	})).Return(nil)

	out, err := uc.AdminUpdateStatus(context.Background(), 9, 1, "CONFIRMED")
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStatusConfirmed, out.Status)

	rs.On("FindByID", mock.Anything, int64(2)).Return(model.Reservation{ID: 2, Status: model.ReservationStatusCanceled}, nil)
	_, err = uc.AdminUpdateStatus(context.Background(), 9, 2, "PENDING")
	assertErrContains(t, err, "cannot change canceled reservation")

	rs.On("FindByID", mock.Anything, int64(3)).Return(model.Reservation{}, repo.ErrNotFound)
	_, err = uc.AdminUpdateStatus(context.Background(), 9, 3, "CONFIRMED")
	assertErrContains(t, err, "not found")

	_, err = uc.AdminUpdateStatus(context.Background(), 9, 1, "SEATED")
	assertErrContains(t, err, "invalid status")
}

func TestReservationUsecase_AdminList_RejectsUnknownStatus(t *testing.T) {
	rs := new(ReservationRepoMock)
	uc := usecase.NewReservationUsecase(rs, new(AuditRepoMock))

	_, err := uc.AdminList(context.Background(), repo.ReservationListFilter{Status: "LATE"})
	assertErrContains(t, err, "invalid status")

	rs.On("List", mock.Anything, repo.ReservationListFilter{Status: "PENDING", Limit: 50}).Return([]model.Reservation{{ID: 1}}, nil)
	out, err := uc.AdminList(context.Background(), repo.ReservationListFilter{Status: "PENDING", Limit: 50})
	require.NoError(t, err)
	assert.Len(t, out, 1)
}
