package usecase

import (
	"context"
	"net/http"
	"strings"
	"time"

	"restaurant/internal/domain/model"
	repo "restaurant/internal/repository"
)

const (
	minPartySize = 1
	maxPartySize = 20
)

type ReservationUsecase struct {
	reservations repo.ReservationRepository
	auditRepo    repo.AuditLogRepository
	now          func() time.Time
}

func NewReservationUsecase(reservations repo.ReservationRepository, auditRepo repo.AuditLogRepository) *ReservationUsecase {
	return &ReservationUsecase{reservations: reservations, auditRepo: auditRepo, now: time.Now}
}

type CreateReservationInput struct {
	Name       string
	Email      string
	Phone      string
	PartySize  int
	ReservedAt string // RFC3339
	Notes      string
}

// userID はログイン中のみ
func (u *ReservationUsecase) Create(ctx context.Context, userID *int64, in CreateReservationInput) (model.Reservation, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.Reservation{}, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if !isEmail(in.Email) {
		return model.Reservation{}, NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if len(in.Phone) > 30 {
		return model.Reservation{}, NewHTTPError(http.StatusBadRequest, "phone too long")
	}
	if in.PartySize < minPartySize || in.PartySize > maxPartySize {
		return model.Reservation{}, NewHTTPError(http.StatusBadRequest, "party_size must be between 1 and 20")
	}
	at, err := time.Parse(time.RFC3339, strings.TrimSpace(in.ReservedAt))
	if err != nil {
		return model.Reservation{}, NewHTTPError(http.StatusBadRequest, "invalid reserved_at")
	}
	if !at.After(u.now()) {
		return model.Reservation{}, NewHTTPError(http.StatusBadRequest, "reserved_at must be in the future")
	}
	if len(in.Notes) > 1000 {
		return model.Reservation{}, NewHTTPError(http.StatusBadRequest, "notes too long")
	}

	rs, err := u.reservations.Create(ctx, model.Reservation{
		UserID:     userID,
		Name:       strings.TrimSpace(in.Name),
		Email:      strings.TrimSpace(in.Email),
		Phone:      strings.TrimSpace(in.Phone),
		PartySize:  in.PartySize,
		ReservedAt: at.UTC(),
		Notes:      in.Notes,
		Status:     model.ReservationStatusPending,
	})
	if err != nil {
		return model.Reservation{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return rs, nil
}

func (u *ReservationUsecase) AdminList(ctx context.Context, f repo.ReservationListFilter) ([]model.Reservation, error) {
	switch model.ReservationStatus(f.Status) {
	case "", model.ReservationStatusPending, model.ReservationStatusConfirmed, model.ReservationStatusCanceled:
	default:
		return []model.Reservation{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	out, err := u.reservations.List(ctx, f)
	if err != nil {
		return []model.Reservation{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return out, nil
}

// CANCELED からは戻さない
func (u *ReservationUsecase) AdminUpdateStatus(ctx context.Context, actorAdminUserID int64, id int64, status string) (model.Reservation, error) {
	if actorAdminUserID <= 0 {
		return model.Reservation{}, NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	if id <= 0 {
		return model.Reservation{}, NewHTTPError(http.StatusBadRequest, "invalid id")
	}

	next := model.ReservationStatus(strings.TrimSpace(status))
	switch next {
	case model.ReservationStatusPending, model.ReservationStatusConfirmed, model.ReservationStatusCanceled:
	default:
		return model.Reservation{}, NewHTTPError(http.StatusBadRequest, "invalid status")
	}

	rs, err := u.reservations.FindByID(ctx, id)
	if err == repo.ErrNotFound {
		return model.Reservation{}, NewHTTPError(http.StatusNotFound, "not found")
	}
	if err != nil {
		return model.Reservation{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if rs.Status == next {
		return rs, nil
	}
	if rs.Status == model.ReservationStatusCanceled {
		return model.Reservation{}, NewHTTPError(http.StatusBadRequest, "cannot change canceled reservation")
	}

	if err := u.reservations.UpdateStatus(ctx, id, next); err != nil {
		if err == repo.ErrNotFound {
			return model.Reservation{}, NewHTTPError(http.StatusNotFound, "not found")
		}
		return model.Reservation{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorAdminUserID,
		Action:       model.AuditActionUpdateReservationStatus,
		ResourceType: model.AuditResourceReservation,
		ResourceID:   id,
		BeforeJSON:   `{"status":"` + string(rs.Status) + `"}`,
		AfterJSON:    `{"status":"` + string(next) + `"}`,
		CreatedAt:    u.now(),
	}); err != nil {
		return model.Reservation{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}

	rs.Status = next
	return rs, nil
}
