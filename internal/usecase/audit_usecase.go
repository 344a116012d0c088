package usecase

import (
	"context"
	"net/http"

	"restaurant/internal/domain/model"
	repo "restaurant/internal/repository"
)

type AuditLogUsecase struct {
	auditRepo repo.AuditLogRepository
}

func NewAuditLogUsecase(auditRepo repo.AuditLogRepository) *AuditLogUsecase {
	return &AuditLogUsecase{auditRepo: auditRepo}
}

type AuditLogListOutput struct {
	Items []model.AuditLog `json:"items"`
	Total int64            `json:"total"`
	Page  int              `json:"page"`
	Limit int              `json:"limit"`
}

func (u *AuditLogUsecase) List(ctx context.Context, f repo.AuditLogFilter) (AuditLogListOutput, error) {
	if f.Page < 1 {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid page")
	}
	if f.Limit < 1 || f.Limit > 200 {
		return AuditLogListOutput{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}

	logs, total, err := u.auditRepo.List(ctx, f)
	if err != nil {
		return AuditLogListOutput{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return AuditLogListOutput{Items: logs, Total: total, Page: f.Page, Limit: f.Limit}, nil
}
