package usecase

import (
	"context"
	"net/http"
	"strings"
	"unicode/utf8"

	"restaurant/internal/domain/model"
	repo "restaurant/internal/repository"
)

const maxContactMessageLen = 5000

type ContactUsecase struct {
	messages repo.ContactMessageRepository
}

func NewContactUsecase(messages repo.ContactMessageRepository) *ContactUsecase {
	return &ContactUsecase{messages: messages}
}

type ContactInput struct {
	Name    string
	Email   string
	Subject string
	Message string
}

func (u *ContactUsecase) Submit(ctx context.Context, in ContactInput) (model.ContactMessage, error) {
	if strings.TrimSpace(in.Name) == "" {
		return model.ContactMessage{}, NewHTTPError(http.StatusBadRequest, "name required")
	}
	if !isEmail(in.Email) {
		return model.ContactMessage{}, NewHTTPError(http.StatusBadRequest, "invalid email")
	}
	if strings.TrimSpace(in.Subject) == "" {
		return model.ContactMessage{}, NewHTTPError(http.StatusBadRequest, "subject required")
	}
	if utf8.RuneCountInString(in.Subject) > 255 {
		return model.ContactMessage{}, NewHTTPError(http.StatusBadRequest, "subject too long")
	}
	if strings.TrimSpace(in.Message) == "" {
		return model.ContactMessage{}, NewHTTPError(http.StatusBadRequest, "message required")
	}
	// 文字数で数える
	if utf8.RuneCountInString(in.Message) > maxContactMessageLen {
		return model.ContactMessage{}, NewHTTPError(http.StatusBadRequest, "message too long")
	}

	m, err := u.messages.Create(ctx, model.ContactMessage{
		Name:    strings.TrimSpace(in.Name),
		Email:   strings.TrimSpace(in.Email),
		Subject: strings.TrimSpace(in.Subject),
		Message: in.Message,
	})
	if err != nil {
		return model.ContactMessage{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return m, nil
}

func (u *ContactUsecase) AdminList(ctx context.Context, limit int, offset int) ([]model.ContactMessage, error) {
	if limit < 1 || limit > 200 {
		return []model.ContactMessage{}, NewHTTPError(http.StatusBadRequest, "invalid limit")
	}
	if offset < 0 {
		return []model.ContactMessage{}, NewHTTPError(http.StatusBadRequest, "invalid offset")
	}
	out, err := u.messages.List(ctx, limit, offset)
	if err != nil {
		return []model.ContactMessage{}, NewHTTPError(http.StatusInternalServerError, "db error")
	}
	return out, nil
}
