package usecase_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"restaurant/internal/domain/model"
	repo "restaurant/internal/repository"
	"restaurant/internal/usecase"
	"restaurant/internal/validator"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const testSecret = "test-secret"

func newAuthUsecase(users *UserRepoMock, audit *AuditRepoMock) *usecase.AuthUsecase {
	return usecase.NewAuthUsecase(testSecret, 15*time.Minute, users, audit, validator.NewAuthValidator()).
		WithBcryptCost(bcrypt.MinCost)
}

func hashed(t *testing.T, pw string) string {
	t.Helper()
	b, err := bcrypt.GenerateFromPassword([]byte(pw), bcrypt.MinCost)
	require.NoError(t, err)
	return string(b)
}

func TestAuthUsecase_Register(t *testing.T) {
	users := new(UserRepoMock)
	uc := newAuthUsecase(users, new(AuditRepoMock))

	users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Email == "mio@example.com" && u.Role == model.RoleUser && u.PasswordHash != "password123" &&
			bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte("password123")) == nil
	})).Run(func(args mock.Arguments) {
		args.Get(1).(*model.User).ID = 12
	}).Return(nil)

	out, err := uc.Register(context.Background(), usecase.AuthRegisterRequest{
		Email: " Mio@Example.com ", Password: "password123", Name: "Mio",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(12), out.User.ID)
	assert.Equal(t, "USER", out.User.Role)
}

func TestAuthUsecase_Register_Errors(t *testing.T) {
	users := new(UserRepoMock)
	uc := newAuthUsecase(users, new(AuditRepoMock))

	_, err := uc.Register(context.Background(), usecase.AuthRegisterRequest{Email: "a@b.co", Password: "short", Name: "A"})
	assert.ErrorIs(t, err, usecase.ErrValidation)

	users.On("Create", mock.Anything, mock.Anything).Return(repo.ErrConflict)
	_, err = uc.Register(context.Background(), usecase.AuthRegisterRequest{Email: "a@b.co", Password: "password123", Name: "A"})
	assert.ErrorIs(t, err, usecase.ErrConflict)

	status, _ := usecase.AuthErrorStatus(err)
	assert.Equal(t, http.StatusConflict, status)
}

func TestAuthUsecase_Login_IssuesTokenWithVersion(t *testing.T) {
	users := new(UserRepoMock)
	uc := newAuthUsecase(users, new(AuditRepoMock))

	u := &model.User{ID: 4, Email: "mio@example.com", PasswordHash: hashed(t, "password123"), Role: model.RoleAdmin, TokenVersion: 3, IsActive: true}
	users.On("FindByEmail", mock.Anything, "mio@example.com").Return(u, nil)
	users.On("Update", mock.Anything, mock.Anything).Return(nil)

	out, err := uc.Login(context.Background(), usecase.AuthLoginRequest{Email: "mio@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, 900, out.Token.ExpiresIn)
	assert.Equal(t, "Bearer", out.Token.TokenType)

	tok, err := jwt.Parse(out.Token.AccessToken, func(t *jwt.Token) (interface{}, error) { return []byte(testSecret), nil })
	require.NoError(t, err)
	claims := tok.Claims.(jwt.MapClaims)
	assert.Equal(t, "4", claims["sub"])
	assert.Equal(t, "ADMIN", claims["role"])
	assert.Equal(t, float64(3), claims["tv"])
}

func TestAuthUsecase_Login_Failures(t *testing.T) {
	users := new(UserRepoMock)
	uc := newAuthUsecase(users, new(AuditRepoMock))

	users.On("FindByEmail", mock.Anything, "none@example.com").Return(nil, repo.ErrNotFound)
	users.On("FindByEmail", mock.Anything, "mio@example.com").Return(&model.User{ID: 1, PasswordHash: hashed(t, "password123"), IsActive: true}, nil)
	users.On("FindByEmail", mock.Anything, "off@example.com").Return(&model.User{ID: 2, PasswordHash: hashed(t, "password123"), IsActive: false}, nil)

	_, err := uc.Login(context.Background(), usecase.AuthLoginRequest{Email: "none@example.com", Password: "password123"})
	assert.ErrorIs(t, err, usecase.ErrUnauthorized)

	_, err = uc.Login(context.Background(), usecase.AuthLoginRequest{Email: "mio@example.com", Password: "wrong-password"})
	assert.ErrorIs(t, err, usecase.ErrUnauthorized)

	_, err = uc.Login(context.Background(), usecase.AuthLoginRequest{Email: "off@example.com", Password: "password123"})
	assert.ErrorIs(t, err, usecase.ErrForbidden)
}

func TestAuthUsecase_ForceLogout(t *testing.T) {
	users := new(UserRepoMock)
	audit := new(AuditRepoMock)
	uc := newAuthUsecase(users, audit)

	users.On("FindByID", mock.Anything, int64(7)).Return(&model.User{ID: 7, TokenVersion: 1}, nil).Once()
	users.On("IncrementTokenVersion", mock.Anything, int64(7)).Return(nil)
	users.On("FindByID", mock.Anything, int64(7)).Return(&model.User{ID: 7, TokenVersion: 2}, nil).Once()
	audit.On("Create", mock.Anything, mock.MatchedBy(func(l model.AuditLog) bool {
		return l.Action == model.AuditActionForceLogout && l.ResourceID == 7 &&
			l.BeforeJSON == `{"token_version":1}` && l.AfterJSON == `{"token_version":2}`
	})).Return(nil)

	out, err := uc.ForceLogout(context.Background(), 1, 7)
	require.NoError(t, err)
	assert.Equal(t, 2, out.NewTokenVersion)

	_, err = uc.ForceLogout(context.Background(), 1, 1)
	assert.ErrorIs(t, err, usecase.ErrValidation)

	users.On("FindByID", mock.Anything, int64(8)).Return(nil, repo.ErrNotFound)
	_, err = uc.ForceLogout(context.Background(), 1, 8)
	assert.ErrorIs(t, err, usecase.ErrNotFound)
}

func TestAuthUsecase_EnsureAdmin(t *testing.T) {
	users := new(UserRepoMock)
	uc := newAuthUsecase(users, new(AuditRepoMock))

	users.On("FindByEmail", mock.Anything, "admin@example.com").Return(nil, repo.ErrNotFound).Once()
	users.On("Create", mock.Anything, mock.MatchedBy(func(u *model.User) bool {
		return u.Role == model.RoleAdmin && u.Email == "admin@example.com"
	})).Return(nil).Once()

	created, err := uc.EnsureAdmin(context.Background(), "admin@example.com", "admin-password")
	require.NoError(t, err)
	assert.True(t, created)

	// 2回目は何もしない
	users.On("FindByEmail", mock.Anything, "admin@example.com").Return(&model.User{ID: 1, Role: model.RoleAdmin}, nil).Once()
	created, err = uc.EnsureAdmin(context.Background(), "admin@example.com", "admin-password")
	require.NoError(t, err)
	assert.False(t, created)

	// 一般ユーザーを勝手に昇格しない
	users.On("FindByEmail", mock.Anything, "user@example.com").Return(&model.User{ID: 2, Role: model.RoleUser}, nil)
	_, err = uc.EnsureAdmin(context.Background(), "user@example.com", "admin-password")
	assert.ErrorIs(t, err, usecase.ErrConflict)

	users.AssertNumberOfCalls(t, "Create", 1)
}
