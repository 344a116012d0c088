package usecase

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"restaurant/internal/domain/model"
	"restaurant/internal/repository"

	"github.com/golang-jwt/jwt/v4"
	"golang.org/x/crypto/bcrypt"
)

var (
	//400 入力不足
	ErrValidation = errors.New("validation error")
	//401 認証失敗
	ErrUnauthorized = errors.New("unauthorized")
	//403　権限
	ErrForbidden = errors.New("forbidden")
	//409 email重複
	ErrConflict = errors.New("conflict")
	//404
	ErrNotFound = errors.New("not found")
	//500
	ErrInternal = errors.New("internal error")
)

// usecaseがValidatorInterfaceに依存する約束
type AuthValidator interface {
	ValidateRegister(ctx context.Context, email string, password string, name string) error
	ValidateLogin(ctx context.Context, email string, password string) error
	ValidateForceLogout(ctx context.Context, actorUserID int64, targetUserID int64) error
}

type UserDTO struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Role         string `json:"role"`
	TokenVersion int    `json:"token_version"`
	IsActive     bool   `json:"is_active"`
}

type JwtAccessTokenDTO struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	TokenVersion int    `json:"token_version"`
}

type AuthRegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

type AuthRegisterResponse struct {
	User UserDTO `json:"user"`
}

type AuthLoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthLoginResponse struct {
	User  UserDTO           `json:"user"`
	Token JwtAccessTokenDTO `json:"token"`
}

type ForceLogoutResponse struct {
	UserID          int64 `json:"user_id"`
	NewTokenVersion int   `json:"new_token_version"`
}

type AuthUsecase struct {
	secret     []byte
	accessTTL  time.Duration
	bcryptCost int
	users      repository.UserRepository
	auditRepo  repository.AuditLogRepository
	validator  AuthValidator
	now        func() time.Time
}

func NewAuthUsecase(
	jwtSecret string,
	accessTTL time.Duration,
	users repository.UserRepository,
	auditRepo repository.AuditLogRepository,
	validator AuthValidator,
) *AuthUsecase {
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	return &AuthUsecase{
		secret:     []byte(jwtSecret),
		accessTTL:  accessTTL,
		bcryptCost: bcrypt.DefaultCost,
		users:      users,
		auditRepo:  auditRepo,
		validator:  validator,
		now:        time.Now,
	}
}

// テストで bcrypt を軽くする
func (u *AuthUsecase) WithBcryptCost(cost int) *AuthUsecase {
	u.bcryptCost = cost
	return u
}

func (u *AuthUsecase) Register(ctx context.Context, req AuthRegisterRequest) (*AuthRegisterResponse, error) {
	req.Email = normalizeEmail(req.Email)
	req.Name = strings.TrimSpace(req.Name)

	//入力検証（validatorに寄せる）
	if err := u.validator.ValidateRegister(ctx, req.Email, req.Password, req.Name); err != nil {
		return nil, err
	}

	user, err := u.createUser(ctx, req.Email, req.Password, req.Name, model.RoleUser)
	if err != nil {
		return nil, err
	}

	return &AuthRegisterResponse{User: toUserDTO(user)}, nil
}

func (u *AuthUsecase) createUser(ctx context.Context, email, password, name string, role model.Role) (*model.User, error) {
	//パスワードは必ずハッシュ化して保存（平文保存しない）
	pwHash, err := bcrypt.GenerateFromPassword([]byte(password), u.bcryptCost)
	if err != nil {
		return nil, ErrInternal
	}

	user := &model.User{
		Name:         name,
		Email:        email,
		PasswordHash: string(pwHash),
		Role:         role,
		TokenVersion: 0,
		IsActive:     true,
	}

	if err := u.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrConflict
		}
		return nil, ErrInternal
	}
	return user, nil
}

func (u *AuthUsecase) Login(ctx context.Context, req AuthLoginRequest) (*AuthLoginResponse, error) {
	req.Email = normalizeEmail(req.Email)

	if err := u.validator.ValidateLogin(ctx, req.Email, req.Password); err != nil {
		return nil, err
	}

	//ユーザー取得
	user, err := u.users.FindByEmail(ctx, req.Email)
	if errors.Is(err, repository.ErrNotFound) || (err == nil && user == nil) {
		return nil, ErrUnauthorized
	}
	if err != nil {
		return nil, ErrInternal
	}

	//パスワード照合（bcrypt）
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrUnauthorized
	}

	//停止ユーザーはログイン不可
	if !user.IsActive {
		return nil, ErrForbidden
	}

	//last_login更新（失敗してもログインは通す）
	now := u.now()
	user.LastLoginAt = &now
	_ = u.users.Update(ctx, user)

	accessToken, expiresIn, err := u.issueAccessToken(user, now)
	if err != nil {
		return nil, ErrInternal
	}

	return &AuthLoginResponse{
		User: toUserDTO(user),
		Token: JwtAccessTokenDTO{
			AccessToken:  accessToken,
			TokenType:    "Bearer",
			ExpiresIn:    expiresIn,
			TokenVersion: user.TokenVersion,
		},
	}, nil
}

func (u *AuthUsecase) Me(ctx context.Context, userID int64) (*UserDTO, error) {
	if userID <= 0 {
		return nil, ErrUnauthorized
	}

	user, err := u.users.FindByID(ctx, userID)
	if err != nil || user == nil {
		return nil, ErrUnauthorized
	}

	if !user.IsActive {
		return nil, ErrForbidden
	}

	dto := toUserDTO(user)
	return &dto, nil
}

// token_versionを上げて、発行済みのアクセストークンを全部無効にする
func (u *AuthUsecase) ForceLogout(ctx context.Context, actorUserID int64, targetUserID int64) (*ForceLogoutResponse, error) {
	if err := u.validator.ValidateForceLogout(ctx, actorUserID, targetUserID); err != nil {
		return nil, err
	}

	before, err := u.users.FindByID(ctx, targetUserID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil || before == nil {
		return nil, ErrInternal
	}

	if err := u.users.IncrementTokenVersion(ctx, targetUserID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, ErrInternal
	}

	//更新後を取得してnew_token_versionを返す
	user, err := u.users.FindByID(ctx, targetUserID)
	if err != nil || user == nil {
		return nil, ErrInternal
	}

	if err := u.auditRepo.Create(ctx, model.AuditLog{
		ActorUserID:  actorUserID,
		Action:       model.AuditActionForceLogout,
		ResourceType: model.AuditResourceUser,
		ResourceID:   targetUserID,
		BeforeJSON:   `{"token_version":` + strconv.Itoa(before.TokenVersion) + `}`,
		AfterJSON:    `{"token_version":` + strconv.Itoa(user.TokenVersion) + `}`,
		CreatedAt:    u.now(),
	}); err != nil {
		return nil, ErrInternal
	}

	return &ForceLogoutResponse{
		UserID:          user.ID,
		NewTokenVersion: user.TokenVersion,
	}, nil
}

// EnsureAdmin は起動時に管理者が無ければ作る。既にいれば何もしない。
// 既存ユーザーがUSERなら昇格はしない（エラー）。
func (u *AuthUsecase) EnsureAdmin(ctx context.Context, email string, password string) (created bool, err error) {
	email = normalizeEmail(email)
	if email == "" || len(password) < 8 {
		return false, ErrValidation
	}

	existing, err := u.users.FindByEmail(ctx, email)
	if err == nil && existing != nil {
		if existing.Role != model.RoleAdmin {
			return false, ErrConflict
		}
		return false, nil
	}
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return false, ErrInternal
	}

	if _, err := u.createUser(ctx, email, password, "admin", model.RoleAdmin); err != nil {
		return false, err
	}
	return true, nil
}

// jwt発行
func (u *AuthUsecase) issueAccessToken(user *model.User, now time.Time) (string, int, error) {
	exp := now.Add(u.accessTTL)

	claims := jwt.MapClaims{
		"sub":  strconv.FormatInt(user.ID, 10),
		"role": string(user.Role),
		"tv":   user.TokenVersion,
		"iat":  now.Unix(),
		"exp":  exp.Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)

	signed, err := t.SignedString(u.secret)
	if err != nil {
		return "", 0, err
	}

	return signed, int(u.accessTTL.Seconds()), nil
}

// AuthErrorStatus は auth系のエラーをHTTPステータスにする
func AuthErrorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest, "validation error"
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden, "forbidden"
	case errors.Is(err, ErrConflict):
		return http.StatusConflict, "email already used"
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound, "not found"
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

func normalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// model.UserをAPI返却用DTOに変換。
func toUserDTO(u *model.User) UserDTO {
	return UserDTO{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		Role:         string(u.Role),
		TokenVersion: u.TokenVersion,
		IsActive:     u.IsActive,
	}
}
